package bus

// Message is the unit the dispatcher moves between states (§3 "Event-bus
// message"). Kind is owned by whichever state machine defines the bus (the
// Controller and the Warden each keep their own small int enum); Arg1/Arg2
// carry small scalars (a wifi/airplane on/off flag, a purpose) and Payload
// carries anything larger (a SoftAp config, a recovery reason). Listener, if
// set, is compared by identity against a state's currently-bound listener to
// implement listener-freshness (§4.3); states that don't need it leave it nil.
type Message struct {
	Kind     int
	Arg1     int
	Arg2     int
	Payload  any
	Listener any
}

// HandleResult is what a State.Handle call tells the dispatcher to do next.
type HandleResult int

const (
	// Handled means the message was consumed; stop walking the parent chain.
	Handled HandleResult = iota
	// NotHandled means the dispatcher should retry at the parent state.
	NotHandled
	// Deferred means the message should be replayed, in order, at the next
	// state's entry (§4.1 defer).
	Deferred
)
