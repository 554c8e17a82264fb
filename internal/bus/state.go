package bus

// State is one node of a hierarchical state machine hosted by a Dispatcher.
// A state with no parent sits at the root of the hierarchy (the spec's
// "Default" state is the terminal fallback: a NotHandled from a root state
// goes to the dispatcher's OnUnhandled hook). Enter/Exit run on the leaf state only; the dispatcher never
// walks the hierarchy for them, only for Handle (§9 design notes).
type State interface {
	Name() string
	Enter()
	Exit()
	Handle(msg Message) HandleResult
	Parent() State
}

// BaseState gives concrete states no-op Enter/Exit/Parent so they only need
// to implement the methods they care about, matching how the teacher's
// worker types (ChannelHopper, SnifferManager) only override what differs
// from a zero-value default.
type BaseState struct{}

func (BaseState) Enter()       {}
func (BaseState) Exit()        {}
func (BaseState) Parent() State { return nil }
