package bus

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Dispatcher is a single-threaded cooperative event-bus runner (§4.1, §5):
// every message is handled to completion by one goroutine before the next is
// delivered. Producers on other goroutines may only enqueue; they never
// touch state.
type Dispatcher struct {
	name string

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Message
	deferred []Message
	closed   bool

	current State
	pending State

	recent *recentLog

	// OnQueueDepth, if set, is invoked (outside the dispatcher's lock) after
	// every Send and every dequeue with the new queue length (the replay of
	// deferred messages on a transition does not report), so callers can wire a
	// metrics gauge without the bus package depending on telemetry.
	OnQueueDepth func(depth int)
	// OnUnhandled is invoked when a message reaches the root state
	// unhandled. Debug builds should panic here; release builds log and
	// drop (§4.1 Failure).
	OnUnhandled func(msg Message, debug bool)
	// Debug toggles OnUnhandled's fatal-assertion behavior.
	Debug bool
}

// NewDispatcher creates a Dispatcher rooted at initial. Call Start to begin
// processing; initial.Enter() runs as part of Start.
func NewDispatcher(name string, initial State) *Dispatcher {
	d := &Dispatcher{
		name:    name,
		current: initial,
		recent:  newRecentLog(100),
	}
	d.cond = sync.NewCond(&d.mu)
	d.OnUnhandled = defaultOnUnhandled
	return d
}

func defaultOnUnhandled(msg Message, debug bool) {
	if debug {
		panic(fmt.Sprintf("unhandled message kind=%d in terminal default state", msg.Kind))
	}
	log.Printf("bus: dropped unhandled message kind=%d", msg.Kind)
}

// Start runs initial.Enter() and begins the processing loop on a new
// goroutine. It returns once the initial entry action has run, so a caller
// can safely Send() immediately after Start returns.
func (d *Dispatcher) Start() {
	d.current.Enter()
	go d.run()
}

// Stop marks the dispatcher closed: the processing goroutine keeps handling
// whatever is already queued and exits once the queue is empty.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
}

// Send enqueues msg at the tail (§4.1 send).
func (d *Dispatcher) Send(msg Message) {
	d.mu.Lock()
	d.queue = append(d.queue, msg)
	depth := len(d.queue)
	d.mu.Unlock()
	d.cond.Signal()
	if d.OnQueueDepth != nil {
		d.OnQueueDepth(depth)
	}
}

// SendDelayed enqueues msg after at least delay has elapsed (§4.1 sendDelayed).
func (d *Dispatcher) SendDelayed(msg Message, delay time.Duration) {
	if delay <= 0 {
		d.Send(msg)
		return
	}
	time.AfterFunc(delay, func() { d.Send(msg) })
}

// TransitionTo schedules a transition to take effect once the currently
// executing Handle call returns (§4.1 transitionTo). It must only be called
// from within a State.Handle implementation running on this dispatcher's own
// goroutine.
func (d *Dispatcher) TransitionTo(next State) {
	d.pending = next
}

// CurrentState returns the dispatcher's current leaf state. Safe to call
// from any goroutine for diagnostics/tests, though the value may change
// immediately after the call returns.
func (d *Dispatcher) CurrentState() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Recent returns a snapshot of the last handled messages, most recent last.
func (d *Dispatcher) Recent() []Message {
	return d.recent.snapshot()
}

func (d *Dispatcher) run() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		msg := d.queue[0]
		d.queue = d.queue[1:]
		depth := len(d.queue)
		d.mu.Unlock()
		if d.OnQueueDepth != nil {
			d.OnQueueDepth(depth)
		}

		d.dispatch(msg)
	}
}

func (d *Dispatcher) dispatch(msg Message) {
	d.recent.record(msg)

	consumed := false
	for st := d.current; st != nil; st = st.Parent() {
		switch st.Handle(msg) {
		case Handled:
			consumed = true
		case Deferred:
			d.deferred = append(d.deferred, msg)
			consumed = true
		case NotHandled:
			continue
		}
		break
	}
	if !consumed {
		d.OnUnhandled(msg, d.Debug)
	}

	d.applyPendingTransition()
}

// applyPendingTransition performs a scheduled TransitionTo (§4.1), including
// replaying deferred messages in original order before the next message is
// delivered (§4.1, §5 ordering guarantees).
func (d *Dispatcher) applyPendingTransition() {
	if d.pending == nil {
		return
	}
	next := d.pending
	d.pending = nil

	d.current.Exit()
	d.mu.Lock()
	d.current = next
	d.mu.Unlock()
	d.current.Enter()

	if len(d.deferred) > 0 {
		replay := d.deferred
		d.deferred = nil
		d.mu.Lock()
		d.queue = append(append([]Message{}, replay...), d.queue...)
		d.mu.Unlock()
	}
}
