package manager

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// atomicReadiness wraps atomic operations on a modes.Readiness value,
// grounded on the teacher's hopping.AtomicState (int32 CAS + Get/Set).
type atomicReadiness struct {
	v int32
}

func (a *atomicReadiness) set(r modes.Readiness) { atomic.StoreInt32(&a.v, int32(r)) }
func (a *atomicReadiness) get() modes.Readiness  { return modes.Readiness(atomic.LoadInt32(&a.v)) }
func (a *atomicReadiness) compareAndSwap(old, new modes.Readiness) bool {
	return atomic.CompareAndSwapInt32(&a.v, int32(old), int32(new))
}

// worker is the shared implementation behind the Client, ScanOnly, and
// SoftAp managers. It owns one background goroutine per Start/Stop call,
// mirroring how the teacher's SnifferManager spawns a goroutine per sniffer
// and folds its terminal error into a status field instead of panicking or
// returning it up the call stack.
type worker struct {
	id      string
	mode    modes.OperatingMode
	purpose modes.Purpose
	contrib modes.ScanContribution
	driver  RadioDriver

	state atomicReadiness

	mu           sync.Mutex
	listener     Listener
	ctx          context.Context
	cancel       context.CancelFunc
	stopAfterRdy bool
	started      bool
}

func newWorker(mode modes.OperatingMode, purpose modes.Purpose, contrib modes.ScanContribution, driver RadioDriver, listener Listener) *worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		id:      uuid.NewString(),
		mode:    mode,
		purpose: purpose,
		contrib: contrib,
		driver:  driver,
		ctx:     ctx,
		cancel:  cancel,
	}
	w.state.set(modes.Starting)
	w.listener = listener
	return w
}

func (w *worker) ID() string                               { return w.id }
func (w *worker) Mode() modes.OperatingMode                 { return w.mode }
func (w *worker) Purpose() modes.Purpose                    { return w.purpose }
func (w *worker) Readiness() modes.Readiness                { return w.state.get() }
func (w *worker) ScanContribution() modes.ScanContribution {
	if w.state.get() != modes.Ready {
		return modes.ScanNone
	}
	return w.contrib
}

func (w *worker) Subscribe(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = l
}

func (w *worker) notify(r modes.Readiness) {
	w.mu.Lock()
	l := w.listener
	w.mu.Unlock()
	if l != nil {
		l.OnReadinessChanged(w, r)
	}
}

// Start is idempotent: only the first call, made while the worker is still in
// Starting (the state a freshly constructed worker begins in), begins
// activation; later calls return without effect.
func (w *worker) Start() {
	w.mu.Lock()
	already := w.started
	w.started = true
	w.mu.Unlock()
	if already || w.state.get() != modes.Starting {
		return
	}
	go w.runStart()
}

func (w *worker) runStart() {
	ctx, span := otel.Tracer("mode-manager").Start(w.ctx, "ModeManager.Start")
	span.SetAttributes(
		attribute.String("manager.id", w.id),
		attribute.String("manager.mode", w.mode.String()),
		attribute.String("manager.purpose", w.purpose.String()),
	)
	defer span.End()

	err := w.driver.Activate(ctx, w.mode, w.purpose)
	if err != nil {
		if w.state.compareAndSwap(modes.Starting, modes.Failed) {
			log.Printf("manager %s (%s): activation failed: %v", w.id, w.mode, err)
			w.notify(modes.Failed)
		}
		return
	}
	if !w.state.compareAndSwap(modes.Starting, modes.Ready) {
		return
	}
	w.notify(modes.Ready)

	w.mu.Lock()
	shouldStop := w.stopAfterRdy
	w.mu.Unlock()
	if shouldStop {
		w.Stop()
	}
}

// Stop is idempotent. If the worker hasn't reached Ready yet, the stop is
// recorded and applied as soon as activation finishes (§4.2: stop() "must
// asynchronously reach Stopped (or Failed)").
func (w *worker) Stop() {
	for {
		cur := w.state.get()
		switch cur {
		case modes.Starting:
			w.mu.Lock()
			w.stopAfterRdy = true
			w.mu.Unlock()
			return
		case modes.Ready:
			if w.state.compareAndSwap(modes.Ready, modes.Stopping) {
				go w.runStop()
				return
			}
			// lost the race (Stop called concurrently); retry.
		default:
			// Stopping, Stopped, Failed: already terminal or in flight.
			return
		}
	}
}

func (w *worker) runStop() {
	ctx, span := otel.Tracer("mode-manager").Start(w.ctx, "ModeManager.Stop")
	span.SetAttributes(
		attribute.String("manager.id", w.id),
		attribute.String("manager.mode", w.mode.String()),
		attribute.String("manager.purpose", w.purpose.String()),
	)
	defer span.End()

	err := w.driver.Deactivate(ctx, w.mode, w.purpose)
	w.cancel()
	if err != nil {
		if w.state.compareAndSwap(modes.Stopping, modes.Failed) {
			log.Printf("manager %s (%s): deactivation failed: %v", w.id, w.mode, err)
			w.notify(modes.Failed)
		}
		return
	}
	if w.state.compareAndSwap(modes.Stopping, modes.Stopped) {
		w.notify(modes.Stopped)
	}
}
