// Package warden implements the inner tier of the two-tier orchestrator
// (§4.3): it owns the live set of mode managers, drives their activation and
// teardown through an internal mini state-machine, reconciles manager
// readiness with the Controller-facing view, and aggregates the
// cross-mode side effects (scan enablement, battery accounting).
package warden

import (
	"log"

	"github.com/lcalzada-xor/wifimodectl/internal/bus"
	"github.com/lcalzada-xor/wifimodectl/internal/collab"
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
	"github.com/lcalzada-xor/wifimodectl/internal/telemetry"
)

// managerEntry binds an owned ModeManager to the listener it was spawned
// with, keyed by the manager's ID in Warden.active. Removing the entry
// before a manager's terminal callback is observed is what makes a
// subsequently-arriving callback stale (§4.3 "Listener freshness").
type managerEntry struct {
	mgr      manager.ModeManager
	listener *managerListener
}

// Warden is the inner tier of the orchestrator. All of its fields below are
// touched only from its own dispatcher goroutine; nothing here is
// protected by a mutex because nothing outside that goroutine ever reaches
// in (§5 "activeManagers is mutated only by the Warden's dispatcher").
type Warden struct {
	dispatcher *bus.Dispatcher
	factory    manager.Factory

	controller   collab.ControllerListener
	scanSink     collab.ScanSink
	batterySink  collab.BatterySink
	diagSink     collab.DiagnosticSink
	recoverySink collab.RecoverySink // late-bound; may be nil until SetRecoverySink

	active map[string]*managerEntry // by manager ID; all active managers, Client/ScanOnly/SoftAp alike

	slotID string // ID of the active Client or ScanOnly manager, "" if none

	lastScanEnabled   bool
	lastHiddenEnabled bool
	scanEverEmitted   bool

	base           *baseState
	wifiDisabled   *wifiDisabledState
	clientActive   *clientActiveState
	scanOnlyActive *scanOnlyActiveState
}

// New constructs a Warden in the WifiDisabled slot (§4.4 StaDisabled.enter
// calls disableWifi(), which is already satisfied by this initial state).
func New(factory manager.Factory, controller collab.ControllerListener, scanSink collab.ScanSink, batterySink collab.BatterySink, diagSink collab.DiagnosticSink) *Warden {
	w := &Warden{
		factory:     factory,
		controller:  controller,
		scanSink:    scanSink,
		batterySink: batterySink,
		diagSink:    diagSink,
		active:      make(map[string]*managerEntry),
	}
	w.base = &baseState{w: w}
	w.wifiDisabled = &wifiDisabledState{w: w}
	w.clientActive = &clientActiveState{w: w}
	w.scanOnlyActive = &scanOnlyActiveState{w: w}

	w.dispatcher = bus.NewDispatcher("warden", w.wifiDisabled)
	w.dispatcher.OnQueueDepth = func(depth int) { telemetry.QueueDepth.WithLabelValues("warden").Set(float64(depth)) }
	return w
}

// SetRecoverySink attaches the recovery collaborator after construction
// (§9 "Cyclic dependency (Warden ↔ Recovery)"): the Warden is built before
// its recovery counterpart exists, so wiring happens via this one-shot
// setter rather than a constructor argument, grounded on the teacher's
// AttackCoordinator.SetDeauthEngine.
func (w *Warden) SetRecoverySink(sink collab.RecoverySink) { w.recoverySink = sink }

// Start begins processing; call once, before any operation below.
func (w *Warden) Start() { w.dispatcher.Start() }

// EnterClientMode transitions the internal mini-FSM to ClientActive (§4.3).
func (w *Warden) EnterClientMode() { w.dispatcher.Send(bus.Message{Kind: msgEnterClient}) }

// EnterScanOnlyMode transitions the internal mini-FSM to ScanOnlyActive.
func (w *Warden) EnterScanOnlyMode() { w.dispatcher.Send(bus.Message{Kind: msgEnterScanOnly}) }

// DisableWifi transitions the internal mini-FSM to WifiDisabled.
func (w *Warden) DisableWifi() { w.dispatcher.Send(bus.Message{Kind: msgDisableWifi}) }

// StartSoftAp spawns an additional SoftAp manager; it never affects the
// Client/ScanOnly slot (§4.3).
func (w *Warden) StartSoftAp(config manager.SoftApConfig) {
	w.dispatcher.Send(bus.Message{Kind: msgStartSoftAp, Payload: config})
}

// StopSoftAp signals every SoftAp manager whose purpose matches; purpose ==
// modes.PurposeUnspecified stops all of them (§4.3, §7 "Invalid input").
func (w *Warden) StopSoftAp(purpose modes.Purpose) {
	w.dispatcher.Send(bus.Message{Kind: msgStopSoftAp, Arg1: int(purpose)})
}

// ShutdownWifi signals stop to every active manager: the Client/ScanOnly
// slot (by forcing the mini-FSM back to WifiDisabled) and every SoftAp
// instance regardless of purpose (§4.3).
func (w *Warden) ShutdownWifi() { w.dispatcher.Send(bus.Message{Kind: msgShutdownWifi}) }

// NotifyDaemonFailure is the entrypoint for the radio collaborator's
// catastrophic failure signal (§4.3 Failure, §7 "Underlying daemon death").
func (w *Warden) NotifyDaemonFailure(reason modes.RecoveryReason) {
	w.dispatcher.Send(bus.Message{Kind: msgDaemonFailure, Arg1: int(reason)})
}

// --- handlers, all run on the dispatcher goroutine ---

// newListener and newManagerListener are two-step because a Listener must
// be passed into the factory before the manager it describes exists; the
// listener's id is only known once the manager reports it, so it's filled
// in immediately after construction, still on the dispatcher goroutine and
// before Start() can produce any callback.
func newListener(d *bus.Dispatcher) *managerListener { return newManagerListener(d, "") }

func (w *Warden) spawnClient() {
	l := newListener(w.dispatcher)
	mgr := w.factory.MakeClient(l)
	l.id = mgr.ID()
	w.addManager(mgr, l)
	w.slotID = mgr.ID()
	mgr.Start()
}

func (w *Warden) spawnScanOnly() {
	l := newListener(w.dispatcher)
	mgr := w.factory.MakeScanOnly(l)
	l.id = mgr.ID()
	w.addManager(mgr, l)
	w.slotID = mgr.ID()
	mgr.Start()
}

func (w *Warden) addManager(mgr manager.ModeManager, l *managerListener) {
	before := len(w.active)
	w.active[mgr.ID()] = &managerEntry{mgr: mgr, listener: l}
	if before == 0 && len(w.active) == 1 {
		w.batterySink.BatteryOn()
		telemetry.BatteryEdges.WithLabelValues("on").Inc()
	}
}

func (w *Warden) removeManager(id string) {
	if _, ok := w.active[id]; !ok {
		return
	}
	before := len(w.active)
	delete(w.active, id)
	if before > 0 && len(w.active) == 0 {
		w.batterySink.BatteryOff()
		telemetry.BatteryEdges.WithLabelValues("off").Inc()
	}
	if id == w.slotID {
		w.slotID = ""
	}
}

// stopSlotManager is the Exit action shared by clientActiveState and
// scanOnlyActiveState: it stops and immediately forgets the owned manager
// (§4.3 "exiting a state invokes stop() on its owned manager, removes it
// from activeManagers ... immediately"), which is exactly what makes any
// callback the manager later delivers stale.
func (w *Warden) stopSlotManager() {
	id := w.slotID
	if id == "" {
		return
	}
	entry := w.active[id]
	w.removeManager(id)
	if entry != nil {
		entry.mgr.Stop()
	}
	w.recomputeScan()
}

func (w *Warden) handleStartSoftAp(config manager.SoftApConfig) {
	if config.Purpose != modes.PurposeTethered && config.Purpose != modes.PurposeLocalOnly {
		log.Printf("warden: rejecting softAp request with invalid purpose %s", config.Purpose)
		return
	}
	l := newListener(w.dispatcher)
	mgr := w.factory.MakeSoftAp(l, config)
	l.id = mgr.ID()
	w.addManager(mgr, l)
	mgr.Start()
}

func (w *Warden) handleStopSoftAp(purpose modes.Purpose) {
	var toStop []string
	for id, entry := range w.active {
		if entry.mgr.Mode() != modes.SoftAp {
			continue
		}
		if purpose != modes.PurposeUnspecified && entry.mgr.Purpose() != purpose {
			continue
		}
		toStop = append(toStop, id)
	}
	for _, id := range toStop {
		entry := w.active[id]
		w.removeManager(id)
		entry.mgr.Stop()
	}
	w.recomputeScan()
}

func (w *Warden) handleShutdownWifi() {
	w.dispatcher.TransitionTo(w.wifiDisabled)
	w.handleStopSoftAp(modes.PurposeUnspecified)
}

func (w *Warden) handleManagerCallback(cb managerCallback, listener any) {
	entry, ok := w.active[cb.id]
	if !ok || entry.listener != listener {
		return // stale: orphaned listener or already-removed manager (§7 "Stale callback")
	}

	switch cb.readiness {
	case modes.Ready:
		w.reportState(entry.mgr, modes.StateReady)
	case modes.Stopped:
		w.removeManager(cb.id)
		w.reportState(entry.mgr, modes.StateDisabled)
	case modes.Failed:
		w.removeManager(cb.id)
		w.reportState(entry.mgr, modes.StateUnknown)
	default:
		return // Starting/Stopping carry no upward notification
	}
	w.recomputeScan()
}

func (w *Warden) reportState(mgr manager.ModeManager, state modes.ManagerState) {
	switch mgr.Mode() {
	case modes.Client:
		w.controller.ClientModeState(state)
	case modes.ScanOnly:
		w.controller.ScanOnlyState(state)
	case modes.SoftAp:
		w.controller.SoftApState(mgr.Purpose(), state)
	}
	if state == modes.StateUnknown {
		telemetry.ManagerFailures.WithLabelValues(mgr.Mode().String()).Inc()
	}
}

func (w *Warden) handleDaemonFailure(reason modes.RecoveryReason) {
	telemetry.RecoveryTriggers.WithLabelValues(reason.String()).Inc()
	w.diagSink.DiagnosticCapture(reason)
	if w.recoverySink != nil {
		w.recoverySink.RecoveryTrigger(reason)
	} else {
		log.Printf("warden: daemon failure (%s) with no recovery collaborator attached", reason)
	}
}

// recomputeScan implements §4.3 "Aggregate scan enablement": emitted
// at-least-once per state change and idempotent under an unchanged value.
func (w *Warden) recomputeScan() {
	scanEnabled := false
	hiddenEnabled := false
	scanOnlyReady := false
	for _, entry := range w.active {
		switch entry.mgr.ScanContribution() {
		case modes.ScanWithHidden:
			scanEnabled, hiddenEnabled = true, true
		case modes.ScanWithoutHidden:
			scanEnabled = true
		}
		if entry.mgr.Mode() == modes.ScanOnly && entry.mgr.Readiness() == modes.Ready {
			scanOnlyReady = true
		}
	}

	if !w.scanEverEmitted || scanEnabled != w.lastScanEnabled || hiddenEnabled != w.lastHiddenEnabled {
		w.scanSink.ScanEnablement(scanEnabled, hiddenEnabled)
		w.lastScanEnabled, w.lastHiddenEnabled = scanEnabled, hiddenEnabled
		w.scanEverEmitted = true
		telemetry.ScanEnabled.Set(boolToGauge(scanEnabled))
	}

	// Scanning while no Client manager is Ready is the case the accounting
	// collaborator distinguishes from ordinary client-mode battery draw.
	if scanOnlyReady {
		w.batterySink.ScanModeActive()
	}
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
