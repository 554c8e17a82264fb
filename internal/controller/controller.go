// Package controller implements the outer tier of the two-tier orchestrator
// (§4.4): a hierarchical state machine that interprets policy events
// (wifi/airplane/emergency/recovery/soft-ap) and commands the Warden to
// bring up whichever operating mode is currently intended.
package controller

import (
	"log"
	"time"

	"github.com/lcalzada-xor/wifimodectl/internal/bus"
	"github.com/lcalzada-xor/wifimodectl/internal/collab"
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
	"github.com/lcalzada-xor/wifimodectl/internal/telemetry"
)

// Controller is the outer tier of the orchestrator. Like Warden, every
// field below is only ever touched from its own dispatcher goroutine.
type Controller struct {
	dispatcher *bus.Dispatcher
	warden     collab.WardenOps
	diagSink   collab.DiagnosticSink // bug-report capture (§4.4 RecoveryRestart)

	wifiOn      bool
	airplaneOn  bool
	scanAlwaysOn bool
	locationOn  bool

	emergencyDepth int
	recoveryDelay  time.Duration

	disableWifiInEmergency bool

	base                *defaultState
	staDisabled         *staDisabledState
	staEnabled          *staEnabledState
	staDisabledWithScan *staDisabledWithScanState
	emergency           *emergencyState
}

// Config is the subset of startup configuration the Controller needs.
type Config struct {
	ScanAlwaysAvailable    bool
	LocationModeOn         bool
	DisableWifiInEmergency bool
	RecoveryDelayMillis    int // clamped to [0, 4000] by the config loader
}

// New constructs a Controller in its initial state (§4.4 "Initial state:
// StaDisabledWithScan if scanOnlyAvailable at start, else StaDisabled").
func New(cfg Config, warden collab.WardenOps, diagSink collab.DiagnosticSink) *Controller {
	c := &Controller{
		warden:                  warden,
		diagSink:                diagSink,
		scanAlwaysOn:            cfg.ScanAlwaysAvailable,
		locationOn:              cfg.LocationModeOn,
		disableWifiInEmergency:  cfg.DisableWifiInEmergency,
		recoveryDelay:           time.Duration(cfg.RecoveryDelayMillis) * time.Millisecond,
	}
	c.base = &defaultState{c: c}
	c.staDisabled = &staDisabledState{c: c}
	c.staEnabled = &staEnabledState{c: c}
	c.staDisabledWithScan = &staDisabledWithScanState{c: c}
	c.emergency = &emergencyState{c: c}

	initial := bus.State(c.staDisabled)
	if c.scanOnlyAvailable() {
		initial = c.staDisabledWithScan
	}
	c.dispatcher = bus.NewDispatcher("controller", initial)
	c.dispatcher.OnQueueDepth = func(depth int) { telemetry.QueueDepth.WithLabelValues("controller").Set(float64(depth)) }
	return c
}

// Start begins processing, running the initial state's entry action.
func (c *Controller) Start() { c.dispatcher.Start() }

// transitionTo wraps dispatcher.TransitionTo with a transition-count metric;
// every state change in the package should go through it rather than
// calling TransitionTo directly.
func (c *Controller) transitionTo(next bus.State) {
	telemetry.ModeTransitions.WithLabelValues(c.dispatcher.CurrentState().Name(), next.Name()).Inc()
	c.dispatcher.TransitionTo(next)
}

func (c *Controller) scanOnlyAvailable() bool { return c.locationOn && c.scanAlwaysOn }

func (c *Controller) takeBugReport(reason modes.RecoveryReason) {
	if c.diagSink != nil {
		c.diagSink.DiagnosticCapture(reason)
	}
}

// transitionToPostState implements the selection shared by Default's
// airplane-off branch and ApStopped (§4.4 "Post-ApStopped target
// selection"): wifi on wins, then scan-only availability, otherwise the
// Controller stays exactly where it is.
func (c *Controller) transitionToPostState() {
	switch {
	case c.wifiOn:
		c.transitionTo(c.staEnabled)
	case c.scanOnlyAvailable():
		c.transitionTo(c.staDisabledWithScan)
	}
}

// postActiveState implements §4.4 "Post-emergency target selection" and the
// RecoveryRestartContinue selection, both of which always land somewhere
// (no "stay" option, unlike transitionToPostState).
func (c *Controller) postActiveState() bus.State {
	switch {
	case c.wifiOn:
		return c.staEnabled
	case c.scanOnlyAvailable():
		return c.staDisabledWithScan
	default:
		return c.staDisabled
	}
}

// --- inbound events (§6) ---

func (c *Controller) WifiToggled(on bool) {
	c.dispatcher.Send(bus.Message{Kind: msgWifiToggled, Arg1: boolToArg(on)})
}

func (c *Controller) AirplaneToggled(on bool) {
	c.dispatcher.Send(bus.Message{Kind: msgAirplaneToggled, Arg1: boolToArg(on)})
}

func (c *Controller) ScanAlwaysChanged(on bool) {
	c.dispatcher.Send(bus.Message{Kind: msgScanAlwaysChanged, Arg1: boolToArg(on)})
}

func boolToArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *Controller) SetAp(enable bool, purpose modes.Purpose, config manager.SoftApConfig) {
	if enable && purpose != modes.PurposeTethered && purpose != modes.PurposeLocalOnly {
		log.Printf("controller: rejecting setAp with invalid purpose %s", purpose)
		return
	}
	config.Purpose = purpose
	c.dispatcher.Send(bus.Message{Kind: msgSetAp, Payload: setApRequest{enable: enable, purpose: purpose, config: config}})
}

func (c *Controller) EmergencyCallStateChanged(on bool) { c.sendEmergency(on) }
func (c *Controller) EmergencyModeChanged(on bool)      { c.sendEmergency(on) }

func (c *Controller) sendEmergency(on bool) {
	if on {
		c.dispatcher.Send(bus.Message{Kind: msgEmergencyOn})
	} else {
		c.dispatcher.Send(bus.Message{Kind: msgEmergencyOff})
	}
}

func (c *Controller) RecoveryRestart(reason modes.RecoveryReason) {
	c.dispatcher.Send(bus.Message{Kind: msgRecoveryRestart, Payload: reason})
}

func (c *Controller) RecoveryDisable() { c.dispatcher.Send(bus.Message{Kind: msgRecoveryDisable}) }

func (c *Controller) StaStartFailure() { c.dispatcher.Send(bus.Message{Kind: msgStaStartFailure}) }
func (c *Controller) StaStopped()      { c.dispatcher.Send(bus.Message{Kind: msgStaStopped}) }
func (c *Controller) ScanningStopped() { c.dispatcher.Send(bus.Message{Kind: msgScanningStopped}) }
func (c *Controller) ApStopped()       { c.dispatcher.Send(bus.Message{Kind: msgApStopped}) }

// applyPolicyUpdate folds the new value of a toggled policy input into the
// Controller's own snapshot (§3 "Controller policy inputs"). It must run
// before any state's transition logic inspects that field, so every leaf
// calls it first thing in Handle; it is a no-op for message kinds that
// don't carry a policy update.
func (c *Controller) applyPolicyUpdate(msg bus.Message) {
	switch msg.Kind {
	case msgWifiToggled:
		c.wifiOn = msg.Arg1 == 1
	case msgAirplaneToggled:
		c.airplaneOn = msg.Arg1 == 1
	case msgScanAlwaysChanged:
		c.scanAlwaysOn = msg.Arg1 == 1
	}
}
