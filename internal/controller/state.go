package controller

import (
	"github.com/lcalzada-xor/wifimodectl/internal/bus"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// defaultState is the Controller's root (§4.4 "Default (parent of all
// others)"): airplane toggling (when it applies), emergency entry, soft-ap
// set/stop, recovery, and ap-stopped fall through to it from every leaf
// that doesn't have its own special case.
type defaultState struct {
	bus.BaseState
	c *Controller
}

func (s *defaultState) Name() string { return "Default" }

func (s *defaultState) Handle(msg bus.Message) bus.HandleResult {
	s.c.applyPolicyUpdate(msg)
	switch msg.Kind {
	case msgAirplaneToggled:
		if s.c.airplaneOn {
			s.c.warden.ShutdownWifi()
			s.c.transitionTo(s.c.staDisabled)
			return bus.Handled
		}
		s.c.transitionToPostState()
		return bus.Handled

	case msgApStopped:
		s.c.transitionToPostState()
		return bus.Handled

	case msgSetAp:
		req := msg.Payload.(setApRequest)
		if req.enable {
			s.c.warden.StartSoftAp(req.config)
		} else {
			s.c.warden.StopSoftAp(req.purpose)
		}
		return bus.Handled

	case msgEmergencyOn:
		s.c.emergencyDepth++
		if s.c.emergencyDepth == 1 {
			s.c.transitionTo(s.c.emergency)
		}
		return bus.Handled

	case msgRecoveryRestart:
		s.c.warden.ShutdownWifi()
		s.c.transitionTo(s.c.staDisabled)
		return bus.Deferred // replayed at StaDisabled's entry (§4.4 Recovery semantics)

	case msgRecoveryDisable:
		s.c.warden.ShutdownWifi()
		s.c.transitionTo(s.c.staDisabled)
		return bus.Handled

	case msgEmergencyOff:
		return bus.Handled // defensive: depth is already 0 outside Emergency
	}
	return bus.NotHandled
}

// staDisabledState: wifi fully off for STA purposes; soft-ap may still run.
type staDisabledState struct {
	c *Controller
}

func (s *staDisabledState) Name() string      { return "StaDisabled" }
func (s *staDisabledState) Parent() bus.State { return s.c.base }
func (s *staDisabledState) Enter()            { s.c.warden.DisableWifi() }
func (s *staDisabledState) Exit()             {}

func (s *staDisabledState) Handle(msg bus.Message) bus.HandleResult {
	s.c.applyPolicyUpdate(msg)
	switch msg.Kind {
	case msgWifiToggled:
		if s.c.wifiOn {
			s.c.transitionTo(s.c.staEnabled)
		} else if s.c.scanOnlyAvailable() && s.c.airplaneOn {
			s.c.transitionTo(s.c.staDisabledWithScan)
		}
		return bus.Handled
	case msgAirplaneToggled:
		return bus.NotHandled // Default decides (§4.4 table)
	case msgScanAlwaysChanged:
		if s.c.scanOnlyAvailable() {
			s.c.transitionTo(s.c.staDisabledWithScan)
		}
		return bus.Handled
	case msgRecoveryRestart:
		// Replayed copy of a RecoveryRestart deferred by Default on entry
		// into this very state: the row the spec calls
		// "DeferredRecoveryRestart" is this message, redelivered.
		s.c.dispatcher.SendDelayed(bus.Message{Kind: msgRecoveryRestartContinue}, s.c.recoveryDelay)
		return bus.Handled
	case msgRecoveryRestartContinue:
		s.c.transitionTo(s.c.postActiveState())
		return bus.Handled
	case msgStaStartFailure, msgStaStopped, msgScanningStopped:
		return bus.Handled // no-op; nothing is active here
	}
	return bus.NotHandled
}

// staEnabledState: client mode intended.
type staEnabledState struct {
	c *Controller
}

func (s *staEnabledState) Name() string      { return "StaEnabled" }
func (s *staEnabledState) Parent() bus.State { return s.c.base }
func (s *staEnabledState) Enter()            { s.c.warden.EnterClientMode() }
func (s *staEnabledState) Exit()             {}

func (s *staEnabledState) Handle(msg bus.Message) bus.HandleResult {
	s.c.applyPolicyUpdate(msg)
	switch msg.Kind {
	case msgWifiToggled:
		if !s.c.wifiOn {
			if s.c.scanOnlyAvailable() {
				s.c.transitionTo(s.c.staDisabledWithScan)
			} else {
				s.c.transitionTo(s.c.staDisabled)
			}
		}
		return bus.Handled
	case msgAirplaneToggled:
		if s.c.airplaneOn {
			return bus.NotHandled // Default shuts everything down
		}
		return bus.Handled // airplane cleared while intentionally on: no-op
	case msgScanAlwaysChanged:
		return bus.Handled // no-op; doesn't affect an already-active client
	case msgApStopped:
		// Intentionally not re-evaluated here (§9 design notes, open question 3).
		return bus.Handled
	case msgStaStartFailure:
		if s.c.scanOnlyAvailable() {
			s.c.transitionTo(s.c.staDisabledWithScan)
		} else {
			s.c.transitionTo(s.c.staDisabled)
		}
		return bus.Handled
	case msgStaStopped:
		s.c.transitionTo(s.c.staDisabled)
		return bus.Handled
	case msgRecoveryRestart:
		reason := msg.Payload.(modes.RecoveryReason)
		if reason != modes.ReasonLastResortWatchdog {
			s.c.takeBugReport(reason)
		}
		return bus.NotHandled // falls through to Default's shutdown+defer
	}
	return bus.NotHandled
}

// staDisabledWithScanState: scan-only intended.
type staDisabledWithScanState struct {
	c *Controller
}

func (s *staDisabledWithScanState) Name() string      { return "StaDisabledWithScan" }
func (s *staDisabledWithScanState) Parent() bus.State { return s.c.base }
func (s *staDisabledWithScanState) Enter()            { s.c.warden.EnterScanOnlyMode() }
func (s *staDisabledWithScanState) Exit()             {}

func (s *staDisabledWithScanState) Handle(msg bus.Message) bus.HandleResult {
	s.c.applyPolicyUpdate(msg)
	switch msg.Kind {
	case msgWifiToggled:
		if s.c.wifiOn {
			s.c.transitionTo(s.c.staEnabled)
		}
		return bus.Handled
	case msgAirplaneToggled:
		return bus.NotHandled
	case msgScanAlwaysChanged:
		if !s.c.scanOnlyAvailable() {
			s.c.transitionTo(s.c.staDisabled)
		}
		return bus.Handled
	case msgScanningStopped:
		s.c.transitionTo(s.c.staDisabled)
		return bus.Handled
	case msgApStopped:
		// Intentionally not re-evaluated here (§9 design notes, open question 3).
		return bus.Handled
	case msgStaStartFailure, msgStaStopped:
		return bus.Handled
	}
	return bus.NotHandled
}

// emergencyState: all STA/AP activity inhibited while emergencyDepth > 0
// (§8 invariant 5).
type emergencyState struct {
	c *Controller
}

func (s *emergencyState) Name() string      { return "Emergency" }
func (s *emergencyState) Parent() bus.State { return s.c.base }

func (s *emergencyState) Enter() {
	s.c.warden.StopSoftAp(modes.PurposeUnspecified)
	if s.c.disableWifiInEmergency {
		s.c.warden.ShutdownWifi()
	}
	s.c.emergencyDepth = 1
}
func (s *emergencyState) Exit() {}

func (s *emergencyState) Handle(msg bus.Message) bus.HandleResult {
	s.c.applyPolicyUpdate(msg)
	switch msg.Kind {
	case msgEmergencyOn:
		s.c.emergencyDepth++
		return bus.Handled
	case msgEmergencyOff:
		s.c.emergencyDepth--
		if s.c.emergencyDepth < 0 {
			s.c.emergencyDepth = 0
		}
		if s.c.emergencyDepth <= 0 {
			s.c.transitionTo(s.c.postActiveState())
		}
		return bus.Handled
	case msgWifiToggled, msgScanAlwaysChanged, msgSetAp, msgAirplaneToggled:
		return bus.Handled // consumed, no-op (§4.4 table); airplane must not fall through to
		// Default while emergencyDepth > 0, or Default's ShutdownWifi+transitionTo(staDisabled)
		// leaves Emergency with no way to clear depth back to 0
	case msgStaStartFailure, msgStaStopped, msgScanningStopped:
		return bus.Handled
	case msgRecoveryRestart, msgRecoveryDisable:
		return bus.Handled // suppressed while in Emergency (§4.4 Recovery semantics)
	case msgApStopped:
		return bus.Handled
	}
	return bus.NotHandled
}
