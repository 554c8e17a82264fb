package warden

import (
	"github.com/lcalzada-xor/wifimodectl/internal/bus"
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// baseState is the Warden's root (§4.3 "Internal FSM"): it carries every
// operation that isn't one of the three mutually-exclusive Client/ScanOnly/
// WifiDisabled slots, so the three leaf states only need to arbitrate among
// themselves. Grounded on the teacher's ChannelHopper base-state pattern of
// a shared parent handling the messages common to every leaf.
type baseState struct {
	bus.BaseState
	w *Warden
}

func (s *baseState) Name() string { return "Base" }

func (s *baseState) Handle(msg bus.Message) bus.HandleResult {
	switch msg.Kind {
	case msgStartSoftAp:
		s.w.handleStartSoftAp(msg.Payload.(manager.SoftApConfig))
		return bus.Handled
	case msgStopSoftAp:
		s.w.handleStopSoftAp(modes.Purpose(msg.Arg1))
		return bus.Handled
	case msgShutdownWifi:
		s.w.handleShutdownWifi()
		return bus.Handled
	case msgManagerCallback:
		s.w.handleManagerCallback(msg.Payload.(managerCallback), msg.Listener)
		return bus.Handled
	case msgDaemonFailure:
		s.w.handleDaemonFailure(modes.RecoveryReason(msg.Arg1))
		return bus.Handled
	}
	return bus.NotHandled
}

// wifiDisabledState is the leaf held while no Client or ScanOnly manager is
// owned (§4.3 "WifiDisabled").
type wifiDisabledState struct {
	w *Warden
}

func (s *wifiDisabledState) Name() string   { return "WifiDisabled" }
func (s *wifiDisabledState) Enter()         {}
func (s *wifiDisabledState) Exit()          {}
func (s *wifiDisabledState) Parent() bus.State { return s.w.base }

func (s *wifiDisabledState) Handle(msg bus.Message) bus.HandleResult {
	switch msg.Kind {
	case msgEnterClient:
		s.w.dispatcher.TransitionTo(s.w.clientActive)
		return bus.Handled
	case msgEnterScanOnly:
		s.w.dispatcher.TransitionTo(s.w.scanOnlyActive)
		return bus.Handled
	case msgDisableWifi:
		return bus.Handled // already disabled; no-op
	}
	return bus.NotHandled
}

// clientActiveState owns exactly one Client manager for its lifetime
// (§3 "At most one Client ModeManager exists").
type clientActiveState struct {
	w *Warden
}

func (s *clientActiveState) Name() string      { return "ClientActive" }
func (s *clientActiveState) Parent() bus.State { return s.w.base }

func (s *clientActiveState) Enter() { s.w.spawnClient() }
func (s *clientActiveState) Exit()  { s.w.stopSlotManager() }

func (s *clientActiveState) Handle(msg bus.Message) bus.HandleResult {
	switch msg.Kind {
	case msgEnterClient:
		return bus.Handled // already active; no-op
	case msgEnterScanOnly:
		s.w.dispatcher.TransitionTo(s.w.scanOnlyActive)
		return bus.Handled
	case msgDisableWifi:
		s.w.dispatcher.TransitionTo(s.w.wifiDisabled)
		return bus.Handled
	}
	return bus.NotHandled
}

// scanOnlyActiveState owns exactly one ScanOnly manager for its lifetime.
type scanOnlyActiveState struct {
	w *Warden
}

func (s *scanOnlyActiveState) Name() string      { return "ScanOnlyActive" }
func (s *scanOnlyActiveState) Parent() bus.State { return s.w.base }

func (s *scanOnlyActiveState) Enter() { s.w.spawnScanOnly() }
func (s *scanOnlyActiveState) Exit()  { s.w.stopSlotManager() }

func (s *scanOnlyActiveState) Handle(msg bus.Message) bus.HandleResult {
	switch msg.Kind {
	case msgEnterScanOnly:
		return bus.Handled // already active; no-op
	case msgEnterClient:
		s.w.dispatcher.TransitionTo(s.w.clientActive)
		return bus.Handled
	case msgDisableWifi:
		s.w.dispatcher.TransitionTo(s.w.wifiDisabled)
		return bus.Handled
	}
	return bus.NotHandled
}
