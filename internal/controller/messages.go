package controller

import (
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// Message kinds carried on the Controller's own dispatcher (§4.4, §6). Each
// corresponds to an inbound event named in §6 (msgEmergencyOn/Off serve both
// the emergency-call and emergency-mode events), plus the internal
// msgRecoveryRestartContinue. The table's DeferredRecoveryRestart has no kind
// of its own: it is msgRecoveryRestart replayed into StaDisabled.
const (
	msgWifiToggled = iota
	msgAirplaneToggled
	msgScanAlwaysChanged
	msgSetAp
	msgStaStartFailure
	msgStaStopped
	msgScanningStopped
	msgApStopped
	msgEmergencyOn
	msgEmergencyOff
	msgRecoveryRestart
	msgRecoveryRestartContinue
	msgRecoveryDisable
)

// setApRequest is the payload carried by msgSetAp (§6 "setAp(enable,
// purpose, config?)").
type setApRequest struct {
	enable  bool
	purpose modes.Purpose
	config  manager.SoftApConfig
}
