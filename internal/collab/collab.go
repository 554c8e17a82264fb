// Package collab defines the narrow interfaces the Warden and Controller
// use to reach the external collaborators named in spec.md §6: the scan,
// battery-accounting, diagnostic, and recovery subsystems, plus the
// Controller-facing upcall surface the Warden drives. None of them are wire
// formats (§6); every implementation lives in-process.
package collab

import (
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// WardenOps is the Controller's view of the Warden (§6 "Outbound from
// Controller (to Warden)"). The Controller depends on this interface, never
// on the concrete Warden type, so neither package imports the other (§9
// "Cyclic dependency") and Controller tests can substitute a fake.
type WardenOps interface {
	EnterClientMode()
	EnterScanOnlyMode()
	DisableWifi()
	StartSoftAp(config manager.SoftApConfig)
	StopSoftAp(purpose modes.Purpose)
	ShutdownWifi()
}

// ScanSink receives the Warden's aggregate scan-enablement signal.
type ScanSink interface {
	ScanEnablement(enabled, hiddenEnabled bool)
}

// BatterySink receives wifi on/off edges and the scan-mode-active signal
// used for accounting (§4.3 "Battery accounting").
type BatterySink interface {
	BatteryOn()
	BatteryOff()
	ScanModeActive()
}

// DiagnosticSink captures diagnostic data on catastrophic failures (§4.3
// Failure, §6 diagnosticCapture).
type DiagnosticSink interface {
	DiagnosticCapture(reason modes.RecoveryReason)
}

// RecoverySink is the late-bound collaborator that restarts the radio stack
// after a catastrophic failure (§6 recoveryTrigger, §9 "Cyclic dependency
// (Warden ↔ Recovery)"). Grounded on the teacher's
// AttackCoordinator.SetDeauthEngine late-binding pattern: the Warden is
// constructed before the recovery collaborator exists, and the collaborator
// is attached with a one-shot setter once it does.
type RecoverySink interface {
	RecoveryTrigger(reason modes.RecoveryReason)
}

// ControllerListener is the per-mode upcall surface the Warden drives
// (§6 "Outbound from Warden" / "Per-mode listener events to Controller").
//
// SoftApState drops the `reason` that §6's softApState(state, reason) names:
// nothing in the Controller's transition table (§4.4) branches on a stop
// reason, only on the state itself, so there is no value to carry.
type ControllerListener interface {
	ClientModeState(state modes.ManagerState)
	ScanOnlyState(state modes.ManagerState)
	SoftApState(purpose modes.Purpose, state modes.ManagerState)
	// SoftApClientCount is never emitted by the Warden: §1 delegates
	// tethering client-count tracking to the external tethering
	// collaborator, which reads it directly off the radio rather than
	// through the core. Declared here only because §6 lists it as part of
	// the upcall surface's shape.
	SoftApClientCount(purpose modes.Purpose, n int)
}
