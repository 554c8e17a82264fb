// Package manager implements the ModeManager contract (§4.2): the uniform
// start/stop/query lifecycle shared by the Client, ScanOnly, and SoftAp
// workers the Warden owns.
package manager

import (
	"context"

	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// RadioDriver is the external collaborator a ModeManager uses to actually
// drive the radio (§5 "work requiring I/O ... is initiated synchronously on
// the owning dispatcher and its completion is reported asynchronously").
// Grounded on the teacher's hopping.ChannelSwitcher: a narrow interface
// injected at construction so tests can substitute a fake.
type RadioDriver interface {
	Activate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error
	Deactivate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error
}

// Listener receives readiness callbacks from exactly one ModeManager
// instance at a time (§4.2 subscribe).
type Listener interface {
	OnReadinessChanged(m ModeManager, r modes.Readiness)
}

// ModeManager is the lifecycle contract every per-mode worker implements.
type ModeManager interface {
	ID() string
	Mode() modes.OperatingMode
	Purpose() modes.Purpose
	Start()
	Stop()
	Readiness() modes.Readiness
	ScanContribution() modes.ScanContribution
	Subscribe(l Listener)
}

// SoftApConfig carries what a SoftAp ModeManager needs to activate. Channel
// and band selection are out of scope (§1 "SoftAp channel/band configuration
// storage" is an external collaborator); Purpose is the only field the core
// cares about.
type SoftApConfig struct {
	Purpose modes.Purpose
}

// Factory constructs managers (§6 "Manager factory contract"), letting the
// Warden's tests substitute fakes without touching real hardware. Each
// manager is returned already subscribed to listener.
type Factory interface {
	MakeClient(listener Listener) ModeManager
	MakeScanOnly(listener Listener) ModeManager
	MakeSoftAp(listener Listener, config SoftApConfig) ModeManager
}
