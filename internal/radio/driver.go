// Package radio is the production RadioDriver (manager.RadioDriver):
// the external collaborator §1 calls "drive underlying radio", reached only
// through the Mode Manager factory interface and never touched directly by
// the Controller or Warden.
package radio

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// CommandExecutor abstracts system command execution, grounded on the
// teacher's driver.CommandExecutor (internal/adapters/sniffer/driver):
// tests substitute a fake so no real `iw`/`hostapd` invocation is needed.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SystemCommandExecutor implements CommandExecutor using os/exec, mirroring
// the teacher's SystemCommandExecutor.
type SystemCommandExecutor struct{}

func (SystemCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// WirelessDriver is the manager.RadioDriver implementation wired into
// production use via manager.RealFactory. One instance is shared across
// every ModeManager the Warden spawns for a given interface.
type WirelessDriver struct {
	Interface string
	executor  CommandExecutor
}

// NewWirelessDriver builds a WirelessDriver bound to iface, using the real
// system command executor.
func NewWirelessDriver(iface string) *WirelessDriver {
	return &WirelessDriver{Interface: iface, executor: SystemCommandExecutor{}}
}

// WithExecutor overrides the command executor, for tests.
func (d *WirelessDriver) WithExecutor(e CommandExecutor) *WirelessDriver {
	d.executor = e
	return d
}

// Activate brings the interface into the given mode, mirroring the
// teacher's WirelessDriver.SetInterfaceChannel: a thin wrapper around one or
// two `iw`/`systemctl` invocations with the output folded into the returned
// error on failure.
func (d *WirelessDriver) Activate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error {
	switch mode {
	case modes.Client:
		return d.run(ctx, "iw", d.Interface, "set", "type", "managed")
	case modes.ScanOnly:
		return d.run(ctx, "iw", d.Interface, "set", "type", "managed")
	case modes.SoftAp:
		if err := d.run(ctx, "iw", d.Interface, "set", "type", "__ap"); err != nil {
			return err
		}
		return d.run(ctx, "systemctl", "start", softApUnit(purpose))
	}
	return fmt.Errorf("radio: unsupported mode %s", mode)
}

// Deactivate tears down whatever Activate set up for mode/purpose.
func (d *WirelessDriver) Deactivate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error {
	switch mode {
	case modes.Client, modes.ScanOnly:
		return nil // leaving the interface in "managed" is harmless
	case modes.SoftAp:
		return d.run(ctx, "systemctl", "stop", softApUnit(purpose))
	}
	return fmt.Errorf("radio: unsupported mode %s", mode)
}

func softApUnit(purpose modes.Purpose) string {
	switch purpose {
	case modes.PurposeTethered:
		return "hostapd-tether.service"
	default:
		return "hostapd-local.service"
	}
}

func (d *WirelessDriver) run(ctx context.Context, name string, args ...string) error {
	out, err := d.executor.Execute(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s %v: %w (%s)", name, args, err, string(out))
	}
	return nil
}
