package controller

import "github.com/lcalzada-xor/wifimodectl/internal/modes"

// WardenListener adapts the Warden's per-mode upcalls (§6 "Outbound from
// Warden") into the Controller's own named inbound events, translating a
// distilled readiness state into the specific event the §4.4 transition
// table expects. It implements collab.ControllerListener structurally.
//
// Each method picks the named event for the reported state here, on the
// caller's goroutine, and then only posts that event onto the Controller's
// own dispatcher (§5): no Controller state is read or written here; the
// posted event is acted on by Handle on the Controller's goroutine.
type WardenListener struct {
	c *Controller
}

// NewWardenListener builds the adapter a Warden should be constructed with
// as its collab.ControllerListener.
func NewWardenListener(c *Controller) *WardenListener { return &WardenListener{c: c} }

func (l *WardenListener) ClientModeState(state modes.ManagerState) {
	switch state {
	case modes.StateUnknown:
		l.c.StaStartFailure()
	case modes.StateDisabled:
		l.c.StaStopped()
	}
}

func (l *WardenListener) ScanOnlyState(state modes.ManagerState) {
	switch state {
	case modes.StateUnknown, modes.StateDisabled:
		l.c.ScanningStopped()
	}
}

func (l *WardenListener) SoftApState(_ modes.Purpose, state modes.ManagerState) {
	switch state {
	case modes.StateUnknown, modes.StateDisabled:
		l.c.ApStopped()
	}
}

func (l *WardenListener) SoftApClientCount(modes.Purpose, int) {
	// No Controller-level behavior depends on client count; the external
	// tethering UI collaborator reads this directly, not through the core.
}
