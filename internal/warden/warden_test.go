package warden

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// fakeManager is a hand-driven ModeManager: tests decide exactly when it
// reports readiness, rather than racing a real worker goroutine.
type fakeManager struct {
	mu       sync.Mutex
	id       string
	mode     modes.OperatingMode
	purpose  modes.Purpose
	contrib  modes.ScanContribution
	readiness modes.Readiness
	listener manager.Listener

	startCalls int
	stopCalls  int
}

func (m *fakeManager) ID() string                  { return m.id }
func (m *fakeManager) Mode() modes.OperatingMode    { return m.mode }
func (m *fakeManager) Purpose() modes.Purpose       { return m.purpose }
func (m *fakeManager) Subscribe(l manager.Listener) { m.listener = l }
func (m *fakeManager) Start()                       { m.startCalls++ }
func (m *fakeManager) Stop()                        { m.stopCalls++ }

func (m *fakeManager) Readiness() modes.Readiness {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readiness
}

func (m *fakeManager) ScanContribution() modes.ScanContribution {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readiness != modes.Ready {
		return modes.ScanNone
	}
	return m.contrib
}

// becomeReady/becomeStopped/becomeFailed simulate the manager's async
// callback, exactly as a real worker would report it.
func (m *fakeManager) becomeReady() {
	m.mu.Lock()
	m.readiness = modes.Ready
	m.mu.Unlock()
	m.listener.OnReadinessChanged(m, modes.Ready)
}
func (m *fakeManager) becomeStopped() {
	m.mu.Lock()
	m.readiness = modes.Stopped
	m.mu.Unlock()
	m.listener.OnReadinessChanged(m, modes.Stopped)
}
func (m *fakeManager) becomeFailed() {
	m.mu.Lock()
	m.readiness = modes.Failed
	m.mu.Unlock()
	m.listener.OnReadinessChanged(m, modes.Failed)
}

// fakeFactory hands out fakeManagers with caller-assigned contributions, and
// records every instance it built so a test can drive its callbacks.
type fakeFactory struct {
	mu       sync.Mutex
	n        int
	built    []*fakeManager
	failNext bool
}

func (f *fakeFactory) next(mode modes.OperatingMode, purpose modes.Purpose, contrib modes.ScanContribution, l manager.Listener) *fakeManager {
	f.mu.Lock()
	f.n++
	id := modeLabel(mode) + "-" + itoa(f.n)
	f.mu.Unlock()
	m := &fakeManager{id: id, mode: mode, purpose: purpose, contrib: contrib, readiness: modes.Starting}
	m.Subscribe(l)
	f.mu.Lock()
	f.built = append(f.built, m)
	f.mu.Unlock()
	return m
}

func (f *fakeFactory) MakeClient(l manager.Listener) manager.ModeManager {
	return f.next(modes.Client, modes.PurposeUnspecified, modes.ScanWithoutHidden, l)
}
func (f *fakeFactory) MakeScanOnly(l manager.Listener) manager.ModeManager {
	return f.next(modes.ScanOnly, modes.PurposeUnspecified, modes.ScanWithHidden, l)
}
func (f *fakeFactory) MakeSoftAp(l manager.Listener, config manager.SoftApConfig) manager.ModeManager {
	return f.next(modes.SoftAp, config.Purpose, modes.ScanNone, l)
}

func modeLabel(m modes.OperatingMode) string { return m.String() }
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

// fakeController/fakeScanSink/fakeBattery/fakeDiag record every call made to
// them so assertions can inspect ordering and counts.
type fakeController struct {
	mu          sync.Mutex
	clientState []modes.ManagerState
	scanState   []modes.ManagerState
	apState     []modes.ManagerState
}

func (c *fakeController) ClientModeState(s modes.ManagerState) {
	c.mu.Lock()
	c.clientState = append(c.clientState, s)
	c.mu.Unlock()
}
func (c *fakeController) ScanOnlyState(s modes.ManagerState) {
	c.mu.Lock()
	c.scanState = append(c.scanState, s)
	c.mu.Unlock()
}
func (c *fakeController) SoftApState(_ modes.Purpose, s modes.ManagerState) {
	c.mu.Lock()
	c.apState = append(c.apState, s)
	c.mu.Unlock()
}
func (c *fakeController) SoftApClientCount(modes.Purpose, int) {}

type fakeScanSink struct {
	mu     sync.Mutex
	events [][2]bool
}

func (s *fakeScanSink) ScanEnablement(enabled, hidden bool) {
	s.mu.Lock()
	s.events = append(s.events, [2]bool{enabled, hidden})
	s.mu.Unlock()
}
func (s *fakeScanSink) snapshot() [][2]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]bool, len(s.events))
	copy(out, s.events)
	return out
}

type fakeBattery struct {
	mu        sync.Mutex
	onCount   int
	offCount  int
	scanCalls int
}

func (b *fakeBattery) BatteryOn()      { b.mu.Lock(); b.onCount++; b.mu.Unlock() }
func (b *fakeBattery) BatteryOff()     { b.mu.Lock(); b.offCount++; b.mu.Unlock() }
func (b *fakeBattery) ScanModeActive() { b.mu.Lock(); b.scanCalls++; b.mu.Unlock() }

type fakeDiag struct {
	mu      sync.Mutex
	reasons []modes.RecoveryReason
}

func (d *fakeDiag) DiagnosticCapture(r modes.RecoveryReason) {
	d.mu.Lock()
	d.reasons = append(d.reasons, r)
	d.mu.Unlock()
}

func newTestWarden() (*Warden, *fakeFactory, *fakeController, *fakeScanSink, *fakeBattery, *fakeDiag) {
	factory := &fakeFactory{}
	controller := &fakeController{}
	scanSink := &fakeScanSink{}
	battery := &fakeBattery{}
	diag := &fakeDiag{}
	w := New(factory, controller, scanSink, battery, diag)
	w.Start()
	return w, factory, controller, scanSink, battery, diag
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "condition never became true")
}

func TestWarden_EnterClientMode_SpawnsAndReportsReady(t *testing.T) {
	w, factory, controller, _, battery, _ := newTestWarden()

	w.EnterClientMode()
	waitFor(t, func() bool { factory.mu.Lock(); defer factory.mu.Unlock(); return len(factory.built) == 1 })
	factory.built[0].becomeReady()

	waitFor(t, func() bool { controller.mu.Lock(); defer controller.mu.Unlock(); return len(controller.clientState) == 1 })
	assert.Equal(t, modes.StateReady, controller.clientState[0])
	assert.Equal(t, 1, battery.onCount)
}

func TestWarden_SwitchFromClientToScanOnly_StopsClientFirst(t *testing.T) {
	w, factory, _, _, _, _ := newTestWarden()

	w.EnterClientMode()
	waitFor(t, func() bool { return len(factory.built) == 1 })
	client := factory.built[0]
	client.becomeReady()

	w.EnterScanOnlyMode()
	waitFor(t, func() bool { return client.stopCalls == 1 })
	waitFor(t, func() bool { return len(factory.built) == 2 })
	assert.Equal(t, modes.ScanOnly, factory.built[1].mode)
}

func TestWarden_StaleCallbackAfterSlotExitIsDropped(t *testing.T) {
	w, factory, controller, _, _, _ := newTestWarden()

	w.EnterClientMode()
	waitFor(t, func() bool { return len(factory.built) == 1 })
	client := factory.built[0]
	client.becomeReady()
	waitFor(t, func() bool { controller.mu.Lock(); defer controller.mu.Unlock(); return len(controller.clientState) == 1 })

	w.DisableWifi()
	waitFor(t, func() bool { return client.stopCalls == 1 })

	// Late callback from the now-orphaned manager must be dropped (§7
	// "Stale callback", §8 scenario 5).
	client.becomeFailed()
	time.Sleep(20 * time.Millisecond)

	controller.mu.Lock()
	defer controller.mu.Unlock()
	require.Len(t, controller.clientState, 1) // no Unknown appended
}

func TestWarden_BatteryAccountingEdges(t *testing.T) {
	w, factory, _, _, battery, _ := newTestWarden()

	w.EnterClientMode()
	waitFor(t, func() bool { return len(factory.built) == 1 })
	factory.built[0].becomeReady()
	waitFor(t, func() bool { return battery.onCount == 1 })

	w.DisableWifi()
	waitFor(t, func() bool { return factory.built[0].stopCalls == 1 })
	factory.built[0].becomeStopped()
	waitFor(t, func() bool { return battery.offCount == 1 })

	assert.Equal(t, 1, battery.onCount)
	assert.Equal(t, 1, battery.offCount)
}

func TestWarden_SoftApCoexistsWithClient(t *testing.T) {
	w, factory, _, _, _, _ := newTestWarden()

	w.EnterClientMode()
	waitFor(t, func() bool { return len(factory.built) == 1 })
	factory.built[0].becomeReady()

	w.StartSoftAp(manager.SoftApConfig{Purpose: modes.PurposeTethered})
	waitFor(t, func() bool { return len(factory.built) == 2 })
	factory.built[1].becomeReady()

	assert.Len(t, w.active, 2)

	w.StopSoftAp(modes.PurposeUnspecified)
	waitFor(t, func() bool { return factory.built[1].stopCalls == 1 })
	assert.Equal(t, 0, factory.built[0].stopCalls) // client untouched
}

func TestWarden_ScanEnablementDedupedOnUnchangedValue(t *testing.T) {
	w, factory, _, scanSink, _, _ := newTestWarden()

	w.EnterScanOnlyMode()
	waitFor(t, func() bool { return len(factory.built) == 1 })
	factory.built[0].becomeReady()
	waitFor(t, func() bool { return len(scanSink.snapshot()) == 1 })

	// A second, unrelated SoftAp spawning recomputes the aggregate but must
	// not re-emit an identical (true, true) value (§4.3, §8 invariant 4).
	w.StartSoftAp(manager.SoftApConfig{Purpose: modes.PurposeLocalOnly})
	waitFor(t, func() bool { return len(factory.built) == 2 })
	factory.built[1].becomeReady()
	time.Sleep(20 * time.Millisecond)

	assert.Len(t, scanSink.snapshot(), 1)
}

type recordingRecovery struct {
	mu       sync.Mutex
	reasons  []modes.RecoveryReason
}

func (r *recordingRecovery) RecoveryTrigger(reason modes.RecoveryReason) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

func (r *recordingRecovery) snapshot() []modes.RecoveryReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]modes.RecoveryReason, len(r.reasons))
	copy(out, r.reasons)
	return out
}

func TestWarden_DaemonFailureTriggersRecovery(t *testing.T) {
	w, _, _, _, _, diag := newTestWarden()
	recovery := &recordingRecovery{}
	w.SetRecoverySink(recovery)

	w.NotifyDaemonFailure(modes.ReasonNativeDaemonFailure)
	waitFor(t, func() bool { diag.mu.Lock(); defer diag.mu.Unlock(); return len(diag.reasons) == 1 })
	waitFor(t, func() bool { return len(recovery.snapshot()) == 1 })
	assert.Equal(t, modes.ReasonNativeDaemonFailure, recovery.snapshot()[0])
}
