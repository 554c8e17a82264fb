package manager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// fakeDriver captures Activate/Deactivate calls, grounded on the teacher's
// hopping.MockSwitcher (captures calls, can be told to fail).
type fakeDriver struct {
	mu           sync.Mutex
	activateErr  error
	deactivateErr error
	activated    int
	deactivated  int
}

func (f *fakeDriver) Activate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error {
	f.mu.Lock()
	f.activated++
	f.mu.Unlock()
	return f.activateErr
}

func (f *fakeDriver) Deactivate(ctx context.Context, mode modes.OperatingMode, purpose modes.Purpose) error {
	f.mu.Lock()
	f.deactivated++
	f.mu.Unlock()
	return f.deactivateErr
}

// fakeListener records every readiness transition it's told about.
type fakeListener struct {
	mu   sync.Mutex
	seen []modes.Readiness
}

func (l *fakeListener) OnReadinessChanged(m ModeManager, r modes.Readiness) {
	l.mu.Lock()
	l.seen = append(l.seen, r)
	l.mu.Unlock()
}

func (l *fakeListener) snapshot() []modes.Readiness {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]modes.Readiness, len(l.seen))
	copy(out, l.seen)
	return out
}

func TestWorker_StartReachesReady(t *testing.T) {
	driver := &fakeDriver{}
	listener := &fakeListener{}
	m := newClientManager(driver, listener)

	require.Equal(t, modes.Starting, m.Readiness())
	m.Start()

	require.Eventually(t, func() bool {
		return m.Readiness() == modes.Ready
	}, time.Second, time.Millisecond)
	require.Equal(t, []modes.Readiness{modes.Ready}, listener.snapshot())
	require.Equal(t, modes.ScanWithoutHidden, m.ScanContribution())
}

func TestWorker_StartFailurePropagatesAsFailed(t *testing.T) {
	driver := &fakeDriver{activateErr: fmt.Errorf("radio unavailable")}
	listener := &fakeListener{}
	m := newScanOnlyManager(driver, listener)

	m.Start()

	require.Eventually(t, func() bool {
		return m.Readiness() == modes.Failed
	}, time.Second, time.Millisecond)
	require.Equal(t, []modes.Readiness{modes.Failed}, listener.snapshot())
	require.Equal(t, modes.ScanNone, m.ScanContribution())
}

func TestWorker_StopFromReadyReachesStopped(t *testing.T) {
	driver := &fakeDriver{}
	listener := &fakeListener{}
	m := newClientManager(driver, listener)

	m.Start()
	require.Eventually(t, func() bool { return m.Readiness() == modes.Ready }, time.Second, time.Millisecond)

	m.Stop()
	require.Eventually(t, func() bool { return m.Readiness() == modes.Stopped }, time.Second, time.Millisecond)
	require.Equal(t, []modes.Readiness{modes.Ready, modes.Stopped}, listener.snapshot())
}

func TestWorker_StopBeforeReadyStillTerminates(t *testing.T) {
	driver := &fakeDriver{}
	listener := &fakeListener{}
	m := newClientManager(driver, listener)

	// Stop arrives while still Starting; must still reach a terminal state.
	m.Stop()
	m.Start()

	require.Eventually(t, func() bool {
		r := m.Readiness()
		return r == modes.Stopped || r == modes.Failed
	}, time.Second, time.Millisecond)
}

func TestWorker_StartAndStopAreIdempotent(t *testing.T) {
	driver := &fakeDriver{}
	listener := &fakeListener{}
	m := newClientManager(driver, listener)

	m.Start()
	m.Start()
	m.Start()
	require.Eventually(t, func() bool { return m.Readiness() == modes.Ready }, time.Second, time.Millisecond)

	m.Stop()
	m.Stop()
	m.Stop()
	require.Eventually(t, func() bool { return m.Readiness() == modes.Stopped }, time.Second, time.Millisecond)

	driver.mu.Lock()
	defer driver.mu.Unlock()
	require.Equal(t, 1, driver.activated)
	require.Equal(t, 1, driver.deactivated)
}

func TestSoftApManager_CarriesPurpose(t *testing.T) {
	driver := &fakeDriver{}
	listener := &fakeListener{}
	m := newSoftApManager(driver, listener, SoftApConfig{Purpose: modes.PurposeTethered})

	require.Equal(t, modes.SoftAp, m.Mode())
	require.Equal(t, modes.PurposeTethered, m.Purpose())
}

func TestRealFactory_BuildsDistinctInstances(t *testing.T) {
	f := NewRealFactory(&fakeDriver{})
	c := f.MakeClient(&fakeListener{})
	s := f.MakeScanOnly(&fakeListener{})
	a := f.MakeSoftAp(&fakeListener{}, SoftApConfig{Purpose: modes.PurposeLocalOnly})

	require.NotEqual(t, c.ID(), s.ID())
	require.NotEqual(t, s.ID(), a.ID())
}
