package manager

// RealFactory is the production Factory implementation: every manager it
// builds shares the one RadioDriver wired in at construction (analogous to
// how the teacher's ChannelHopper falls back to a single
// NewLinuxChannelSwitcher() when none is injected).
type RealFactory struct {
	Driver RadioDriver
}

func NewRealFactory(driver RadioDriver) *RealFactory {
	return &RealFactory{Driver: driver}
}

func (f *RealFactory) MakeClient(listener Listener) ModeManager {
	return newClientManager(f.Driver, listener)
}

func (f *RealFactory) MakeScanOnly(listener Listener) ModeManager {
	return newScanOnlyManager(f.Driver, listener)
}

func (f *RealFactory) MakeSoftAp(listener Listener, config SoftApConfig) ModeManager {
	return newSoftApManager(f.Driver, listener, config)
}

var _ Factory = (*RealFactory)(nil)
