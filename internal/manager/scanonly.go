package manager

import "github.com/lcalzada-xor/wifimodectl/internal/modes"

// scanOnlyManager is the ScanOnly ModeManager: the radio does nothing but
// scan, including hidden-SSID probing, while Ready.
type scanOnlyManager struct{ *worker }

func newScanOnlyManager(driver RadioDriver, listener Listener) ModeManager {
	return &scanOnlyManager{worker: newWorker(modes.ScanOnly, modes.PurposeUnspecified, modes.ScanWithHidden, driver, listener)}
}
