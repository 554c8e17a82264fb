package manager

import "github.com/lcalzada-xor/wifimodectl/internal/modes"

// softApManager is a SoftAp ModeManager instance. Multiple instances with
// distinct purposes may coexist (§3); each contributes nothing to scanning.
type softApManager struct{ *worker }

func newSoftApManager(driver RadioDriver, listener Listener, config SoftApConfig) ModeManager {
	return &softApManager{worker: newWorker(modes.SoftAp, config.Purpose, modes.ScanNone, driver, listener)}
}
