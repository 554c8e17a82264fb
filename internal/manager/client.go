package manager

import "github.com/lcalzada-xor/wifimodectl/internal/modes"

// clientManager is the Client ModeManager. While Ready it still contributes
// background scans for roaming, but never probes hidden SSIDs.
type clientManager struct{ *worker }

func newClientManager(driver RadioDriver, listener Listener) ModeManager {
	return &clientManager{worker: newWorker(modes.Client, modes.PurposeUnspecified, modes.ScanWithoutHidden, driver, listener)}
}
