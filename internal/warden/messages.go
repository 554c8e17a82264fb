package warden

import "github.com/lcalzada-xor/wifimodectl/internal/modes"

// Message kinds carried on the Warden's own dispatcher (§4.3, §6). Unlike
// the Controller's event taxonomy these never cross a package boundary as
// named constants; callers only ever see the Warden's exported operations.
const (
	msgEnterClient = iota
	msgEnterScanOnly
	msgDisableWifi
	msgStartSoftAp
	msgStopSoftAp
	msgShutdownWifi
	msgManagerCallback
	msgDaemonFailure
)

// managerCallback is the payload carried by msgManagerCallback, re-posted
// onto the Warden's dispatcher by a managerListener (§5 "Callbacks arriving
// from the radio on arbitrary threads must be re-posted onto the Warden's
// dispatcher before touching any core state").
type managerCallback struct {
	id        string
	readiness modes.Readiness
}
