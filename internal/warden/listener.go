package warden

import (
	"github.com/lcalzada-xor/wifimodectl/internal/bus"
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
)

// managerListener is a fresh, per-spawn binding between one manager instance
// and the Warden's dispatcher (§4.3 "Listener freshness"). Its identity,
// not the manager's, is what the Warden compares on every callback: once a
// manager is removed from activeManagers its listener is orphaned and any
// late callback arriving through it is silently dropped by Handle, even
// though the *worker goroutine itself keeps calling it.
//
// The callback always runs on the reporting worker's own goroutine; posting
// a message is the only thing it does, keeping all Warden state confined to
// the Warden's dispatcher goroutine (§5).
type managerListener struct {
	dispatcher *bus.Dispatcher
	id         string
}

func newManagerListener(d *bus.Dispatcher, id string) *managerListener {
	return &managerListener{dispatcher: d, id: id}
}

func (l *managerListener) OnReadinessChanged(m manager.ModeManager, r modes.Readiness) {
	l.dispatcher.Send(bus.Message{
		Kind:     msgManagerCallback,
		Payload:  managerCallback{id: l.id, readiness: r},
		Listener: l,
	})
}
