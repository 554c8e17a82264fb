// Command wifictl runs the Wi-Fi mode orchestrator: a Controller/Warden
// pair that decides which radio operating mode is active on one wireless
// interface and drives it up or down in response to policy events.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/wifimodectl/internal/collab"
	"github.com/lcalzada-xor/wifimodectl/internal/config"
	"github.com/lcalzada-xor/wifimodectl/internal/controller"
	"github.com/lcalzada-xor/wifimodectl/internal/manager"
	"github.com/lcalzada-xor/wifimodectl/internal/modes"
	"github.com/lcalzada-xor/wifimodectl/internal/radio"
	"github.com/lcalzada-xor/wifimodectl/internal/telemetry"
	"github.com/lcalzada-xor/wifimodectl/internal/warden"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("wifictl starting")

	cfg := config.Load()

	telemetry.InitMetrics()
	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		log.Printf("Warning: tracer init failed: %v", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Printf("Warning: tracer shutdown failed: %v", err)
			}
		}()
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9100", nil); err != nil {
			log.Printf("Warning: metrics endpoint exited: %v", err)
		}
	}()

	driver := radio.NewWirelessDriver(cfg.Interface)
	factory := manager.NewRealFactory(driver)

	scanSink := &loggingScanSink{}
	batterySink := &loggingBatterySink{}
	diagSink := &loggingDiagnosticSink{}

	// The Warden is constructed before the Controller, which is in turn
	// the recipient of the Warden's per-mode upcalls — a cycle. The
	// Warden needs a collab.ControllerListener at construction time, so
	// hand it a deferredControllerListener placeholder; the Controller is
	// then built on the already-built Warden, and its listener adapter is
	// set into the placeholder immediately after (§9 "Cyclic dependency").
	var ctrl *controller.Controller
	listenerHolder := &deferredControllerListener{}
	w := warden.New(factory, listenerHolder, scanSink, batterySink, diagSink)

	ctrlCfg := controller.Config{
		ScanAlwaysAvailable:    cfg.ScanAlwaysAvailable,
		LocationModeOn:         cfg.LocationModeOn,
		DisableWifiInEmergency: cfg.DisableWifiInEmergency,
		RecoveryDelayMillis:    cfg.RecoveryDelayMillis,
	}
	ctrl = controller.New(ctrlCfg, w, diagSink)
	listenerHolder.set(controller.NewWardenListener(ctrl))

	recovery := &logRecoverySink{restart: ctrl.RecoveryRestart}
	w.SetRecoverySink(recovery)

	w.Start()
	ctrl.Start()

	slog.Info("wifictl started", "interface", cfg.Interface, "debug", cfg.Debug)

	<-ctx.Done()
	slog.Info("shutdown signal received")
	time.Sleep(200 * time.Millisecond) // let in-flight dispatcher work settle
	slog.Info("wifictl stopped")
}

// deferredControllerListener exists only because the Warden and Controller
// are constructed in the opposite order from the dependency they need on
// each other (§9). It forwards every call to whatever listener set() is
// given, tolerating the brief window at startup where none has been set
// yet (no callback can arrive before w.Start() runs, so the window is
// never actually observed in practice).
type deferredControllerListener struct {
	inner collab.ControllerListener
}

func (d *deferredControllerListener) set(l collab.ControllerListener) { d.inner = l }

func (d *deferredControllerListener) ClientModeState(state modes.ManagerState) {
	if d.inner != nil {
		d.inner.ClientModeState(state)
	}
}
func (d *deferredControllerListener) ScanOnlyState(state modes.ManagerState) {
	if d.inner != nil {
		d.inner.ScanOnlyState(state)
	}
}
func (d *deferredControllerListener) SoftApState(purpose modes.Purpose, state modes.ManagerState) {
	if d.inner != nil {
		d.inner.SoftApState(purpose, state)
	}
}
func (d *deferredControllerListener) SoftApClientCount(purpose modes.Purpose, n int) {
	if d.inner != nil {
		d.inner.SoftApClientCount(purpose, n)
	}
}

// loggingScanSink, loggingBatterySink, and loggingDiagnosticSink are the
// bootstrap-layer stand-ins for the external scan/battery-accounting/
// diagnostic collaborators named in §6, which live outside this module's
// scope (§1). Swapping in real RPC clients means implementing the
// collab interfaces and passing them to warden.New above instead.
type loggingScanSink struct{}

func (loggingScanSink) ScanEnablement(enabled, hiddenEnabled bool) {
	log.Printf("scan collaborator: enabled=%v hidden=%v", enabled, hiddenEnabled)
}

type loggingBatterySink struct{}

func (loggingBatterySink) BatteryOn()      { log.Printf("battery collaborator: wifi on") }
func (loggingBatterySink) BatteryOff()     { log.Printf("battery collaborator: wifi off") }
func (loggingBatterySink) ScanModeActive() { log.Printf("battery collaborator: scan mode active") }

type loggingDiagnosticSink struct{}

func (loggingDiagnosticSink) DiagnosticCapture(reason modes.RecoveryReason) {
	log.Printf("diagnostic collaborator: capturing bug report (%s)", modes.ReasonStrings[reason])
}

// logRecoverySink is the bootstrap recovery collaborator: in production
// this would restart the native daemon and, on completion, call back into
// the Controller's RecoveryRestart; here it does so directly so a daemon
// failure signal still drives a full recovery cycle end to end.
type logRecoverySink struct {
	restart func(reason modes.RecoveryReason)
}

func (s *logRecoverySink) RecoveryTrigger(reason modes.RecoveryReason) {
	log.Printf("recovery collaborator: triggered (%s)", modes.ReasonStrings[reason])
	s.restart(reason)
}
