package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ModeTransitions counts Controller state transitions.
	ModeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifictl",
			Name:      "controller_transitions_total",
			Help:      "Total number of Controller state transitions",
		},
		[]string{"from", "to"},
	)

	// ManagerFailures counts ModeManager terminal failures by mode.
	ManagerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifictl",
			Name:      "manager_failures_total",
			Help:      "Total number of ModeManager instances that reached Failed",
		},
		[]string{"mode"},
	)

	// BatteryEdges counts wifiOn/wifiOff emissions from the Warden.
	BatteryEdges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifictl",
			Name:      "battery_edges_total",
			Help:      "Total number of battery accounting edges emitted",
		},
		[]string{"edge"},
	)

	// ScanEnabled reports the current aggregate scan-enablement value (0 or 1).
	ScanEnabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wifictl",
			Name:      "scan_enabled",
			Help:      "Whether any active ModeManager currently contributes to scanning",
		},
	)

	// QueueDepth reports the current depth of a dispatcher's message queue.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wifictl",
			Name:      "dispatcher_queue_depth",
			Help:      "Number of messages currently queued on a dispatcher",
		},
		[]string{"dispatcher"},
	)

	// RecoveryTriggers counts recovery triggers raised by the Warden.
	RecoveryTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifictl",
			Name:      "recovery_triggers_total",
			Help:      "Total number of recovery triggers raised",
		},
		[]string{"reason"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(ModeTransitions)
		prometheus.DefaultRegisterer.Register(ManagerFailures)
		prometheus.DefaultRegisterer.Register(BatteryEdges)
		prometheus.DefaultRegisterer.Register(ScanEnabled)
		prometheus.DefaultRegisterer.Register(QueueDepth)
		prometheus.DefaultRegisterer.Register(RecoveryTriggers)
	})
}
