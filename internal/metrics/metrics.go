// Package metrics exposes reminder delivery counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the reminder service collectors.
	Registry = prometheus.NewRegistry()

	alarmsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Subsystem: "alarms",
			Name:      "handled_total",
			Help:      "Fired alarms by slot and outcome.",
		},
		[]string{"slot", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arcana",
			Subsystem: "alarms",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling a fired alarm.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"slot"},
	)

	notificationsShown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Subsystem: "notifications",
			Name:      "shown_total",
			Help:      "Local notifications by category and whether delivery succeeded.",
		},
		[]string{"category", "success"},
	)
)

func init() {
	Registry.MustRegister(
		alarmsHandled,
		dispatchDuration,
		notificationsShown,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordAlarm(slot, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	alarmsHandled.WithLabelValues(slot, outcome).Inc()
	dispatchDuration.WithLabelValues(slot).Observe(duration.Seconds())
}

func RecordNotification(category string, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	notificationsShown.WithLabelValues(category, result).Inc()
}
