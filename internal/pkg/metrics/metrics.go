package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	presenceToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "toggles_total",
			Help:      "Presence toggles by requested state and outcome.",
		},
		[]string{"active", "outcome"},
	)

	concurrencyConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "store_conflicts_total",
			Help:      "Storage conflicts by resolution (retried, surfaced).",
		},
		[]string{"resolution"},
	)

	anomalousRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "anomalous_records_total",
			Help:      "Records excluded from report sums because an interval ends before it starts.",
		},
	)

	dashboardDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "presence",
			Name:      "dashboard_build_seconds",
			Help:      "Time spent assembling the attendance dashboard.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	autoClosedIntervals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "auto_closed_intervals_total",
			Help:      "Open intervals closed by the auto-offline sweep.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(presenceToggles, concurrencyConflicts, anomalousRecords, dashboardDuration, autoClosedIntervals)
	})
}

func IncToggle(active bool, outcome string) {
	state := "false"
	if active {
		state = "true"
	}
	presenceToggles.WithLabelValues(state, outcome).Inc()
}

func IncConflict(resolution string) {
	concurrencyConflicts.WithLabelValues(resolution).Inc()
}

func IncAnomalousRecord() {
	anomalousRecords.Inc()
}

func ObserveDashboard(seconds float64) {
	dashboardDuration.Observe(seconds)
}

func AddAutoClosed(n int64) {
	autoClosedIntervals.Add(float64(n))
}
