package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the collection loop.
type Metrics struct {
	ScansTotal      prometheus.Counter
	ScanErrorsTotal prometheus.Counter
	AnalysesTotal   prometheus.Counter
	ActiveAlerts    prometheus.Gauge
	RetentionSwept  *prometheus.CounterVec // label: kind={alerts,history}
	ScanDuration    prometheus.Histogram
}

// NewMetrics creates and registers the collector metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thientai",
			Name:      "scans_total",
			Help:      "Total national scan cycles started.",
		}),
		ScanErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thientai",
			Name:      "scan_errors_total",
			Help:      "Scan cycles abandoned because a fetch or store step failed.",
		}),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thientai",
			Name:      "analyses_total",
			Help:      "Risk analyses persisted.",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "thientai",
			Name:      "active_alerts",
			Help:      "Alert rows after the most recent scan cycle.",
		}),
		RetentionSwept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thientai",
			Name:      "retention_swept_total",
			Help:      "Rows removed by retention sweeps, by kind.",
		}, []string{"kind"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "thientai",
			Name:      "scan_duration_seconds",
			Help:      "Duration of a complete fetch-score-cluster-persist cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal,
		m.ScanErrorsTotal,
		m.AnalysesTotal,
		m.ActiveAlerts,
		m.RetentionSwept,
		m.ScanDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScansTotal:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "thientai", Name: "scans_total"}),
		ScanErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "thientai", Name: "scan_errors_total"}),
		AnalysesTotal:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "thientai", Name: "analyses_total"}),
		ActiveAlerts:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "thientai", Name: "active_alerts"}),
		RetentionSwept:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thientai", Name: "retention_swept_total"}, []string{"kind"}),
		ScanDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "thientai", Name: "scan_duration_seconds"}),
	}
}
