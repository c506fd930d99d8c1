package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "transit_ranker"

// Metrics holds the Prometheus counters, histograms, and gauges for refresh runs.
type Metrics struct {
	RefreshRuns       *prometheus.CounterVec // labels: outcome={ok,no_data,auth_error,fetch_error,busy}
	RefreshDuration   prometheus.Histogram
	RefreshInProgress prometheus.Gauge
	LastSuccess       prometheus.Gauge

	RowsFetched  prometheus.Counter
	RowsRejected *prometheus.CounterVec // labels: reason={short_row,bad_timestamp,other}

	// Report metrics, overwritten on every successful run.
	DailyRevenue     prometheus.Gauge
	WindowRevenue    *prometheus.GaugeVec // labels: window
	WindowPassengers *prometheus.GaugeVec // labels: window

	PublishErrors *prometheus.CounterVec // labels: publisher
}

// NewMetrics creates and registers all refresh metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshRuns,
		m.RefreshDuration,
		m.RefreshInProgress,
		m.LastSuccess,
		m.RowsFetched,
		m.RowsRejected,
		m.DailyRevenue,
		m.WindowRevenue,
		m.WindowPassengers,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Refresh runs by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-aggregate run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RefreshInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_in_progress",
			Help:      "1 while a refresh is running, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that produced a report.",
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Data rows read from the source, header excluded.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Rows excluded from aggregation by reason.",
		}, []string{"reason"}),
		DailyRevenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_revenue_ksh",
			Help:      "Potential revenue for the day from the last report.",
		}),
		WindowRevenue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_revenue_ksh",
			Help:      "Potential revenue per hour window from the last report.",
		}, []string{"window"}),
		WindowPassengers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_passengers",
			Help:      "Passengers per hour window from the last report.",
		}, []string{"window"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Report publish failures by publisher.",
		}, []string{"publisher"}),
	}
}
