package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "river_height"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Dashboard refresh metrics.
	RefreshCycles         prometheus.Counter
	RefreshSourceFailures *prometheus.CounterVec // labels: source={river_height,forecast,history,weather}
	RefreshDuration       prometheus.Histogram

	// Current river state.
	RiverHeight       prometheus.Gauge
	RiverStatus       prometheus.Gauge     // status rank, -1 when unknown
	StatusEscalations *prometheus.CounterVec // labels: status={alert,critical}

	// Nearest-match lookups.
	MatchLookups *prometheus.CounterVec // labels: kind={reading,astronomical}, outcome={found,absent,error}

	// Flood reports.
	ReportsSubmitted prometheus.Counter
	ReportsRejected  prometheus.Counter
	ReportEvents     *prometheus.CounterVec // labels: outcome={success,error}

	// Weather metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherEnabled     prometheus.Gauge

	// Escalation fan-out.
	Notifications *prometheus.CounterVec // labels: channel={shoutrrr,mqtt}, outcome={success,error}

	AnalyticsEvents prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Total dashboard refresh cycles committed.",
		}),
		RefreshSourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_source_failures_total",
			Help:      "Refresh fetch failures by data source.",
		}, []string{"source"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete dashboard refresh cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RiverHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "meters",
			Help:      "Latest observed river height in meters.",
		}),
		RiverStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_level",
			Help:      "Current status rank: 0 normal, 1 warning, 2 alert, 3 critical, -1 unknown.",
		}),
		StatusEscalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_escalations_total",
			Help:      "Status escalations into alert or critical.",
		}, []string{"status"}),
		MatchLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_match_total",
			Help:      "Nearest-sample lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flood_reports_submitted_total",
			Help:      "Flood reports accepted and stored.",
		}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flood_reports_rejected_total",
			Help:      "Flood reports rejected by validation.",
		}),
		ReportEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flood_report_events_total",
			Help:      "Flood report events published to the stream by outcome.",
		}, []string{"outcome"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "OpenWeather API requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "OpenWeather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_enabled",
			Help:      "1 when the weather provider is enabled, 0 otherwise.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Escalation notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		AnalyticsEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Analytics events recorded.",
		}),
	}

	prometheus.MustRegister(
		m.RefreshCycles,
		m.RefreshSourceFailures,
		m.RefreshDuration,
		m.RiverHeight,
		m.RiverStatus,
		m.StatusEscalations,
		m.MatchLookups,
		m.ReportsSubmitted,
		m.ReportsRejected,
		m.ReportEvents,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
		m.Notifications,
		m.AnalyticsEvents,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshCycles:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "refresh_cycles_total"}),
		RefreshSourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "refresh_source_failures_total"}, []string{"source"}),
		RefreshDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "refresh_duration_seconds"}),
		RiverHeight:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "meters"}),
		RiverStatus:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "status_level"}),
		StatusEscalations:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "status_escalations_total"}, []string{"status"}),
		MatchLookups:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "nearest_match_total"}, []string{"kind", "outcome"}),
		ReportsSubmitted:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "flood_reports_submitted_total"}),
		ReportsRejected:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "flood_reports_rejected_total"}),
		ReportEvents:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "flood_report_events_total"}, []string{"outcome"}),
		WeatherRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_cache_total"}, []string{"result"}),
		WeatherAPIDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "weather_api_duration_seconds"}),
		WeatherEnabled:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "weather_enabled"}),
		Notifications:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_total"}, []string{"channel", "outcome"}),
		AnalyticsEvents:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "analytics_events_total"}),
	}
}
