package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory service.
type Metrics struct {
	ChecksTotal    *prometheus.CounterVec // labels: crop, verdict
	CheckDuration  prometheus.Histogram
	LookupFailures prometheus.Counter

	// Scoring metrics.
	ScorePaths       *prometheus.CounterVec // labels: path={probability,decision_score,label,fallback}
	ScoringFallbacks prometheus.Counter

	// Alert metrics.
	AlertsPublished prometheus.Counter
	AlertFailures   prometheus.Counter

	// Startup state gauges.
	LocationsLoaded prometheus.Gauge
	ModelsLoaded    prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "checks_total",
			Help:      "Completed risk checks by crop and verdict.",
		}, []string{"crop", "verdict"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pest_advisory",
			Name:      "check_duration_seconds",
			Help:      "Duration of a complete lookup-score-decide cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		LookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "lookup_failures_total",
			Help:      "Risk checks aborted because the village was not in the dataset.",
		}),
		ScorePaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "score_paths_total",
			Help:      "Scoring strategy used per check.",
		}, []string{"path"}),
		ScoringFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "scoring_fallbacks_total",
			Help:      "Checks scored with a synthetic probability after a classifier fault.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "alerts_published_total",
			Help:      "SMS alert requests published to the alert topic.",
		}),
		AlertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pest_advisory",
			Name:      "alert_failures_total",
			Help:      "SMS alert publishes that failed; the advisory itself still succeeded.",
		}),
		LocationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pest_advisory",
			Name:      "locations_loaded",
			Help:      "Number of village rows loaded from the location dataset.",
		}),
		ModelsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pest_advisory",
			Name:      "models_loaded",
			Help:      "Number of crop classifiers loaded at startup.",
		}),
	}

	prometheus.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.LookupFailures,
		m.ScorePaths,
		m.ScoringFallbacks,
		m.AlertsPublished,
		m.AlertFailures,
		m.LocationsLoaded,
		m.ModelsLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ChecksTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "checks_total"}, []string{"crop", "verdict"}),
		CheckDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "pest_advisory", Name: "check_duration_seconds"}),
		LookupFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "lookup_failures_total"}),
		ScorePaths:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "score_paths_total"}, []string{"path"}),
		ScoringFallbacks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "scoring_fallbacks_total"}),
		AlertsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "alerts_published_total"}),
		AlertFailures:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "pest_advisory", Name: "alert_failures_total"}),
		LocationsLoaded:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pest_advisory", Name: "locations_loaded"}),
		ModelsLoaded:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "pest_advisory", Name: "models_loaded"}),
	}
}
