package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments for the verification pipeline.
type Metrics struct {
	VerificationsTotal   *prometheus.CounterVec // labels: outcome={verified,partially-verified,not-matched,manual-review,failed}
	VerificationDuration prometheus.Histogram
	ProviderRequests     *prometheus.CounterVec   // labels: source={weather,news,social}, outcome={matched,partially-matched,not-matched,error,coming-soon}
	ProviderDuration     *prometheus.HistogramVec // labels: source
	ModerationUpdates    *prometheus.CounterVec   // labels: result={applied,skipped}
	BulkBatchSize        prometheus.Histogram
}

// NewMetrics creates and registers all verification metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.VerificationsTotal,
		m.VerificationDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.ModerationUpdates,
		m.BulkBatchSize,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct the service repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		VerificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_verifier",
			Name:      "verifications_total",
			Help:      "Completed verification runs by overall outcome.",
		}, []string{"outcome"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_verifier",
			Name:      "verification_duration_seconds",
			Help:      "End-to-end duration of a single report verification.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_verifier",
			Name:      "provider_requests_total",
			Help:      "Signal provider lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_verifier",
			Name:      "provider_duration_seconds",
			Help:      "Signal provider lookup duration by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ModerationUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_verifier",
			Name:      "moderation_updates_total",
			Help:      "Automated verificationStatus mutations by result.",
		}, []string{"result"}),
		BulkBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_verifier",
			Name:      "bulk_batch_size",
			Help:      "Number of pending reports selected per bulk sweep.",
			Buckets:   []float64{1, 5, 10, 20, 30, 50},
		}),
	}
}
