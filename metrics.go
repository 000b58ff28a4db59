package jwtmiddleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records token checks and JWKS fetches. It satisfies
// core.Metrics and jwks.Metrics, so one instance can be handed to both
// WithMetrics options.
type PrometheusMetrics struct {
	validations        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	jwksFetches        *prometheus.CounterVec
	jwksFetchDuration  prometheus.Histogram
}

// NewPrometheusMetrics registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jwtmiddleware",
			Name:      "validations_total",
			Help:      "Token checks by outcome.",
		}, []string{"outcome"}),
		validationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jwtmiddleware",
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating a token, key fetches included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		jwksFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jwtmiddleware",
			Name:      "jwks_fetches_total",
			Help:      "JWKS fetches by result.",
		}, []string{"result"}),
		jwksFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jwtmiddleware",
			Name:      "jwks_fetch_duration_seconds",
			Help:      "Time spent fetching the JWKS document.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.validations, m.validationDuration, m.jwksFetches, m.jwksFetchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordValidation implements core.Metrics.
func (m *PrometheusMetrics) RecordValidation(outcome string, duration time.Duration) {
	m.validations.WithLabelValues(outcome).Inc()
	m.validationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordJWKSFetch implements jwks.Metrics.
func (m *PrometheusMetrics) RecordJWKSFetch(result string, duration time.Duration) {
	m.jwksFetches.WithLabelValues(result).Inc()
	m.jwksFetchDuration.Observe(duration.Seconds())
}
