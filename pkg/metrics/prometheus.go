package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	gapRatio  prometheus.Histogram
}

// New registers the forecast metrics on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playercast_forecasts_total",
				Help: "Forecast runs by outcome",
			},
			[]string{"outcome"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playercast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playercast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gapRatio: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playercast_history_gap_ratio",
				Help:    "Share of filled seasons in aligned histories",
				Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 1},
			},
		),
	}
}

// RecordForecast counts a forecast run ("ok", "error", "cache_hit").
func (r *Recorder) RecordForecast(outcome string) {
	r.forecasts.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordGapRatio observes the filled-row share of one aligned history.
func (r *Recorder) RecordGapRatio(ratio float64) {
	r.gapRatio.Observe(ratio)
}
