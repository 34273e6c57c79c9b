package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ForecastAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "playercast",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of forecast endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ForecastAPIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playercast",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by forecast endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playercast",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Forecast cache lookups by result",
		},
		[]string{"result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ForecastAPILatency, ForecastAPIErrors, CacheLookups)
	})
}
