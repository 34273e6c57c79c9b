package repository

import (
	"context"

	"PlayerCast/internal/domain/models"
)

// ForecastPublisher emits finished forecasts to downstream consumers.
type ForecastPublisher interface {
	Publish(ctx context.Context, f *models.PlayerForecast) error
	Close() error
}

type Metrics interface {
	RecordForecast(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordGapRatio(ratio float64)
}
