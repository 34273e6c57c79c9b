package service

import (
	"context"

	"PlayerCast/internal/domain/models"
)

// RegressionModel is a stateless point estimator: feature row in, target vector out.
// The vector has models.NumTargets values in models.TargetColumns order.
// Implementations must be safe for concurrent use.
type RegressionModel interface {
	Predict(ctx context.Context, in models.ModelInput) ([]float64, error)
}

// Forecaster turns a player's history into a multi-season forecast.
type Forecaster interface {
	Forecast(ctx context.Context, history []models.SeasonRecord) (*models.PlayerForecast, error)
}
