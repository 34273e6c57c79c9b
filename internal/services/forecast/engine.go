package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"PlayerCast/internal/domain/models"
	domainrepo "PlayerCast/internal/domain/repository"
	domainsvc "PlayerCast/internal/domain/service"
	"PlayerCast/internal/services/features"
	"PlayerCast/pkg/logger"
)

// DefaultHorizon is the number of future seasons produced per player.
const DefaultHorizon = 9

// Engine runs the recursive season-by-season forecast loop.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	model   domainsvc.RegressionModel
	aligner *features.Aligner
	lags    *features.LagBuilder
	horizon int
	log     *logger.Logger
	metrics domainrepo.Metrics
	now     func() time.Time
}

type Option func(*Engine)

// WithHorizon sets the number of forecast steps. Non-positive values are ignored.
func WithHorizon(h int) Option {
	return func(e *Engine) {
		if h > 0 {
			e.horizon = h
		}
	}
}

func WithAligner(a *features.Aligner) Option {
	return func(e *Engine) { e.aligner = a }
}

func WithLagBuilder(b *features.LagBuilder) Option {
	return func(e *Engine) { e.lags = b }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m domainrepo.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(model domainsvc.RegressionModel, opts ...Option) (*Engine, error) {
	if model == nil {
		return nil, errors.New("forecast engine: nil regression model")
	}
	lags, err := features.NewLagBuilder()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		model:   model,
		aligner: features.NewAligner(),
		lags:    lags,
		horizon: DefaultHorizon,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Horizon returns the configured number of forecast steps.
func (e *Engine) Horizon() int { return e.horizon }

// Run forecasts Horizon seasons after last, the final lagged row of a history.
//
// Each step rotates the previous row, asks the model for the new season's
// targets and feeds the completed row into the next step. Either every season
// is returned or none is.
func (e *Engine) Run(ctx context.Context, last models.FeatureRow) ([]models.ForecastRecord, error) {
	out := make([]models.ForecastRecord, 0, e.horizon)
	row := last
	for step := 1; step <= e.horizon; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		crafted := features.Step(row)
		targets, err := e.predict(ctx, crafted)
		if err != nil {
			return nil, &models.ModelInferenceError{
				PlayerID: last.PlayerID,
				Step:     step,
				Year:     crafted.Year,
				Err:      err,
			}
		}
		row = features.Merge(crafted, targets)
		out = append(out, row.Forecast())
	}
	return out, nil
}

func (e *Engine) predict(ctx context.Context, in models.FeatureRow) (models.Targets, error) {
	vec, err := e.model.Predict(ctx, in.ModelInput())
	if err != nil {
		return models.Targets{}, err
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Targets{}, fmt.Errorf("non-finite value for %s", models.Target(i))
		}
	}
	return models.TargetsFromVector(vec)
}

// Forecast aligns a raw history, builds lag features and runs the loop from
// its latest season.
func (e *Engine) Forecast(ctx context.Context, history []models.SeasonRecord) (*models.PlayerForecast, error) {
	start := e.now()
	pf, err := e.forecast(ctx, history)
	if e.metrics != nil {
		e.metrics.RecordLatency("forecast", time.Since(start).Seconds())
		if err != nil {
			e.metrics.RecordForecast("error")
			e.metrics.RecordError(errorKind(err))
		} else {
			e.metrics.RecordForecast("ok")
		}
	}
	return pf, err
}

func (e *Engine) forecast(ctx context.Context, history []models.SeasonRecord) (*models.PlayerForecast, error) {
	series, err := e.aligner.Align(history)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordGapRatio(series.GapRatio())
	}

	var warnings []string
	if adv := series.Advisory(); adv != nil {
		e.log.Warn("sparse history",
			logger.String("player_id", series.PlayerID),
			logger.Float64("gap_ratio", series.GapRatio()))
		warnings = append(warnings, adv.Error())
	}

	rows, err := e.lags.Build(series)
	if err != nil {
		return nil, err
	}
	last := rows[len(rows)-1]

	seasons, err := e.Run(ctx, last)
	if err != nil {
		e.log.Error("forecast loop failed",
			logger.String("player_id", series.PlayerID),
			logger.Error(err))
		return nil, err
	}

	e.log.Debug("forecast complete",
		logger.String("player_id", series.PlayerID),
		logger.Int("last_year", last.Year),
		logger.Int("horizon", e.horizon))

	return &models.PlayerForecast{
		PlayerID:    series.PlayerID,
		LastYear:    last.Year,
		Horizon:     e.horizon,
		Seasons:     seasons,
		Warnings:    warnings,
		GeneratedAt: e.now().UTC(),
	}, nil
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, models.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, models.ErrModelInference):
		return "model_inference"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
