package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	domsvc "PlayerCast/internal/domain/service"
	icache "PlayerCast/internal/service/cache"
	svcmetrics "PlayerCast/internal/service/metrics"
	applogger "PlayerCast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// batchPublisher is implemented by publishers that can emit several forecasts at once.
type batchPublisher interface {
	PublishBatch(ctx context.Context, fs []*models.PlayerForecast) error
}

// PlayerForecaster loads histories, runs the forecaster and fans results out
// to the cache and the publisher.
type PlayerForecaster struct {
	store     domrepo.SeasonStore
	forecast  domsvc.Forecaster
	horizon   int
	cache     *icache.ForecastCache
	publisher domrepo.ForecastPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	workers   int
	timeout   time.Duration
}

type ForecasterOption func(*PlayerForecaster)

// WithCache enables the forecast cache.
func WithCache(c *icache.ForecastCache) ForecasterOption {
	return func(p *PlayerForecaster) { p.cache = c }
}

// WithPublisher sets where freshly computed forecasts are emitted.
func WithPublisher(pub domrepo.ForecastPublisher) ForecasterOption {
	return func(p *PlayerForecaster) { p.publisher = pub }
}

func WithForecastMetrics(m domrepo.Metrics) ForecasterOption {
	return func(p *PlayerForecaster) { p.metrics = m }
}

func WithForecastLogger(l *applogger.Logger) ForecasterOption {
	return func(p *PlayerForecaster) {
		if l != nil {
			p.log = l
		}
	}
}

// WithWorkers bounds concurrent players in a batch.
func WithWorkers(n int) ForecasterOption {
	return func(p *PlayerForecaster) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithTimeout bounds a single player's forecast.
func WithTimeout(d time.Duration) ForecasterOption {
	return func(p *PlayerForecaster) { p.timeout = d }
}

// NewPlayerForecaster wires a forecaster whose runs produce horizon seasons.
func NewPlayerForecaster(store domrepo.SeasonStore, f domsvc.Forecaster, horizon int, opts ...ForecasterOption) *PlayerForecaster {
	p := &PlayerForecaster{
		store:    store,
		forecast: f,
		horizon:  horizon,
		log:      applogger.Nop(),
		workers:  4,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForecastPlayer returns the forecast for a stored player. A cached forecast
// is served unless refresh is set; a computed one is cached and published.
func (p *PlayerForecaster) ForecastPlayer(ctx context.Context, playerID string, refresh bool) (*models.PlayerForecast, error) {
	pf, fresh, err := p.forecastPlayer(ctx, playerID, refresh)
	if err != nil {
		return nil, err
	}
	if fresh && p.publisher != nil {
		if err := p.publisher.Publish(ctx, pf); err != nil {
			p.log.Warn("publish forecast", applogger.String("player_id", playerID), applogger.Error(err))
		}
	}
	return pf, nil
}

func (p *PlayerForecaster) forecastPlayer(ctx context.Context, playerID string, refresh bool) (*models.PlayerForecast, bool, error) {
	if playerID == "" {
		return nil, false, &models.SchemaMismatchError{Field: "player_id", Reason: "required"}
	}
	if p.cache != nil && !refresh {
		pf, ok, err := p.cache.Get(ctx, playerID, p.horizon)
		if err != nil {
			p.log.Warn("forecast cache get", applogger.String("player_id", playerID), applogger.Error(err))
		}
		if ok {
			svcmetrics.CacheLookups.WithLabelValues("hit").Inc()
			if p.metrics != nil {
				p.metrics.RecordForecast("cache_hit")
			}
			return pf, false, nil
		}
		svcmetrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	history, err := p.store.GetPlayerHistory(ctx, playerID)
	if err != nil {
		if !errors.Is(err, models.ErrPlayerNotFound) && p.metrics != nil {
			p.metrics.RecordError("store")
		}
		return nil, false, fmt.Errorf("load history: %w", err)
	}

	pf, err := p.forecast.Forecast(ctx, history)
	if err != nil {
		return nil, false, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, pf); err != nil {
			p.log.Warn("forecast cache set", applogger.String("player_id", playerID), applogger.Error(err))
		}
	}
	return pf, true, nil
}

// ForecastHistory forecasts a caller-supplied history. Nothing is cached or published.
func (p *PlayerForecaster) ForecastHistory(ctx context.Context, history []models.SeasonRecord) (*models.PlayerForecast, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.forecast.Forecast(ctx, history)
}

// ForecastBatch forecasts several players concurrently. Per-player failures
// land in the result's Errors map; only cancellation of ctx fails the batch.
// Forecasts keep the order of playerIDs.
func (p *PlayerForecaster) ForecastBatch(ctx context.Context, playerIDs []string) (*models.BatchForecast, error) {
	type outcome struct {
		pf    *models.PlayerForecast
		fresh bool
		err   error
	}
	results := make([]outcome, len(playerIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, id := range playerIDs {
		g.Go(func() error {
			pf, fresh, err := p.forecastPlayer(gctx, id, false)
			results[i] = outcome{pf: pf, fresh: fresh, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &models.BatchForecast{Forecasts: make([]*models.PlayerForecast, 0, len(playerIDs))}
	var fresh []*models.PlayerForecast
	for i, r := range results {
		if r.err != nil {
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[playerIDs[i]] = r.err.Error()
			continue
		}
		res.Forecasts = append(res.Forecasts, r.pf)
		if r.fresh {
			fresh = append(fresh, r.pf)
		}
	}

	p.publishAll(ctx, fresh)
	p.log.Info("batch forecast",
		applogger.Int("players", len(playerIDs)),
		applogger.Int("ok", len(res.Forecasts)),
		applogger.Int("failed", len(res.Errors)))
	return res, nil
}

// ListPlayers passes through to the season store.
func (p *PlayerForecaster) ListPlayers(ctx context.Context, championship string, year int) ([]string, error) {
	return p.store.ListPlayers(ctx, championship, year)
}

func (p *PlayerForecaster) publishAll(ctx context.Context, fs []*models.PlayerForecast) {
	if p.publisher == nil || len(fs) == 0 {
		return
	}
	if bp, ok := p.publisher.(batchPublisher); ok {
		if err := bp.PublishBatch(ctx, fs); err != nil {
			p.log.Warn("publish forecast batch", applogger.Int("count", len(fs)), applogger.Error(err))
		}
		return
	}
	for _, pf := range fs {
		if err := p.publisher.Publish(ctx, pf); err != nil {
			p.log.Warn("publish forecast", applogger.String("player_id", pf.PlayerID), applogger.Error(err))
		}
	}
}
