package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PlayerCast/internal/domain/models"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Layered reads L1 then L2 and writes through both. L2 may be nil.
type Layered struct {
	l1 BytesCache
	l2 BytesCache
}

func NewLayered(l1, l2 BytesCache) *Layered {
	return &Layered{l1: l1, l2: l2}
}

func (c *Layered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := c.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	if c.l2 == nil {
		return nil, false, nil
	}
	b, ok, err := c.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	// L2 TTL is unknown here; keep the L1 copy short.
	_ = c.l1.SetBytes(ctx, key, b, time.Minute)
	return b, true, nil
}

func (c *Layered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.l2 != nil {
		if err := c.l2.SetBytes(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return c.l1.SetBytes(ctx, key, value, ttl)
}

// ForecastCache stores finished forecasts as JSON keyed by player and horizon.
type ForecastCache struct {
	c   BytesCache
	ttl time.Duration
}

func NewForecastCache(c BytesCache, ttl time.Duration) *ForecastCache {
	return &ForecastCache{c: c, ttl: ttl}
}

func forecastKey(playerID string, horizon int) string {
	return fmt.Sprintf("forecast:%s:%d", playerID, horizon)
}

// Get returns a cached forecast. A corrupt entry counts as a miss.
func (f *ForecastCache) Get(ctx context.Context, playerID string, horizon int) (*models.PlayerForecast, bool, error) {
	b, ok, err := f.c.GetBytes(ctx, forecastKey(playerID, horizon))
	if err != nil || !ok {
		return nil, false, err
	}
	var pf models.PlayerForecast
	if err := json.Unmarshal(b, &pf); err != nil {
		return nil, false, nil
	}
	return &pf, true, nil
}

func (f *ForecastCache) Set(ctx context.Context, pf *models.PlayerForecast) error {
	b, err := json.Marshal(pf)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	return f.c.SetBytes(ctx, forecastKey(pf.PlayerID, pf.Horizon), b, f.ttl)
}
