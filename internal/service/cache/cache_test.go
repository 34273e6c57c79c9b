package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"PlayerCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))

	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 1, c.Len())
}

type failingCache struct{}

func (failingCache) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}

func (failingCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func TestLayeredPromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewTTLCache(), NewTTLCache()
	require.NoError(t, l2.SetBytes(ctx, "k", []byte("v"), time.Hour))

	c := NewLayered(l1, l2)
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	_, ok, _ = l1.GetBytes(ctx, "k")
	assert.True(t, ok)
}

func TestLayeredSurfacesL2Errors(t *testing.T) {
	ctx := context.Background()
	c := NewLayered(NewTTLCache(), failingCache{})

	_, _, err := c.GetBytes(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.SetBytes(ctx, "k", nil, time.Minute))
}

func TestForecastCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := NewForecastCache(NewTTLCache(), time.Hour)

	_, ok, err := fc.Get(ctx, "rossi", 9)
	require.NoError(t, err)
	assert.False(t, ok)

	pf := &models.PlayerForecast{PlayerID: "rossi", LastYear: 2020, Horizon: 9,
		Seasons: []models.ForecastRecord{{Year: 2021, Goals: models.Observed(9)}}}
	require.NoError(t, fc.Set(ctx, pf))

	got, ok, err := fc.Get(ctx, "rossi", 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pf.Seasons, got.Seasons)

	_, ok, _ = fc.Get(ctx, "rossi", 5)
	assert.False(t, ok, "horizon is part of the key")
}
