package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"PlayerCast/internal/domain/models"
	icache "PlayerCast/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	histories map[string][]models.SeasonRecord
	err       error
}

func (s *fakeStore) GetPlayerHistory(_ context.Context, id string) ([]models.SeasonRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	h, ok := s.histories[id]
	if !ok {
		return nil, fmt.Errorf("player %q: %w", id, models.ErrPlayerNotFound)
	}
	return h, nil
}

func (s *fakeStore) ListPlayers(context.Context, string, int) ([]string, error) {
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeForecaster struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (f *fakeForecaster) Forecast(_ context.Context, h []models.SeasonRecord) (*models.PlayerForecast, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if len(h) == 0 {
		return nil, &models.InsufficientHistoryError{Reason: "empty history"}
	}
	id := h[0].PlayerID
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	last := h[len(h)-1].Year
	return &models.PlayerForecast{
		PlayerID: id,
		LastYear: last,
		Horizon:  2,
		Seasons:  []models.ForecastRecord{{Year: last + 1}, {Year: last + 2}},
	}, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	single  []string
	batches [][]string
}

func (p *fakePublisher) Publish(_ context.Context, f *models.PlayerForecast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.single = append(p.single, f.PlayerID)
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, fs []*models.PlayerForecast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.PlayerID
	}
	p.batches = append(p.batches, ids)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	errs     map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, errs: map[string]int{}}
}

func (m *countingMetrics) RecordForecast(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o]++
}

func (m *countingMetrics) RecordError(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[k]++
}

func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordGapRatio(float64)        {}

func seasons(id string, years ...int) []models.SeasonRecord {
	out := make([]models.SeasonRecord, len(years))
	for i, y := range years {
		out[i] = models.SeasonRecord{PlayerID: id, Year: y, Age: 20 + i, Role: models.RoleOutfield}
	}
	return out
}

func newStore() *fakeStore {
	return &fakeStore{histories: map[string][]models.SeasonRecord{
		"rossi":  seasons("rossi", 2018, 2019, 2020),
		"totti":  seasons("totti", 2019, 2020),
		"broken": seasons("broken", 2020),
	}}
}

func TestForecastPlayerCachesAndPublishes(t *testing.T) {
	f := &fakeForecaster{}
	pub := &fakePublisher{}
	m := newCountingMetrics()
	fc := icache.NewForecastCache(icache.NewTTLCache(), time.Hour)
	p := NewPlayerForecaster(newStore(), f, 2, WithCache(fc), WithPublisher(pub), WithForecastMetrics(m))
	ctx := context.Background()

	pf, err := p.ForecastPlayer(ctx, "rossi", false)
	require.NoError(t, err)
	assert.Equal(t, 2020, pf.LastYear)
	assert.Len(t, pf.Seasons, 2)

	again, err := p.ForecastPlayer(ctx, "rossi", false)
	require.NoError(t, err)
	assert.Equal(t, pf.LastYear, again.LastYear)
	assert.Equal(t, 1, f.calls, "second call served from cache")
	assert.Equal(t, 1, m.outcomes["cache_hit"])
	assert.Equal(t, []string{"rossi"}, pub.single, "cache hits are not republished")

	_, err = p.ForecastPlayer(ctx, "rossi", true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Len(t, pub.single, 2)
}

func TestForecastPlayerErrors(t *testing.T) {
	p := NewPlayerForecaster(newStore(), &fakeForecaster{}, 2)
	ctx := context.Background()

	_, err := p.ForecastPlayer(ctx, "nobody", false)
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)

	_, err = p.ForecastPlayer(ctx, "", false)
	assert.ErrorIs(t, err, models.ErrSchemaMismatch)

	p = NewPlayerForecaster(&fakeStore{err: errors.New("db down")}, &fakeForecaster{}, 2)
	_, err = p.ForecastPlayer(ctx, "rossi", false)
	assert.ErrorContains(t, err, "db down")
}

func TestForecastHistory(t *testing.T) {
	p := NewPlayerForecaster(newStore(), &fakeForecaster{}, 2)

	pf, err := p.ForecastHistory(context.Background(), seasons("new", 2021, 2022))
	require.NoError(t, err)
	assert.Equal(t, "new", pf.PlayerID)
	assert.Equal(t, 2024, pf.Seasons[1].Year)

	_, err = p.ForecastHistory(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrInsufficientHistory)
}

func TestForecastBatch(t *testing.T) {
	f := &fakeForecaster{fail: map[string]error{
		"broken": &models.ModelInferenceError{PlayerID: "broken", Step: 1, Year: 2021, Err: errors.New("boom")},
	}}
	pub := &fakePublisher{}
	p := NewPlayerForecaster(newStore(), f, 2, WithPublisher(pub), WithWorkers(2))

	res, err := p.ForecastBatch(context.Background(), []string{"totti", "broken", "rossi", "ghost"})
	require.NoError(t, err)

	require.Len(t, res.Forecasts, 2)
	assert.Equal(t, "totti", res.Forecasts[0].PlayerID)
	assert.Equal(t, "rossi", res.Forecasts[1].PlayerID)
	assert.Contains(t, res.Errors["broken"], "model inference")
	assert.Contains(t, res.Errors["ghost"], "player not found")

	require.Len(t, pub.batches, 1, "fresh forecasts go out in one batch")
	assert.Equal(t, []string{"totti", "rossi"}, pub.batches[0])
	assert.Empty(t, pub.single)
}

func TestForecastBatchCanceled(t *testing.T) {
	p := NewPlayerForecaster(newStore(), &fakeForecaster{}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ForecastBatch(ctx, []string{"rossi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKafkaForecastHandler(t *testing.T) {
	f := &fakeForecaster{fail: map[string]error{
		"broken": &models.ModelInferenceError{PlayerID: "broken", Err: errors.New("timeout")},
	}}
	pub := &fakePublisher{}
	m := newCountingMetrics()
	h := NewKafkaForecastHandler("player.forecast.requests", NewPlayerForecaster(newStore(), f, 2, WithPublisher(pub)), m, nil)
	ctx := context.Background()

	assert.Equal(t, "player.forecast.requests", h.Topic())

	require.NoError(t, h.Handle(ctx, []byte(`{"player_id":"rossi"}`)))
	assert.Equal(t, []string{"rossi"}, pub.single)

	assert.NoError(t, h.Handle(ctx, []byte(`{"player_id":"ghost"}`)), "unknown players are dropped")

	assert.Error(t, h.Handle(ctx, []byte(`{"player_id":"broken"}`)), "model failures are retried")

	assert.Error(t, h.Handle(ctx, []byte(`not json`)))
	assert.Error(t, h.Handle(ctx, []byte(`{}`)))
	assert.Equal(t, 1, m.errs["consumer_unmarshal"])
	assert.Equal(t, 1, m.errs["consumer_validate"])
}
