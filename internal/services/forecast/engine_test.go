package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"PlayerCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoModel predicts each target as its lag 1 value, or 0 when unobserved.
type echoModel struct {
	mu     sync.Mutex
	calls  int
	failAt int
	out    func(call int, vec []float64) []float64
	inputs []models.ModelInput
}

func (m *echoModel) Predict(_ context.Context, in models.ModelInput) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inputs = append(m.inputs, in)
	if m.failAt > 0 && m.calls == m.failAt {
		return nil, errors.New("backend unavailable")
	}
	vec := make([]float64, models.NumTargets)
	for i, s := range in.Lag1 {
		if s.Valid {
			vec[i] = s.Value
		}
	}
	if m.out != nil {
		return m.out(m.calls, vec), nil
	}
	return vec, nil
}

func history() []models.SeasonRecord {
	rec := func(year, age int, goals float64) models.SeasonRecord {
		return models.SeasonRecord{
			PlayerID: "rossi", Year: year, Age: age, Role: models.RoleOutfield,
			Squad: "Roma", Championship: "serie-a",
			GamesPlayed: models.Observed(30), Goals: models.Observed(goals),
			Assists: models.Observed(2), MinutePlayed: models.Observed(2400),
			ValuePlayer: models.Observed(5e6),
		}
	}
	return []models.SeasonRecord{rec(2018, 23, 5), rec(2019, 24, 7), rec(2020, 25, 9)}
}

func TestForecastEchoModel(t *testing.T) {
	m := &echoModel{}
	e, err := NewEngine(m)
	require.NoError(t, err)

	pf, err := e.Forecast(context.Background(), history())
	require.NoError(t, err)

	require.Len(t, pf.Seasons, DefaultHorizon)
	assert.Equal(t, "rossi", pf.PlayerID)
	assert.Equal(t, 2020, pf.LastYear)
	assert.Empty(t, pf.Warnings)
	for i, s := range pf.Seasons {
		assert.Equal(t, 2021+i, s.Year)
		assert.Equal(t, 26+i, s.Age)
		assert.Equal(t, models.Observed(9), s.Goals)
		assert.Equal(t, "Roma", s.Squad)
	}

	// The first model call sees the real lags of 2020.
	first := m.inputs[0]
	assert.Equal(t, 2021, first.Year)
	assert.Equal(t, models.Observed(9), first.Lag1[models.Goals])
	assert.Equal(t, models.Observed(7), first.Lag2[models.Goals])
}

func TestRunFeedsPredictionsBack(t *testing.T) {
	m := &echoModel{out: func(call int, vec []float64) []float64 {
		vec[models.Goals] = float64(call)
		return vec
	}}
	e, err := NewEngine(m, WithHorizon(4))
	require.NoError(t, err)

	pf, err := e.Forecast(context.Background(), history())
	require.NoError(t, err)
	require.Len(t, pf.Seasons, 4)

	for i, s := range pf.Seasons {
		assert.Equal(t, models.Observed(float64(i+1)), s.Goals)
	}
	// step 3 sees step 2 as lag 1 and step 1 as lag 2
	assert.Equal(t, models.Observed(2), m.inputs[2].Lag1[models.Goals])
	assert.Equal(t, models.Observed(1), m.inputs[2].Lag2[models.Goals])
}

func TestForecastIsDeterministic(t *testing.T) {
	e, err := NewEngine(&echoModel{})
	require.NoError(t, err)

	a, err := e.Forecast(context.Background(), history())
	require.NoError(t, err)
	b, err := e.Forecast(context.Background(), history())
	require.NoError(t, err)
	assert.Equal(t, a.Seasons, b.Seasons)
}

func TestForecastFailureReturnsNothing(t *testing.T) {
	e, err := NewEngine(&echoModel{failAt: 4})
	require.NoError(t, err)

	pf, err := e.Forecast(context.Background(), history())
	assert.Nil(t, pf)
	require.ErrorIs(t, err, models.ErrModelInference)

	var mi *models.ModelInferenceError
	require.ErrorAs(t, err, &mi)
	assert.Equal(t, 4, mi.Step)
	assert.Equal(t, 2024, mi.Year)
}

func TestRunRejectsMalformedOutput(t *testing.T) {
	cases := map[string]func(int, []float64) []float64{
		"short vector": func(_ int, v []float64) []float64 { return v[:3] },
		"nan":          func(_ int, v []float64) []float64 { v[1] = math.NaN(); return v },
		"inf":          func(_ int, v []float64) []float64 { v[4] = math.Inf(1); return v },
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			e, err := NewEngine(&echoModel{out: out})
			require.NoError(t, err)

			pf, err := e.Forecast(context.Background(), history())
			assert.Nil(t, pf)
			assert.ErrorIs(t, err, models.ErrModelInference)
		})
	}
}

func TestForecastPropagatesAlignmentErrors(t *testing.T) {
	m := &echoModel{}
	e, err := NewEngine(m)
	require.NoError(t, err)

	_, err = e.Forecast(context.Background(), history()[:1])
	assert.ErrorIs(t, err, models.ErrInsufficientHistory)
	assert.Zero(t, m.calls)
}

func TestForecastRejectsMalformedHistoryBeforeModel(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(h []models.SeasonRecord)
		field string
	}{
		{"negative value", func(h []models.SeasonRecord) {
			h[2].ValuePlayer = models.Observed(-250000)
			h[2].Goals = models.Observed(-3)
		}, "goals"},
		{"year out of range", func(h []models.SeasonRecord) { h[2].Year = 300000000 }, "year"},
		{"unknown role", func(h []models.SeasonRecord) { h[1].Role = "Striker" }, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &echoModel{}
			e, err := NewEngine(m)
			require.NoError(t, err)
			h := history()
			tt.edit(h)

			pf, err := e.Forecast(context.Background(), h)
			assert.Nil(t, pf)
			var sm *models.SchemaMismatchError
			require.ErrorAs(t, err, &sm)
			assert.Equal(t, tt.field, sm.Field)
			assert.Zero(t, m.calls)
		})
	}
}

func TestForecastSharedEngineConcurrent(t *testing.T) {
	m := &echoModel{}
	e, err := NewEngine(m, WithHorizon(3))
	require.NoError(t, err)

	const players = 8
	results := make([]*models.PlayerForecast, players)
	errs := make([]error, players)
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := history()
			for j := range h {
				h[j].PlayerID = fmt.Sprintf("p%d", i)
				h[j].Goals = models.Observed(float64(i))
			}
			results[i], errs[i] = e.Forecast(context.Background(), h)
		}()
	}
	wg.Wait()

	for i := 0; i < players; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("p%d", i), results[i].PlayerID)
		require.Len(t, results[i].Seasons, 3)
		for _, s := range results[i].Seasons {
			assert.Equal(t, models.Observed(float64(i)), s.Goals)
		}
	}
	assert.Equal(t, players*3, m.calls)
}

func TestForecastWarnsOnSparseHistory(t *testing.T) {
	h := history()
	h[0].Year, h[0].Age = 2012, 17
	e, err := NewEngine(&echoModel{})
	require.NoError(t, err)

	pf, err := e.Forecast(context.Background(), h)
	require.NoError(t, err)
	require.Len(t, pf.Warnings, 1)
	assert.Contains(t, pf.Warnings[0], "unobserved")
}

func TestRunHonoursCancellation(t *testing.T) {
	e, err := NewEngine(&echoModel{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Run(ctx, models.FeatureRow{SeasonRecord: history()[2]})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineRequiresModel(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}
