package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"PlayerCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifact = `
targets: [games_played, goals, assists, minute_played, value_player]
numeric:
  - {name: age, median: 25, mean: 25, scale: 5}
  - {name: lag_1_goals, median: 2, mean: 0, scale: 1}
intercept: [10, 0, 0, 0, 0]
weights:
  - [1, 0]
  - [0, 1]
  - [0, 0]
  - [0, 0]
  - [0, 0]
categorical:
  role:
    Goalkeeper: [0, -1, 0, 0, 0]
`

func loadArtifact(t *testing.T, body string) (*LinearModel, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return LoadLinearModel(path)
}

func input(role models.Role, goals models.Stat) models.ModelInput {
	in := models.ModelInput{Age: 30, Year: 2021, Role: role, Squad: "Roma", Championship: "serie-a"}
	in.Lag1[models.Goals] = goals
	return in
}

func TestLinearModelPredict(t *testing.T) {
	m, err := loadArtifact(t, artifact)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := m.Predict(ctx, input(models.RoleOutfield, models.Observed(4)))
	require.NoError(t, err)
	require.Len(t, out, models.NumTargets)
	assert.InDelta(t, 11, out[models.GamesPlayed], 1e-9)
	assert.InDelta(t, 4, out[models.Goals], 1e-9)

	// unobserved lag falls back to the median
	out, err = m.Predict(ctx, input(models.RoleOutfield, models.Unobserved()))
	require.NoError(t, err)
	assert.InDelta(t, 2, out[models.Goals], 1e-9)

	out, err = m.Predict(ctx, input(models.RoleGoalkeeper, models.Observed(4)))
	require.NoError(t, err)
	assert.InDelta(t, 3, out[models.Goals], 1e-9)
}

func TestLinearModelRejectsBadArtifact(t *testing.T) {
	cases := map[string]LinearArtifact{
		"target order": {
			Targets: []string{"goals", "games_played", "assists", "minute_played", "value_player"},
		},
		"unknown feature": {
			Targets:   models.TargetColumns[:],
			Numeric:   []NumericFeature{{Name: "height", Scale: 1}},
			Intercept: make([]float64, 5),
			Weights:   [][]float64{{0}, {0}, {0}, {0}, {0}},
		},
		"zero scale": {
			Targets:   models.TargetColumns[:],
			Numeric:   []NumericFeature{{Name: "age"}},
			Intercept: make([]float64, 5),
			Weights:   [][]float64{{0}, {0}, {0}, {0}, {0}},
		},
		"ragged weights": {
			Targets:   models.TargetColumns[:],
			Numeric:   []NumericFeature{{Name: "age", Scale: 1}},
			Intercept: make([]float64, 5),
			Weights:   [][]float64{{0}, {0, 1}, {0}, {0}, {0}},
		},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLinearModel(a)
			assert.Error(t, err)
		})
	}

	_, err := loadArtifact(t, "targets: [")
	assert.Error(t, err)
}

func TestHTTPRegressionModel(t *testing.T) {
	var got map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(predictResponse{
			Columns: models.TargetColumns[:],
			Values:  []float64{30, 9, 3, 2500, 1e6},
		})
	}))
	defer srv.Close()

	m := NewHTTPRegressionModel(srv.URL+"/", time.Second, 0)
	out, err := m.Predict(context.Background(), input(models.RoleOutfield, models.Observed(7)))
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 9, 3, 2500, 1e6}, out)

	features := got["features"]
	assert.Equal(t, float64(30), features["age"])
	assert.Equal(t, float64(7), features["lag_1_goals"])
	assert.Nil(t, features["lag_2_goals"])
	assert.Equal(t, "Outfield", features["role"])
}

func TestHTTPRegressionModelRejectsColumnOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(predictResponse{
			Columns: []string{"goals", "games_played", "assists", "minute_played", "value_player"},
			Values:  []float64{9, 30, 3, 2500, 1e6},
		})
	}))
	defer srv.Close()

	_, err := NewHTTPRegressionModel(srv.URL, time.Second, 0).Predict(context.Background(), models.ModelInput{})
	assert.ErrorContains(t, err, "column 0")
}

func TestHTTPRegressionModelRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(predictResponse{
			Columns: models.TargetColumns[:],
			Values:  []float64{1, 2, 3, 4, 5},
		})
	}))
	defer srv.Close()

	out, err := NewHTTPRegressionModel(srv.URL, time.Second, 2).Predict(context.Background(), models.ModelInput{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPRegressionModelDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewHTTPRegressionModel(srv.URL, time.Second, 3).Predict(context.Background(), models.ModelInput{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
