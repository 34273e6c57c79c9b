package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PlayerCast/internal/domain/models"
	"PlayerCast/internal/service/ratelimit"
	"PlayerCast/internal/usecase"
	xhttp "PlayerCast/pkg/http"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct{}

func (stubStore) GetPlayerHistory(_ context.Context, id string) ([]models.SeasonRecord, error) {
	switch id {
	case "rossi", "broken", "short", "slow":
		return []models.SeasonRecord{{PlayerID: id, Year: 2020, Age: 25, Role: models.RoleOutfield}}, nil
	}
	return nil, fmt.Errorf("player %q: %w", id, models.ErrPlayerNotFound)
}

func (stubStore) ListPlayers(_ context.Context, championship string, _ int) ([]string, error) {
	if championship == "none" {
		return nil, nil
	}
	return []string{"rossi"}, nil
}

type stubForecaster struct{}

func (stubForecaster) Forecast(_ context.Context, h []models.SeasonRecord) (*models.PlayerForecast, error) {
	switch h[0].PlayerID {
	case "broken":
		return nil, &models.ModelInferenceError{PlayerID: "broken", Step: 3, Year: 2023, Err: errors.New("timeout")}
	case "slow":
		return nil, &models.ModelInferenceError{PlayerID: "slow", Step: 2, Year: 2022, Err: fmt.Errorf("predict: %w", context.DeadlineExceeded)}
	case "short":
		return nil, &models.InsufficientHistoryError{PlayerID: "short", Reason: "empty"}
	}
	last := h[len(h)-1]
	return &models.PlayerForecast{
		PlayerID: last.PlayerID,
		LastYear: last.Year,
		Horizon:  1,
		Seasons:  []models.ForecastRecord{{Year: last.Year + 1, Age: last.Age + 1, Goals: models.Observed(4)}},
	}, nil
}

func newTestServer(rl *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	f := usecase.NewPlayerForecaster(stubStore{}, stubForecaster{}, 1)
	NewForecastEchoHandler(nil, f, rl).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) xhttp.APIResponse {
	t.Helper()
	var resp struct {
		xhttp.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.APIResponse
}

func TestPlayerForecastEndpoint(t *testing.T) {
	e := newTestServer(nil)

	rec := do(e, http.MethodGet, "/api/players/rossi/forecast", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pf models.PlayerForecast
	resp := decode(t, rec, &pf)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 2020, pf.LastYear)
	require.Len(t, pf.Seasons, 1)
	assert.Equal(t, models.Observed(4), pf.Seasons[0].Goals)
}

func TestPlayerForecastErrorMapping(t *testing.T) {
	e := newTestServer(nil)

	tests := []struct {
		id   string
		code int
	}{
		{"ghost", http.StatusNotFound},
		{"short", http.StatusUnprocessableEntity},
		{"broken", http.StatusBadGateway},
		{"slow", http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/api/players/"+tt.id+"/forecast", "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	var errs []xhttp.AppError
	decode(t, do(e, http.MethodGet, "/api/players/broken/forecast", ""), &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UPSTREAM", errs[0].Code)
	assert.EqualValues(t, 3, errs[0].Params["step"])

	var timeout []xhttp.AppError
	decode(t, do(e, http.MethodGet, "/api/players/slow/forecast", ""), &timeout)
	require.Len(t, timeout, 1)
	assert.Equal(t, "ERR_TIMEOUT", timeout[0].Code)
}

func TestToAppErrorPrefersTimeoutOverInference(t *testing.T) {
	err := &models.ModelInferenceError{Step: 1, Year: 2021, Err: context.DeadlineExceeded}
	assert.Equal(t, http.StatusGatewayTimeout, toAppError(err).Status)
	assert.Equal(t, http.StatusGatewayTimeout, toAppError(fmt.Errorf("load history: %w", context.DeadlineExceeded)).Status)

	err.Err = errors.New("connection refused")
	assert.Equal(t, http.StatusBadGateway, toAppError(err).Status)
}

func TestHistoryForecastEndpoint(t *testing.T) {
	e := newTestServer(nil)

	body := `{"history":[{"name":"new","year":2021,"age":22,"role":"Outfield","goals":3}]}`
	rec := do(e, http.MethodPost, "/api/forecast", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pf models.PlayerForecast
	decode(t, rec, &pf)
	assert.Equal(t, "new", pf.PlayerID)
	assert.Equal(t, 2022, pf.Seasons[0].Year)

	rec = do(e, http.MethodPost, "/api/forecast", `{"history":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/forecast", `{"history":[{"player_id":"x","year":2021,"role":"Striker"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var verrs []xhttp.ValidationError
	decode(t, rec, &verrs)
	require.NotEmpty(t, verrs)
	assert.Equal(t, "history[0].role", verrs[0].Field)
}

func TestBatchForecastEndpoint(t *testing.T) {
	e := newTestServer(ratelimit.New(1, 1))

	rec := do(e, http.MethodPost, "/api/forecast/batch", `{"player_ids":["rossi","ghost"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.BatchForecast
	decode(t, rec, &res)
	require.Len(t, res.Forecasts, 1)
	assert.Equal(t, "rossi", res.Forecasts[0].PlayerID)
	assert.Contains(t, res.Errors, "ghost")

	rec = do(e, http.MethodPost, "/api/forecast/batch", `{"player_ids":["rossi"]}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestListPlayersEndpoint(t *testing.T) {
	e := newTestServer(nil)

	var ids []string
	decode(t, do(e, http.MethodGet, "/api/players?championship=serie-a&year=2020", ""), &ids)
	assert.Equal(t, []string{"rossi"}, ids)

	rec := do(e, http.MethodGet, "/api/players?championship=none", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &ids)
	assert.Empty(t, ids)

	rec = do(e, http.MethodGet, "/api/players?year=12", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
