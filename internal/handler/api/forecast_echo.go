package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	models "PlayerCast/internal/domain/models"
	"PlayerCast/internal/service/metrics"
	"PlayerCast/internal/service/ratelimit"
	"PlayerCast/internal/usecase"
	xhttp "PlayerCast/pkg/http"
	xlogger "PlayerCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes player forecasts over HTTP.
type ForecastEchoHandler struct {
	logger     *xlogger.Logger
	forecaster *usecase.PlayerForecaster
	batchRL    *ratelimit.Limiter
}

func NewForecastEchoHandler(logger *xlogger.Logger, f *usecase.PlayerForecaster, batchRL *ratelimit.Limiter) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	metrics.Register()
	return &ForecastEchoHandler{logger: logger, forecaster: f, batchRL: batchRL}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/players", h.ListPlayers)
	g.GET("/players/:id/forecast", h.PlayerForecast)
	g.POST("/forecast", h.HistoryForecast)
	g.POST("/forecast/batch", h.BatchForecast)
}

func (h *ForecastEchoHandler) ListPlayers(c echo.Context) error {
	defer observe("players", time.Now())
	req := &models.ListPlayersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "players", verr)
	}

	ids, err := h.forecaster.ListPlayers(c.Request().Context(), req.Championship, req.Year)
	if err != nil {
		h.logger.Error("list players usecase error", xlogger.Error(err))
		return h.fail(c, "players", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return xhttp.SuccessResponse(c, ids)
}

func (h *ForecastEchoHandler) PlayerForecast(c echo.Context) error {
	defer observe("player", time.Now())
	req := &models.PlayerForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "player", verr)
	}

	res, err := h.forecaster.ForecastPlayer(c.Request().Context(), req.PlayerID, req.Refresh)
	if err != nil {
		h.logger.Error("player forecast usecase error",
			xlogger.String("player_id", req.PlayerID),
			xlogger.Error(err))
		return h.fail(c, "player", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) HistoryForecast(c echo.Context) error {
	defer observe("history", time.Now())
	req := &models.HistoryForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "history", verr)
	}

	res, err := h.forecaster.ForecastHistory(c.Request().Context(), req.History)
	if err != nil {
		h.logger.Error("history forecast usecase error", xlogger.Error(err))
		return h.fail(c, "history", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) BatchForecast(c echo.Context) error {
	defer observe("batch", time.Now())
	if h.batchRL != nil && !h.batchRL.Allow(c.RealIP()) {
		h.logger.Warn("batch forecast rate limited", xlogger.String("remote", c.RealIP()))
		return h.fail(c, "batch", xhttp.TooManyRequestsError("batch forecast rate limit exceeded"))
	}
	req := &models.BatchForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "batch", verr)
	}

	res, err := h.forecaster.ForecastBatch(c.Request().Context(), req.PlayerIDs)
	if err != nil {
		h.logger.Error("batch forecast usecase error", xlogger.Error(err))
		return h.fail(c, "batch", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) badRequest(c echo.Context, endpoint string, verr interface{}) error {
	metrics.ForecastAPIErrors.WithLabelValues(endpoint, "400").Inc()
	return xhttp.BadRequestResponse(c, verr)
}

func (h *ForecastEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.ForecastAPIErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var schema *models.SchemaMismatchError
	var short *models.InsufficientHistoryError
	var infer *models.ModelInferenceError
	switch {
	case errors.As(err, &schema):
		return xhttp.BadRequestError(err.Error()).
			WithField(schema.Field).
			WithError(err)
	case errors.As(err, &short):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "forecast timed out", http.StatusGatewayTimeout).WithError(err)
	case errors.As(err, &infer):
		return xhttp.BadGatewayError("regression model failed").
			WithParam("step", infer.Step).
			WithParam("year", infer.Year).
			WithError(err)
	case errors.Is(err, models.ErrPlayerNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("forecast failed").WithError(err)
	}
}

func observe(endpoint string, start time.Time) {
	metrics.ForecastAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
