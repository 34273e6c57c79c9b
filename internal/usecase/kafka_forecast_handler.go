package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	xhttp "PlayerCast/pkg/http"
	pkgkafka "PlayerCast/pkg/kafka"
	applogger "PlayerCast/pkg/logger"
)

// KafkaForecastHandler serves forecast requests arriving on a Kafka topic.
// Results are published by the forecaster.
type KafkaForecastHandler struct {
	topic      string
	forecaster *PlayerForecaster
	metrics    domrepo.Metrics
	log        *applogger.Logger
}

func NewKafkaForecastHandler(topic string, f *PlayerForecaster, metrics domrepo.Metrics, l *applogger.Logger) *KafkaForecastHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaForecastHandler{topic: topic, forecaster: f, metrics: metrics, log: l}
}

func (h *KafkaForecastHandler) Topic() string { return h.topic }

// incoming message schema: {"player_id": "..."}
func (h *KafkaForecastHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ForecastRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode forecast request: %w", err)
	}
	if err := xhttp.Validate(ctx, &m); err != nil {
		h.recordError("consumer_validate")
		return fmt.Errorf("invalid forecast request: %w", err)
	}

	_, err := h.forecaster.ForecastPlayer(ctx, m.PlayerID, true)
	if err == nil {
		return nil
	}
	// Retrying cannot fix these.
	if errors.Is(err, models.ErrPlayerNotFound) ||
		errors.Is(err, models.ErrInsufficientHistory) ||
		errors.Is(err, models.ErrSchemaMismatch) {
		h.log.Warn("forecast request dropped",
			applogger.String("player_id", m.PlayerID),
			applogger.Error(err))
		return nil
	}
	return err
}

func (h *KafkaForecastHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaForecastHandler)(nil)
