package repository

import (
	"context"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	pkgkafka "PlayerCast/pkg/kafka"
)

// forecastHeaders tags every published record so consumers can route by version.
var forecastHeaders = map[string]string{"schema": "playercast.forecast.v1"}

// KafkaForecastPublisher emits finished forecasts keyed by player id.
type KafkaForecastPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

func NewKafkaForecastPublisher(producer *pkgkafka.Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

func (p *KafkaForecastPublisher) Publish(ctx context.Context, f *models.PlayerForecast) error {
	return p.producer.PublishWithHeaders(ctx, p.topic, []byte(f.PlayerID), f, forecastHeaders)
}

// PublishBatch emits several forecasts in one write.
func (p *KafkaForecastPublisher) PublishBatch(ctx context.Context, fs []*models.PlayerForecast) error {
	if len(fs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(fs))
	for i, f := range fs {
		msgs[i] = pkgkafka.Message{Key: []byte(f.PlayerID), Value: f, Headers: forecastHeaders}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopForecastPublisher drops forecasts; used when Kafka is disabled.
type NopForecastPublisher struct{}

func (NopForecastPublisher) Publish(context.Context, *models.PlayerForecast) error { return nil }
func (NopForecastPublisher) Close() error                                          { return nil }
