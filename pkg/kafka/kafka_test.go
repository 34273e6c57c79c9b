package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "none")

	err := p.Publish(context.Background(), "player.forecasts", []byte("rossi"), map[string]int{"horizon": 9})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "player.forecasts", w.msgs[0].Topic)
	assert.Equal(t, []byte("rossi"), w.msgs[0].Key)
	assert.JSONEq(t, `{"horizon":9}`, string(w.msgs[0].Value))
}

func TestProducerPublishBatch(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "none")

	err := p.PublishBatch(context.Background(), "t", []Message{{Value: "a"}, {Value: []byte("b")}})
	assert.Error(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "a", string(w.msgs[0].Value))
	assert.Equal(t, kafka.Header{Key: "content-type", Value: []byte("text/plain")}, w.msgs[0].Headers[0])
	assert.Equal(t, []byte("application/octet-stream"), w.msgs[1].Headers[0].Value)

	assert.NoError(t, p.PublishBatch(context.Background(), "t", nil))
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(nil)
	assert.Error(t, err)
}
