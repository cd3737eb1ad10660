package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishOrder(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	order := &models.Order{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		OrderStatus:   models.OrderStatusPlaced,
		PaymentMethod: models.PaymentMethodCOD,
		TotalAmount:   250,
	}
	require.NoError(t, p.PublishOrder(context.Background(), NewOrderEvent(OrderPlaced, order)))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "order-"+order.ID.Hex(), string(msg.Key))
	assert.Equal(t, OrderPlaced, string(msg.Headers[0].Value))

	var ev OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, order.ID.Hex(), ev.OrderID)
	assert.Equal(t, models.OrderStatusPlaced, ev.Status)
	assert.Equal(t, 250.0, ev.TotalAmount)
}

func TestPublishOrderWrapsWriterError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err := p.PublishOrder(context.Background(), OrderEvent{Type: OrderStatusChanged})
	assert.ErrorContains(t, err, "broker down")
}

func TestKafkaWriterFlushesPromptly(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "orders")
	defer w.Close()

	assert.Equal(t, "orders", w.Topic)
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	// A single order event must not sit behind the default one second batch window.
	assert.Positive(t, w.BatchTimeout)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
}
