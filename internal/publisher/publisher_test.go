package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"cartservice/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func sampleIntent() domain.OrderIntent {
	return domain.OrderIntent{
		EventID:    "evt-1",
		CustomerID: "cust-1",
		CartID:     "cart-1",
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.5")},
		},
		SubTotal:         decimal.RequireFromString("21"),
		DiscountAmount:   decimal.RequireFromString("2.1"),
		TotalPrice:       decimal.RequireFromString("18.9"),
		AppliedPromoCode: "TEN",
		Confirmation:     domain.Confirmation{Type: domain.ConfirmationSignature, Signature: "sig"},
		DeliveryAddress:  &domain.DeliveryAddress{City: "Cairo"},
		CreatedAt:        time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublishWritesOrderPlacedMessage(t *testing.T) {
	w := &stubWriter{}
	k := &Kafka{writer: w, logger: zap.NewNop()}

	require.NoError(t, k.Publish(context.Background(), "order.placed", sampleIntent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "order.placed", msg.Topic)
	assert.Equal(t, "cust-1", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
		{Key: "event_id", Value: []byte("evt-1")},
	}, msg.Headers)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "evt-1", body["eventId"])
	assert.Equal(t, "SIGNATURE", body["confirmationType"])
	assert.Equal(t, "sig", body["signature"])
	assert.Equal(t, "TEN", body["appliedPromoCode"])

	var raw struct {
		SubTotal       json.RawMessage `json:"subTotal"`
		DiscountAmount json.RawMessage `json:"discountAmount"`
		TotalPrice     json.RawMessage `json:"totalPrice"`
		Items          []struct {
			ItemTotal json.RawMessage `json:"itemTotal"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &raw))
	assert.Equal(t, "21.00", string(raw.SubTotal))
	assert.Equal(t, "2.10", string(raw.DiscountAmount))
	assert.Equal(t, "18.90", string(raw.TotalPrice))
	assert.Equal(t, "21.00", string(raw.Items[0].ItemTotal))
}

func TestKafkaPublishWrapsWriterError(t *testing.T) {
	w := &stubWriter{err: errors.New("leader not available")}
	k := &Kafka{writer: w, timeout: time.Second, logger: zap.NewNop()}

	err := k.Publish(context.Background(), "order.placed", sampleIntent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Contains(t, err.Error(), "order.placed")
}

func TestKafkaClose(t *testing.T) {
	w := &stubWriter{}
	k := &Kafka{writer: w, logger: zap.NewNop()}
	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) Publish(context.Context, string, domain.OrderIntent) error {
	s.calls++
	return s.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	next := &stubPublisher{err: errors.New("broker down")}
	b := NewBreaker(next, BreakerSettings{FailureThreshold: 2, OpenFor: time.Minute}, zap.NewNop())
	ctx := context.Background()

	assert.EqualError(t, b.Publish(ctx, "t", sampleIntent()), "broker down")
	assert.EqualError(t, b.Publish(ctx, "t", sampleIntent()), "broker down")
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Publish(ctx, "t", sampleIntent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the transport")
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	next := &stubPublisher{err: fmt.Errorf("write to t: %w", context.Canceled)}
	b := NewBreaker(next, BreakerSettings{FailureThreshold: 2, OpenFor: time.Minute}, zap.NewNop())

	for i := 0; i < 3; i++ {
		err := b.Publish(context.Background(), "t", sampleIntent())
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerPassesSuccess(t *testing.T) {
	next := &stubPublisher{}
	b := NewBreaker(next, BreakerSettings{}, zap.NewNop())

	require.NoError(t, b.Publish(context.Background(), "t", sampleIntent()))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
