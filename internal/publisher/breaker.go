package publisher

import (
	"context"
	"errors"
	"time"

	"cartservice/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Publisher is the transport the checkout flow publishes through.
type Publisher interface {
	Publish(ctx context.Context, topic string, intent domain.OrderIntent) error
}

type BreakerSettings struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenFor is how long the breaker rejects calls before probing again.
	OpenFor time.Duration
}

// Breaker fails checkouts fast while the broker is known to be down. It never
// retries; a rejected call surfaces gobreaker.ErrOpenState to the caller.
type Breaker struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(next Publisher, s BreakerSettings, logger *zap.Logger) *Breaker {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "order-publisher",
		MaxRequests: 1,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller that gave up says nothing about the broker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Publish(ctx context.Context, topic string, intent domain.OrderIntent) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, topic, intent)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
