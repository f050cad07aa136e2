// Package publisher hands checkout order intents to the order subsystem.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventTypeOrderPlaced is sent in the event_type header of every intent.
const EventTypeOrderPlaced = "OrderPlaced"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes order intents synchronously: Publish returns only after the
// brokers acknowledged the message or the write failed.
type Kafka struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

func NewKafka(brokers []string, timeout time.Duration, logger *zap.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            1,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{writer: w, timeout: timeout, logger: logger}
}

func (k *Kafka) Publish(ctx context.Context, topic string, intent domain.OrderIntent) error {
	payload, err := json.Marshal(toEvent(intent))
	if err != nil {
		return fmt.Errorf("marshal order intent: %w", err)
	}

	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(intent.CustomerID), // partition by customer
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
			{Key: "event_id", Value: []byte(intent.EventID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	k.logger.Debug("order intent published",
		zap.String("topic", topic),
		zap.String("event_id", intent.EventID),
		zap.String("cart_id", intent.CartID))
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

type orderPlacedEvent struct {
	EventID          string                  `json:"eventId"`
	CustomerID       string                  `json:"customerId"`
	CartID           string                  `json:"cartId"`
	Items            []orderItem             `json:"items"`
	SubTotal         json.Number             `json:"subTotal"`
	DiscountAmount   json.Number             `json:"discountAmount"`
	TotalPrice       json.Number             `json:"totalPrice"`
	AppliedPromoCode string                  `json:"appliedPromoCode,omitempty"`
	ConfirmationType string                  `json:"confirmationType"`
	Signature        string                  `json:"signature,omitempty"`
	DeliveryAddress  *domain.DeliveryAddress `json:"deliveryAddress,omitempty"`
	Location         *domain.GeoPoint        `json:"location,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

type orderItem struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
	ItemTotal json.Number `json:"itemTotal"`
}

func toEvent(intent domain.OrderIntent) orderPlacedEvent {
	items := make([]orderItem, 0, len(intent.Items))
	for _, item := range intent.Items {
		items = append(items, orderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: json.Number(item.UnitPrice.String()),
			ItemTotal: json.Number(money.Format(item.ItemTotal())),
		})
	}
	return orderPlacedEvent{
		EventID:          intent.EventID,
		CustomerID:       intent.CustomerID,
		CartID:           intent.CartID,
		Items:            items,
		SubTotal:         json.Number(money.Format(intent.SubTotal)),
		DiscountAmount:   json.Number(money.Format(intent.DiscountAmount)),
		TotalPrice:       json.Number(money.Format(intent.TotalPrice)),
		AppliedPromoCode: intent.AppliedPromoCode,
		ConfirmationType: string(intent.Confirmation.Type),
		Signature:        intent.Confirmation.Signature,
		DeliveryAddress:  intent.DeliveryAddress,
		Location:         intent.Location,
		CreatedAt:        intent.CreatedAt,
	}
}
