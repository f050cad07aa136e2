package cart

import (
	"context"
	"fmt"
	"strings"

	"cartservice/internal/domain"
	"go.uber.org/zap"
)

type CheckoutInput struct {
	ConfirmationType string                  `json:"confirmationType"`
	Signature        string                  `json:"signature,omitempty"`
	DeliveryAddress  *domain.DeliveryAddress `json:"deliveryAddress,omitempty"`
	Location         *domain.GeoPoint        `json:"location,omitempty"`
}

// Checkout publishes the active cart as an order and then clears it. Nothing
// is written to the store unless the publish succeeds.
func (s *Service) Checkout(ctx context.Context, customerID string, in CheckoutInput) (*domain.Cart, error) {
	c, err := s.active(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.recalculate(ctx, c); err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	confirmation, err := domain.ParseConfirmationType(in.ConfirmationType)
	if err != nil {
		return nil, err
	}
	signature := strings.TrimSpace(in.Signature)
	if confirmation.RequiresSignature() && signature == "" {
		return nil, domain.ErrMissingSignature
	}

	intent := domain.OrderIntent{
		EventID:          s.newID(),
		CustomerID:       c.CustomerID,
		CartID:           c.ID,
		Items:            c.CopyItems(),
		SubTotal:         c.SubTotal,
		DiscountAmount:   c.DiscountAmount,
		TotalPrice:       c.TotalPrice,
		AppliedPromoCode: c.AppliedPromoCode,
		Confirmation:     domain.Confirmation{Type: confirmation, Signature: signature},
		DeliveryAddress:  copyAddress(in.DeliveryAddress),
		Location:         copyLocation(in.Location),
		CreatedAt:        s.now(),
	}

	if err := s.publisher.Publish(ctx, s.cfg.OrderTopic, intent); err != nil {
		s.logger.Error("order publish failed",
			zap.String("customer_id", customerID),
			zap.String("cart_id", c.ID),
			zap.String("event_id", intent.EventID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrCheckoutPublishFailed, err)
	}
	s.logger.Info("order published",
		zap.String("customer_id", customerID),
		zap.String("cart_id", c.ID),
		zap.String("event_id", intent.EventID),
		zap.String("total", intent.TotalPrice.StringFixed(2)),
	)

	c.Clear()
	saved, err := s.save(ctx, c)
	if err != nil {
		s.logger.Error("clear cart after checkout failed",
			zap.String("cart_id", c.ID),
			zap.String("event_id", intent.EventID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("clear cart after checkout: %w", err)
	}
	return saved, nil
}

func copyAddress(a *domain.DeliveryAddress) *domain.DeliveryAddress {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

func copyLocation(p *domain.GeoPoint) *domain.GeoPoint {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
