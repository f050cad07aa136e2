package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	carts     cartStore
	promos    pricing.PromoLookup
	publisher orderPublisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

type cartStore interface {
	FindActive(ctx context.Context, customerID string) (*domain.Cart, error)
	FindArchived(ctx context.Context, customerID string) (*domain.Cart, error)
	FindAny(ctx context.Context, customerID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	Delete(ctx context.Context, cart *domain.Cart) error
}

type orderPublisher interface {
	Publish(ctx context.Context, topic string, intent domain.OrderIntent) error
}

// Config carries the values the service needs from the process config.
type Config struct {
	OrderTopic string
}

const DefaultOrderTopic = "order.placed"

func New(carts cartStore, promos pricing.PromoLookup, publisher orderPublisher, cfg Config, logger *zap.Logger) *Service {
	if cfg.OrderTopic == "" {
		cfg.OrderTopic = DefaultOrderTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     carts,
		promos:    promos,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}
}

// Create returns the customer's cart, creating an empty one if none exists.
// created reports whether this call made the cart.
func (s *Service) Create(ctx context.Context, customerID string) (cart *domain.Cart, created bool, err error) {
	existing, err := s.carts.FindAny(ctx, customerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, false, err
	}
	cart, err = s.carts.Save(ctx, domain.NewCart(s.newID(), customerID, s.now()))
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("cart created", zap.String("customer_id", customerID), zap.String("cart_id", cart.ID))
	return cart, true, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.carts.FindAny(ctx, customerID)
}

// Delete removes the customer's cart. A missing cart is not an error.
func (s *Service) Delete(ctx context.Context, customerID string) error {
	existing, err := s.carts.FindAny(ctx, customerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, existing); err != nil {
		return err
	}
	s.logger.Info("cart deleted", zap.String("customer_id", customerID), zap.String("cart_id", existing.ID))
	return nil
}

func (s *Service) AddItem(ctx context.Context, customerID string, item domain.CartItem) (*domain.Cart, error) {
	cmd, err := s.NewAddItem(customerID, item)
	if err != nil {
		return nil, err
	}
	return cmd.Execute(ctx)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.Cart, error) {
	return s.NewUpdateQuantity(customerID, productID, quantity).Execute(ctx)
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	return s.NewRemoveItem(customerID, productID).Execute(ctx)
}

// Clear empties the active cart and drops its promo code.
func (s *Service) Clear(ctx context.Context, customerID string) (*domain.Cart, error) {
	c, err := s.active(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	return s.save(ctx, c)
}

// Archive flags the active cart as archived. Items and totals are untouched.
func (s *Service) Archive(ctx context.Context, customerID string) (*domain.Cart, error) {
	c, err := s.active(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Archived = true
	return s.carts.Save(ctx, c)
}

func (s *Service) Unarchive(ctx context.Context, customerID string) (*domain.Cart, error) {
	c, err := s.carts.FindArchived(ctx, customerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrNoArchivedCart
	}
	if err != nil {
		return nil, err
	}
	c.Archived = false
	return s.carts.Save(ctx, c)
}

// ApplyPromoCode attaches a code to the active cart. Unknown, inactive and
// expired codes are rejected with domain.ErrInvalidPromoCode.
func (s *Service) ApplyPromoCode(ctx context.Context, customerID, code string) (*domain.Cart, error) {
	c, err := s.active(ctx, customerID)
	if err != nil {
		return nil, err
	}
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code required", domain.ErrInvalidPromoCode)
	}
	promo, err := s.promos.FindActiveUnexpired(ctx, normalized)
	if errors.Is(err, domain.ErrPromoNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPromoCode, normalized)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup promo code %s: %w", normalized, err)
	}
	if !promo.Usable(s.now()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPromoCode, normalized)
	}
	c.AppliedPromoCode = promo.Code
	saved, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promo code applied",
		zap.String("customer_id", customerID),
		zap.String("code", promo.Code),
		zap.String("discount", saved.DiscountAmount.StringFixed(2)),
	)
	return saved, nil
}

// RemovePromoCode detaches the applied code. Without one the cart is returned
// as stored.
func (s *Service) RemovePromoCode(ctx context.Context, customerID string) (*domain.Cart, error) {
	c, err := s.active(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.AppliedPromoCode == "" {
		return c, nil
	}
	code := c.AppliedPromoCode
	c.AppliedPromoCode = ""
	saved, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promo code removed", zap.String("customer_id", customerID), zap.String("code", code))
	return saved, nil
}

func (s *Service) active(ctx context.Context, customerID string) (*domain.Cart, error) {
	c, err := s.carts.FindActive(ctx, customerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrNoActiveCart
	}
	return c, err
}

func (s *Service) recalculate(ctx context.Context, c *domain.Cart) error {
	out, err := pricing.Recalculate(ctx, c, s.promos, s.now())
	if err != nil {
		return err
	}
	if out.DroppedCode != "" {
		s.logger.Warn("promo code dropped from cart",
			zap.String("customer_id", c.CustomerID),
			zap.String("cart_id", c.ID),
			zap.String("code", out.DroppedCode),
			zap.String("reason", out.Reason),
		)
	}
	return nil
}

func (s *Service) save(ctx context.Context, c *domain.Cart) (*domain.Cart, error) {
	if err := s.recalculate(ctx, c); err != nil {
		return nil, err
	}
	return s.carts.Save(ctx, c)
}
