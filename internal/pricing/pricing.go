// Package pricing derives a cart's subtotal, discount and total from its items
// and its applied promo code.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/shopspring/decimal"
)

// PromoLookup resolves a code to an active, unexpired promo definition, or
// returns domain.ErrPromoNotFound.
type PromoLookup interface {
	FindActiveUnexpired(ctx context.Context, code string) (*domain.PromoCode, error)
}

// Outcome describes what a recalculation did to the applied promo code.
type Outcome struct {
	// DroppedCode is the code removed from the cart, if any.
	DroppedCode string
	// Reason is "expired" or "unavailable" when DroppedCode is set.
	Reason string
}

const (
	ReasonExpired     = "expired"
	ReasonUnavailable = "unavailable"
)

// Recalculate rewrites cart.SubTotal, cart.DiscountAmount and cart.TotalPrice.
// An applied code that is gone or expired is cleared from the cart without an
// error; only a failing lookup is reported. The cart is not persisted.
func Recalculate(ctx context.Context, cart *domain.Cart, promos PromoLookup, now time.Time) (Outcome, error) {
	var out Outcome
	subTotal := SubTotal(cart.Items)
	discount := decimal.Zero

	if cart.AppliedPromoCode != "" {
		code := cart.AppliedPromoCode
		promo, err := promos.FindActiveUnexpired(ctx, code)
		switch {
		case errors.Is(err, domain.ErrPromoNotFound):
			cart.AppliedPromoCode = ""
			out = Outcome{DroppedCode: code, Reason: ReasonUnavailable}
		case err != nil:
			return Outcome{}, fmt.Errorf("lookup promo code %s: %w", code, err)
		case promo.Expired(now):
			cart.AppliedPromoCode = ""
			out = Outcome{DroppedCode: code, Reason: ReasonExpired}
		default:
			discount = Discount(*promo, subTotal)
		}
	}

	discount = money.Round(money.Clamp(discount, decimal.Zero, subTotal))
	cart.SubTotal = subTotal
	cart.DiscountAmount = discount
	cart.TotalPrice = money.Round(subTotal.Sub(discount))
	return out, nil
}

// SubTotal sums unitPrice × quantity over lines with a positive quantity and
// rounds the result to two places.
func SubTotal(items []domain.CartItem) decimal.Decimal {
	sum := money.Zero()
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		sum = sum.Add(item.ItemTotal())
	}
	return money.Round(sum)
}

// Discount computes the raw discount a promo grants on subTotal, before
// clamping. Percentages use a multiplier rounded to two places first, so 12.5%
// applies as 13%.
func Discount(promo domain.PromoCode, subTotal decimal.Decimal) decimal.Decimal {
	switch promo.DiscountType {
	case domain.DiscountPercentage:
		return subTotal.Mul(money.PercentFactor(promo.DiscountValue))
	case domain.DiscountFixedAmount:
		return promo.DiscountValue
	default:
		return decimal.Zero
	}
}
