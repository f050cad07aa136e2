package seed

import (
	"context"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type promoUpserter interface {
	Upsert(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error)
}

// Promos returns the demo promo codes. Expiry dates are relative to now so a
// reseed keeps them meaningful.
func Promos(now time.Time) []domain.PromoCode {
	inAMonth := now.AddDate(0, 1, 0)
	yesterday := now.AddDate(0, 0, -1)
	minimum := decimal.RequireFromString("50.00")
	return []domain.PromoCode{
		{
			Code:          "WELCOME10",
			Description:   "10% off for new customers",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.RequireFromString("10"),
			Active:        true,
		},
		{
			Code:          "SAVE5",
			Description:   "5.00 off any order",
			DiscountType:  domain.DiscountFixedAmount,
			DiscountValue: decimal.RequireFromString("5.00"),
			Active:        true,
		},
		{
			Code:                  "SUMMER25",
			Description:           "25% summer sale",
			DiscountType:          domain.DiscountPercentage,
			DiscountValue:         decimal.RequireFromString("25"),
			Active:                true,
			ExpiryDate:            &inAMonth,
			MinimumPurchaseAmount: &minimum,
		},
		{
			Code:          "SPRING15",
			Description:   "Finished spring campaign",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.RequireFromString("15"),
			Active:        true,
			ExpiryDate:    &yesterday,
		},
		{
			Code:          "RETIRED",
			Description:   "Deactivated code",
			DiscountType:  domain.DiscountFixedAmount,
			DiscountValue: decimal.RequireFromString("20.00"),
			Active:        false,
		},
	}
}

// Apply upserts the demo promo codes. It is idempotent on the code.
func Apply(ctx context.Context, repo promoUpserter, logger *zap.Logger, now time.Time) error {
	for _, p := range Promos(now) {
		saved, err := repo.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert promo %s: %w", p.Code, err)
		}
		logger.Info("promo code seeded", zap.String("code", saved.Code), zap.String("id", saved.ID))
	}
	return nil
}
