package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

// PromoCode is owned by the promotions subsystem; the cart core only reads it.
// MinimumPurchaseAmount is carried but not enforced.
type PromoCode struct {
	ID                    string           `json:"id"`
	Code                  string           `json:"code"`
	Description           string           `json:"description,omitempty"`
	DiscountType          DiscountType     `json:"discountType"`
	DiscountValue         decimal.Decimal  `json:"discountValue"`
	Active                bool             `json:"active"`
	ExpiryDate            *time.Time       `json:"expiryDate,omitempty"`
	MinimumPurchaseAmount *decimal.Decimal `json:"minimumPurchaseAmount,omitempty"`
}

// Expired reports whether the code has an expiry date before now.
func (p PromoCode) Expired(now time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.Before(now)
}

// Usable reports whether the code is active and not expired at now.
func (p PromoCode) Usable(now time.Time) bool {
	return p.Active && !p.Expired(now)
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
