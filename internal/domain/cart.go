package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cartservice/internal/money"
	"github.com/shopspring/decimal"
)

// Cart is the per-customer basket. SubTotal, DiscountAmount and TotalPrice are
// derived by the pricing package and are never written by callers directly.
type Cart struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customerId"`
	Items            []CartItem      `json:"items"`
	Archived         bool            `json:"archived"`
	AppliedPromoCode string          `json:"appliedPromoCode,omitempty"`
	SubTotal         decimal.Decimal `json:"subTotal"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewCart returns an empty, active cart with zeroed totals.
func NewCart(id, customerID string, now time.Time) *Cart {
	return &Cart{
		ID:             id,
		CustomerID:     customerID,
		Items:          []CartItem{},
		SubTotal:       money.Zero(),
		DiscountAmount: money.Zero(),
		TotalPrice:     money.Zero(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ItemTotal is unitPrice × quantity.
func (i CartItem) ItemTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MaxQuantity bounds a line's quantity to what the cart_items column holds.
const MaxQuantity = math.MaxInt32

func (i CartItem) Validate() error {
	switch {
	case strings.TrimSpace(i.ProductID) == "":
		return fmt.Errorf("%w: productId required", ErrInvalidItem)
	case i.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	case i.Quantity > MaxQuantity:
		return fmt.Errorf("%w: quantity exceeds %d", ErrInvalidItem, MaxQuantity)
	case i.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unitPrice must not be negative", ErrInvalidItem)
	}
	return nil
}

// MergeQuantity adds n to the line's quantity, rejecting a sum past MaxQuantity.
func (i *CartItem) MergeQuantity(n int) error {
	if n > MaxQuantity-i.Quantity {
		return fmt.Errorf("%w: quantity exceeds %d", ErrInvalidItem, MaxQuantity)
	}
	i.Quantity += n
	return nil
}

// FindItem returns the index of the line for productID.
func (c *Cart) FindItem(productID string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

// RemoveItem drops the line for productID and returns a copy of it.
func (c *Cart) RemoveItem(productID string) (CartItem, bool) {
	idx, ok := c.FindItem(productID)
	if !ok {
		return CartItem{}, false
	}
	removed := c.Items[idx]
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return removed, true
}

// Clear empties the item list and drops the promo code. Totals are left to the
// next recalculation.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.AppliedPromoCode = ""
}

// Clone deep-copies the cart, including its item list.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = c.CopyItems()
	return &out
}

func (c *Cart) CopyItems() []CartItem {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return items
}
