package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ConfirmationType string

const (
	ConfirmationOTP       ConfirmationType = "OTP"
	ConfirmationQRCode    ConfirmationType = "QR_CODE"
	ConfirmationSignature ConfirmationType = "SIGNATURE"
)

// ParseConfirmationType accepts the enum name in any case.
func ParseConfirmationType(s string) (ConfirmationType, error) {
	switch t := ConfirmationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ConfirmationOTP, ConfirmationQRCode, ConfirmationSignature:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidConfirmationType, s)
	}
}

// RequiresSignature reports whether checkout must carry a signature.
func (t ConfirmationType) RequiresSignature() bool {
	return t == ConfirmationSignature
}

type Confirmation struct {
	Type      ConfirmationType `json:"type"`
	Signature string           `json:"signature,omitempty"`
}

type DeliveryAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OrderIntent is the write-once snapshot handed to the order subsystem at
// checkout.
type OrderIntent struct {
	EventID          string           `json:"eventId"`
	CustomerID       string           `json:"customerId"`
	CartID           string           `json:"cartId"`
	Items            []CartItem       `json:"items"`
	SubTotal         decimal.Decimal  `json:"subTotal"`
	DiscountAmount   decimal.Decimal  `json:"discountAmount"`
	TotalPrice       decimal.Decimal  `json:"totalPrice"`
	AppliedPromoCode string           `json:"appliedPromoCode,omitempty"`
	Confirmation     Confirmation     `json:"confirmation"`
	DeliveryAddress  *DeliveryAddress `json:"deliveryAddress,omitempty"`
	Location         *GeoPoint        `json:"location,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}
