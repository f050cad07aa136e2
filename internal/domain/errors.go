package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	ErrCartNotFound   = fmt.Errorf("cart %w", ErrNotFound)
	ErrNoActiveCart   = fmt.Errorf("no active %w", ErrCartNotFound)
	ErrNoArchivedCart = fmt.Errorf("no archived %w", ErrCartNotFound)

	// ErrProductNotFound is returned when a quantity update targets a product
	// that has no line in the cart.
	ErrProductNotFound = fmt.Errorf("product %w in cart", ErrNotFound)

	// ErrPromoNotFound is the lookup-level miss for unknown, inactive or
	// expired codes. The cart service turns it into ErrInvalidPromoCode or a
	// silent removal, depending on the path.
	ErrPromoNotFound = fmt.Errorf("promo code %w", ErrNotFound)

	ErrInvalidPromoCode        = errors.New("invalid, inactive, or expired promo code")
	ErrEmptyCart               = errors.New("cannot checkout an empty cart")
	ErrMissingSignature        = errors.New("signature is required for SIGNATURE confirmation type")
	ErrInvalidConfirmationType = errors.New("invalid confirmation type")
	ErrCheckoutPublishFailed   = errors.New("checkout failed: could not publish order")

	ErrInvalidItem = errors.New("invalid cart item")
)

