package promo

import (
	"context"

	"cartservice/internal/domain"
)

// Lookup resolves codes that are active and not expired. Misses return
// domain.ErrPromoNotFound.
type Lookup interface {
	FindActiveUnexpired(ctx context.Context, code string) (*domain.PromoCode, error)
}

// Repository is the store behind Lookup. Upsert exists for fixtures; promo
// administration lives outside this service.
type Repository interface {
	Lookup
	Upsert(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error)
}
