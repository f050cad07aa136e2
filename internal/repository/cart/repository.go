package cart

import (
	"context"

	"cartservice/internal/domain"
)

// Repository stores at most one active cart per customer. Finders return
// domain.ErrCartNotFound when nothing matches.
type Repository interface {
	FindActive(ctx context.Context, customerID string) (*domain.Cart, error)
	FindArchived(ctx context.Context, customerID string) (*domain.Cart, error)
	// FindAny prefers the active cart and falls back to the newest archived one.
	FindAny(ctx context.Context, customerID string) (*domain.Cart, error)
	// Save inserts or fully replaces the cart, including its item list.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	Delete(ctx context.Context, cart *domain.Cart) error
	Ping(ctx context.Context) error
}
