package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

const cartColumns = `id::text, customer_id, archived, COALESCE(applied_promo_code, ''),
       sub_total::text, discount_amount::text, total_price::text, created_at, updated_at`

func (r *postgresRepo) FindActive(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE customer_id = $1 AND archived = FALSE
ORDER BY created_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, q, customerID)
}

func (r *postgresRepo) FindArchived(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE customer_id = $1 AND archived = TRUE
ORDER BY updated_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, q, customerID)
}

func (r *postgresRepo) FindAny(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE customer_id = $1
ORDER BY archived ASC, updated_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, q, customerID)
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var promo *string
	if cart.AppliedPromoCode != "" {
		promo = &cart.AppliedPromoCode
	}
	cart.UpdatedAt = time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO carts (id, customer_id, archived, applied_promo_code, sub_total, discount_amount, total_price, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9)
ON CONFLICT (id) DO UPDATE
SET archived = EXCLUDED.archived,
    applied_promo_code = EXCLUDED.applied_promo_code,
    sub_total = EXCLUDED.sub_total,
    discount_amount = EXCLUDED.discount_amount,
    total_price = EXCLUDED.total_price,
    updated_at = EXCLUDED.updated_at
`,
		cart.ID,
		cart.CustomerID,
		cart.Archived,
		promo,
		money.Format(cart.SubTotal),
		money.Format(cart.DiscountAmount),
		money.Format(cart.TotalPrice),
		cart.CreatedAt,
		cart.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return nil, fmt.Errorf("reset cart items: %w", err)
	}

	if len(cart.Items) > 0 {
		batch := &pgx.Batch{}
		for pos, item := range cart.Items {
			batch.Queue(`
INSERT INTO cart_items (cart_id, position, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5::numeric)
`, cart.ID, pos, item.ProductID, item.Quantity, item.UnitPrice.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("insert cart items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("cart saved", zap.String("cart_id", cart.ID), zap.Int("items", len(cart.Items)))
	return cart, nil
}

func (r *postgresRepo) Delete(ctx context.Context, cart *domain.Cart) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	var subTotal, discount, total string
	err := r.pool.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.Archived,
		&cart.AppliedPromoCode,
		&subTotal,
		&discount,
		&total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	if cart.SubTotal, err = money.Parse(subTotal); err != nil {
		return nil, fmt.Errorf("parse sub_total: %w", err)
	}
	if cart.DiscountAmount, err = money.Parse(discount); err != nil {
		return nil, fmt.Errorf("parse discount_amount: %w", err)
	}
	if cart.TotalPrice, err = money.Parse(total); err != nil {
		return nil, fmt.Errorf("parse total_price: %w", err)
	}

	const linesQuery = `
SELECT product_id, quantity, unit_price::text
FROM cart_items
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		var price string
		if err := rows.Scan(&item.ProductID, &item.Quantity, &price); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = money.Parse(price); err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}
