package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger, now: time.Now}
}

func (r *postgresRepo) FindActiveUnexpired(ctx context.Context, code string) (*domain.PromoCode, error) {
	const q = `
SELECT id::text, code, COALESCE(description, ''), discount_type, discount_value::text,
       active, expiry_date, minimum_purchase_amount::text
FROM promo_codes
WHERE code = $1
  AND active
  AND (expiry_date IS NULL OR expiry_date > $2)
`
	var p domain.PromoCode
	var discountType, value string
	var minimum *string
	err := r.pool.QueryRow(ctx, q, domain.NormalizeCode(code), r.now()).Scan(
		&p.ID,
		&p.Code,
		&p.Description,
		&discountType,
		&value,
		&p.Active,
		&p.ExpiryDate,
		&minimum,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, err
	}

	p.DiscountType = domain.DiscountType(discountType)
	if p.DiscountValue, err = money.Parse(value); err != nil {
		return nil, fmt.Errorf("parse discount_value: %w", err)
	}
	if minimum != nil {
		m, err := money.Parse(*minimum)
		if err != nil {
			return nil, fmt.Errorf("parse minimum_purchase_amount: %w", err)
		}
		p.MinimumPurchaseAmount = &m
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error) {
	if err := validate(promo); err != nil {
		return nil, err
	}
	promo.Code = domain.NormalizeCode(promo.Code)

	const q = `
INSERT INTO promo_codes (code, description, discount_type, discount_value, active, expiry_date, minimum_purchase_amount)
VALUES ($1, NULLIF($2, ''), $3, $4::numeric, $5, $6, $7::numeric)
ON CONFLICT (code) DO UPDATE
SET description = EXCLUDED.description,
    discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    active = EXCLUDED.active,
    expiry_date = EXCLUDED.expiry_date,
    minimum_purchase_amount = EXCLUDED.minimum_purchase_amount
RETURNING id::text
`
	var minimum *string
	if promo.MinimumPurchaseAmount != nil {
		s := money.Format(*promo.MinimumPurchaseAmount)
		minimum = &s
	}
	err := r.pool.QueryRow(ctx, q,
		promo.Code,
		promo.Description,
		string(promo.DiscountType),
		money.Format(promo.DiscountValue),
		promo.Active,
		promo.ExpiryDate,
		minimum,
	).Scan(&promo.ID)
	if err != nil {
		return nil, fmt.Errorf("upsert promo code %s: %w", promo.Code, err)
	}
	r.logger.Debug("promo code stored", zap.String("code", promo.Code))
	return &promo, nil
}

func validate(p domain.PromoCode) error {
	switch {
	case domain.NormalizeCode(p.Code) == "":
		return errors.New("promo code required")
	case !p.DiscountType.Valid():
		return fmt.Errorf("unsupported discount type %q", p.DiscountType)
	case !p.DiscountValue.GreaterThan(decimal.Zero):
		return errors.New("discount value must be positive")
	}
	return nil
}
