package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const promoCollection = "promo_codes"

type promoDocument struct {
	ID                    string     `bson:"_id"`
	Code                  string     `bson:"code"`
	Description           string     `bson:"description,omitempty"`
	DiscountType          string     `bson:"discount_type"`
	DiscountValue         string     `bson:"discount_value"`
	Active                bool       `bson:"active"`
	ExpiryDate            *time.Time `bson:"expiry_date"`
	MinimumPurchaseAmount *string    `bson:"minimum_purchase_amount"`
}

type mongoRepo struct {
	collection *mongo.Collection
	logger     *zap.Logger
	now        func() time.Time
}

func NewMongo(db *mongo.Database, logger *zap.Logger) Repository {
	return &mongoRepo{collection: db.Collection(promoCollection), logger: logger, now: time.Now}
}

// EnsureIndexes makes codes unique.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(promoCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create promo_codes index: %w", err)
	}
	return nil
}

func (m *mongoRepo) FindActiveUnexpired(ctx context.Context, code string) (*domain.PromoCode, error) {
	filter := bson.M{
		"code":   domain.NormalizeCode(code),
		"active": true,
		"$or": bson.A{
			bson.M{"expiry_date": nil},
			bson.M{"expiry_date": bson.M{"$gt": m.now()}},
		},
	}
	var doc promoDocument
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	p := &domain.PromoCode{
		ID:           doc.ID,
		Code:         doc.Code,
		Description:  doc.Description,
		DiscountType: domain.DiscountType(doc.DiscountType),
		Active:       doc.Active,
		ExpiryDate:   doc.ExpiryDate,
	}
	var err error
	if p.DiscountValue, err = money.Parse(doc.DiscountValue); err != nil {
		return nil, fmt.Errorf("parse discount_value: %w", err)
	}
	if doc.MinimumPurchaseAmount != nil {
		minimum, err := money.Parse(*doc.MinimumPurchaseAmount)
		if err != nil {
			return nil, fmt.Errorf("parse minimum_purchase_amount: %w", err)
		}
		p.MinimumPurchaseAmount = &minimum
	}
	return p, nil
}

func (m *mongoRepo) Upsert(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error) {
	if err := validate(promo); err != nil {
		return nil, err
	}
	promo.Code = domain.NormalizeCode(promo.Code)

	set := bson.M{
		"code":           promo.Code,
		"description":    promo.Description,
		"discount_type":  string(promo.DiscountType),
		"discount_value": money.Format(promo.DiscountValue),
		"active":         promo.Active,
		"expiry_date":    promo.ExpiryDate,
	}
	if promo.MinimumPurchaseAmount != nil {
		set["minimum_purchase_amount"] = money.Format(*promo.MinimumPurchaseAmount)
	} else {
		set["minimum_purchase_amount"] = nil
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc promoDocument
	if err := m.collection.FindOneAndUpdate(ctx, bson.M{"code": promo.Code}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert promo code %s: %w", promo.Code, err)
	}
	promo.ID = doc.ID
	m.logger.Debug("promo code stored", zap.String("code", promo.Code))
	return &promo, nil
}
