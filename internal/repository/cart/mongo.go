package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const cartsCollection = "carts"

// cartDocument is the Mongo shape of a cart. Amounts are kept as fixed
// two-decimal strings so they survive the round trip without float drift.
type cartDocument struct {
	ID               string         `bson:"_id"`
	CustomerID       string         `bson:"customer_id"`
	Items            []itemDocument `bson:"items"`
	Archived         bool           `bson:"archived"`
	AppliedPromoCode string         `bson:"applied_promo_code,omitempty"`
	SubTotal         string         `bson:"sub_total"`
	DiscountAmount   string         `bson:"discount_amount"`
	TotalPrice       string         `bson:"total_price"`
	CreatedAt        time.Time      `bson:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at"`
}

type itemDocument struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
	UnitPrice string `bson:"unit_price"`
}

type mongoRepo struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongo(db *mongo.Database, logger *zap.Logger) Repository {
	return &mongoRepo{collection: db.Collection(cartsCollection), logger: logger}
}

// EnsureIndexes creates the customer/archived lookup index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(cartsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "archived", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create carts index: %w", err)
	}
	return nil
}

func (m *mongoRepo) FindActive(ctx context.Context, customerID string) (*domain.Cart, error) {
	return m.findOne(ctx,
		bson.M{"customer_id": customerID, "archived": false},
		bson.D{{Key: "created_at", Value: -1}},
	)
}

func (m *mongoRepo) FindArchived(ctx context.Context, customerID string) (*domain.Cart, error) {
	return m.findOne(ctx,
		bson.M{"customer_id": customerID, "archived": true},
		bson.D{{Key: "updated_at", Value: -1}},
	)
}

func (m *mongoRepo) FindAny(ctx context.Context, customerID string) (*domain.Cart, error) {
	return m.findOne(ctx,
		bson.M{"customer_id": customerID},
		bson.D{{Key: "archived", Value: 1}, {Key: "updated_at", Value: -1}},
	)
}

func (m *mongoRepo) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	cart.UpdatedAt = time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}

	doc := toDocument(cart)
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	m.logger.Debug("cart saved", zap.String("cart_id", cart.ID), zap.Int("items", len(cart.Items)))
	return cart, nil
}

func (m *mongoRepo) Delete(ctx context.Context, cart *domain.Cart) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": cart.ID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (m *mongoRepo) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

func (m *mongoRepo) findOne(ctx context.Context, filter bson.M, sort bson.D) (*domain.Cart, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, filter, options.FindOne().SetSort(sort)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return fromDocument(doc)
}

func toDocument(c *domain.Cart) cartDocument {
	items := make([]itemDocument, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, itemDocument{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		})
	}
	return cartDocument{
		ID:               c.ID,
		CustomerID:       c.CustomerID,
		Items:            items,
		Archived:         c.Archived,
		AppliedPromoCode: c.AppliedPromoCode,
		SubTotal:         money.Format(c.SubTotal),
		DiscountAmount:   money.Format(c.DiscountAmount),
		TotalPrice:       money.Format(c.TotalPrice),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func fromDocument(doc cartDocument) (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:               doc.ID,
		CustomerID:       doc.CustomerID,
		Items:            make([]domain.CartItem, 0, len(doc.Items)),
		Archived:         doc.Archived,
		AppliedPromoCode: doc.AppliedPromoCode,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	var err error
	for _, it := range doc.Items {
		item := domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
		if item.UnitPrice, err = money.Parse(it.UnitPrice); err != nil {
			return nil, fmt.Errorf("parse unit_price of %s: %w", it.ProductID, err)
		}
		cart.Items = append(cart.Items, item)
	}
	if cart.SubTotal, err = money.Parse(doc.SubTotal); err != nil {
		return nil, fmt.Errorf("parse sub_total: %w", err)
	}
	if cart.DiscountAmount, err = money.Parse(doc.DiscountAmount); err != nil {
		return nil, fmt.Errorf("parse discount_amount: %w", err)
	}
	if cart.TotalPrice, err = money.Parse(doc.TotalPrice); err != nil {
		return nil, fmt.Errorf("parse total_price: %w", err)
	}
	return cart, nil
}
