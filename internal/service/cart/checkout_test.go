package cart

import (
	"context"
	"errors"
	"testing"

	"cartservice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutPublishesAndClears(t *testing.T) {
	f := newFixture(percentPromo("TEN", "10"))
	ctx := context.Background()
	seededCart(t, f,
		domain.CartItem{ProductID: "p1", Quantity: 2, UnitPrice: dec("10.00")},
		domain.CartItem{ProductID: "p2", Quantity: 1, UnitPrice: dec("5.00")},
	)
	_, err := f.svc.ApplyPromoCode(ctx, "cust-1", "TEN")
	require.NoError(t, err)

	c, err := f.svc.Checkout(ctx, "cust-1", CheckoutInput{
		ConfirmationType: "signature",
		Signature:        "base64-sig",
		DeliveryAddress:  &domain.DeliveryAddress{Street: "1 Nile St", City: "Cairo", Country: "EG"},
		Location:         &domain.GeoPoint{Latitude: 30.04, Longitude: 31.23},
	})
	require.NoError(t, err)

	assert.Empty(t, c.Items)
	assert.Empty(t, c.AppliedPromoCode)
	assertTotals(t, c, "0.00", "0.00", "0.00")
	stored := f.store.stored(t, "cust-1")
	assert.Empty(t, stored.Items)
	assertTotals(t, stored, "0.00", "0.00", "0.00")

	require.Len(t, f.publisher.intents, 1)
	assert.Equal(t, []string{DefaultOrderTopic}, f.publisher.topics)
	intent := f.publisher.intents[0]
	assert.NotEmpty(t, intent.EventID)
	assert.Equal(t, "cust-1", intent.CustomerID)
	assert.Equal(t, c.ID, intent.CartID)
	assert.Len(t, intent.Items, 2)
	assert.Equal(t, "TEN", intent.AppliedPromoCode)
	assert.Equal(t, "25.00", intent.SubTotal.StringFixed(2))
	assert.Equal(t, "2.50", intent.DiscountAmount.StringFixed(2))
	assert.Equal(t, "22.50", intent.TotalPrice.StringFixed(2))
	assert.Equal(t, domain.Confirmation{Type: domain.ConfirmationSignature, Signature: "base64-sig"}, intent.Confirmation)
	assert.Equal(t, "Cairo", intent.DeliveryAddress.City)
	assert.Equal(t, 30.04, intent.Location.Latitude)
	assert.Equal(t, testNow, intent.CreatedAt)
}

func TestCheckoutUsesConfiguredTopic(t *testing.T) {
	f := newFixture()
	f.svc.cfg.OrderTopic = "orders.v2"
	seededCart(t, f, domain.CartItem{ProductID: "p1", Quantity: 1, UnitPrice: dec("1")})

	_, err := f.svc.Checkout(context.Background(), "cust-1", CheckoutInput{ConfirmationType: "OTP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders.v2"}, f.publisher.topics)
}

func TestCheckoutIntentIsDetachedFromCart(t *testing.T) {
	f := newFixture()
	seededCart(t, f, domain.CartItem{ProductID: "p1", Quantity: 3, UnitPrice: dec("2")})

	_, err := f.svc.Checkout(context.Background(), "cust-1", CheckoutInput{ConfirmationType: "QR_CODE"})
	require.NoError(t, err)
	require.Len(t, f.publisher.intents, 1)
	assert.Equal(t, []domain.CartItem{{ProductID: "p1", Quantity: 3, UnitPrice: dec("2")}}, f.publisher.intents[0].Items)
}

func TestCheckoutRejections(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.CartItem
		in    CheckoutInput
		want  error
	}{
		{name: "empty cart", in: CheckoutInput{ConfirmationType: "OTP"}, want: domain.ErrEmptyCart},
		{
			name:  "missing signature",
			items: []domain.CartItem{{ProductID: "p1", Quantity: 1, UnitPrice: dec("1")}},
			in:    CheckoutInput{ConfirmationType: "SIGNATURE", Signature: "  "},
			want:  domain.ErrMissingSignature,
		},
		{
			name:  "unknown confirmation",
			items: []domain.CartItem{{ProductID: "p1", Quantity: 1, UnitPrice: dec("1")}},
			in:    CheckoutInput{ConfirmationType: "CARRIER_PIGEON"},
			want:  domain.ErrInvalidConfirmationType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			seededCart(t, f, tt.items...)
			saves := f.store.saves

			_, err := f.svc.Checkout(context.Background(), "cust-1", tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.publisher.intents)
			assert.Equal(t, saves, f.store.saves)
		})
	}
}

func TestCheckoutWithoutActiveCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(), "cust-1", CheckoutInput{ConfirmationType: "OTP"})
	assert.ErrorIs(t, err, domain.ErrNoActiveCart)
	assert.Empty(t, f.publisher.intents)
}

func TestCheckoutPublishFailureLeavesCartUntouched(t *testing.T) {
	promo := percentPromo("TEN", "10")
	f := newFixture(promo)
	ctx := context.Background()
	seededCart(t, f, domain.CartItem{ProductID: "p1", Quantity: 2, UnitPrice: dec("10.00")})
	_, err := f.svc.ApplyPromoCode(ctx, "cust-1", "TEN")
	require.NoError(t, err)
	before := f.store.stored(t, "cust-1")
	saves := f.store.saves

	// revoked after apply: recalculation drops it in memory only
	delete(f.promos.promos, "TEN")
	transport := errors.New("kafka: leader not available")
	f.publisher.err = transport

	_, err = f.svc.Checkout(ctx, "cust-1", CheckoutInput{ConfirmationType: "OTP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCheckoutPublishFailed)
	assert.ErrorIs(t, err, transport)

	require.Len(t, f.publisher.intents, 1)
	assert.Empty(t, f.publisher.intents[0].AppliedPromoCode)
	assert.Equal(t, saves, f.store.saves)
	assert.Equal(t, before, f.store.stored(t, "cust-1"))
}

func TestCheckoutStoreFailureAfterPublish(t *testing.T) {
	f := newFixture()
	seededCart(t, f, domain.CartItem{ProductID: "p1", Quantity: 1, UnitPrice: dec("1")})
	f.store.saveErr = errors.New("disk full")

	_, err := f.svc.Checkout(context.Background(), "cust-1", CheckoutInput{ConfirmationType: "OTP"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCheckoutPublishFailed)
	assert.Len(t, f.publisher.intents, 1)
}
