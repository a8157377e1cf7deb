package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCheckout(t *testing.T) (*CheckoutUsecase, *MockPaymentGateway, *memory.ListingStore) {
	t.Helper()
	store := memory.NewListingStore()
	seedListing(t, store, &domain.Listing{ID: "x", SellerID: "s1", Title: "Bike"})
	seedListing(t, store, &domain.Listing{ID: "sold", SellerID: "s1", Status: domain.StatusSold})

	gw := new(MockPaymentGateway)
	boosts := NewBoostUsecase(store, clock.NewFake(t0), BoostDeps{}, logger.NewNop())
	return NewCheckoutUsecase(gw, store, boosts, logger.NewNop()), gw, store
}

func TestCreateBoostCheckout(t *testing.T) {
	uc, gw, _ := newCheckout(t)
	ctx := context.Background()

	gw.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(r CheckoutRequest) bool {
		return r.ListingID == "x" && r.Plan.Hours == 48 && r.Plan.PriceCents == 500
	})).Return(&Checkout{PreferenceID: "pref-1", CheckoutURL: "https://pay.example.com/pref-1"}, nil).Once()

	co, err := uc.CreateBoostCheckout(ctx, Actor{UserID: "s1"}, "x", 48)
	require.NoError(t, err)
	assert.Equal(t, "pref-1", co.PreferenceID)
	gw.AssertExpectations(t)
}

func TestCreateBoostCheckout_Rejections(t *testing.T) {
	uc, gw, _ := newCheckout(t)
	ctx := context.Background()

	_, err := uc.CreateBoostCheckout(ctx, Actor{UserID: "s1"}, "x", 12)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateBoostCheckout(ctx, Actor{UserID: "intruder"}, "x", 24)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.CreateBoostCheckout(ctx, Actor{UserID: "s1"}, "sold", 24)
	assert.ErrorIs(t, err, domain.ErrListingNotActive)

	_, err = uc.CreateBoostCheckout(ctx, Actor{UserID: "s1"}, "missing", 24)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestConfirmPayment_AppliesApprovedPaymentOnce(t *testing.T) {
	uc, gw, store := newCheckout(t)
	ctx := context.Background()
	gw.On("GetPayment", mock.Anything, "991").
		Return(&Payment{ID: "991", Status: PaymentStatusApproved, ListingID: "x", DurationHours: 24}, nil)

	res, err := uc.ConfirmPayment(ctx, "991")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Applied)

	res, err = uc.ConfirmPayment(ctx, "991")
	require.NoError(t, err)
	assert.False(t, res.Applied)

	l, err := store.FindByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), *l.FeaturedUntil)
}

func TestConfirmPayment_IgnoresPendingPayment(t *testing.T) {
	uc, gw, store := newCheckout(t)
	gw.On("GetPayment", mock.Anything, "992").
		Return(&Payment{ID: "992", Status: "pending", ListingID: "x", DurationHours: 24}, nil)

	res, err := uc.ConfirmPayment(context.Background(), "992")
	require.NoError(t, err)
	assert.Nil(t, res)

	l, err := store.FindByID(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, l.Featured)
}

func TestConfirmPayment_Errors(t *testing.T) {
	uc, gw, _ := newCheckout(t)
	ctx := context.Background()

	_, err := uc.ConfirmPayment(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	gw.On("GetPayment", mock.Anything, "boom").Return(nil, assert.AnError)
	_, err = uc.ConfirmPayment(ctx, "boom")
	assert.ErrorIs(t, err, assert.AnError)

	gw.On("GetPayment", mock.Anything, "orphan").
		Return(&Payment{ID: "orphan", Status: PaymentStatusApproved, ListingID: "gone", DurationHours: 24}, nil)
	_, err = uc.ConfirmPayment(ctx, "orphan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
