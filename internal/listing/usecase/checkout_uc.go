package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// BoostApplier is the slice of BoostUsecase the payment flow needs.
type BoostApplier interface {
	ApplyBoost(ctx context.Context, order domain.BoostOrder) (domain.BoostResult, error)
}

// CheckoutUsecase sells boosts through the payment gateway and turns
// approved payments into boost orders.
type CheckoutUsecase struct {
	gateway PaymentGateway
	repo    domain.ListingRepository
	boosts  BoostApplier
	logger  *logger.Logger
}

func NewCheckoutUsecase(gateway PaymentGateway, repo domain.ListingRepository, boosts BoostApplier, log *logger.Logger) *CheckoutUsecase {
	return &CheckoutUsecase{
		gateway: gateway,
		repo:    repo,
		boosts:  boosts,
		logger:  log.Named("CheckoutUsecase"),
	}
}

// CreateBoostCheckout starts a payment for one of the fixed boost plans.
// Only the owner of an active listing may buy a boost.
func (uc *CheckoutUsecase) CreateBoostCheckout(ctx context.Context, actor Actor, listingID string, hours int) (*Checkout, error) {
	plan, err := domain.PlanFor(hours)
	if err != nil {
		return nil, err
	}
	listing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if listing.Status != domain.StatusActive {
		return nil, fmt.Errorf("%w: listing is %s", domain.ErrListingNotActive, listing.Status)
	}

	checkout, err := uc.gateway.CreateCheckout(ctx, CheckoutRequest{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		SellerID:     listing.SellerID,
		Plan:         plan,
	})
	if err != nil {
		uc.logger.Error("Failed to create boost checkout", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	uc.logger.Info("Boost checkout created",
		zap.String("listing_id", listingID),
		zap.Int("hours", hours),
		zap.String("preference_id", checkout.PreferenceID))
	return checkout, nil
}

// ConfirmPayment looks the payment up at the provider and applies the boost
// when it is approved. Other statuses are acknowledged and ignored so the
// provider stops retrying; a later notification for the same payment will
// carry the final status.
func (uc *CheckoutUsecase) ConfirmPayment(ctx context.Context, paymentID string) (*domain.BoostResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", domain.ErrInvalidInput)
	}
	payment, err := uc.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		uc.logger.Error("Failed to fetch payment", zap.Error(err), zap.String("payment_id", paymentID))
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	if payment.Status != PaymentStatusApproved {
		uc.logger.Info("Ignoring non-approved payment",
			zap.String("payment_id", paymentID),
			zap.String("status", payment.Status))
		return nil, nil
	}

	res, err := uc.boosts.ApplyBoost(ctx, domain.BoostOrder{
		ListingID:     payment.ListingID,
		DurationHours: payment.DurationHours,
		PaymentID:     payment.ID,
		Source:        "webhook",
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
