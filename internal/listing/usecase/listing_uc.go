package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ListingUsecase covers the seller-facing listing lifecycle.
type ListingUsecase struct {
	repo           domain.ListingRepository
	users          domain.UserRepository
	publisher      EventPublisher
	cache          ListingCache
	clock          clock.Clock
	freeTierActive int
	logger         *logger.Logger
}

func NewListingUsecase(
	repo domain.ListingRepository,
	users domain.UserRepository,
	publisher EventPublisher,
	cache ListingCache,
	clk clock.Clock,
	freeTierActive int,
	log *logger.Logger,
) *ListingUsecase {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &ListingUsecase{
		repo:           repo,
		users:          users,
		publisher:      publisher,
		cache:          cache,
		clock:          clk,
		freeTierActive: freeTierActive,
		logger:         log.Named("ListingUsecase"),
	}
}

// Actor is the authenticated caller of a seller-facing operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// CreateListing publishes a new active listing. Banned sellers are refused
// and non-premium sellers are capped at the free-tier active count.
func (uc *ListingUsecase) CreateListing(ctx context.Context, sellerID string, in domain.ListingInput) (*domain.Listing, error) {
	log := uc.logger.With(zap.String("seller_id", sellerID))

	seller, err := uc.users.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("Listing creation by unknown seller")
			return nil, fmt.Errorf("%w: seller profile not found", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("load seller: %w", err)
	}
	if seller.IsBanned {
		log.Warn("Banned seller attempted to create a listing")
		return nil, fmt.Errorf("%w: seller is banned", domain.ErrForbidden)
	}
	if !seller.IsPremium {
		active, err := uc.repo.CountActiveBySeller(ctx, sellerID)
		if err != nil {
			return nil, fmt.Errorf("count active listings: %w", err)
		}
		if active >= int64(uc.freeTierActive) {
			log.Info("Free tier limit reached", zap.Int64("active", active))
			return nil, fmt.Errorf("%w: %d active listings max", domain.ErrFreeTierLimit, uc.freeTierActive)
		}
	}

	listing, err := domain.NewListing(sellerID, in, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		log.Error("Failed to store listing", zap.Error(err))
		return nil, fmt.Errorf("create listing: %w", err)
	}

	if err := uc.publisher.Publish(ctx, SubjectListingCreated, listingEvent(listing)); err != nil {
		log.Warn("Failed to publish listing.created event", zap.Error(err), zap.String("listing_id", listing.ID))
	}
	log.Info("Listing created", zap.String("listing_id", listing.ID))
	return listing, nil
}

// GetListing reads through the cache.
func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	cached, err := uc.cache.GetListing(ctx, id)
	if err != nil {
		uc.logger.Warn("Listing cache read failed", zap.Error(err), zap.String("listing_id", id))
	}
	if cached != nil {
		return cached, nil
	}

	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.AddListing(ctx, listing); err != nil {
		uc.logger.Warn("Listing cache write failed", zap.Error(err), zap.String("listing_id", id))
	}
	return listing, nil
}

// UpdateListing applies a partial edit. Only the owner may edit.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, actor Actor, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.UserID {
		uc.logger.Warn("Forbidden listing edit", zap.String("listing_id", id), zap.String("user_id", actor.UserID))
		return nil, domain.ErrForbidden
	}
	in, err := patch.Apply(listing)
	if err != nil {
		return nil, err
	}
	updated, err := uc.repo.UpdateFields(ctx, id, in, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	uc.refresh(ctx, updated)
	return updated, nil
}

// ListBySeller returns a seller's listings. With no status it returns the
// active listings followed by the sold ones.
func (uc *ListingUsecase) ListBySeller(ctx context.Context, sellerID, status string) ([]*domain.Listing, error) {
	if status != "" {
		st := domain.ListingStatus(status)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
		}
		return uc.repo.FindBySeller(ctx, sellerID, st)
	}
	active, err := uc.repo.FindBySeller(ctx, sellerID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	sold, err := uc.repo.FindBySeller(ctx, sellerID, domain.StatusSold)
	if err != nil {
		return nil, err
	}
	return append(active, sold...), nil
}

// MarkSold moves an active listing to sold. Only the owner may do this.
// Featured stamps are left as they are; the feed drops sold listings anyway.
func (uc *ListingUsecase) MarkSold(ctx context.Context, actor Actor, id string) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if listing.Status != domain.StatusActive {
		return nil, fmt.Errorf("%w: listing is %s", domain.ErrListingNotActive, listing.Status)
	}
	return uc.setStatus(ctx, listing, domain.StatusSold)
}

// Remove soft-deletes a listing. The owner or an admin may remove it;
// removing an already removed listing is a no-op.
func (uc *ListingUsecase) Remove(ctx context.Context, actor Actor, id string) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.UserID && !actor.IsAdmin() {
		uc.logger.Warn("Forbidden listing removal", zap.String("listing_id", id), zap.String("user_id", actor.UserID))
		return nil, domain.ErrForbidden
	}
	if listing.Status == domain.StatusRemoved {
		return listing, nil
	}
	return uc.setStatus(ctx, listing, domain.StatusRemoved)
}

func (uc *ListingUsecase) setStatus(ctx context.Context, listing *domain.Listing, status domain.ListingStatus) (*domain.Listing, error) {
	updated, err := uc.repo.UpdateStatus(ctx, listing.ID, status, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("update listing status: %w", err)
	}
	uc.refresh(ctx, updated)

	ev := listingEvent(updated)
	ev["previous_status"] = listing.Status
	if err := uc.publisher.Publish(ctx, SubjectListingStatusChanged, ev); err != nil {
		uc.logger.Warn("Failed to publish listing.status_changed event", zap.Error(err), zap.String("listing_id", listing.ID))
	}
	uc.logger.Info("Listing status changed",
		zap.String("listing_id", listing.ID),
		zap.String("from", string(listing.Status)),
		zap.String("to", string(status)))
	return updated, nil
}

// IncrementView bumps the view counter. The cached copy is not invalidated,
// so cached view counts lag by up to the cache TTL.
func (uc *ListingUsecase) IncrementView(ctx context.Context, id string) error {
	return uc.repo.IncrementView(ctx, id)
}

func (uc *ListingUsecase) refresh(ctx context.Context, listing *domain.Listing) {
	if err := uc.cache.SetListing(ctx, listing); err != nil {
		uc.logger.Warn("Failed to refresh cached listing", zap.Error(err), zap.String("listing_id", listing.ID))
	}
}
