package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BoostUsecase applies paid featured placement and expires it.
type BoostUsecase struct {
	boosts    domain.BoostRepository
	listings  domain.ListingRepository
	users     domain.UserRepository
	publisher EventPublisher
	cache     ListingCache
	notifier  BoostNotifier
	clock     clock.Clock
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

// BoostDeps groups the optional collaborators of BoostUsecase. Nil members
// are replaced with no-ops.
type BoostDeps struct {
	Users     domain.UserRepository
	Publisher EventPublisher
	Cache     ListingCache
	Notifier  BoostNotifier
	Metrics   *metrics.MetricsManager
}

func NewBoostUsecase(store domain.Store, clk clock.Clock, deps BoostDeps, log *logger.Logger) *BoostUsecase {
	uc := &BoostUsecase{
		boosts:    store,
		listings:  store,
		users:     deps.Users,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		clock:     clk,
		metrics:   deps.Metrics,
		logger:    log.Named("BoostUsecase"),
	}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.cache == nil {
		uc.cache = noopCache{}
	}
	if uc.notifier == nil {
		uc.notifier = noopNotifier{}
	}
	return uc
}

// ApplyBoost features the listing for order.DurationHours, extending a
// running boost from its current end. Replaying a PaymentID is a no-op that
// returns the listing unchanged with Applied=false.
func (uc *BoostUsecase) ApplyBoost(ctx context.Context, order domain.BoostOrder) (domain.BoostResult, error) {
	ctx, span := tracer.Start(ctx, "BoostUsecase.ApplyBoost")
	defer span.End()
	span.SetAttributes(
		attribute.String("listing.id", order.ListingID),
		attribute.Int("boost.hours", order.DurationHours),
		attribute.String("boost.source", order.Source),
	)

	log := uc.logger.With(
		zap.String("listing_id", order.ListingID),
		zap.String("payment_id", order.PaymentID),
		zap.Int("duration_hours", order.DurationHours),
		zap.String("source", order.Source))

	if err := order.Validate(); err != nil {
		log.Warn("Rejected boost order", zap.Error(err))
		return domain.BoostResult{}, err
	}

	now := uc.clock.Now()
	listing, err := uc.boosts.ApplyBoost(ctx, order.ListingID, order.PaymentID, order.Duration(), now)
	switch {
	case errors.Is(err, domain.ErrBoostAlreadyApplied):
		uc.metrics.ObserveBoostDuplicate()
		log.Info("Boost already applied for payment, ignoring")
		current, ferr := uc.listings.FindByID(ctx, order.ListingID)
		if ferr != nil {
			return domain.BoostResult{}, fmt.Errorf("load listing after duplicate boost: %w", ferr)
		}
		return domain.BoostResult{Listing: current, Applied: false}, nil
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("Boost order for unknown listing")
		return domain.BoostResult{}, fmt.Errorf("apply boost to %s: %w", order.ListingID, domain.ErrNotFound)
	case err != nil:
		span.RecordError(err)
		log.Error("Failed to apply boost", zap.Error(err))
		return domain.BoostResult{}, fmt.Errorf("apply boost to %s: %w", order.ListingID, err)
	}

	uc.metrics.ObserveBoostApplied(order.Source)
	log.Info("Boost applied", zap.Time("featured_until", *listing.FeaturedUntil))

	if err := uc.cache.SetListing(ctx, listing); err != nil {
		log.Warn("Failed to refresh cached listing", zap.Error(err))
	}
	ev := listingEvent(listing)
	ev["payment_id"] = order.PaymentID
	ev["duration_hours"] = order.DurationHours
	if err := uc.publisher.Publish(ctx, SubjectListingBoosted, ev); err != nil {
		log.Warn("Failed to publish listing.boosted event", zap.Error(err))
	}
	uc.notifySeller(ctx, listing, log)

	return domain.BoostResult{Listing: listing, Applied: true}, nil
}

func (uc *BoostUsecase) notifySeller(ctx context.Context, listing *domain.Listing, log *logger.Logger) {
	if uc.users == nil {
		return
	}
	seller, err := uc.users.GetByID(ctx, listing.SellerID)
	if err != nil {
		log.Warn("Could not load seller for boost notification", zap.Error(err), zap.String("seller_id", listing.SellerID))
		return
	}
	if seller.Email == "" {
		return
	}
	if err := uc.notifier.SendBoostApplied(ctx, seller.Email, listing); err != nil {
		log.Warn("Failed to send boost notification", zap.Error(err), zap.String("seller_id", seller.ID))
	}
}

// ExpireBoosts un-features every listing whose boost has run out. Each clear
// re-checks expiry at write time. A failure on one listing is logged and
// counted and the sweep moves on; only a failed candidate scan or a
// cancelled context returns an error.
func (uc *BoostUsecase) ExpireBoosts(ctx context.Context) (domain.SweepResult, error) {
	ctx, span := tracer.Start(ctx, "BoostUsecase.ExpireBoosts")
	defer span.End()

	started := time.Now()
	now := uc.clock.Now()
	var res domain.SweepResult
	defer func() { uc.metrics.ObserveSweep(res.Expired, res.Failed, started) }()

	candidates, err := uc.boosts.FindExpiredBoosts(ctx, now)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to scan for expired boosts", zap.Error(err))
		return res, fmt.Errorf("scan expired boosts: %w", err)
	}
	res.Candidates = len(candidates)

	for _, l := range candidates {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("Boost sweep interrupted", zap.Error(err), zap.Int("expired", res.Expired))
			return res, err
		}
		cleared, err := uc.boosts.ClearExpiredBoost(ctx, l.ID, now)
		if err != nil {
			res.Failed++
			uc.logger.Error("Failed to clear expired boost", zap.Error(err), zap.String("listing_id", l.ID))
			continue
		}
		if !cleared {
			res.Skipped++
			uc.logger.Debug("Boost renewed or already cleared, leaving it", zap.String("listing_id", l.ID))
			continue
		}
		res.Expired++
		res.ExpiredIDs = append(res.ExpiredIDs, l.ID)

		uc.refreshCleared(ctx, l.ID)
		if err := uc.publisher.Publish(ctx, SubjectListingBoostExpired, map[string]interface{}{
			"listing_id": l.ID,
			"seller_id":  l.SellerID,
			"expired_at": now.Format(time.RFC3339Nano),
		}); err != nil {
			uc.logger.Warn("Failed to publish listing.boost_expired event", zap.Error(err), zap.String("listing_id", l.ID))
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.candidates", res.Candidates),
		attribute.Int("sweep.expired", res.Expired),
		attribute.Int("sweep.failed", res.Failed))
	if res.Candidates > 0 {
		uc.logger.Info("Boost sweep finished",
			zap.Int("candidates", res.Candidates),
			zap.Int("expired", res.Expired),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// refreshCleared writes the post-sweep listing to the cache. If it cannot be
// reloaded the entry is dropped instead.
func (uc *BoostUsecase) refreshCleared(ctx context.Context, id string) {
	fresh, err := uc.listings.FindByID(ctx, id)
	if err == nil {
		err = uc.cache.SetListing(ctx, fresh)
	} else {
		err = uc.cache.DeleteListing(ctx, id)
	}
	if err != nil {
		uc.logger.Warn("Failed to refresh cached listing", zap.Error(err), zap.String("listing_id", id))
	}
}
