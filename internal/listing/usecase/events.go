package usecase

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

const (
	SubjectListingCreated       = "listing.created"
	SubjectListingStatusChanged = "listing.status_changed"
	SubjectListingBoosted       = "listing.boosted"
	SubjectListingBoostExpired  = "listing.boost_expired"
)

func listingEvent(l *domain.Listing) map[string]interface{} {
	ev := map[string]interface{}{
		"listing_id": l.ID,
		"seller_id":  l.SellerID,
		"category":   l.Category,
		"area":       l.Area,
		"status":     l.Status,
		"price":      l.Price,
		"updated_at": l.UpdatedAt.Format(time.RFC3339Nano),
	}
	if l.FeaturedUntil != nil {
		ev["featured_until"] = l.FeaturedUntil.Format(time.RFC3339Nano)
	}
	return ev
}
