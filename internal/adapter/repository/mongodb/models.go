package mongodb

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listingDocument is the stored shape of a listing.
type listingDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	SellerID      string               `bson:"seller_id"`
	Title         string               `bson:"title"`
	Description   string               `bson:"description"`
	Story         string               `bson:"story,omitempty"`
	Price         int64                `bson:"price"`
	Category      string               `bson:"category"`
	Area          string               `bson:"area"`
	Condition     string               `bson:"condition"`
	Photos        []string             `bson:"photos"`
	Status        domain.ListingStatus `bson:"status"`
	IsHidden      bool                 `bson:"is_hidden"`
	Featured      bool                 `bson:"featured"`
	FeaturedUntil *time.Time           `bson:"featured_until,omitempty"`
	AppliedBoosts []string             `bson:"applied_boosts,omitempty"`
	ViewCount     int64                `bson:"view_count"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	Role      string             `bson:"role"`
	IsBanned  bool               `bson:"is_banned"`
	IsPremium bool               `bson:"is_premium"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	var id primitive.ObjectID
	if l.ID != "" {
		var err error
		id, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid listing id %q", domain.ErrInvalidInput, l.ID)
		}
	}
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return &listingDocument{
		ID:            id,
		SellerID:      l.SellerID,
		Title:         l.Title,
		Description:   l.Description,
		Story:         l.Story,
		Price:         l.Price,
		Category:      l.Category,
		Area:          l.Area,
		Condition:     l.Condition,
		Photos:        photos,
		Status:        l.Status,
		IsHidden:      l.IsHidden,
		Featured:      l.Featured,
		FeaturedUntil: l.FeaturedUntil,
		AppliedBoosts: l.AppliedBoosts,
		ViewCount:     l.ViewCount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}, nil
}

func (d *listingDocument) toDomain() *domain.Listing {
	l := &domain.Listing{
		ID:            d.ID.Hex(),
		SellerID:      d.SellerID,
		Title:         d.Title,
		Description:   d.Description,
		Story:         d.Story,
		Price:         d.Price,
		Category:      d.Category,
		Area:          d.Area,
		Condition:     d.Condition,
		Photos:        d.Photos,
		Status:        d.Status,
		IsHidden:      d.IsHidden,
		Featured:      d.Featured,
		AppliedBoosts: d.AppliedBoosts,
		ViewCount:     d.ViewCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.FeaturedUntil != nil {
		t := d.FeaturedUntil.UTC()
		l.FeaturedUntil = &t
	}
	return l
}

func toDomainListings(docs []listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out
}

func (d *userDocument) toDomain() *domain.Seller {
	return &domain.Seller{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Name:      d.Name,
		Role:      d.Role,
		IsBanned:  d.IsBanned,
		IsPremium: d.IsPremium,
	}
}
