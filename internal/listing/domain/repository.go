package domain

import (
	"context"
	"time"
)

// ListingRepository persists listings. IDs are assigned by Create.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	// UpdateFields replaces the seller-editable fields and bumps UpdatedAt.
	UpdateFields(ctx context.Context, id string, in ListingInput, now time.Time) (*Listing, error)
	UpdateStatus(ctx context.Context, id string, status ListingStatus, now time.Time) (*Listing, error)
	// FindBySeller returns the seller's listings with the given status, newest first.
	FindBySeller(ctx context.Context, sellerID string, status ListingStatus) ([]*Listing, error)
	CountActiveBySeller(ctx context.Context, sellerID string) (int64, error)
	IncrementView(ctx context.Context, id string) error
}

// FeedRepository serves the candidate paths of the feed planner.
type FeedRepository interface {
	FindActive(ctx context.Context, q CandidateQuery) ([]*Listing, error)
	SearchActive(ctx context.Context, q SearchQuery) ([]*Listing, error)
}

// BoostRepository performs the featured-stamp writes. Each method is a
// single-document atomic update.
type BoostRepository interface {
	// ApplyBoost sets featured and extends featured_until per BoostExpiry,
	// recording paymentID. Returns ErrNotFound for a missing listing and
	// ErrBoostAlreadyApplied when paymentID was already recorded.
	ApplyBoost(ctx context.Context, id, paymentID string, d time.Duration, now time.Time) (*Listing, error)
	// FindExpiredBoosts returns listings with featured set and featured_until <= now.
	FindExpiredBoosts(ctx context.Context, now time.Time) ([]*Listing, error)
	// ClearExpiredBoost un-features the listing only if it is still expired
	// at write time. It reports whether a write happened.
	ClearExpiredBoost(ctx context.Context, id string, now time.Time) (bool, error)
}

// Store bundles the listing-side repositories one backend provides.
type Store interface {
	ListingRepository
	FeedRepository
	BoostRepository
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*Seller, error)
}
