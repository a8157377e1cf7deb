package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type ListingStatus string

const (
	StatusActive  ListingStatus = "active"
	StatusSold    ListingStatus = "sold"
	StatusRemoved ListingStatus = "removed"
)

func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusSold, StatusRemoved:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is allowed.
func (s ListingStatus) IsTerminal() bool {
	return s == StatusSold || s == StatusRemoved
}

var Categories = []string{
	"Jewelry & Watches",
	"Clothes & Accessories",
	"Electronics",
	"Furniture & Home",
	"Books & Media",
	"Gifts & Misc",
	"Stuff They Left Behind",
}

var Areas = []string{
	"Dededo", "Yigo", "Tamuning", "Tumon", "Hagatna", "Mangilao", "Barrigada",
	"Chalan Pago", "Sinajana", "Agana Heights", "Mongmong-Toto-Maite", "Asan",
	"Piti", "Santa Rita", "Agat", "Talofofo", "Inarajan", "Merizo", "Umatac",
}

var Conditions = []string{
	"New",
	"Like New",
	"Good",
	"Fair",
	"It's Been Through a Lot",
}

func IsValidCategory(c string) bool  { return slices.Contains(Categories, c) }
func IsValidArea(a string) bool      { return slices.Contains(Areas, a) }
func IsValidCondition(c string) bool { return slices.Contains(Conditions, c) }

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxStoryLength       = 2000
	MaxPhotos            = 5
)

// Listing is an item offered for sale. Price is in the smallest currency unit.
type Listing struct {
	ID            string
	SellerID      string
	Title         string
	Description   string
	Story         string
	Price         int64
	Category      string
	Area          string
	Condition     string
	Photos        []string
	Status        ListingStatus
	IsHidden      bool
	Featured      bool
	FeaturedUntil *time.Time
	AppliedBoosts []string
	ViewCount     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsBoostedAt reports whether the listing is featured at instant now.
// A stale Featured flag with a past (or missing) FeaturedUntil does not count.
func (l *Listing) IsBoostedAt(now time.Time) bool {
	return l.Featured && l.FeaturedUntil != nil && l.FeaturedUntil.After(now)
}

// HasAppliedBoost reports whether the payment token was already consumed.
func (l *Listing) HasAppliedBoost(token string) bool {
	return slices.Contains(l.AppliedBoosts, token)
}

// Clone returns a deep copy so callers can't mutate stored state through shared slices.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Photos = slices.Clone(l.Photos)
	c.AppliedBoosts = slices.Clone(l.AppliedBoosts)
	if l.FeaturedUntil != nil {
		t := *l.FeaturedUntil
		c.FeaturedUntil = &t
	}
	return &c
}

// ListingInput carries the seller-editable fields of a listing.
type ListingInput struct {
	Title       string
	Description string
	Story       string
	Price       int64
	Category    string
	Area        string
	Condition   string
	Photos      []string
}

func (in ListingInput) validate() error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case len([]rune(title)) > MaxTitleLength:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	case len([]rune(in.Description)) > MaxDescriptionLength:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLength)
	case len([]rune(in.Story)) > MaxStoryLength:
		return fmt.Errorf("%w: story exceeds %d characters", ErrInvalidInput, MaxStoryLength)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case !IsValidCategory(in.Category):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	case !IsValidArea(in.Area):
		return fmt.Errorf("%w: unknown area %q", ErrInvalidInput, in.Area)
	case !IsValidCondition(in.Condition):
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, in.Condition)
	case len(in.Photos) > MaxPhotos:
		return fmt.Errorf("%w: at most %d photos allowed", ErrInvalidInput, MaxPhotos)
	}
	return nil
}

// NewListing validates the input and returns an active, unfeatured listing
// owned by sellerID. The ID is assigned by the repository.
func NewListing(sellerID string, in ListingInput, now time.Time) (*Listing, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller id is required", ErrInvalidInput)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return &Listing{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Story:       in.Story,
		Price:       in.Price,
		Category:    in.Category,
		Area:        in.Area,
		Condition:   in.Condition,
		Photos:      slices.Clone(in.Photos),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ListingPatch is a partial update; nil fields are left untouched.
type ListingPatch struct {
	Title       *string
	Description *string
	Story       *string
	Price       *int64
	Category    *string
	Area        *string
	Condition   *string
	Photos      []string
}

// Apply returns the listing's editable fields with the patch applied and validated.
// Boost stamps, status and counters are never touched by a patch.
func (p ListingPatch) Apply(l *Listing) (ListingInput, error) {
	in := ListingInput{
		Title:       l.Title,
		Description: l.Description,
		Story:       l.Story,
		Price:       l.Price,
		Category:    l.Category,
		Area:        l.Area,
		Condition:   l.Condition,
		Photos:      l.Photos,
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Story != nil {
		in.Story = *p.Story
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Area != nil {
		in.Area = *p.Area
	}
	if p.Condition != nil {
		in.Condition = *p.Condition
	}
	if p.Photos != nil {
		in.Photos = p.Photos
	}
	if err := in.validate(); err != nil {
		return ListingInput{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return in, nil
}

// Seller is the subset of the user record this service reads.
type Seller struct {
	ID        string
	Email     string
	Name      string
	Role      string
	IsBanned  bool
	IsPremium bool
}

const RoleAdmin = "admin"
