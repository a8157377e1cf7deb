package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// EventPublisher emits domain events onto the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// ListingCache is a read-through cache for single listings. Get returns
// (nil, nil) on a miss. Writers overwrite with SetListing; a read miss fills
// with AddListing, which never replaces an existing entry.
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	SetListing(ctx context.Context, listing *domain.Listing) error
	AddListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// BoostNotifier tells a seller that their listing is now featured.
type BoostNotifier interface {
	SendBoostApplied(ctx context.Context, toEmail string, listing *domain.Listing) error
}

// PhotoUpload is a presigned, time-limited upload target.
type PhotoUpload struct {
	UploadURL string
	PhotoURL  string
	ExpiresAt time.Time
}

type PhotoStorage interface {
	PresignPhotoUpload(ctx context.Context, listingID, contentType string) (*PhotoUpload, error)
}

// CheckoutRequest describes a boost purchase to the payment provider.
type CheckoutRequest struct {
	ListingID    string
	ListingTitle string
	SellerID     string
	Plan         domain.BoostPlan
}

type Checkout struct {
	PreferenceID string
	CheckoutURL  string
}

const PaymentStatusApproved = "approved"

// Payment is the provider's view of a boost payment.
type Payment struct {
	ID            string
	Status        string
	ListingID     string
	DurationHours int
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type noopCache struct{}

func (noopCache) GetListing(context.Context, string) (*domain.Listing, error) { return nil, nil }
func (noopCache) SetListing(context.Context, *domain.Listing) error           { return nil }
func (noopCache) AddListing(context.Context, *domain.Listing) error           { return nil }
func (noopCache) DeleteListing(context.Context, string) error                 { return nil }

type noopNotifier struct{}

func (noopNotifier) SendBoostApplied(context.Context, string, *domain.Listing) error { return nil }
