package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockCache struct{ mock.Mock }

func (m *MockCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockCache) AddListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockCache) DeleteListing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendBoostApplied(ctx context.Context, toEmail string, listing *domain.Listing) error {
	args := m.Called(ctx, toEmail, listing)
	return args.Error(0)
}

type MockFeedRepository struct{ mock.Mock }

func (m *MockFeedRepository) FindActive(ctx context.Context, q domain.CandidateQuery) ([]*domain.Listing, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockFeedRepository) SearchActive(ctx context.Context, q domain.SearchQuery) ([]*domain.Listing, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Checkout), args.Error(1)
}
func (m *MockPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

type MockPhotoStorage struct{ mock.Mock }

func (m *MockPhotoStorage) PresignPhotoUpload(ctx context.Context, listingID, contentType string) (*PhotoUpload, error) {
	args := m.Called(ctx, listingID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PhotoUpload), args.Error(1)
}

// racingStore renews a boost between the sweep's scan and its writes.
type racingStore struct {
	*memory.ListingStore
	renew func()
}

func (s *racingStore) FindExpiredBoosts(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	found, err := s.ListingStore.FindExpiredBoosts(ctx, now)
	if s.renew != nil {
		s.renew()
	}
	return found, err
}

// flakyStore fails ClearExpiredBoost for the listed ids.
type flakyStore struct {
	*memory.ListingStore
	failFor map[string]bool
}

func (s *flakyStore) ClearExpiredBoost(ctx context.Context, id string, now time.Time) (bool, error) {
	if s.failFor[id] {
		return false, domain.ErrRepository
	}
	return s.ListingStore.ClearExpiredBoost(ctx, id, now)
}

func ptr[T any](v T) *T { return &v }

func listingIDs(ls []*domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}
