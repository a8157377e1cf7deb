// Package memory is an in-process implementation of the listing store used
// for local runs (STORE_DRIVER=memory) and as the deterministic backend in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type entry struct {
	listing *domain.Listing
	seq     int64
}

// ListingStore keeps listings in a map guarded by a single RWMutex, so every
// write is atomic with respect to every other read and write.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]*entry
	seq      int64
}

var _ domain.Store = (*ListingStore)(nil)

func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[string]*entry)}
}

// Create stores a copy of listing. A listing without an ID gets a fresh one,
// written back to the caller's struct.
func (s *ListingStore) Create(ctx context.Context, listing *domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.ID == "" {
		listing.ID = primitive.NewObjectID().Hex()
	}
	if _, exists := s.listings[listing.ID]; exists {
		return fmt.Errorf("%w: duplicate listing id %s", domain.ErrRepository, listing.ID)
	}
	s.seq++
	s.listings[listing.ID] = &entry{listing: listing.Clone(), seq: s.seq}
	return nil
}

func (s *ListingStore) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.listing.Clone(), nil
}

func (s *ListingStore) UpdateFields(ctx context.Context, id string, in domain.ListingInput, now time.Time) (*domain.Listing, error) {
	return s.mutate(ctx, id, func(l *domain.Listing) {
		l.Title = in.Title
		l.Description = in.Description
		l.Story = in.Story
		l.Price = in.Price
		l.Category = in.Category
		l.Area = in.Area
		l.Condition = in.Condition
		l.Photos = slices.Clone(in.Photos)
		l.UpdatedAt = now
	})
}

func (s *ListingStore) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, now time.Time) (*domain.Listing, error) {
	return s.mutate(ctx, id, func(l *domain.Listing) {
		l.Status = status
		l.UpdatedAt = now
	})
}

func (s *ListingStore) IncrementView(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(l *domain.Listing) { l.ViewCount++ })
	return err
}

func (s *ListingStore) mutate(ctx context.Context, id string, fn func(l *domain.Listing)) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fn(e.listing)
	return e.listing.Clone(), nil
}

func (s *ListingStore) FindBySeller(ctx context.Context, sellerID string, status domain.ListingStatus) ([]*domain.Listing, error) {
	return s.selectNewest(ctx, 0, func(l *domain.Listing) bool {
		return l.SellerID == sellerID && l.Status == status
	})
}

func (s *ListingStore) CountActiveBySeller(ctx context.Context, sellerID string) (int64, error) {
	found, err := s.selectNewest(ctx, 0, func(l *domain.Listing) bool {
		return l.SellerID == sellerID && l.Status == domain.StatusActive
	})
	return int64(len(found)), err
}

func (s *ListingStore) FindActive(ctx context.Context, q domain.CandidateQuery) ([]*domain.Listing, error) {
	if q.Limit <= 0 {
		return []*domain.Listing{}, nil
	}
	return s.selectNewest(ctx, q.Limit, func(l *domain.Listing) bool {
		return l.Status == domain.StatusActive &&
			(q.Category == "" || l.Category == q.Category) &&
			(q.Area == "" || l.Area == q.Area)
	})
}

// selectNewest returns copies of matching listings ordered by CreatedAt desc,
// newer insertions first on ties. limit <= 0 means no cap.
func (s *ListingStore) selectNewest(ctx context.Context, limit int, match func(l *domain.Listing) bool) ([]*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entry, 0)
	for _, e := range s.listings {
		if match(e.listing) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, func(a, b *entry) int {
		if c := b.listing.CreatedAt.Compare(a.listing.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*domain.Listing, len(matched))
	for i, e := range matched {
		out[i] = e.listing.Clone()
	}
	return out, nil
}

// SearchActive scores titles by the number of query terms they contain and
// returns the best matches first, newest first among equal scores.
func (s *ListingStore) SearchActive(ctx context.Context, q domain.SearchQuery) ([]*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(q.Text))
	if len(terms) == 0 || q.Limit <= 0 {
		return []*domain.Listing{}, nil
	}

	type hit struct {
		e     *entry
		score int
	}
	s.mu.RLock()
	hits := make([]hit, 0)
	for _, e := range s.listings {
		l := e.listing
		if l.Status != domain.StatusActive ||
			(q.Category != "" && l.Category != q.Category) ||
			(q.Area != "" && l.Area != q.Area) {
			continue
		}
		if score := titleScore(l.Title, terms); score > 0 {
			hits = append(hits, hit{e: e, score: score})
		}
	}
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := b.e.listing.CreatedAt.Compare(a.e.listing.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.e.seq, a.e.seq)
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]*domain.Listing, len(hits))
	for i, h := range hits {
		out[i] = h.e.listing.Clone()
	}
	s.mu.RUnlock()
	return out, nil
}

func titleScore(title string, terms []string) int {
	words := strings.Fields(strings.ToLower(title))
	score := 0
	for _, term := range terms {
		for _, w := range words {
			if strings.HasPrefix(w, term) {
				score++
				break
			}
		}
	}
	return score
}

func (s *ListingStore) ApplyBoost(ctx context.Context, id, paymentID string, d time.Duration, now time.Time) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l := e.listing
	if paymentID != "" && l.HasAppliedBoost(paymentID) {
		return nil, domain.ErrBoostAlreadyApplied
	}
	until := domain.BoostExpiry(l.FeaturedUntil, now, d)
	l.Featured = true
	l.FeaturedUntil = &until
	if paymentID != "" {
		l.AppliedBoosts = append(l.AppliedBoosts, paymentID)
	}
	l.UpdatedAt = now
	return l.Clone(), nil
}

func (s *ListingStore) FindExpiredBoosts(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	return s.selectNewest(ctx, 0, func(l *domain.Listing) bool {
		return expired(l, now)
	})
}

// ClearExpiredBoost re-checks expiry under the write lock, so a boost
// renewed after FindExpiredBoosts survives.
func (s *ListingStore) ClearExpiredBoost(ctx context.Context, id string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.listings[id]
	if !ok || !expired(e.listing, now) {
		return false, nil
	}
	e.listing.Featured = false
	e.listing.FeaturedUntil = nil
	return true, nil
}

// expired matches featured listings whose stamp is at or before now. A
// featured listing with no stamp at all is also treated as expired.
func expired(l *domain.Listing, now time.Time) bool {
	return l.Featured && (l.FeaturedUntil == nil || !l.FeaturedUntil.After(now))
}
