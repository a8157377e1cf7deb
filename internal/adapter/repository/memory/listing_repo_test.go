package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *ListingStore, ls ...*domain.Listing) {
	t.Helper()
	for _, l := range ls {
		if l.Status == "" {
			l.Status = domain.StatusActive
		}
		require.NoError(t, s.Create(context.Background(), l))
	}
}

func idsOf(ls []*domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestCreate_AssignsID(t *testing.T) {
	s := NewListingStore()
	l := &domain.Listing{Title: "Lamp", Status: domain.StatusActive}
	require.NoError(t, s.Create(context.Background(), l))
	assert.Len(t, l.ID, 24)

	got, err := s.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)

	_, err = s.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindActive_FiltersOrdersAndCaps(t *testing.T) {
	s := NewListingStore()
	seed(t, s,
		&domain.Listing{ID: "a", Category: "Electronics", Area: "Yigo", CreatedAt: now.Add(-3 * time.Hour)},
		&domain.Listing{ID: "b", Category: "Electronics", Area: "Tumon", CreatedAt: now.Add(-1 * time.Hour)},
		&domain.Listing{ID: "c", Category: "Books & Media", Area: "Yigo", CreatedAt: now.Add(-2 * time.Hour)},
		&domain.Listing{ID: "sold", Category: "Electronics", Status: domain.StatusSold, CreatedAt: now},
		&domain.Listing{ID: "gone", Category: "Electronics", Status: domain.StatusRemoved, CreatedAt: now},
	)
	ctx := context.Background()

	all, err := s.FindActive(ctx, domain.CandidateQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, idsOf(all))

	elec, err := s.FindActive(ctx, domain.CandidateQuery{Category: "Electronics", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, idsOf(elec))

	yigo, err := s.FindActive(ctx, domain.CandidateQuery{Area: "Yigo", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, idsOf(yigo))
}

func TestSearchActive(t *testing.T) {
	s := NewListingStore()
	seed(t, s,
		&domain.Listing{ID: "lamp", Title: "Desk lamp", Category: "Furniture & Home", CreatedAt: now},
		&domain.Listing{ID: "lamps", Title: "Two brass lamps and a desk", Category: "Furniture & Home", CreatedAt: now.Add(-time.Hour)},
		&domain.Listing{ID: "chair", Title: "Desk chair", Category: "Furniture & Home", CreatedAt: now},
		&domain.Listing{ID: "sold-lamp", Title: "Desk lamp", Status: domain.StatusSold, CreatedAt: now},
	)

	got, err := s.SearchActive(context.Background(), domain.SearchQuery{Text: "LAMP desk", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"lamp", "lamps", "chair"}, idsOf(got))

	none, err := s.SearchActive(context.Background(), domain.SearchQuery{Text: "lamp", Category: "Electronics", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApplyBoost_ExtendsAndDeduplicates(t *testing.T) {
	s := NewListingStore()
	seed(t, s, &domain.Listing{ID: "x", CreatedAt: now})
	ctx := context.Background()

	l, err := s.ApplyBoost(ctx, "x", "pay-1", 24*time.Hour, now)
	require.NoError(t, err)
	assert.True(t, l.Featured)
	assert.Equal(t, now.Add(24*time.Hour), *l.FeaturedUntil)

	_, err = s.ApplyBoost(ctx, "x", "pay-1", 24*time.Hour, now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrBoostAlreadyApplied)

	l, err = s.ApplyBoost(ctx, "x", "pay-2", 24*time.Hour, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now.Add(48*time.Hour), *l.FeaturedUntil)
	assert.Equal(t, []string{"pay-1", "pay-2"}, l.AppliedBoosts)

	_, err = s.ApplyBoost(ctx, "missing", "pay-3", time.Hour, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClearExpiredBoost_RechecksAtWriteTime(t *testing.T) {
	s := NewListingStore()
	past := now.Add(-time.Minute)
	seed(t, s, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: &past, CreatedAt: now.Add(-time.Hour)})
	ctx := context.Background()

	expired, err := s.FindExpiredBoosts(ctx, now)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, idsOf(expired))

	// renewed between the sweep's read and its write
	_, err = s.ApplyBoost(ctx, "x", "pay-1", 24*time.Hour, now)
	require.NoError(t, err)

	cleared, err := s.ClearExpiredBoost(ctx, "x", now)
	require.NoError(t, err)
	assert.False(t, cleared)

	l, err := s.FindByID(ctx, "x")
	require.NoError(t, err)
	assert.True(t, l.IsBoostedAt(now))
}

func TestClearExpiredBoost_ClearsStaleStamp(t *testing.T) {
	s := NewListingStore()
	past := now.Add(-time.Second)
	seed(t, s, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: &past})
	ctx := context.Background()

	cleared, err := s.ClearExpiredBoost(ctx, "x", now)
	require.NoError(t, err)
	assert.True(t, cleared)

	l, err := s.FindByID(ctx, "x")
	require.NoError(t, err)
	assert.False(t, l.Featured)
	assert.Nil(t, l.FeaturedUntil)

	cleared, err = s.ClearExpiredBoost(ctx, "x", now)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestSellerQueries(t *testing.T) {
	s := NewListingStore()
	seed(t, s,
		&domain.Listing{ID: "a1", SellerID: "s1", CreatedAt: now.Add(-time.Hour)},
		&domain.Listing{ID: "a2", SellerID: "s1", CreatedAt: now},
		&domain.Listing{ID: "sold", SellerID: "s1", Status: domain.StatusSold},
		&domain.Listing{ID: "other", SellerID: "s2"},
	)
	ctx := context.Background()

	n, err := s.CountActiveBySeller(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := s.FindBySeller(ctx, "s1", domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, idsOf(active))

	require.NoError(t, s.IncrementView(ctx, "a1"))
	l, _ := s.FindByID(ctx, "a1")
	assert.Equal(t, int64(1), l.ViewCount)
	assert.ErrorIs(t, s.IncrementView(ctx, "missing"), domain.ErrNotFound)
}

func TestApplyBoost_ConcurrentDistinctPayments(t *testing.T) {
	s := NewListingStore()
	seed(t, s, &domain.Listing{ID: "x"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.ApplyBoost(context.Background(), "x", string(rune('a'+i)), time.Hour, now)
		}(i)
	}
	wg.Wait()

	l, err := s.FindByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, l.AppliedBoosts, 10)
	assert.Equal(t, now.Add(10*time.Hour), *l.FeaturedUntil)
}
