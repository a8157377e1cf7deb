package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFeed(t *testing.T, ls ...*domain.Listing) (*FeedUsecase, *memory.ListingStore) {
	t.Helper()
	store := memory.NewListingStore()
	for _, l := range ls {
		if l.Status == "" {
			l.Status = domain.StatusActive
		}
		require.NoError(t, store.Create(context.Background(), l))
	}
	return NewFeedUsecase(store, clock.NewFake(t0), 50, nil, logger.NewNop()), store
}

func secs(n int) time.Time { return t0.Add(time.Duration(n) * time.Second) }

func TestQueryFeed_BoostedListingPinnedInCategory(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "L1", Category: "Electronics", CreatedAt: secs(100)},
		&domain.Listing{ID: "L2", Category: "Electronics", CreatedAt: secs(50), Featured: true, FeaturedUntil: ptr(secs(1000))},
	)

	got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{Category: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L2", "L1"}, listingIDs(got))
}

func TestQueryFeed_PriceAscending(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "L3", Category: "Books & Media", Price: 500, CreatedAt: secs(-1)},
		&domain.Listing{ID: "L4", Category: "Books & Media", Price: 200, CreatedAt: secs(-2)},
	)

	got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{Category: "Books & Media", SortBy: domain.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"L4", "L3"}, listingIDs(got))
}

func TestQueryFeed_ExpiredStampIsNotBoosted(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "stale", CreatedAt: secs(-100), Featured: true, FeaturedUntil: ptr(secs(-1))},
		&domain.Listing{ID: "fresh", CreatedAt: secs(-10)},
	)

	got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "stale"}, listingIDs(got))
}

func TestQueryFeed_UnknownCategoryOrAreaIsEmpty(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "a", Title: "Desk lamp", Category: "Electronics", Area: "Dededo", CreatedAt: secs(0)},
		&domain.Listing{ID: "b", Title: "Bookshelf", Category: "Furniture & Home", Area: "Tamuning", CreatedAt: secs(-1)},
	)

	for _, f := range []domain.FeedFilter{{Category: "Cars"}, {Area: "Atlantis"}} {
		got, err := feed.QueryFeed(context.Background(), f)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestQueryFeed_OnlyActiveOnEveryPath(t *testing.T) {
	var seeded []*domain.Listing
	for i, st := range []domain.ListingStatus{domain.StatusActive, domain.StatusSold, domain.StatusRemoved} {
		seeded = append(seeded, &domain.Listing{
			ID:        string(st),
			Title:     "Guitar amp",
			Category:  "Electronics",
			Area:      "Dededo",
			Status:    st,
			CreatedAt: secs(-i),
		})
	}
	feed, _ := newFeed(t, seeded...)

	filters := map[string]domain.FeedFilter{
		"search":   {SearchText: "guitar"},
		"category": {Category: "Electronics"},
		"area":     {Area: "Dededo"},
		"default":  {},
	}
	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			got, err := feed.QueryFeed(context.Background(), f)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for _, l := range got {
				assert.Equal(t, domain.StatusActive, l.Status)
			}
		})
	}
}

func TestQueryFeed_SearchKeepsRelevanceOrder(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "exact", Title: "Red bicycle helmet", CreatedAt: secs(-50)},
		&domain.Listing{ID: "boosted", Title: "Bicycle", CreatedAt: secs(-10), Featured: true, FeaturedUntil: ptr(secs(3600))},
	)

	got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{SearchText: "  bicycle helmet ", SortBy: domain.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "boosted"}, listingIDs(got))
}

func TestQueryFeed_BoostedFirstAcrossSorts(t *testing.T) {
	feed, _ := newFeed(t,
		&domain.Listing{ID: "cheap", Price: 100, CreatedAt: secs(-1)},
		&domain.Listing{ID: "b-pricey", Price: 9000, CreatedAt: secs(-30), Featured: true, FeaturedUntil: ptr(secs(60))},
		&domain.Listing{ID: "mid", Price: 1000, CreatedAt: secs(-5)},
		&domain.Listing{ID: "b-cheap", Price: 50, CreatedAt: secs(-40), Featured: true, FeaturedUntil: ptr(secs(60))},
	)

	cases := map[domain.SortBy][]string{
		domain.SortRecent:    {"b-pricey", "b-cheap", "cheap", "mid"},
		domain.SortPriceAsc:  {"b-cheap", "b-pricey", "cheap", "mid"},
		domain.SortPriceDesc: {"b-pricey", "b-cheap", "mid", "cheap"},
		domain.SortBy("???"): {"b-pricey", "b-cheap", "cheap", "mid"},
	}
	for sortBy, want := range cases {
		t.Run(string(sortBy), func(t *testing.T) {
			got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{SortBy: sortBy})
			require.NoError(t, err)
			assert.Equal(t, want, listingIDs(got))
		})
	}
}

func TestQueryFeed_ZeroLimitSkipsStore(t *testing.T) {
	repo := new(MockFeedRepository)
	feed := NewFeedUsecase(repo, clock.NewFake(t0), 50, nil, logger.NewNop())

	got, err := feed.QueryFeed(context.Background(), domain.FeedFilter{Category: "Electronics", Limit: ptr(0)})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SearchActive", mock.Anything, mock.Anything)
}

func TestQueryFeed_PathSelectionAndLimits(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFeedRepository)
	feed := NewFeedUsecase(repo, clock.NewFake(t0), 50, nil, logger.NewNop())

	repo.On("SearchActive", mock.Anything, domain.SearchQuery{Text: "lamp", Category: "Furniture & Home", Area: "Agat", Limit: 50}).
		Return([]*domain.Listing{}, nil).Once()
	_, err := feed.QueryFeed(ctx, domain.FeedFilter{SearchText: " lamp ", Category: "Furniture & Home", Area: "Agat"})
	require.NoError(t, err)

	repo.On("FindActive", mock.Anything, domain.CandidateQuery{Category: "Furniture & Home", Limit: 50}).
		Return([]*domain.Listing{}, nil).Once()
	_, err = feed.QueryFeed(ctx, domain.FeedFilter{Category: "Furniture & Home", Area: "Agat", Limit: ptr(-1)})
	require.NoError(t, err)

	repo.On("FindActive", mock.Anything, domain.CandidateQuery{Area: "Agat", Limit: 5}).
		Return(nil, nil).Once()
	got, err := feed.QueryFeed(ctx, domain.FeedFilter{Area: "Agat", Limit: ptr(5)})
	require.NoError(t, err)
	assert.NotNil(t, got)

	repo.AssertExpectations(t)
}

func TestQueryFeed_StoreErrorPropagates(t *testing.T) {
	repo := new(MockFeedRepository)
	feed := NewFeedUsecase(repo, clock.NewFake(t0), 50, nil, logger.NewNop())
	repo.On("FindActive", mock.Anything, mock.Anything).Return(nil, domain.ErrRepository)

	_, err := feed.QueryFeed(context.Background(), domain.FeedFilter{})
	assert.True(t, errors.Is(err, domain.ErrRepository))
}
