package usecase

import (
	"context"
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

type boostFixture struct {
	uc    *BoostUsecase
	store *memory.ListingStore
	clock *clock.Fake
}

func newBoostFixture(t *testing.T, store domain.Store, deps BoostDeps) *BoostUsecase {
	t.Helper()
	return NewBoostUsecase(store, clock.NewFake(t0), deps, logger.NewNop())
}

func seedListing(t *testing.T, store *memory.ListingStore, l *domain.Listing) {
	t.Helper()
	if l.Status == "" {
		l.Status = domain.StatusActive
	}
	if l.SellerID == "" {
		l.SellerID = "seller-1"
	}
	require.NoError(t, store.Create(context.Background(), l))
}

func newBoost(t *testing.T, ls ...*domain.Listing) boostFixture {
	t.Helper()
	store := memory.NewListingStore()
	for _, l := range ls {
		seedListing(t, store, l)
	}
	clk := clock.NewFake(t0)
	return boostFixture{
		uc:    NewBoostUsecase(store, clk, BoostDeps{}, logger.NewNop()),
		store: store,
		clock: clk,
	}
}

func TestApplyBoost_MissingListing(t *testing.T) {
	f := newBoost(t)

	_, err := f.uc.ApplyBoost(context.Background(), domain.BoostOrder{ListingID: "missing-id", DurationHours: 24, PaymentID: "p1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyBoost_RejectsNonPositiveHours(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "x"})

	for _, h := range []int{0, -1, -48} {
		_, err := f.uc.ApplyBoost(context.Background(), domain.BoostOrder{ListingID: "x", DurationHours: h})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	l, err := f.store.FindByID(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, l.Featured)
}

func TestApplyBoost_AcceptsAnyPositiveDuration(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "x"})

	res, err := f.uc.ApplyBoost(context.Background(), domain.BoostOrder{ListingID: "x", DurationHours: 5})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, t0.Add(5*time.Hour), *res.Listing.FeaturedUntil)
}

func TestApplyBoost_ExtendsRunningBoost(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "x"})
	ctx := context.Background()

	res, err := f.uc.ApplyBoost(ctx, domain.BoostOrder{ListingID: "x", DurationHours: 24, PaymentID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), *res.Listing.FeaturedUntil)

	f.clock.Advance(time.Hour)
	res, err = f.uc.ApplyBoost(ctx, domain.BoostOrder{ListingID: "x", DurationHours: 24, PaymentID: "p2"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), *res.Listing.FeaturedUntil)
}

func TestApplyBoost_RestartsLapsedBoostFromNow(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: ptr(t0.Add(-2 * time.Hour))})

	res, err := f.uc.ApplyBoost(context.Background(), domain.BoostOrder{ListingID: "x", DurationHours: 48, PaymentID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), *res.Listing.FeaturedUntil)
}

func TestApplyBoost_ReplayedPaymentIsNoop(t *testing.T) {
	store := memory.NewListingStore()
	seedListing(t, store, &domain.Listing{ID: "x", SellerID: "s1"})

	pub := new(MockPublisher)
	cache := new(MockCache)
	notifier := new(MockNotifier)
	users := memory.NewUserStore(domain.Seller{ID: "s1", Email: "seller@example.com"})

	pub.On("Publish", mock.Anything, SubjectListingBoosted, mock.Anything).Return(nil).Once()
	cache.On("SetListing", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.ID == "x" && l.Featured
	})).Return(nil).Once()
	notifier.On("SendBoostApplied", mock.Anything, "seller@example.com", mock.AnythingOfType("*domain.Listing")).Return(nil).Once()

	uc := newBoostFixture(t, store, BoostDeps{Users: users, Publisher: pub, Cache: cache, Notifier: notifier})
	order := domain.BoostOrder{ListingID: "x", DurationHours: 24, PaymentID: "pay-77", Source: "webhook"}

	first, err := uc.ApplyBoost(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := uc.ApplyBoost(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, *first.Listing.FeaturedUntil, *second.Listing.FeaturedUntil)
	assert.Equal(t, []string{"pay-77"}, second.Listing.AppliedBoosts)

	pub.AssertExpectations(t)
	cache.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestApplyBoost_SideEffectFailuresDoNotFailBoost(t *testing.T) {
	store := memory.NewListingStore()
	seedListing(t, store, &domain.Listing{ID: "x", SellerID: "ghost"})

	pub := new(MockPublisher)
	cache := new(MockCache)
	pub.On("Publish", mock.Anything, SubjectListingBoosted, mock.Anything).Return(assert.AnError)
	cache.On("SetListing", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(assert.AnError)

	uc := newBoostFixture(t, store, BoostDeps{Users: memory.NewUserStore(), Publisher: pub, Cache: cache})

	res, err := uc.ApplyBoost(context.Background(), domain.BoostOrder{ListingID: "x", DurationHours: 24, PaymentID: "p"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestExpireBoosts_ClearsExpiredStamp(t *testing.T) {
	f := newBoost(t,
		&domain.Listing{ID: "expired", Featured: true, FeaturedUntil: ptr(t0.Add(-time.Second))},
		&domain.Listing{ID: "running", Featured: true, FeaturedUntil: ptr(t0.Add(time.Hour))},
		&domain.Listing{ID: "plain"},
	)
	ctx := context.Background()

	res, err := f.uc.ExpireBoosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, []string{"expired"}, res.ExpiredIDs)

	l, err := f.store.FindByID(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, l.Featured)
	assert.Nil(t, l.FeaturedUntil)

	l, err = f.store.FindByID(ctx, "running")
	require.NoError(t, err)
	assert.True(t, l.IsBoostedAt(t0))
}

func TestExpireBoosts_ExpiresExactlyAtDeadline(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: ptr(t0)})

	res, err := f.uc.ExpireBoosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
}

func TestExpireBoosts_SecondRunChangesNothing(t *testing.T) {
	f := newBoost(t,
		&domain.Listing{ID: "a", Featured: true, FeaturedUntil: ptr(t0.Add(-time.Hour))},
		&domain.Listing{ID: "b", Featured: true, FeaturedUntil: ptr(t0.Add(time.Hour))},
	)
	ctx := context.Background()

	_, err := f.uc.ExpireBoosts(ctx)
	require.NoError(t, err)
	after1, err := f.store.FindActive(ctx, domain.CandidateQuery{Limit: 10})
	require.NoError(t, err)

	res, err := f.uc.ExpireBoosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Candidates)
	assert.Equal(t, 0, res.Expired)

	after2, err := f.store.FindActive(ctx, domain.CandidateQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, after1, after2)
}

func TestExpireBoosts_NoCandidates(t *testing.T) {
	f := newBoost(t, &domain.Listing{ID: "plain"})

	res, err := f.uc.ExpireBoosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SweepResult{}, res)
}

func TestExpireBoosts_RenewalDuringSweepSurvives(t *testing.T) {
	store := &racingStore{ListingStore: memory.NewListingStore()}
	seedListing(t, store.ListingStore, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: ptr(t0.Add(-time.Minute))})

	uc := newBoostFixture(t, store, BoostDeps{})
	store.renew = func() {
		_, err := store.ApplyBoost(context.Background(), "x", "renewal", 24*time.Hour, t0)
		require.NoError(t, err)
	}

	res, err := uc.ExpireBoosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 0, res.Expired)
	assert.Equal(t, 1, res.Skipped)

	l, err := store.FindByID(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, l.IsBoostedAt(t0))
	assert.Equal(t, t0.Add(24*time.Hour), *l.FeaturedUntil)
}

func TestExpireBoosts_ContinuesPastFailures(t *testing.T) {
	store := &flakyStore{ListingStore: memory.NewListingStore(), failFor: map[string]bool{"bad": true}}
	for _, id := range []string{"a", "bad", "c"} {
		seedListing(t, store.ListingStore, &domain.Listing{ID: id, Featured: true, FeaturedUntil: ptr(t0.Add(-time.Hour))})
	}
	uc := newBoostFixture(t, store, BoostDeps{})

	res, err := uc.ExpireBoosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 2, res.Expired)
	assert.Equal(t, 1, res.Failed)
	assert.ElementsMatch(t, []string{"a", "c"}, res.ExpiredIDs)
}

func TestExpireBoosts_PublishesExpiryAndRefreshesCache(t *testing.T) {
	store := memory.NewListingStore()
	seedListing(t, store, &domain.Listing{ID: "x", Featured: true, FeaturedUntil: ptr(t0.Add(-time.Hour))})

	pub := new(MockPublisher)
	cache := new(MockCache)
	pub.On("Publish", mock.Anything, SubjectListingBoostExpired, mock.MatchedBy(func(ev map[string]interface{}) bool {
		return ev["listing_id"] == "x"
	})).Return(nil).Once()
	cache.On("SetListing", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.ID == "x" && !l.Featured && l.FeaturedUntil == nil
	})).Return(nil).Once()

	uc := newBoostFixture(t, store, BoostDeps{Publisher: pub, Cache: cache})
	_, err := uc.ExpireBoosts(context.Background())
	require.NoError(t, err)

	pub.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestBoostThenSweep_FeedReflectsLifecycle(t *testing.T) {
	f := newBoost(t,
		&domain.Listing{ID: "old", Category: "Electronics", CreatedAt: t0.Add(-time.Hour)},
		&domain.Listing{ID: "new", Category: "Electronics", CreatedAt: t0},
	)
	feed := NewFeedUsecase(f.store, f.clock, 50, nil, logger.NewNop())
	ctx := context.Background()

	_, err := f.uc.ApplyBoost(ctx, domain.BoostOrder{ListingID: "old", DurationHours: 24, PaymentID: "p"})
	require.NoError(t, err)

	got, err := feed.QueryFeed(ctx, domain.FeedFilter{Category: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new"}, listingIDs(got))

	f.clock.Advance(25 * time.Hour)
	got, err = feed.QueryFeed(ctx, domain.FeedFilter{Category: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, listingIDs(got), "lapsed boost ranks normally before the sweep runs")

	res, err := f.uc.ExpireBoosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
}
