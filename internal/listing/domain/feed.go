package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// DefaultFeedLimit is used when a feed query does not carry a limit.
const DefaultFeedLimit = 50

type SortBy string

const (
	SortRecent    SortBy = "recent"
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
)

// comparators orders two listings that share the same boosted state.
var comparators = map[SortBy]func(a, b *Listing) int{
	SortRecent:    func(a, b *Listing) int { return b.CreatedAt.Compare(a.CreatedAt) },
	SortPriceAsc:  func(a, b *Listing) int { return cmp.Compare(a.Price, b.Price) },
	SortPriceDesc: func(a, b *Listing) int { return cmp.Compare(b.Price, a.Price) },
}

// ParseSortBy maps a request value onto a known strategy. Anything unknown,
// including the empty string, sorts by recency.
func ParseSortBy(s string) SortBy {
	sb := SortBy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := comparators[sb]; ok {
		return sb
	}
	return SortRecent
}

// FeedFilter is the public feed query. Limit is optional: nil or negative
// means DefaultFeedLimit, zero means an empty result.
type FeedFilter struct {
	Category   string
	Area       string
	SearchText string
	SortBy     SortBy
	Limit      *int
}

// FeedPath names the candidate retrieval strategy chosen for a filter.
type FeedPath string

const (
	FeedPathSearch   FeedPath = "search"
	FeedPathCategory FeedPath = "category"
	FeedPathArea     FeedPath = "area"
	FeedPathDefault  FeedPath = "default"
)

// Path selects the candidate strategy. Search wins over category, which wins over area.
func (f FeedFilter) Path() FeedPath {
	switch {
	case strings.TrimSpace(f.SearchText) != "":
		return FeedPathSearch
	case f.Category != "":
		return FeedPathCategory
	case f.Area != "":
		return FeedPathArea
	default:
		return FeedPathDefault
	}
}

// EffectiveLimit resolves the optional limit against defaultLimit.
func (f FeedFilter) EffectiveLimit(defaultLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = DefaultFeedLimit
	}
	if f.Limit == nil || *f.Limit < 0 {
		return defaultLimit
	}
	return *f.Limit
}

// CandidateQuery asks the store for active listings, newest first.
// At most one of Category and Area is set.
type CandidateQuery struct {
	Category string
	Area     string
	Limit    int
}

// SearchQuery asks the store for active listings whose title matches Text,
// in relevance order, optionally narrowed by category and area.
type SearchQuery struct {
	Text     string
	Category string
	Area     string
	Limit    int
}

// RankFeed orders listings in place: currently boosted first, then by the
// sortBy strategy. The sort is stable so equal items keep fetch order.
func RankFeed(listings []*Listing, sortBy SortBy, now time.Time) {
	secondary, ok := comparators[sortBy]
	if !ok {
		secondary = comparators[SortRecent]
	}
	slices.SortStableFunc(listings, func(a, b *Listing) int {
		ab, bb := a.IsBoostedAt(now), b.IsBoostedAt(now)
		if ab != bb {
			if ab {
				return -1
			}
			return 1
		}
		return secondary(a, b)
	})
}
