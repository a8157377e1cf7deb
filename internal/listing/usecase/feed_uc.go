package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("marketplace-service/usecase")

// FeedUsecase plans and ranks the public listing feed.
type FeedUsecase struct {
	repo         domain.FeedRepository
	clock        clock.Clock
	defaultLimit int
	metrics      *metrics.MetricsManager
	logger       *logger.Logger
}

func NewFeedUsecase(repo domain.FeedRepository, clk clock.Clock, defaultLimit int, m *metrics.MetricsManager, log *logger.Logger) *FeedUsecase {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultFeedLimit
	}
	return &FeedUsecase{
		repo:         repo,
		clock:        clk,
		defaultLimit: defaultLimit,
		metrics:      m,
		logger:       log.Named("FeedUsecase"),
	}
}

// QueryFeed returns active listings for the filter. Search results keep the
// engine's relevance order; every other path is ranked boosted-first and
// then by the requested sort.
func (uc *FeedUsecase) QueryFeed(ctx context.Context, f domain.FeedFilter) ([]*domain.Listing, error) {
	path := f.Path()
	ctx, span := tracer.Start(ctx, "FeedUsecase.QueryFeed")
	defer span.End()
	span.SetAttributes(attribute.String("feed.path", string(path)))

	started := time.Now()
	defer uc.metrics.ObserveFeedQuery(string(path), started)

	limit := f.EffectiveLimit(uc.defaultLimit)
	if limit == 0 {
		return []*domain.Listing{}, nil
	}
	now := uc.clock.Now()

	var (
		listings []*domain.Listing
		err      error
	)
	switch path {
	case domain.FeedPathSearch:
		listings, err = uc.repo.SearchActive(ctx, domain.SearchQuery{
			Text:     strings.TrimSpace(f.SearchText),
			Category: f.Category,
			Area:     f.Area,
			Limit:    limit,
		})
	case domain.FeedPathCategory:
		listings, err = uc.repo.FindActive(ctx, domain.CandidateQuery{Category: f.Category, Limit: limit})
	case domain.FeedPathArea:
		listings, err = uc.repo.FindActive(ctx, domain.CandidateQuery{Area: f.Area, Limit: limit})
	default:
		listings, err = uc.repo.FindActive(ctx, domain.CandidateQuery{Limit: limit})
	}
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to fetch feed candidates", zap.Error(err), zap.String("path", string(path)))
		return nil, fmt.Errorf("query feed (%s): %w", path, err)
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}

	if path != domain.FeedPathSearch {
		domain.RankFeed(listings, f.SortBy, now)
	}

	uc.logger.Debug("Feed query served",
		zap.String("path", string(path)),
		zap.Int("limit", limit),
		zap.Int("results", len(listings)))
	return listings, nil
}
