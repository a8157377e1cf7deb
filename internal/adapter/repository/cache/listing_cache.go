package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dialTimeout = 5 * time.Second
	keyPrefix   = "listing:"
)

// RedisOptions configures the connection used by the listing cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and pings it before returning.
func NewClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(dialCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis (ping failed): %w", err)
	}
	return client, nil
}

// ListingCache stores single listings as JSON under listing:<id>.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

func key(id string) string { return keyPrefix + id }

// GetListing returns (nil, nil) on a miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key(id), err)
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		_ = c.client.Del(ctx, key(id)).Err()
		return nil, nil
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", listing.ID, err)
	}
	return c.client.Set(ctx, key(listing.ID), data, c.ttl).Err()
}

// AddListing stores the listing only if no entry exists (SETNX), so a slow
// read-miss fill cannot clobber a newer write-through.
func (c *ListingCache) AddListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", listing.ID, err)
	}
	return c.client.SetNX(ctx, key(listing.ID), data, c.ttl).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	return c.client.Del(ctx, key(id)).Err()
}

func (c *ListingCache) Close() error {
	return c.client.Close()
}
