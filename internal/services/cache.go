package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/metrics"
	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/recommend"
)

var _ recommend.ContentSearch = (*CachedSearch)(nil)

// CachedSearch caches Details and Similar lookups in Redis. Discover and
// Search pass straight through since their results depend on paging and
// change often.
type CachedSearch struct {
	next   recommend.ContentSearch
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedSearch creates a new CachedSearch
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCachedSearch(next recommend.ContentSearch, client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *CachedSearch {
	if ttl == 0 {
		ttl = 6 * time.Hour
	}
	return &CachedSearch{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "tmdb_cache").Logger(),
	}
}

// cached reads key into dst. Cache failures are logged and reported as a miss.
func (c *CachedSearch) cached(ctx context.Context, kind, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *CachedSearch) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Discover is not cached
func (c *CachedSearch) Discover(ctx context.Context, mediaType models.MediaType, filters recommend.DiscoverFilters) ([]models.ContentItem, error) {
	return c.next.Discover(ctx, mediaType, filters)
}

// Search is not cached
func (c *CachedSearch) Search(ctx context.Context, query string) ([]models.ContentItem, error) {
	return c.next.Search(ctx, query)
}

// Similar returns the cached similar list or fetches and caches it
func (c *CachedSearch) Similar(ctx context.Context, mediaType models.MediaType, id int) ([]models.ContentItem, error) {
	key := fmt.Sprintf("tmdb:similar:%s:%d", mediaType, id)

	var items []models.ContentItem
	if c.cached(ctx, "similar", key, &items) {
		return items, nil
	}

	items, err := c.next.Similar(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, items)
	return items, nil
}

// Details returns the cached details or fetches and caches them
func (c *CachedSearch) Details(ctx context.Context, mediaType models.MediaType, id int) (*models.ContentDetails, error) {
	key := fmt.Sprintf("tmdb:details:%s:%d", mediaType, id)

	var d models.ContentDetails
	if c.cached(ctx, "details", key, &d) {
		return &d, nil
	}

	details, err := c.next.Details(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, details)
	return details, nil
}
