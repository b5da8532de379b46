package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/metrics"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

const productKeyPrefix = "friendsfeed:product:"

// ProductSource is the authoritative catalog behind the cache.
type ProductSource interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindSimilar(ctx context.Context, target model.Product, limit int) ([]model.Product, error)
	BatchUpsert(ctx context.Context, products []model.Product) error
}

// CachedCatalog is a read-through Redis cache in front of a ProductSource.
// Cache failures fall back to the source and are only logged.
type CachedCatalog struct {
	source ProductSource
	rdb    *goredis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedCatalog wraps source. A nil rdb disables caching.
func NewCachedCatalog(source ProductSource, rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *CachedCatalog {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedCatalog{source: source, rdb: rdb, ttl: ttl, log: log.With("component", "CatalogCache")}
}

func (c *CachedCatalog) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if c.rdb == nil {
		return c.source.FindByID(ctx, id)
	}

	raw, err := c.rdb.Get(ctx, productKeyPrefix+id).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, goredis.Nil):
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("catalog cache read failed", "productId", id, "error", err)
	}

	p, err := c.source.FindByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, productKeyPrefix+id, data, c.ttl).Err(); err != nil {
			c.log.Warn("catalog cache write failed", "productId", id, "error", err)
		}
	}
	return p, nil
}

// FindSimilar is not cached; results depend on the whole catalog.
func (c *CachedCatalog) FindSimilar(ctx context.Context, target model.Product, limit int) ([]model.Product, error) {
	return c.source.FindSimilar(ctx, target, limit)
}

// BatchUpsert writes through to the source and evicts the touched entries.
func (c *CachedCatalog) BatchUpsert(ctx context.Context, products []model.Product) error {
	if err := c.source.BatchUpsert(ctx, products); err != nil {
		return err
	}
	if c.rdb == nil || len(products) == 0 {
		return nil
	}
	keys := make([]string, 0, len(products))
	for _, p := range products {
		keys = append(keys, productKeyPrefix+p.ID)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("catalog cache eviction failed", "count", len(keys), "error", err)
	}
	return nil
}
