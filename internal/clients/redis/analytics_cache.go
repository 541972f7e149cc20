// Package redis provides the optional analytics result cache. Analytics
// calls are read-only and deterministic between ingestion runs, so cached
// responses only go stale when the graph changes; the TTL keeps that window
// short.
package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/medgraph-backend/internal/platform/envutil"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Close() error
}

type analyticsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewAnalyticsCache connects to REDIS_ADDR. Callers treat a nil cache as
// disabled; wiring decides whether absence is an error.
func NewAnalyticsCache(log *logger.Logger) (AnalyticsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := time.Duration(envutil.Int("ANALYTICS_CACHE_TTL_SECONDS", 300)) * time.Second

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &analyticsCache{
		log: log.With("client", "AnalyticsCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *analyticsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, "analytics:"+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("cache get failed", "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (c *analyticsCache) Set(ctx context.Context, key string, val []byte) {
	if err := c.rdb.Set(ctx, "analytics:"+key, val, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "error", err)
	}
}

func (c *analyticsCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
