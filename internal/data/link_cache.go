package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkshrink/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const healthPingTimeout = 500 * time.Millisecond

// Compile-time interface check
var _ biz.LinkCache = (*linkCache)(nil)

// linkCache implements biz.LinkCache on Redis. Keys are the bare short
// codes and values the target URL, so entries written by other services
// are served as well.
type linkCache struct {
	data *Data
	log  *log.Helper
}

// NewLinkCache creates a Redis-backed link cache.
func NewLinkCache(data *Data, logger log.Logger) biz.LinkCache {
	return &linkCache{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/link_cache")),
	}
}

// Get retrieves a target URL from Redis. A missing key is not an error.
func (c *linkCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	target, err := c.data.rdb.Get(ctx, shortCode).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", shortCode, err)
	}
	if target == "" {
		return "", false, nil
	}
	return target, true, nil
}

// Set stores a target URL; the expiry is applied by the same SET command.
func (c *linkCache) Set(ctx context.Context, shortCode, target string, ttl time.Duration) error {
	if err := c.data.rdb.Set(ctx, shortCode, target, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", shortCode, err)
	}
	c.log.WithContext(ctx).Debugf("cached %s for %s", shortCode, ttl)
	return nil
}

// Ping checks Redis connectivity with a short deadline.
func (c *linkCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return c.data.rdb.Ping(ctx).Err()
}
