package biz

import (
	"context"
	"time"

	"linkshrink/internal/conf"
	"linkshrink/internal/metrics"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

const reasonLinkNotFound = "LINK_NOT_FOUND"

// ErrLinkNotFound is the only error Resolve returns. It covers both a short
// code the registry does not know and a registry that could not be reached.
var ErrLinkNotFound = errors.NotFound(reasonLinkNotFound, "link not found")

// ClickEvent is published once per successful redirect.
type ClickEvent struct {
	ShortCode string    `json:"short_code"`
	Timestamp time.Time `json:"timestamp"`
}

// NewClickEvent creates a click event stamped in UTC.
func NewClickEvent(shortCode string, at time.Time) ClickEvent {
	return ClickEvent{
		ShortCode: shortCode,
		Timestamp: at.UTC(),
	}
}

// LinkCache is the fast path in front of the link registry.
type LinkCache interface {
	// Get returns the cached target URL. A missing entry is reported as
	// found == false with a nil error.
	Get(ctx context.Context, shortCode string) (target string, found bool, err error)
	// Set stores the target URL with the given expiry.
	Set(ctx context.Context, shortCode, target string, ttl time.Duration) error
	// Ping reports whether the cache is reachable.
	Ping(ctx context.Context) error
}

// LinkResolver looks up short codes in the link registry.
// Unknown codes are reported as ErrLinkNotFound.
type LinkResolver interface {
	Lookup(ctx context.Context, shortCode string) (string, error)
}

// ClickPublisher hands click events to the analytics queue. It must not
// block the caller and never reports failures.
type ClickPublisher interface {
	Publish(ctx context.Context, event ClickEvent)
}

// RedirectUsecase resolves short codes for the redirect endpoint.
type RedirectUsecase struct {
	cache     LinkCache
	resolver  LinkResolver
	publisher ClickPublisher
	ttl       time.Duration
	now       func() time.Time
	log       *log.Helper
}

// NewRedirectUsecase creates a RedirectUsecase.
func NewRedirectUsecase(cache LinkCache, resolver LinkResolver, publisher ClickPublisher, c *conf.Data, logger log.Logger) *RedirectUsecase {
	ttl := conf.DefaultCacheTTL
	if c != nil && c.Redis != nil && c.Redis.CacheTTL > 0 {
		ttl = c.Redis.CacheTTL.Std()
	}
	return &RedirectUsecase{
		cache:     cache,
		resolver:  resolver,
		publisher: publisher,
		ttl:       ttl,
		now:       time.Now,
		log:       log.NewHelper(log.With(logger, "module", "biz/redirect")),
	}
}

// Resolve returns the target URL for shortCode, or ErrLinkNotFound.
//
// The cache is consulted first; on a miss the registry answer is written
// back with the configured TTL. Cache and publisher failures are logged and
// never change the result.
func (uc *RedirectUsecase) Resolve(ctx context.Context, shortCode string) (string, error) {
	if shortCode == "" {
		metrics.RecordResolution(metrics.OutcomeNotFound)
		return "", ErrLinkNotFound
	}

	target, hit := uc.fromCache(ctx, shortCode)
	if hit {
		uc.log.WithContext(ctx).Debugf("cache hit for %s", shortCode)
		metrics.RecordResolution(metrics.OutcomeCacheHit)
	} else {
		var err error
		target, err = uc.resolver.Lookup(ctx, shortCode)
		if err != nil {
			if errors.IsNotFound(err) {
				uc.log.WithContext(ctx).Infof("short code %s not found in registry", shortCode)
			} else {
				uc.log.WithContext(ctx).Errorf("registry lookup for %s failed: %v", shortCode, err)
			}
			metrics.RecordResolution(metrics.OutcomeNotFound)
			return "", ErrLinkNotFound
		}
		metrics.RecordResolution(metrics.OutcomeRegistryHit)

		if err := uc.cache.Set(ctx, shortCode, target, uc.ttl); err != nil {
			uc.log.WithContext(ctx).Warnf("failed to cache %s: %v", shortCode, err)
			metrics.RecordCacheError("set")
		}
	}

	uc.publisher.Publish(ctx, NewClickEvent(shortCode, uc.now()))
	return target, nil
}

func (uc *RedirectUsecase) fromCache(ctx context.Context, shortCode string) (string, bool) {
	target, found, err := uc.cache.Get(ctx, shortCode)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("cache lookup for %s failed, falling back to registry: %v", shortCode, err)
		metrics.RecordCacheError("get")
		return "", false
	}
	if !found {
		metrics.RecordCacheMiss()
		return "", false
	}
	return target, true
}

// CacheConnected reports whether the cache answered a ping.
func (uc *RedirectUsecase) CacheConnected(ctx context.Context) bool {
	if err := uc.cache.Ping(ctx); err != nil {
		uc.log.WithContext(ctx).Debugf("cache ping failed: %v", err)
		return false
	}
	return true
}
