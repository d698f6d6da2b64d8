package data

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableData points at a port nothing listens on.
func unreachableData(t *testing.T) *Data {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Data{rdb: rdb}
}

func TestLinkCache_UnreachableIsError(t *testing.T) {
	cache := NewLinkCache(unreachableData(t), log.DefaultLogger)

	target, found, err := cache.Get(context.Background(), "gogl")

	assert.Error(t, err)
	assert.False(t, found)
	assert.Empty(t, target)
	assert.Error(t, cache.Set(context.Background(), "gogl", "https://www.google.com", time.Hour))
	assert.Error(t, cache.Ping(context.Background()))
}

func TestClickCounter_UnreachableIsError(t *testing.T) {
	counter := NewClickCounter(unreachableData(t), log.DefaultLogger)

	_, err := counter.Increment(context.Background(), "gogl")

	assert.Error(t, err)
}
