package data

import (
	"context"
	"fmt"

	"linkshrink/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

const clickCountPrefix = "clicks:"

// Compile-time interface check
var _ biz.ClickCounter = (*clickCounter)(nil)

type clickCounter struct {
	data *Data
	log  *log.Helper
}

// NewClickCounter creates a Redis-backed click counter.
func NewClickCounter(data *Data, logger log.Logger) biz.ClickCounter {
	return &clickCounter{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/click_counter")),
	}
}

func (c *clickCounter) key(shortCode string) string {
	return clickCountPrefix + shortCode
}

// Increment atomically bumps the click total and returns the new value.
func (c *clickCounter) Increment(ctx context.Context, shortCode string) (int64, error) {
	total, err := c.data.rdb.Incr(ctx, c.key(shortCode)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", shortCode, err)
	}
	return total, nil
}
