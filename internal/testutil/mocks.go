package testutil

import (
	"context"
	"sync"
	"time"

	"linkshrink/internal/biz"

	"github.com/stretchr/testify/mock"
)

// Compile-time interface checks
var (
	_ biz.LinkCache      = (*MockLinkCache)(nil)
	_ biz.LinkResolver   = (*MockLinkResolver)(nil)
	_ biz.ClickPublisher = (*MockClickPublisher)(nil)
	_ biz.ClickCounter   = (*MockClickCounter)(nil)
)

// MockLinkCache is a testify mock for biz.LinkCache.
type MockLinkCache struct {
	mock.Mock
}

func (m *MockLinkCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	args := m.Called(ctx, shortCode)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLinkCache) Set(ctx context.Context, shortCode, target string, ttl time.Duration) error {
	args := m.Called(ctx, shortCode, target, ttl)
	return args.Error(0)
}

func (m *MockLinkCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLinkResolver is a testify mock for biz.LinkResolver.
type MockLinkResolver struct {
	mock.Mock
}

func (m *MockLinkResolver) Lookup(ctx context.Context, shortCode string) (string, error) {
	args := m.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}

// MockClickPublisher is a testify mock for biz.ClickPublisher.
type MockClickPublisher struct {
	mock.Mock
}

func (m *MockClickPublisher) Publish(ctx context.Context, event biz.ClickEvent) {
	m.Called(ctx, event)
}

// MockClickCounter is a testify mock for biz.ClickCounter.
type MockClickCounter struct {
	mock.Mock
}

func (m *MockClickCounter) Increment(ctx context.Context, shortCode string) (int64, error) {
	args := m.Called(ctx, shortCode)
	return args.Get(0).(int64), args.Error(1)
}

// MemoryLinkCache is an in-memory biz.LinkCache that records writes.
// It is safe for concurrent use.
type MemoryLinkCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	Err     error
}

func NewMemoryLinkCache(entries map[string]string) *MemoryLinkCache {
	c := &MemoryLinkCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

func (c *MemoryLinkCache) Get(_ context.Context, shortCode string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", false, c.Err
	}
	v, ok := c.entries[shortCode]
	return v, ok, nil
}

func (c *MemoryLinkCache) Set(_ context.Context, shortCode, target string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[shortCode] = target
	c.ttls[shortCode] = ttl
	return nil
}

func (c *MemoryLinkCache) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Err
}

// TTL returns the expiry the entry was written with.
func (c *MemoryLinkCache) TTL(shortCode string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl, ok := c.ttls[shortCode]
	return ttl, ok
}

// RecordingPublisher is a biz.ClickPublisher that keeps every event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []biz.ClickEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, event biz.ClickEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingPublisher) Events() []biz.ClickEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]biz.ClickEvent(nil), p.events...)
}
