package data

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"linkshrink/internal/biz"
	"linkshrink/internal/conf"
	"linkshrink/internal/metrics"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	registryBreakerName = "link-registry"
	linksPath           = "/internal/links/"
)

// Compile-time interface check
var _ biz.LinkResolver = (*linkRegistry)(nil)

// linkReply is the registry's answer for a known short code.
type linkReply struct {
	OriginalURL string `json:"original_url"`
}

// linkRegistry resolves short codes against the link service's internal API.
type linkRegistry struct {
	client *http.Client
	// linksPath keeps any path prefix of the configured endpoint, which the
	// kratos client drops when it builds request URLs.
	linksPath string
	breaker   *gobreaker.CircuitBreaker[string]
	log       *log.Helper
}

// NewLinkRegistry creates the link registry client. Every call is bounded by
// the configured timeout and guarded by a circuit breaker; a 404 does not
// count as a breaker failure.
func NewLinkRegistry(c *conf.Data, logger log.Logger) (biz.LinkResolver, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data/link_registry"))

	base, err := url.Parse(c.Registry.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("parse link registry endpoint %q: %w", c.Registry.Endpoint, err)
	}

	client, err := http.NewClient(context.Background(),
		http.WithEndpoint(c.Registry.Endpoint),
		http.WithTimeout(c.Registry.Timeout.Std()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create link registry client: %w", err)
	}

	failures := c.Registry.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        registryBreakerName,
		MaxRequests: 1,
		Timeout:     c.Registry.BreakerTimeout.Std(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			helper.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	r := &linkRegistry{
		client:    client,
		linksPath: strings.TrimRight(base.Path, "/") + linksPath,
		breaker:   breaker,
		log:       helper,
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Error(err)
		}
	}
	return r, cleanup, nil
}

// Lookup fetches the target URL for shortCode. Unknown codes yield
// biz.ErrLinkNotFound; every other failure is returned wrapped.
func (r *linkRegistry) Lookup(ctx context.Context, shortCode string) (string, error) {
	target, err := r.breaker.Execute(func() (string, error) {
		return r.fetch(ctx, shortCode)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			metrics.RecordRegistryError("not_found")
			return "", biz.ErrLinkNotFound
		}
		metrics.RecordRegistryError("unavailable")
		return "", fmt.Errorf("link registry lookup %s: %w", shortCode, err)
	}
	return target, nil
}

func (r *linkRegistry) fetch(ctx context.Context, shortCode string) (string, error) {
	var reply linkReply
	path := r.linksPath + url.PathEscape(shortCode)
	r.log.WithContext(ctx).Debugf("looking up %s at %s", shortCode, path)
	if err := r.client.Invoke(ctx, nethttp.MethodGet, path, nil, &reply); err != nil {
		return "", err
	}
	if reply.OriginalURL == "" {
		return "", biz.ErrLinkNotFound
	}
	return reply.OriginalURL, nil
}
