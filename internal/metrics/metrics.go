// Package metrics provides Prometheus collectors for the redirect path and
// the click analytics consumer.
//
// Collectors are registered with the default registry and exposed on
// GET /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeCacheHit    = "cache_hit"
	OutcomeRegistryHit = "registry_hit"
	OutcomeNotFound    = "not_found"
)

// Click event publish results.
const (
	PublishPublished = "published"
	PublishDropped   = "dropped"
	PublishFailed    = "failed"
)

var (
	// ResolutionsTotal counts redirect resolutions by outcome.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_resolutions_total",
			Help: "Total number of short code resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// CacheMissesTotal counts lookups where the short code was absent from the cache.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirect_cache_misses_total",
			Help: "Total number of cache lookups that found no entry",
		},
	)

	// CacheErrorsTotal counts failed cache round trips by operation.
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_cache_errors_total",
			Help: "Total number of cache operations that failed",
		},
		[]string{"op"},
	)

	// RegistryErrorsTotal counts failed link registry lookups by kind.
	RegistryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_registry_errors_total",
			Help: "Total number of link registry lookups that did not return a URL",
		},
		[]string{"kind"},
	)

	// ClickEventsTotal counts click events by publish result.
	ClickEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_click_events_total",
			Help: "Total number of click events by publish result",
		},
		[]string{"result"},
	)

	// ClicksRecordedTotal counts click events stored by the analytics consumer.
	ClicksRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_clicks_recorded_total",
			Help: "Total number of click events recorded by the analytics consumer",
		},
	)
)

func RecordResolution(outcome string) {
	ResolutionsTotal.WithLabelValues(outcome).Inc()
}

func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

func RecordCacheError(op string) {
	CacheErrorsTotal.WithLabelValues(op).Inc()
}

func RecordRegistryError(kind string) {
	RegistryErrorsTotal.WithLabelValues(kind).Inc()
}

func RecordClickEvent(result string) {
	ClickEventsTotal.WithLabelValues(result).Inc()
}

func RecordClickStored() {
	ClicksRecordedTotal.Inc()
}
