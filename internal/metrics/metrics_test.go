package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordResolution(t *testing.T) {
	before := testutil.ToFloat64(ResolutionsTotal.WithLabelValues(OutcomeCacheHit))

	RecordResolution(OutcomeCacheHit)
	RecordResolution(OutcomeCacheHit)

	assert.Equal(t, before+2, testutil.ToFloat64(ResolutionsTotal.WithLabelValues(OutcomeCacheHit)))
}

func TestRecordClickEvent(t *testing.T) {
	tests := []string{PublishPublished, PublishDropped, PublishFailed}

	for _, result := range tests {
		t.Run(result, func(t *testing.T) {
			before := testutil.ToFloat64(ClickEventsTotal.WithLabelValues(result))

			RecordClickEvent(result)

			assert.Equal(t, before+1, testutil.ToFloat64(ClickEventsTotal.WithLabelValues(result)))
		})
	}
}

func TestRecordCacheCounters(t *testing.T) {
	misses := testutil.ToFloat64(CacheMissesTotal)
	sets := testutil.ToFloat64(CacheErrorsTotal.WithLabelValues("set"))
	stored := testutil.ToFloat64(ClicksRecordedTotal)

	RecordCacheMiss()
	RecordCacheError("set")
	RecordClickStored()

	assert.Equal(t, misses+1, testutil.ToFloat64(CacheMissesTotal))
	assert.Equal(t, sets+1, testutil.ToFloat64(CacheErrorsTotal.WithLabelValues("set")))
	assert.Equal(t, stored+1, testutil.ToFloat64(ClicksRecordedTotal))
}
