package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkshrink/internal/biz"
	"linkshrink/internal/service"
	"linkshrink/internal/testutil"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(cache biz.LinkCache, resolver biz.LinkResolver, publisher biz.ClickPublisher) *khttp.Server {
	uc := biz.NewRedirectUsecase(cache, resolver, publisher, nil, log.DefaultLogger)
	srv := khttp.NewServer()
	service.RegisterRedirectHTTPServer(srv, service.NewRedirectService(uc, log.DefaultLogger))
	return srv
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRedirect_CacheHit(t *testing.T) {
	// Arrange
	cache := testutil.NewMemoryLinkCache(map[string]string{"gogl": "https://www.google.com"})
	resolver := new(testutil.MockLinkResolver)
	publisher := &testutil.RecordingPublisher{}
	srv := newTestServer(cache, resolver, publisher)

	// Act
	rec := get(srv, "/gogl")

	// Assert
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://www.google.com", rec.Header().Get("Location"))
	resolver.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	require.Len(t, publisher.Events(), 1)
	assert.Equal(t, "gogl", publisher.Events()[0].ShortCode)
}

func TestRedirect_RegistryHit(t *testing.T) {
	// Arrange
	cache := testutil.NewMemoryLinkCache(nil)
	resolver := new(testutil.MockLinkResolver)
	resolver.On("Lookup", mock.Anything, "abc1234").Return("https://example.com", nil)
	srv := newTestServer(cache, resolver, &testutil.RecordingPublisher{})

	// Act
	rec := get(srv, "/abc1234")

	// Assert
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Location"))
}

func TestRedirect_TargetSentVerbatim(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "no scheme", target: "www.example.com/path"},
		{name: "query and fragment", target: "https://example.com/a?b=c&d=e#f"},
		{name: "non-http scheme", target: "mailto:someone@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := testutil.NewMemoryLinkCache(map[string]string{"abc1234": tt.target})
			srv := newTestServer(cache, new(testutil.MockLinkResolver), &testutil.RecordingPublisher{})

			rec := get(srv, "/abc1234")

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, tt.target, rec.Header().Get("Location"))
		})
	}
}

func TestRedirect_NotFound(t *testing.T) {
	// Arrange
	cache := testutil.NewMemoryLinkCache(nil)
	resolver := new(testutil.MockLinkResolver)
	resolver.On("Lookup", mock.Anything, "zzzz999").Return("", biz.ErrLinkNotFound)
	srv := newTestServer(cache, resolver, &testutil.RecordingPublisher{})

	// Act
	rec := get(srv, "/zzzz999")

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestRedirect_BackendOutageLooksLikeNotFound(t *testing.T) {
	// Arrange
	cache := testutil.NewMemoryLinkCache(nil)
	cache.Err = errors.New("redis: connection refused")
	resolver := new(testutil.MockLinkResolver)
	resolver.On("Lookup", mock.Anything, "abc1234").
		Return("", fmt.Errorf("link registry lookup abc1234: %w", errors.New("dial tcp: connection refused")))
	srv := newTestServer(cache, resolver, &testutil.RecordingPublisher{})

	// Act
	rec := get(srv, "/abc1234")

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		cacheErr error
		want     service.HealthReply
	}{
		{name: "cache up", want: service.HealthReply{Status: "ok", CacheConnected: true}},
		{name: "cache down", cacheErr: errors.New("connection refused"), want: service.HealthReply{Status: "ok", CacheConnected: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cache := testutil.NewMemoryLinkCache(nil)
			cache.Err = tt.cacheErr
			resolver := new(testutil.MockLinkResolver)
			srv := newTestServer(cache, resolver, &testutil.RecordingPublisher{})

			// Act
			rec := get(srv, "/health")

			// Assert
			require.Equal(t, http.StatusOK, rec.Code)
			var got service.HealthReply
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
			assert.Contains(t, rec.Body.String(), `"cacheConnected"`)
			resolver.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		})
	}
}

func TestRedirectService_Redirect(t *testing.T) {
	cache := testutil.NewMemoryLinkCache(map[string]string{"gogl": "https://www.google.com"})
	uc := biz.NewRedirectUsecase(cache, new(testutil.MockLinkResolver), &testutil.RecordingPublisher{}, nil, log.DefaultLogger)
	svc := service.NewRedirectService(uc, log.DefaultLogger)

	target, err := svc.Redirect(context.Background(), "gogl")

	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com", target)
}
