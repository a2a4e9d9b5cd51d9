package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsites/sitebuilder/internal/config"
	siteerrors "github.com/fieldsites/sitebuilder/internal/errors"
)

// testBackendConfig keeps retries fast so exhaustion tests finish quickly.
func testBackendConfig(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:           baseURL,
		Timeout:           "2s",
		MaxRetries:        config.Int(2),
		RetryBackoff:      config.RetryBackoffFixed,
		RetryInitialDelay: "1ms",
		RetryMaxDelay:     "5ms",
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(testBackendConfig(baseURL), config.RevalidateConfig{}, nil, nil)
	require.NoError(t, err)
	return c
}

func TestFetchProfileSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/businesses/b-42/profile", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"b-42","business_name":"Cool Breeze HVAC","trade":"hvac","city":"Austin"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	profile, err := c.FetchProfile(context.Background(), "b-42")
	require.NoError(t, err)
	assert.Equal(t, "Cool Breeze HVAC", profile.Name)
	assert.Equal(t, "hvac", profile.Trade)
	assert.Equal(t, "Austin", profile.City)
}

// TestPermanent5xxMakesExactlyThreeAttempts: maxRetries=2 means three total
// attempts against a permanently failing upstream, then a terminal error.
func TestPermanent5xxMakesExactlyThreeAttempts(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	profile, err := c.FetchProfile(context.Background(), "b-42")
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.Equal(t, int32(3), attempts.Load())
	assert.True(t, siteerrors.IsCode(err, siteerrors.CodeUpstream5xx))
}

// Test4xxMakesExactlyOneAttempt: client errors are non-transient and never retried.
func Test4xxMakesExactlyOneAttempt(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	services, err := c.FetchServices(context.Background(), "b-42", FetchOptions{})
	require.Error(t, err)
	assert.Nil(t, services)
	assert.Equal(t, int32(1), attempts.Load())
	assert.True(t, siteerrors.IsCode(err, siteerrors.CodeUpstream4xx))
	assert.False(t, siteerrors.IsRetryable(err))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"s1","name":"AC Repair","slug":"ac-repair"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	services, err := c.FetchServices(context.Background(), "b-42", FetchOptions{})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "ac-repair", services[0].Slug)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestPerAttemptTimeoutIsRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testBackendConfig(srv.URL)
	cfg.Timeout = "20ms"
	c, err := NewClient(cfg, config.RevalidateConfig{}, nil, nil)
	require.NoError(t, err)

	_, err = c.FetchProfile(context.Background(), "b-42")
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.True(t, siteerrors.IsRetryable(err))
}

func TestCancellationDuringBackoffStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testBackendConfig(srv.URL)
	cfg.RetryInitialDelay = "5s"
	cfg.RetryMaxDelay = "5s"
	c, err := NewClient(cfg, config.RevalidateConfig{}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.FetchProfile(ctx, "b-42")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancel should cut the backoff short")
}

func TestCacheServesWithinWindow(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":"b-42","business_name":"Cool Breeze HVAC","trade":"hvac"}`))
	}))
	defer srv.Close()

	cfg := testBackendConfig(srv.URL)
	c, err := NewClient(cfg, config.RevalidateConfig{Profile: "1h"}, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.FetchProfile(context.Background(), "b-42")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "second and third fetch should hit the cache")

	c.Invalidate("b-42")
	_, err = c.FetchProfile(context.Background(), "b-42")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchOptionsBuildQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchServices(context.Background(), "b-42", FetchOptions{FeaturedOnly: true, Limit: 6})
	require.NoError(t, err)
	assert.True(t, strings.Contains(query, "featured_only=true"))
	assert.True(t, strings.Contains(query, "limit=6"))
}

func TestFallbackOnlyClient(t *testing.T) {
	cfg := config.BackendConfig{AllowFallbackProfile: true}
	c, err := NewClient(cfg, config.RevalidateConfig{}, nil, nil)
	require.NoError(t, err)
	assert.True(t, c.FallbackOnly())

	profile, err := c.FetchProfile(context.Background(), "b-42")
	require.NoError(t, err)
	assert.Equal(t, "b-42", profile.ID)
	assert.NotEmpty(t, profile.Name)

	services, err := c.FetchServices(context.Background(), "b-42", FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestNewClientRequiresBaseURLWithoutFallback(t *testing.T) {
	_, err := NewClient(config.BackendConfig{}, config.RevalidateConfig{}, nil, nil)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestInvalidateDropsOptionVariantKeys(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	opts := FetchOptions{FeaturedOnly: true, Limit: 6}

	for i := 0; i < 2; i++ {
		_, err := c.FetchServices(context.Background(), "b-42", opts)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "second fetch should hit the cache")

	// Invalidation must cover endpoint keys with query variants too.
	c.Invalidate("b-42")
	_, err := c.FetchServices(context.Background(), "b-42", opts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// Another business's cache is untouched.
	_, err = c.FetchServices(context.Background(), "b-43", opts)
	require.NoError(t, err)
	c.Invalidate("b-42")
	_, err = c.FetchServices(context.Background(), "b-43", opts)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}
