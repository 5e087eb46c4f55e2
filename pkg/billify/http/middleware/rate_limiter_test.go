package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/metrics"
)

type rateLimiterMockMetrics struct {
	mu       sync.Mutex
	counters map[string]int
}

func newRateLimiterMockMetrics() *rateLimiterMockMetrics {
	return &rateLimiterMockMetrics{counters: make(map[string]int)}
}

func (m *rateLimiterMockMetrics) IncrementCounter(_ context.Context, name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name+"/"+labels[1]]++
}

func (m *rateLimiterMockMetrics) getCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counters[name]
}

type capturedErrors struct {
	mu   sync.Mutex
	errs []error
}

func (c *capturedErrors) write(w http.ResponseWriter, _ *http.Request, err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()

	w.WriteHeader(apperror.Normalize(err).StatusCode)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = remoteAddr

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func TestRateLimiter_PerIP(t *testing.T) {
	m := newRateLimiterMockMetrics()
	captured := &capturedErrors{}

	config := RateLimiterConfig{Name: "login", Max: 2, Window: 30 * time.Minute, Message: "Too many login attempts"}
	handler := RateLimiter(config, m, captured.write)(okHandler())

	for i := 0; i < 2; i++ {
		rr := doRequest(handler, "10.0.0.1:1234", "/api/v1/auth/login")
		assert.Equal(t, http.StatusOK, rr.Code, "TEST[%d], Failed.\nrequest within the limit", i)
	}

	rr := doRequest(handler, "10.0.0.1:1234", "/api/v1/auth/login")

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, m.getCount(metrics.RateLimited+"/login"))

	require.Len(t, captured.errs, 1)

	var appErr *apperror.Error

	require.True(t, errors.As(captured.errs[0], &appErr))
	assert.Equal(t, apperror.TooManyRequests, appErr.Kind())
	assert.Equal(t, "Too many login attempts", appErr.Message())

	// another client has its own bucket
	rr = doRequest(handler, "10.0.0.2:1234", "/api/v1/auth/login")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_IgnoredPaths(t *testing.T) {
	captured := &capturedErrors{}
	handler := RateLimiter(RateLimiterConfig{Max: 1, Window: time.Hour}, nil, captured.write)(okHandler())

	for i := 0; i < 3; i++ {
		rr := doRequest(handler, "10.0.0.1:1234", "/health")
		assert.Equal(t, http.StatusOK, rr.Code, "TEST[%d], Failed.\nhealth is never limited", i)
	}

	assert.Empty(t, captured.errs)
}

func TestRateLimiter_InvalidConfig(t *testing.T) {
	tests := []struct {
		desc   string
		config RateLimiterConfig
	}{
		{"zero max", RateLimiterConfig{Max: 0, Window: time.Minute}},
		{"zero window", RateLimiterConfig{Max: 1}},
	}

	for i, tc := range tests {
		assert.Panics(t, func() { RateLimiter(tc.config, nil, nil) }, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("store down")
}
func (failingStore) StartCleanup(context.Context) {}
func (failingStore) StopCleanup()                 {}

func TestRateLimiter_FailsOpen(t *testing.T) {
	captured := &capturedErrors{}
	config := RateLimiterConfig{Max: 1, Window: time.Minute, Store: failingStore{}}

	rr := doRequest(RateLimiter(config, nil, captured.write)(okHandler()), "10.0.0.1:1", "/x")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, captured.errs)
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		desc    string
		trusted bool
		headers map[string]string
		want    string
	}{
		{"remote addr", false, nil, "192.0.2.1"},
		{"forwarded ignored when untrusted", false, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "192.0.2.1"},
		{"forwarded first hop", true, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", true, map[string]string{"X-Real-IP": " 203.0.113.8 "}, "203.0.113.8"},
		{"trusted without headers", true, nil, "192.0.2.1"},
	}

	for i, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = "192.0.2.1:5555"

		for k, v := range tc.headers {
			req.Header.Set(k, v)
		}

		assert.Equal(t, tc.want, getIP(req, tc.trusted), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestMemoryRateLimiterStore_FixedWindow(t *testing.T) {
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	store := NewMemoryRateLimiterStore(RateLimiterConfig{Max: 20, Window: 30 * time.Minute}).(*memoryRateLimiterStore)
	store.now = func() time.Time { return clock }

	allow := func() (bool, time.Duration) {
		allowed, retryAfter, err := store.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)

		return allowed, retryAfter
	}

	allowedInWindow := 0

	for i := 0; i < 20; i++ {
		if ok, _ := allow(); ok {
			allowedInWindow++
		}
	}

	clock = clock.Add(29 * time.Minute)

	for i := 0; i < 40; i++ {
		if ok, _ := allow(); ok {
			allowedInWindow++
		}
	}

	assert.Equal(t, 20, allowedInWindow)

	allowed, retryAfter := allow()
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	clock = clock.Add(time.Minute)

	allowed, _ = allow()
	assert.True(t, allowed, "a new window starts at the reset time")

	_, other, err := store.Allow(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestMemoryRateLimiterStore_Cleanup(t *testing.T) {
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	store := NewMemoryRateLimiterStore(RateLimiterConfig{Max: 2, Window: time.Minute}).(*memoryRateLimiterStore)
	store.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		allowed, _, err := store.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, allowed, "TEST[%d], Failed.\nwithin the window", i)
	}

	allowed, retryAfter, err := store.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	store.cleanup()

	_, ok := store.limiters.Load("k")
	assert.True(t, ok, "entry in an open window is kept")

	clock = clock.Add(time.Minute)
	store.cleanup()

	_, ok = store.limiters.Load("k")
	assert.False(t, ok)

	allowed, _, err = store.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	store.StartCleanup(context.Background())
	store.StopCleanup()
	store.StopCleanup()
}
