package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billify.site/pkg/billify/apperror"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/logging"
)

func serve(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, http.NoBody)
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("X-Correlation-ID", "corr-1")

	rec := httptest.NewRecorder()
	RequestContext()(handler).ServeHTTP(rec, req)

	return rec
}

func TestLogging(t *testing.T) {
	tests := []struct {
		desc       string
		status     int
		failure    error
		level      logging.Level
		completion string
	}{
		{"success", http.StatusOK, nil, logging.INFO, "← GET /widgets?page=2 200"},
		{"client error status", http.StatusNotFound, nil, logging.WARN, "← GET /widgets?page=2 404"},
		{"server error status", http.StatusBadGateway, nil, logging.ERROR, "← GET /widgets?page=2 502"},
		{"operational client failure", http.StatusNotFound, apperror.NewNotFound("widget missing", nil), logging.WARN,
			"✗ GET /widgets?page=2 404 [NOT_FOUND] widget missing"},
		{"server failure", http.StatusServiceUnavailable, apperror.NewServiceUnavailable("Database unavailable", nil),
			logging.ERROR, "✗ GET /widgets?page=2 503 [SERVICE_UNAVAILABLE] Database unavailable"},
	}

	for i, tc := range tests {
		logger := logging.NewMockLogger(logging.DEBUG)

		handler := Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tc.failure != nil {
				billifyHTTP.RecordFailure(r.Context(), &billifyHTTP.Failure{
					Value: tc.failure,
					Info:  apperror.Normalize(tc.failure),
				})
			}

			w.WriteHeader(tc.status)
		}))

		serve(t, handler, http.MethodGet, "/widgets?page=2")

		entries := logger.Entries()
		require.Len(t, entries, 2, "TEST[%d], Failed.\n%s", i, tc.desc)

		assert.Equal(t, "→ GET /widgets?page=2", entries[0].Message, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, logging.INFO, entries[0].Level, "TEST[%d], Failed.\n%s", i, tc.desc)

		done := entries[1]

		assert.Equal(t, tc.completion, done.Message, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, tc.level, done.Level, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "req-1", done.Fields["requestId"], "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "corr-1", done.Fields["correlationId"], "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "http", done.Fields["service"], "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, ResponseLog{StatusCode: tc.status}, done.Fields["res"], "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Contains(t, done.Fields, "durationMs", "TEST[%d], Failed.\n%s", i, tc.desc)

		req, ok := done.Fields["req"].(RequestLog)
		require.True(t, ok, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "/widgets?page=2", req.URL, "TEST[%d], Failed.\n%s", i, tc.desc)

		if tc.failure == nil {
			assert.NotContains(t, done.Fields, "err", "TEST[%d], Failed.\n%s", i, tc.desc)

			continue
		}

		assert.Equal(t, tc.failure, done.Fields["err"], "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestLogging_IgnoredPaths(t *testing.T) {
	for i, path := range []string{"/health", "/metrics", "/favicon.ico"} {
		logger := logging.NewMockLogger(logging.DEBUG)

		rec := serve(t, Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})), http.MethodGet, path)

		assert.Equal(t, http.StatusOK, rec.Code, "TEST[%d], Failed.\n%s", i, path)
		assert.Empty(t, logger.Entries(), "TEST[%d], Failed.\n%s", i, path)
	}
}

func TestLogging_RecoversPanics(t *testing.T) {
	logger := logging.NewMockLogger(logging.DEBUG)

	var reported any

	onPanic := func(w http.ResponseWriter, r *http.Request, re any) {
		reported = re

		failure := apperror.Recovered(re)
		billifyHTTP.RecordFailure(r.Context(), &billifyHTTP.Failure{Value: failure, Info: apperror.Normalize(failure)})

		w.WriteHeader(http.StatusInternalServerError)
	}

	handler := Logging(logger, onPanic)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("mw boom")
	}))

	var rec *httptest.ResponseRecorder

	require.NotPanics(t, func() { rec = serve(t, handler, http.MethodGet, "/ok") })

	assert.Equal(t, "mw boom", reported)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "✗ GET /ok 500 [UNKNOWN_ERROR] An unidentifiable error occurred", entries[1].Message)
	assert.Equal(t, logging.ERROR, entries[1].Level)
}

func TestLogging_RepanicsWithoutReporter(t *testing.T) {
	logger := logging.NewMockLogger(logging.DEBUG)

	handler := Logging(logger, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("mw boom")
	}))

	assert.PanicsWithValue(t, "mw boom", func() { serve(t, handler, http.MethodGet, "/ok") })
	assert.Len(t, logger.Entries(), 2)
}

func TestLogging_AbortIsLoggedAndPropagated(t *testing.T) {
	logger := logging.NewMockLogger(logging.DEBUG)
	called := false

	handler := Logging(logger, func(http.ResponseWriter, *http.Request, any) { called = true })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			failure := apperror.NewInternalServer("stream broke", nil)
			billifyHTTP.RecordFailure(r.Context(), &billifyHTTP.Failure{Value: failure, Info: apperror.Normalize(failure)})

			w.WriteHeader(http.StatusOK)
			panic(http.ErrAbortHandler)
		}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { serve(t, handler, http.MethodGet, "/stream") })
	assert.False(t, called)

	entries := logger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "✗ GET /stream 200 [INTERNAL_SERVER_ERROR] stream broke", entries[1].Message)
}
