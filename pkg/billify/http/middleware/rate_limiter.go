package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/metrics"
)

var (
	errInvalidMax    = errors.New("max must be positive")
	errInvalidWindow = errors.New("window must be positive")
)

// RateLimiterConfig allows at most Max requests per Window for every client IP.
//
// Buckets are kept in memory, so each process enforces its limits independently.
// Only enable TrustedProxies behind a reverse proxy that sets X-Forwarded-For,
// otherwise clients can spoof their address.
type RateLimiterConfig struct {
	Name           string
	Max            int
	Window         time.Duration
	Message        string
	TrustedProxies bool
	Store          RateLimiterStore // defaults to an in-memory store
}

// Validate checks if the configuration values are valid.
func (c RateLimiterConfig) Validate() error {
	if c.Max <= 0 {
		return errInvalidMax
	}

	if c.Window <= 0 {
		return errInvalidWindow
	}

	return nil
}

type counter interface {
	IncrementCounter(ctx context.Context, name string, labels ...string)
}

// getIP extracts the client IP address from the request.
// If trustProxies is false, only RemoteAddr is used to prevent IP spoofing.
func getIP(r *http.Request, trustProxies bool) string {
	if trustProxies {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
				return ip
			}
		}

		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// RateLimiter rejects requests above the configured rate with a TooManyRequestsError
// reported through errWriter, after setting Retry-After.
func RateLimiter(config RateLimiterConfig, m counter, errWriter ErrorWriter) func(http.Handler) http.Handler {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid rate limiter config: %v", err))
	}

	if config.Store == nil {
		config.Store = NewMemoryRateLimiterStore(config)
	}

	if config.Message == "" {
		config.Message = "Too many requests from this IP, please try again later"
	}

	config.Store.StartCleanup(context.Background())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ignoredPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := getIP(r, config.TrustedProxies)
			if key == "" {
				key = "unknown"
			}

			allowed, retryAfter, err := config.Store.Allow(r.Context(), key)
			if err != nil || allowed {
				// fail open
				next.ServeHTTP(w, r)
				return
			}

			// at least one second for sub-second delays
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Max(1, math.Ceil(retryAfter.Seconds()))))

			if m != nil {
				m.IncrementCounter(r.Context(), metrics.RateLimited, "limiter", config.Name)
			}

			errWriter(w, r, apperror.NewTooManyRequests(config.Message, map[string]any{
				"limiter":           config.Name,
				"retryAfterSeconds": int(math.Ceil(retryAfter.Seconds())),
			}))
		})
	}
}
