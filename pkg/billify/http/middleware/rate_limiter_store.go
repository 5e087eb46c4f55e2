package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterStore abstracts the storage and cleanup for rate limiter buckets.
type RateLimiterStore interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	StartCleanup(ctx context.Context)
	StopCleanup()
}

// memoryRateLimiterStore counts requests per key in fixed windows. Each key gets a
// limiter holding Max tokens that never refill; it is replaced when its window ends.
type memoryRateLimiterStore struct {
	limiters    sync.Map // map[string]*limiterEntry
	stopCh      chan struct{}
	cleanupOnce sync.Once
	stopOnce    sync.Once
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

type limiterEntry struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	resetAt time.Time
	removed bool
}

// NewMemoryRateLimiterStore creates an in-memory store allowing Max requests per key in
// every Window, the window starting at the first request of the key.
func NewMemoryRateLimiterStore(config RateLimiterConfig) RateLimiterStore {
	return &memoryRateLimiterStore{
		maxRequests: config.Max,
		window:      config.Window,
		now:         time.Now,
	}
}

func (m *memoryRateLimiterStore) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()

	entry := m.lockEntry(key)
	defer entry.mu.Unlock()

	if entry.limiter == nil || !now.Before(entry.resetAt) {
		entry.limiter = rate.NewLimiter(0, m.maxRequests)
		entry.resetAt = now.Add(m.window)
	}

	if entry.limiter.AllowN(now, 1) {
		return true, 0, nil
	}

	return false, entry.resetAt.Sub(now), nil
}

// lockEntry returns the locked entry of key, skipping entries removed by cleanup.
func (m *memoryRateLimiterStore) lockEntry(key string) *limiterEntry {
	for {
		val, _ := m.limiters.LoadOrStore(key, &limiterEntry{})
		entry := val.(*limiterEntry)

		entry.mu.Lock()

		if !entry.removed {
			return entry
		}

		entry.mu.Unlock()
	}
}

// StartCleanup starts a background goroutine removing stale buckets. Only the first
// call has an effect.
func (m *memoryRateLimiterStore) StartCleanup(ctx context.Context) {
	m.cleanupOnce.Do(func() {
		m.stopCh = make(chan struct{})

		go func() {
			const cleanupInterval = 5 * time.Minute

			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					m.cleanup()
				case <-m.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	})
}

func (m *memoryRateLimiterStore) StopCleanup() {
	m.stopOnce.Do(func() {
		if m.stopCh != nil {
			close(m.stopCh)
		}
	})
}

// cleanup removes entries whose window has ended; the next request starts a new one.
func (m *memoryRateLimiterStore) cleanup() {
	now := m.now()

	m.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)

		entry.mu.Lock()
		if entry.limiter != nil && !now.Before(entry.resetAt) {
			entry.removed = true
			m.limiters.Delete(key)
		}
		entry.mu.Unlock()

		return true
	})
}
