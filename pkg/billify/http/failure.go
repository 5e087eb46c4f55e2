package http

import (
	"context"
	"sync"

	"billify.site/pkg/billify/apperror"
)

// Failure is what the error boundary knows about a failed request.
type Failure struct {
	// Value is the failure as it was raised: an error or an *apperror.Panic.
	Value any
	Info  apperror.Info
}

// FailureSlot hands the failure of a request from the error boundary back to the
// request logging middleware.
type FailureSlot struct {
	mu      sync.Mutex
	failure *Failure
}

type failureKey struct{}

// WithFailureSlot returns ctx carrying a new empty slot.
func WithFailureSlot(ctx context.Context) (context.Context, *FailureSlot) {
	slot := &FailureSlot{}

	return context.WithValue(ctx, failureKey{}, slot), slot
}

// RecordFailure stores f in the slot of ctx. It reports false when ctx has no slot,
// meaning nobody downstream will log the failure.
func RecordFailure(ctx context.Context, f *Failure) bool {
	slot, ok := ctx.Value(failureKey{}).(*FailureSlot)
	if !ok {
		return false
	}

	slot.mu.Lock()
	slot.failure = f
	slot.mu.Unlock()

	return true
}

func (s *FailureSlot) Failure() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failure
}
