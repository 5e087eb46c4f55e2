package reqctx

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_OutsideScope(t *testing.T) {
	assert.Nil(t, Current(context.Background()))

	//nolint:staticcheck // nil context is accepted
	rc, ok := From(nil)
	assert.False(t, ok)
	assert.Nil(t, rc)
}

func TestRun_BindsAndRestores(t *testing.T) {
	ctx := context.Background()

	Run(ctx, "req-1", "corr-1", func(ctx context.Context) {
		rc := Current(ctx)
		require.NotNil(t, rc)

		assert.Equal(t, "req-1", rc.RequestID())
		assert.Equal(t, "corr-1", rc.CorrelationID())

		Run(ctx, "req-2", "corr-2", func(inner context.Context) {
			assert.Equal(t, "req-2", Current(inner).RequestID())
		})

		assert.Equal(t, "req-1", Current(ctx).RequestID())
	})

	assert.Nil(t, Current(ctx))
}

func TestRun_ConcurrentRequestsAreIsolated(t *testing.T) {
	const n = 50

	var wg sync.WaitGroup

	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			reqID := fmt.Sprintf("req-%d", i)

			Run(context.Background(), reqID, "corr", func(ctx context.Context) {
				// hop across goroutines and suspension points
				done := make(chan string)

				go func() {
					time.Sleep(time.Duration(i%5) * time.Millisecond)
					done <- Current(ctx).RequestID()
				}()

				if got := <-done; got != reqID {
					errs <- fmt.Errorf("expected %s, got %s", reqID, got)
				}
			})
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		desc          string
		headers       http.Header
		requestID     string
		correlationID string
	}{
		{"both present", http.Header{HeaderRequestID: {"r-1"}, HeaderCorrelationID: {"c-1"}}, "r-1", "c-1"},
		{"first value wins", http.Header{HeaderRequestID: {"r-1", "r-2"}, HeaderCorrelationID: {"c-1"}}, "r-1", "c-1"},
		{"request id only", http.Header{HeaderRequestID: {"r-1"}}, "r-1", ""},
		{"empty values", http.Header{HeaderRequestID: {""}, HeaderCorrelationID: {""}}, "", ""},
		{"none", http.Header{}, "", ""},
	}

	for i, tc := range tests {
		rc := FromHeaders(tc.headers)

		assertIDOrUUID(t, tc.requestID, rc.RequestID(), "TEST[%d], Failed.\n%s", i, tc.desc)
		assertIDOrUUID(t, tc.correlationID, rc.CorrelationID(), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func assertIDOrUUID(t *testing.T, expected, got string, msgAndArgs ...any) {
	t.Helper()

	if expected != "" {
		assert.Equal(t, expected, got, msgAndArgs...)

		return
	}

	parsed, err := uuid.Parse(got)
	require.NoError(t, err, msgAndArgs...)
	assert.Equal(t, uuid.Version(4), parsed.Version(), msgAndArgs...)
}

func TestMemo_CreatesOnce(t *testing.T) {
	rc := New("r", "c")

	calls := 0
	create := func() any {
		calls++

		return &struct{ n int }{n: calls}
	}

	first := rc.Memo("key", create)
	second := rc.Memo("key", create)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	other := rc.Memo("other", create)
	assert.NotSame(t, first, other)
}
