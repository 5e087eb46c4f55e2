package billify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/container"
	billifyHTTP "billify.site/pkg/billify/http"
)

// Handler serves one route. A non-nil error is turned into the error response, any
// other result is written as JSON.
type Handler func(c *Context) (any, error)

type handler struct {
	function       Handler
	container      *container.Container
	boundary       *errorBoundary
	requestTimeout time.Duration
}

type outcome struct {
	result   any
	err      error
	panicked *apperror.Panic
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srw := billifyHTTP.WrapResponseWriter(w)
	req := billifyHTTP.NewRequest(r)

	ctx := r.Context()

	if h.requestTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	c := newContext(ctx, req, h.container)

	done := make(chan outcome, 1)

	go func() {
		var o outcome

		defer func() {
			if re := recover(); re != nil {
				o.panicked = apperror.Recovered(re)
			}

			done <- o
		}()

		o.result, o.err = h.function(c)
	}()

	var failure any

	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// client went away; nobody is listening for a response
			return
		}

		failure = apperror.NewRequestTimeout("Request timed out", map[string]int64{
			"timeoutMs": h.requestTimeout.Milliseconds(),
		}, apperror.WithCause(ctx.Err()))
	case o := <-done:
		switch {
		case o.panicked != nil:
			failure = o.panicked
		case o.err != nil:
			failure = o.err
		default:
			billifyHTTP.NewResponder(srw, r.Method).Respond(o.result)
			return
		}
	}

	h.boundary.handle(srw, r.WithContext(ctx), failure)
}
