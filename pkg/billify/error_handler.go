package billify

import (
	"errors"
	"fmt"
	"net/http"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/container"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/logging"
	"billify.site/pkg/billify/metrics"
	"billify.site/pkg/billify/reqctx"
)

// errorBoundary is the single place where failures become responses. Handlers return
// errors, panics are recovered into *apperror.Panic, middleware reports through
// writeError and panics outside handlers arrive through recovered. All of them end up
// in handle.
type errorBoundary struct {
	container *container.Container
	verbose   bool
}

// handle normalizes failure, hands it to the request logger and writes the error body.
// When the response is already committed the request is aborted instead.
func (b *errorBoundary) handle(w http.ResponseWriter, r *http.Request, failure any) {
	ctx := r.Context()
	info := apperror.Normalize(failure)

	b.container.Metrics().IncrementCounter(ctx, metrics.ErrorsTotal,
		"errorCode", info.ErrorCode, "status", string(info.Status))

	f := &billifyHTTP.Failure{Value: failure, Info: info}

	if !billifyHTTP.RecordFailure(ctx, f) {
		logger := logging.RequestLogger(ctx, b.container.Logger)
		fields := logging.Fields{"err": failure}

		msg := fmt.Sprintf("✗ %s %s %d [%s] %s", r.Method, r.URL.RequestURI(), info.StatusCode, info.ErrorCode, info.Message)

		if logging.LevelForFailure(info) == logging.WARN {
			logger.Warn(msg, fields)
		} else {
			logger.Error(msg, fields)
		}
	}

	err := billifyHTTP.NewResponder(w, r.Method).RespondError(&info, reqctx.Current(ctx), b.verbose)
	if errors.Is(err, billifyHTTP.ErrResponseCommitted) {
		panic(http.ErrAbortHandler)
	}
}

// writeError adapts handle for middleware.
func (b *errorBoundary) writeError(w http.ResponseWriter, r *http.Request, err error) {
	b.handle(w, r, err)
}

// recovered adapts handle for panics caught by the request logging middleware.
func (b *errorBoundary) recovered(w http.ResponseWriter, r *http.Request, re any) {
	b.handle(w, r, apperror.Recovered(re))
}

// notFound turns unmatched routes into a NotFoundError.
func (b *errorBoundary) notFound(w http.ResponseWriter, r *http.Request) {
	url := r.URL.RequestURI()

	b.handle(w, r, apperror.NewNotFound(fmt.Sprintf("Cannot %s %s", r.Method, url),
		map[string]string{"method": r.Method, "path": url}))
}
