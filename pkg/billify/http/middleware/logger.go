package middleware

import (
	"fmt"
	"net/http"
	"time"

	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/logging"
)

// requests to these paths are served but not logged
var ignoredPaths = map[string]bool{ //nolint:gochecknoglobals // fixed list
	"/health":      true,
	"/metrics":     true,
	"/favicon.ico": true,
}

var httpChild = logging.NewChild(logging.Fields{"service": "http"}) //nolint:gochecknoglobals // shared binding

// RequestLog is the req field of a request log line.
type RequestLog struct {
	Method        string `json:"method"`
	URL           string `json:"url"`
	ContentLength string `json:"contentLength,omitempty"`
}

// ResponseLog is the res field of a request log line.
type ResponseLog struct {
	StatusCode int `json:"statusCode"`
}

// PanicReporter turns a value recovered from a panic into an error response.
type PanicReporter func(w http.ResponseWriter, r *http.Request, recovered any)

// Logging logs every request twice: once when it is received and once when it
// completes, at a level derived from the outcome. A failure recorded by the error
// boundary is attached to the completion line. Panics raised below it are handed to
// onPanic, so they get the same response and log line as handler failures. Loggers are
// bound to the request IDs, so RequestContext must run before it.
func Logging(base logging.Logger, onPanic PanicReporter) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ignoredPaths[r.URL.Path] {
				inner.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			srw := billifyHTTP.WrapResponseWriter(w)

			ctx, slot := billifyHTTP.WithFailureSlot(r.Context())
			r = r.WithContext(ctx)

			logger := httpChild.ForLogger(ctx, base)
			url := r.URL.RequestURI()

			req := RequestLog{Method: r.Method, URL: url}
			if cl := r.Header.Get("Content-Length"); cl != "" {
				req.ContentLength = cl
			}

			logger.Info(fmt.Sprintf("→ %s %s", r.Method, url), logging.Fields{"req": req})

			defer func() {
				re := recover()
				if re != nil && re != http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					re = reportPanic(onPanic, srw, r, re)
				}

				status := srw.Status()
				if status == 0 {
					status = http.StatusOK
				}

				fields := logging.Fields{
					"req":        req,
					"res":        ResponseLog{StatusCode: status},
					"durationMs": time.Since(start).Milliseconds(),
				}

				if failure := slot.Failure(); failure != nil {
					fields["err"] = failure.Value

					logf(logger, logging.LevelForFailure(failure.Info), fields, "✗ %s %s %d [%s] %s",
						r.Method, url, status, failure.Info.ErrorCode, failure.Info.Message)
				} else {
					logf(logger, logging.LevelForStatus(status), fields, "← %s %s %d", r.Method, url, status)
				}

				if re != nil {
					panic(re)
				}
			}()

			inner.ServeHTTP(srw, r)
		})
	}
}

// reportPanic hands re to onPanic and returns what is left to re-panic with: nil once
// the panic became a response, http.ErrAbortHandler when the response was already
// committed, or re itself without a reporter.
func reportPanic(onPanic PanicReporter, w http.ResponseWriter, r *http.Request, re any) (rest any) {
	if onPanic == nil {
		return re
	}

	defer func() {
		rest = recover()
	}()

	onPanic(w, r, re)

	return nil
}

func logf(l logging.Logger, level logging.Level, fields logging.Fields, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	switch level {
	case logging.ERROR:
		l.Error(msg, fields)
	case logging.WARN:
		l.Warn(msg, fields)
	default:
		l.Info(msg, fields)
	}
}
