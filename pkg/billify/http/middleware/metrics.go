package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/metrics"
)

type histogram interface {
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// Metrics records the response time of every request labelled with its route template,
// method and status.
func Metrics(m histogram) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			srw := billifyHTTP.WrapResponseWriter(w)

			// unmatched requests share one label value
			path := "not_found"
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			if path != "/" {
				path = strings.TrimSuffix(path, "/")
			}

			// this has to be called in the end so that status code is populated
			defer func() {
				status := srw.Status()
				if status == 0 {
					status = http.StatusOK
				}

				m.RecordHistogram(context.Background(), metrics.HTTPResponse, time.Since(start).Seconds(),
					"path", path, "method", r.Method, "status", strconv.Itoa(status))
			}()

			inner.ServeHTTP(srw, r)
		})
	}
}
