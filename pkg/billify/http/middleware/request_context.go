// Package middleware contains the HTTP middleware the service installs in front of its
// routes.
package middleware

import (
	"net/http"

	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/reqctx"
)

// RequestContext assigns the request and correlation IDs (taken from the inbound headers
// or generated), echoes them on the response and makes them available through the
// request context to everything downstream.
func RequestContext() func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			srw := billifyHTTP.WrapResponseWriter(w)

			rc := reqctx.FromHeaders(r.Header)

			srw.Header().Set(reqctx.HeaderRequestID, rc.RequestID())
			srw.Header().Set(reqctx.HeaderCorrelationID, rc.CorrelationID())

			inner.ServeHTTP(srw, r.WithContext(reqctx.With(r.Context(), rc)))
		})
	}
}
