package middleware

import (
	"fmt"
	"net/http"

	"billify.site/pkg/billify/apperror"
)

// DefaultMaxBodySize is the default maximum request body size (1 MB).
const DefaultMaxBodySize = 1 << 20

// BodySizeLimit rejects requests whose declared Content-Length exceeds maxSize and caps
// the readable body at maxSize for the rest.
func BodySizeLimit(maxSize int64, errWriter ErrorWriter) func(http.Handler) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				errWriter(w, r, apperror.NewPayloadTooLarge(
					fmt.Sprintf("Request body exceeds the limit of %d bytes", maxSize),
					map[string]int64{"limit": maxSize, "contentLength": r.ContentLength}))

				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxSize)

			next.ServeHTTP(w, r)
		})
	}
}
