package middleware

import (
	"net/http"
)

// ErrorWriter reports a failure detected by a middleware through the service's error
// boundary, which logs it and writes the error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)
