package http

import (
	"net/http"
)

// StatusResponseWriter records the status code written through it so that middleware
// can read it after the handler returns.
type StatusResponseWriter struct {
	http.ResponseWriter
	status    int
	committed bool
}

// WrapResponseWriter returns w itself when it already is a *StatusResponseWriter.
func WrapResponseWriter(w http.ResponseWriter) *StatusResponseWriter {
	if srw, ok := w.(*StatusResponseWriter); ok {
		return srw
	}

	return &StatusResponseWriter{ResponseWriter: w}
}

func (w *StatusResponseWriter) WriteHeader(status int) {
	if w.committed {
		return
	}

	w.status = status
	w.committed = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusResponseWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

// Status is the written status code, http.StatusOK if the handler wrote a body
// without one and 0 if nothing was written yet.
func (w *StatusResponseWriter) Status() int {
	return w.status
}

func (w *StatusResponseWriter) Committed() bool {
	return w.committed
}

func (w *StatusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// IsCommitted reports whether a status line has been sent on w or on any writer it
// wraps. Writers that do not track this are assumed uncommitted.
func IsCommitted(w http.ResponseWriter) bool {
	for w != nil {
		if c, ok := w.(interface{ Committed() bool }); ok && c.Committed() {
			return true
		}

		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}

		w = u.Unwrap()
	}

	return false
}
