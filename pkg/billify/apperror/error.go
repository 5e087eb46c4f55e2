// Package apperror provides the operational error taxonomy of billify together with
// the normalization and cause serialization used by the terminal error boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// TimestampLayout is the ISO-8601 layout used for error timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

//nolint:gochecknoglobals // overridden in tests to pin timestamps
var now = time.Now

// Error is an operational error: an anticipated failure that translates into a clean
// client response. It is immutable once constructed.
type Error struct {
	kind      Kind
	message   string
	code      string
	details   any
	timestamp string
	cause     any
	origin    error
}

// Option customises an Error at construction time.
type Option func(*Error)

// WithCause records the lower-level failure that triggered the error.
func WithCause(cause any) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// WithErrorCode replaces the variant's default error code.
func WithErrorCode(code string) Option {
	return func(e *Error) {
		if code != "" {
			e.code = code
		}
	}
}

// New creates an operational error of the given kind. An empty message falls back to the
// standard reason phrase of the kind's status code.
func New(kind Kind, message string, details any, opts ...Option) *Error {
	if message == "" {
		message = http.StatusText(kind.StatusCode())
	}

	e := &Error{
		kind:      kind,
		message:   message,
		code:      kind.Code(),
		details:   orNil(details),
		timestamp: now().UTC().Format(TimestampLayout),
		origin:    pkgerrors.New(message),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// orNil turns typed nils such as a nil map into an untyped nil, so absent details stay
// absent once boxed in an interface.
func orNil(v any) any {
	if isNilValue(v) {
		return nil
	}

	return v
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func (e *Error) Error() string {
	return e.message
}

// Unwrap exposes the cause to errors.Is and errors.As when it is an error.
func (e *Error) Unwrap() error {
	if err, ok := e.cause.(error); ok {
		return err
	}

	return nil
}

func (e *Error) Kind() Kind        { return e.kind }
func (e *Error) Name() string      { return e.kind.Name() }
func (e *Error) Message() string   { return e.message }
func (e *Error) StatusCode() int   { return e.kind.StatusCode() }
func (e *Error) ErrorCode() string { return e.code }
func (e *Error) Status() Status    { return StatusFor(e.StatusCode()) }
func (e *Error) Details() any      { return e.details }
func (e *Error) Timestamp() string { return e.timestamp }
func (*Error) IsOperational() bool { return true }
func (e *Error) Cause() any        { return e.cause }

// Stack returns the construction-site stack trace prefixed with the error name.
func (e *Error) Stack() string {
	var st stackTracer
	if !errors.As(e.origin, &st) {
		return ""
	}

	return fmt.Sprintf("%s: %s%+v", e.Name(), e.message, st.StackTrace())
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func NewBadRequest(message string, details any, opts ...Option) *Error {
	return New(BadRequest, message, details, opts...)
}

func NewUnauthorized(message string, details any, opts ...Option) *Error {
	return New(Unauthorized, message, details, opts...)
}

func NewForbidden(message string, details any, opts ...Option) *Error {
	return New(Forbidden, message, details, opts...)
}

func NewNotFound(message string, details any, opts ...Option) *Error {
	return New(NotFound, message, details, opts...)
}

func NewConflict(message string, details any, opts ...Option) *Error {
	return New(Conflict, message, details, opts...)
}

func NewValidation(message string, details any, opts ...Option) *Error {
	return New(Validation, message, details, opts...)
}

func NewRequestTimeout(message string, details any, opts ...Option) *Error {
	return New(RequestTimeout, message, details, opts...)
}

func NewPayloadTooLarge(message string, details any, opts ...Option) *Error {
	return New(PayloadTooLarge, message, details, opts...)
}

func NewTooManyRequests(message string, details any, opts ...Option) *Error {
	return New(TooManyRequests, message, details, opts...)
}

func NewInternalServer(message string, details any, opts ...Option) *Error {
	return New(InternalServer, message, details, opts...)
}

func NewServiceUnavailable(message string, details any, opts ...Option) *Error {
	return New(ServiceUnavailable, message, details, opts...)
}

func NewBadGateway(message string, details any, opts ...Option) *Error {
	return New(BadGateway, message, details, opts...)
}
