package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"
	"strings"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_SERVER_ERROR"
	CodeUnknown    = "UNKNOWN_ERROR"

	nameValidation = "ValidationError"
	nameUnknown    = "UnknownError"
	nameGeneric    = "Error"

	msgUnexpected     = "An unexpected error occurred"
	msgUnidentifiable = "An unidentifiable error occurred"
)

// Info is the canonical shape every failure is reduced to before it is logged and
// written to the client.
type Info struct {
	Name          string `json:"name"`
	Message       string `json:"message"`
	StatusCode    int    `json:"statusCode"`
	Status        Status `json:"status"`
	ErrorCode     string `json:"errorCode"`
	IsOperational bool   `json:"isOperational"`
	Details       any    `json:"details"`
	Timestamp     string `json:"timestamp"`
	Stack         string `json:"stack,omitempty"`
	Cause         any    `json:"cause,omitempty"`
}

// Issue is a single schema-validation failure.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// IssueReporter is implemented by schema-validation errors.
type IssueReporter interface {
	error
	Issues() []Issue
	// Tree returns the issues nested by path.
	Tree() any
	// Summary returns a readable multi-line rendering of the issues.
	Summary() string
}

// ValidationDetails is the details payload of a normalized schema-validation failure.
type ValidationDetails struct {
	Tree   any     `json:"tree"`
	Count  int     `json:"count"`
	Issues []Issue `json:"issues"`
}

// Panic carries a recovered panic value together with the stack of the panicking goroutine.
type Panic struct {
	Value any
	Stack string
}

// Recovered wraps a value returned by recover. It must be called from the deferred
// function itself so that the captured stack still contains the panic site.
func Recovered(v any) *Panic {
	return &Panic{Value: v, Stack: string(debug.Stack())}
}

// Normalize classifies any failure value into an Info. The first matching branch wins:
// schema-validation error, operational *Error, any other error, anything else.
func Normalize(v any) Info {
	var panicStack string

	if p, ok := v.(*Panic); ok {
		v, panicStack = p.Value, p.Stack
	}

	err, ok := v.(error)
	if !ok {
		return Info{
			Name:          nameUnknown,
			Message:       msgUnidentifiable,
			StatusCode:    http.StatusInternalServerError,
			Status:        StatusError,
			ErrorCode:     CodeUnknown,
			IsOperational: false,
			Details:       map[string]any{"raw": v},
			Timestamp:     now().UTC().Format(TimestampLayout),
			Stack:         panicStack,
		}
	}

	stack := stackOf(err)
	if stack == "" {
		stack = panicStack
	}

	var reporter IssueReporter
	if errors.As(err, &reporter) {
		issues := reporter.Issues()

		return Info{
			Name:          nameValidation,
			Message:       reporter.Summary(),
			StatusCode:    http.StatusUnprocessableEntity,
			Status:        StatusWarn,
			ErrorCode:     CodeValidation,
			IsOperational: true,
			Details:       ValidationDetails{Tree: reporter.Tree(), Count: len(issues), Issues: issues},
			Timestamp:     now().UTC().Format(TimestampLayout),
			Stack:         stack,
			Cause:         serializeOptional(errors.Unwrap(reporter)),
		}
	}

	var opErr *Error
	if errors.As(err, &opErr) {
		return Info{
			Name:          opErr.Name(),
			Message:       opErr.Message(),
			StatusCode:    opErr.StatusCode(),
			Status:        opErr.Status(),
			ErrorCode:     opErr.ErrorCode(),
			IsOperational: opErr.IsOperational(),
			Details:       opErr.Details(),
			Timestamp:     opErr.Timestamp(),
			Stack:         stack,
			Cause:         serializeOptional(opErr.Cause()),
		}
	}

	message := err.Error()
	if message == "" {
		message = msgUnexpected
	}

	return Info{
		Name:          errorName(err),
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		Status:        StatusError,
		ErrorCode:     CodeInternal,
		IsOperational: false,
		Details:       nil,
		Timestamp:     now().UTC().Format(TimestampLayout),
		Stack:         stack,
		Cause:         serializeOptional(errors.Unwrap(err)),
	}
}

func serializeOptional(cause any) any {
	if cause == nil {
		return nil
	}

	if err, ok := cause.(error); ok && isNilError(err) {
		return nil
	}

	return SerializeCause(cause)
}

func isNilError(err error) bool {
	return isNilValue(err)
}

func stackOf(err error) string {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Stack()
	}

	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%s: %s%+v", errorName(err), err.Error(), st.StackTrace())
	}

	return ""
}

// errorName returns a short type name for an error. Errors created through the errors
// and fmt packages are reported as "Error".
func errorName(err error) string {
	if n, ok := err.(interface{ Name() string }); ok {
		return n.Name()
	}

	name := strings.TrimPrefix(reflect.TypeOf(err).String(), "*")

	switch {
	case strings.HasPrefix(name, "errors."), strings.HasPrefix(name, "fmt."):
		return nameGeneric
	default:
		return name
	}
}
