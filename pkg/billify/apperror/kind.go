package apperror

import "net/http"

// Kind is the closed set of operational error variants.
type Kind int

const (
	BadRequest Kind = iota + 1
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Validation
	RequestTimeout
	PayloadTooLarge
	TooManyRequests
	InternalServer
	ServiceUnavailable
	BadGateway
)

type kindInfo struct {
	name       string
	code       string
	statusCode int
}

//nolint:gochecknoglobals // lookup table for the closed Kind enum
var kinds = map[Kind]kindInfo{
	BadRequest:         {"BadRequestError", "BAD_REQUEST", http.StatusBadRequest},
	Unauthorized:       {"UnauthorizedError", "UNAUTHORIZED", http.StatusUnauthorized},
	Forbidden:          {"ForbiddenError", "FORBIDDEN", http.StatusForbidden},
	NotFound:           {"NotFoundError", "NOT_FOUND", http.StatusNotFound},
	Conflict:           {"ConflictError", "CONFLICT", http.StatusConflict},
	Validation:         {"ValidationError", "UNPROCESSABLE_ENTITY", http.StatusUnprocessableEntity},
	RequestTimeout:     {"RequestTimeoutError", "REQUEST_TIMEOUT", http.StatusRequestTimeout},
	PayloadTooLarge:    {"PayloadTooLargeError", "PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge},
	TooManyRequests:    {"TooManyRequestsError", "TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	InternalServer:     {"InternalServerError", "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	ServiceUnavailable: {"ServiceUnavailableError", "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	BadGateway:         {"BadGatewayError", "BAD_GATEWAY", http.StatusBadGateway},
}

// Kinds returns every known variant in declaration order.
func Kinds() []Kind {
	return []Kind{
		BadRequest, Unauthorized, Forbidden, NotFound, Conflict, Validation,
		RequestTimeout, PayloadTooLarge, TooManyRequests,
		InternalServer, ServiceUnavailable, BadGateway,
	}
}

func (k Kind) info() kindInfo {
	if i, ok := kinds[k]; ok {
		return i
	}

	return kinds[InternalServer]
}

// Name returns the variant name, e.g. "NotFoundError".
func (k Kind) Name() string { return k.info().name }

// Code returns the default machine-readable error code of the variant.
func (k Kind) Code() string { return k.info().code }

// StatusCode returns the HTTP status code of the variant.
func (k Kind) StatusCode() int { return k.info().statusCode }

func (k Kind) String() string { return k.Name() }

// Status is the severity class derived from a status code.
type Status string

const (
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// StatusFor derives the severity of a status code: warn for 4xx, error otherwise.
func StatusFor(statusCode int) Status {
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError {
		return StatusWarn
	}

	return StatusError
}
