package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/reqctx"
)

// ErrResponseCommitted is returned by RespondError when the status line has already been sent.
var ErrResponseCommitted = errors.New("response already committed")

// Response lets a handler pick the status code of a successful response.
type Response struct {
	StatusCode int
	Data       any
}

// NewResponder creates a new Responder instance from the given http.ResponseWriter.
func NewResponder(w http.ResponseWriter, method string) *Responder {
	return &Responder{w: w, method: method}
}

// Responder encapsulates a http.ResponseWriter and is responsible for crafting structured responses.
type Responder struct {
	w      http.ResponseWriter
	method string
}

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	RequestID     string          `json:"requestId"`
	CorrelationID string          `json:"correlationId"`
	ErrorCode     string          `json:"errorCode"`
	Message       string          `json:"message"`
	Status        apperror.Status `json:"status"`
	Timestamp     string          `json:"timestamp"`
	Details       any             `json:"details,omitempty"`
	Stack         string          `json:"stack,omitempty"`
	Cause         any             `json:"cause,omitempty"`
}

// Respond writes data as JSON with a status code derived from the request method.
func (r Responder) Respond(data any) {
	statusCode := getStatusCode(r.method, data)

	if resp, ok := data.(Response); ok {
		data = resp.Data
	}

	if data == nil || statusCode == http.StatusNoContent {
		r.w.WriteHeader(statusCode)
		return
	}

	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(statusCode)

	_ = json.NewEncoder(r.w).Encode(data)
}

// RespondError writes the error envelope for info. Stack and cause are only exposed when
// verbose is set. Nothing is written if the response is already committed.
func (r Responder) RespondError(info *apperror.Info, rc *reqctx.RequestContext, verbose bool) error {
	if IsCommitted(r.w) {
		return ErrResponseCommitted
	}

	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(info.StatusCode)

	return json.NewEncoder(r.w).Encode(NewErrorBody(info, rc, verbose))
}

// NewErrorBody builds the client-facing view of info.
func NewErrorBody(info *apperror.Info, rc *reqctx.RequestContext, verbose bool) ErrorBody {
	body := ErrorBody{
		ErrorCode: info.ErrorCode,
		Message:   info.Message,
		Status:    info.Status,
		Timestamp: info.Timestamp,
	}

	if rc != nil {
		body.RequestID = rc.RequestID()
		body.CorrelationID = rc.CorrelationID()
	}

	if info.IsOperational && info.Details != nil {
		body.Details = info.Details
	}

	if verbose && info.Stack != "" {
		body.Stack = info.Stack
		body.Cause = info.Cause
	}

	return body
}

// getStatusCode returns corresponding HTTP status codes.
func getStatusCode(method string, data any) int {
	if resp, ok := data.(Response); ok && resp.StatusCode != 0 {
		return resp.StatusCode
	}

	switch method {
	case http.MethodPost:
		if data != nil {
			return http.StatusCreated
		}

		return http.StatusAccepted
	case http.MethodDelete:
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}
