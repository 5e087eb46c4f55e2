package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"billify.site/pkg/billify/apperror"
	"billify.site/pkg/billify/validation"
)

// Request is an abstraction over the underlying http.Request.
type Request struct {
	req        *http.Request
	pathParams map[string]string
	body       []byte
}

func NewRequest(r *http.Request) *Request {
	return &Request{
		req:        r,
		pathParams: mux.Vars(r),
	}
}

func (r *Request) Param(key string) string {
	return r.req.URL.Query().Get(key)
}

func (r *Request) Context() context.Context {
	return r.req.Context()
}

func (r *Request) PathParam(key string) string {
	return r.pathParams[key]
}

func (r *Request) Header(key string) string {
	return r.req.Header.Get(key)
}

func (r *Request) Method() string {
	return r.req.Method
}

// URL is the request URI as sent by the client.
func (r *Request) URL() string {
	return r.req.URL.RequestURI()
}

// Bind decodes a JSON body into i and validates it. The body is read once and kept
// for later inspection through Body.
func (r *Request) Bind(i any) error {
	contentType := strings.TrimSpace(strings.Split(r.req.Header.Get("Content-Type"), ";")[0])
	if contentType != "" && contentType != "application/json" {
		return apperror.NewBadRequest(fmt.Sprintf("Unsupported content type %q", contentType),
			map[string]string{"contentType": contentType})
	}

	body, err := r.readBody()
	if err != nil {
		return err
	}

	return validation.Decode(body, i)
}

// Body returns the bytes consumed by Bind, or nil if the body was never read.
func (r *Request) Body() []byte {
	return r.body
}

func (r *Request) readBody() ([]byte, error) {
	if r.body != nil {
		return r.body, nil
	}

	if r.req.Body == nil {
		r.body = []byte{}

		return r.body, nil
	}

	body, err := io.ReadAll(r.req.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperror.NewPayloadTooLarge(
				fmt.Sprintf("Request body exceeds the limit of %d bytes", maxErr.Limit),
				map[string]int64{"limit": maxErr.Limit}, apperror.WithCause(err))
		}

		return nil, apperror.NewBadRequest("Unable to read request body", nil, apperror.WithCause(err))
	}

	r.body = body

	return body, nil
}

// HostName returns the scheme and host the request was addressed to.
func (r *Request) HostName() string {
	proto := r.req.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}

	return fmt.Sprintf("%s://%s", proto, r.req.Host)
}
