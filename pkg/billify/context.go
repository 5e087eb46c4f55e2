package billify

import (
	"context"

	"billify.site/pkg/billify/container"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/logging"
)

// Context is handed to every handler. It carries the request, the shared container and
// a logger bound to the request and correlation IDs.
type Context struct {
	context.Context

	*billifyHTTP.Request

	*container.Container

	// Logger shadows the container's logger. Handler middleware may replace it with an
	// enriched one, for example after authenticating the caller.
	logging.Logger
}

func newContext(ctx context.Context, r *billifyHTTP.Request, c *container.Container) *Context {
	return &Context{
		Context:   ctx,
		Request:   r,
		Container: c,
		Logger:    logging.RequestLogger(ctx, c.Logger),
	}
}
