package logging

import "context"

type loggerKey struct{}

//nolint:gochecknoglobals // shared binding for request loggers
var requestChild = NewChild(nil)

// WithLogger stores the request logger in ctx. Middleware uses it to hand a logger
// enriched with request data (such as the authenticated user) to later stages.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the request logger stored in ctx, or the base logger bound to the
// active request IDs.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok && l != nil {
		return l
	}

	return requestChild.For(ctx)
}

// RequestLogger returns base bound to the IDs of the request in ctx.
func RequestLogger(ctx context.Context, base Logger) Logger {
	return requestChild.ForLogger(ctx, base)
}
