package logging

import (
	"context"
	"sync"

	"billify.site/pkg/billify/reqctx"
)

const (
	fieldRequestID     = "requestId"
	fieldCorrelationID = "correlationId"
)

// Child is a named logger binding (for example a service name) that is resolved against
// a base logger and the active request context at the time of use.
type Child struct {
	bindings Fields

	// plain caches the logger used outside any request, one per base logger
	plain sync.Map
}

type childKey struct {
	child *Child
	base  Logger
}

func NewChild(bindings Fields) *Child {
	return &Child{bindings: bindings}
}

// For returns the child logger of the process-wide base logger for ctx.
func (c *Child) For(ctx context.Context) Logger {
	return c.ForLogger(ctx, Base())
}

// ForLogger returns base enriched with the child's bindings and, inside a request, with
// the request and correlation IDs. Within one request the same logger is returned on
// every call.
func (c *Child) ForLogger(ctx context.Context, base Logger) Logger {
	rc := reqctx.Current(ctx)
	if rc == nil {
		if l, ok := c.plain.Load(base); ok {
			return l.(Logger)
		}

		l, _ := c.plain.LoadOrStore(base, base.WithFields(c.bindings))

		return l.(Logger)
	}

	return rc.Memo(childKey{child: c, base: base}, func() any {
		fields := make(Fields, len(c.bindings)+2)

		for k, v := range c.bindings {
			fields[k] = v
		}

		fields[fieldRequestID] = rc.RequestID()
		fields[fieldCorrelationID] = rc.CorrelationID()

		return base.WithFields(fields)
	}).(Logger)
}
