package billify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"billify.site/pkg/billify/container"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/http/middleware"
)

const (
	globalRateLimit  = 100
	globalRateWindow = 15 * time.Minute
)

type httpServer struct {
	router    *billifyHTTP.Router
	container *container.Container
	boundary  *errorBoundary
	port      int

	once  sync.Once
	chain http.Handler

	srv *http.Server
}

func newHTTPServer(c *container.Container, boundary *errorBoundary) *httpServer {
	r := billifyHTTP.NewRouter()

	metricsMW := middleware.Metrics(c.Metrics())

	r.UseMiddleware(metricsMW)
	r.Fallback(http.HandlerFunc(boundary.notFound), metricsMW)

	return &httpServer{
		router:    r,
		container: c,
		boundary:  boundary,
		port:      c.Settings.HTTPPort,
	}
}

// handler builds the global middleware chain once. Outermost first: request IDs,
// request logging with panic recovery, rate limiting, body size limit, then the router.
func (s *httpServer) handler() http.Handler {
	s.once.Do(func() {
		settings := s.container.Settings

		var h http.Handler = s.router

		h = middleware.BodySizeLimit(settings.MaxBodySize, s.boundary.writeError)(h)
		h = middleware.RateLimiter(middleware.RateLimiterConfig{
			Name:           "api",
			Max:            globalRateLimit,
			Window:         globalRateWindow,
			Message:        "Too many requests from this IP, please try again after 15 minutes",
			TrustedProxies: settings.TrustProxy,
		}, s.container.Metrics(), s.boundary.writeError)(h)
		h = middleware.Logging(s.container.Logger, s.boundary.recovered)(h)
		h = middleware.RequestContext()(h)

		s.chain = h
	})

	return s.chain
}

func (s *httpServer) run() {
	if s.srv != nil {
		s.container.Logf("Server already running on port: %d", s.port)
		return
	}

	s.container.Logf("server: running in %s mode on port %d", s.container.Settings.Env, s.port)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.container.Errorf("error while listening to http server, err: %v", err)
	}
}

func (s *httpServer) shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	return s.srv.Shutdown(ctx)
}
