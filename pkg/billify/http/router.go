package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Router is responsible for routing HTTP request.
type Router struct {
	mux.Router
	RegisteredRoutes *[]string
}

type Middleware func(handler http.Handler) http.Handler

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	muxRouter := mux.NewRouter().StrictSlash(false)
	routes := make([]string, 0)

	return &Router{
		Router:           *muxRouter,
		RegisteredRoutes: &routes,
	}
}

// Add registers handler for method and pattern, wrapped with OpenTelemetry instrumentation.
func (rou *Router) Add(method, pattern string, handler http.Handler) {
	h := otelhttp.NewHandler(handler, "billify-router")
	rou.Router.NewRoute().Methods(method).Path(pattern).Handler(h)

	*rou.RegisteredRoutes = append(*rou.RegisteredRoutes, method+" "+pattern)
}

// UseMiddleware registers middlewares to the router.
func (rou *Router) UseMiddleware(mws ...Middleware) {
	middlewares := make([]mux.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		middlewares = append(middlewares, mux.MiddlewareFunc(m))
	}

	rou.Use(middlewares...)
}

// Fallback installs h for requests that match no route, including requests whose path
// matches but whose method does not. Router-level middleware is applied to it as well.
func (rou *Router) Fallback(h http.Handler, mws ...Middleware) {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	rou.NotFoundHandler = h
	rou.MethodNotAllowedHandler = h
}
