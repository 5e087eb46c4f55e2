// Package billify is the application framework of the service: it loads the
// configuration, wires the shared container and serves HTTP routes through a single
// error boundary.
package billify

import (
	"net/http"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"billify.site/pkg/billify/config"
	"billify.site/pkg/billify/container"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/http/middleware"
	"billify.site/pkg/billify/logging"
)

const configLocation = "./configs"

// App is the main application.
type App struct {
	// Config can be used by applications to fetch custom configurations from environment or file.
	Config config.Config

	container  *container.Container
	httpServer *httpServer
	boundary   *errorBoundary

	tracerProvider *sdktrace.TracerProvider
}

// New reads the configuration from ./configs and the environment, installs the base
// logger and connects the datasources. Invalid configuration is fatal.
func New() *App {
	conf := config.NewEnvFile(configLocation, logging.Base())

	settings, err := config.Load(conf)
	if err != nil {
		logging.Base().Fatalf("%v", err)
	}

	logger := logging.Init(logging.Config{
		Environment: string(settings.Env),
		Level:       logging.GetLevelFromString(settings.LogLevel),
		Directory:   settings.LogDir,
	})

	app := NewWithContainer(container.NewContainer(settings, logger))
	app.Config = conf
	app.tracerProvider = initTracer(conf, logger)

	return app
}

// NewWithContainer builds an App around an existing container.
func NewWithContainer(c *container.Container) *App {
	boundary := &errorBoundary{container: c, verbose: c.Settings.Env == config.Development}

	app := &App{
		container:  c,
		boundary:   boundary,
		httpServer: newHTTPServer(c, boundary),
	}

	app.GET(pathHealth, healthHandler)
	app.httpServer.router.Add(http.MethodGet, pathMetrics, c.Metrics().Handler())

	return app
}

// Container returns the shared application container.
func (a *App) Container() *container.Container {
	return a.container
}

// Logger returns the application logger.
func (a *App) Logger() logging.Logger {
	return a.container.Logger
}

// ErrorWriter reports middleware failures through the application's error boundary.
func (a *App) ErrorWriter() middleware.ErrorWriter {
	return a.boundary.writeError
}

// GET adds a Handler for HTTP GET method for a route pattern. The optional middlewares
// only wrap this route.
func (a *App) GET(pattern string, handler Handler, mws ...billifyHTTP.Middleware) {
	a.add(http.MethodGet, pattern, handler, mws...)
}

// PUT adds a Handler for HTTP PUT method for a route pattern.
func (a *App) PUT(pattern string, handler Handler, mws ...billifyHTTP.Middleware) {
	a.add(http.MethodPut, pattern, handler, mws...)
}

// POST adds a Handler for HTTP POST method for a route pattern.
func (a *App) POST(pattern string, handler Handler, mws ...billifyHTTP.Middleware) {
	a.add(http.MethodPost, pattern, handler, mws...)
}

// PATCH adds a Handler for HTTP PATCH method for a route pattern.
func (a *App) PATCH(pattern string, handler Handler, mws ...billifyHTTP.Middleware) {
	a.add(http.MethodPatch, pattern, handler, mws...)
}

// DELETE adds a Handler for HTTP DELETE method for a route pattern.
func (a *App) DELETE(pattern string, handler Handler, mws ...billifyHTTP.Middleware) {
	a.add(http.MethodDelete, pattern, handler, mws...)
}

func (a *App) add(method, pattern string, h Handler, mws ...billifyHTTP.Middleware) {
	var inner http.Handler = handler{
		function:       h,
		container:      a.container,
		boundary:       a.boundary,
		requestTimeout: a.container.Settings.RequestTimeout,
	}

	for i := len(mws) - 1; i >= 0; i-- {
		inner = mws[i](inner)
	}

	a.httpServer.router.Add(method, pattern, inner)
}

// UseMiddleware is a setter method for adding user defined custom middleware to the
// router. They run for matched routes only.
func (a *App) UseMiddleware(mws ...billifyHTTP.Middleware) {
	a.httpServer.router.UseMiddleware(mws...)
}

// Handler returns the complete HTTP handler of the application: the global middleware
// chain in front of the router.
func (a *App) Handler() http.Handler {
	return a.httpServer.handler()
}
