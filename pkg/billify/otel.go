package billify

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"billify.site/pkg/billify/config"
	"billify.site/pkg/billify/logging"
)

const serviceName = "billify"

// initTracer installs the global tracer provider used by the router instrumentation.
// Spans are exported to zipkin only when TRACER_URL is set.
func initTracer(conf config.Config, logger logging.Logger) *sdktrace.TracerProvider {
	ratio, err := strconv.ParseFloat(conf.GetOrDefault("TRACER_RATIO", "1"), 64)
	if err != nil {
		logger.Errorf("invalid TRACER_RATIO: %v", err)

		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(conf.GetOrDefault("APP_NAME", serviceName)),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	url := conf.Get("TRACER_URL")
	if url == "" {
		logger.Debug("tracing is disabled, as TRACER_URL is not provided")
		return tp
	}

	exporter, err := zipkin.New(url)
	if err != nil {
		logger.Errorf("could not create zipkin exporter: %v", err)
		return tp
	}

	tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))

	logger.Logf("exporting traces to zipkin at %s", url)

	return tp
}

func shutdownTracer(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}

	return tp.Shutdown(ctx)
}
