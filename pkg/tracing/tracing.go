// Package tracing initialises OpenTelemetry tracing for the game service.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "holotrumps"

// Option configures Setup.
type Option func(*options)

type options struct {
	serviceName string
	endpoint    string
	processors  []sdktrace.SpanProcessor
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithEndpoint enables the OTLP/HTTP exporter for the given URL.
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

// WithSpanProcessor registers an additional span processor.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		if sp != nil {
			o.processors = append(o.processors, sp)
		}
	}
}

// Setup installs a global tracer provider. Spans are always recorded so that
// trace ids reach the logs; they are only exported when an endpoint is set.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, opts ...Option) (shutdown func(context.Context) error, err error) {
	o := options{serviceName: DefaultServiceName}
	for _, opt := range opts {
		opt(&o)
	}
	noop := func(context.Context) error { return nil }

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(o.serviceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("tracing resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if o.endpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(o.endpoint),
		)
		if err != nil {
			return noop, fmt.Errorf("tracing exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Propagator returns the global text map propagator.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}
