// Package tracing wires OpenTelemetry tracing for the pipeline: one span
// per named stage (discovery, index, extract, resolve, cycle_detect),
// exported over OTLP/gRPC when configured, a no-op tracer otherwise.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tscircular"

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// Configure installs an OTLP/gRPC exporter pointed at endpoint as the global
// tracer provider. Call once per process before the first Run. A noop
// tracer is used when Configure is never called.
func Configure(ctx context.Context, endpoint, runID string) (func(context.Context) error, error) {
	mu.Lock()
	defer mu.Unlock()

	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(tracerName),
			semconv.ServiceInstanceID(runID),
		),
	)
	if err != nil {
		return nil, err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Tracer returns the active tracer: the configured OTLP tracer if Configure
// succeeded, or otel's default no-op tracer otherwise.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
