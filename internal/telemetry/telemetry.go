// Package telemetry wires the OpenTelemetry tracer provider for the CLI
// commands. Tracing is off unless TRACE_STDOUT is set; the library code
// creates spans against the global provider either way.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs the global tracer provider and returns a shutdown func to
// defer in main. With TRACE_STDOUT unset it returns a no-op shutdown and
// leaves the default (non-recording) provider in place.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("TRACE_STDOUT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
