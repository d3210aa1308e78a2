// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2aotel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporters understood by Setup.
const (
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// SetupConfig selects the exporters installed by Setup.
type SetupConfig struct {
	ServiceName string
	Exporter    string
	// Writer receives stdout exporter output. Defaults to os.Stderr so
	// that telemetry does not mix with data written to stdout.
	Writer io.Writer
}

// Setup installs global tracer and meter providers and returns a function
// that flushes and shuts them down.
func Setup(ctx context.Context, cfg SetupConfig) (func(context.Context) error, error) {
	switch cfg.Exporter {
	case ExporterNone, "":
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("r2aotel: unknown exporter %q", cfg.Exporter)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "r2a"
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	spanExporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("r2aotel: creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExporter),
	)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("r2aotel: creating metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
