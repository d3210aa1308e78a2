// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package r2aotel provides OpenTelemetry instrumentation for r2a recording
// pipelines. It implements the [pipeline.BatchHook] interface to add
// tracing and metrics to every batch.
//
// Usage:
//
//	rec, _ := pipeline.NewRecorder(support, source,
//		pipeline.WithHook(r2aotel.Instrument(r2aotel.DefaultConfig())))
package r2aotel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/istvan-fodor/r2a/pipeline"
	"github.com/istvan-fodor/r2a/r2a"
)

const instrumentationName = "r2a"

// Config configures OpenTelemetry instrumentation for a recorder.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed batches.
	// Default true.
	RecordExceptions bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with tracing, metrics and error recording
// enabled. Providers are resolved from the global SDK by Instrument.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// Instrument returns a BatchHook recording one span per batch plus row,
// rejection and duration metrics.
func Instrument(cfg Config) pipeline.BatchHook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	h := &hook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}
	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.batchCounter, _ = meter.Int64Counter("r2a.batches",
			metric.WithUnit("{batch}"),
			metric.WithDescription("Number of batches built"),
		)
		h.rowCounter, _ = meter.Int64Counter("r2a.rows",
			metric.WithUnit("{row}"),
			metric.WithDescription("Number of rows appended"),
		)
		h.rejectedCounter, _ = meter.Int64Counter("r2a.rejected",
			metric.WithUnit("{message}"),
			metric.WithDescription("Number of messages that failed to convert"),
		)
		h.durationHistogram, _ = meter.Float64Histogram("r2a.batch.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Time from the first message of a batch until it is written"),
		)
	}
	return h
}

type hook struct {
	cfg               Config
	tracer            trace.Tracer
	batchCounter      metric.Int64Counter
	rowCounter        metric.Int64Counter
	rejectedCounter   metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// spanToken is the HookToken returned by OnBatchStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

func (h *hook) OnBatchStart(ctx context.Context, info pipeline.BatchInfo) (context.Context, pipeline.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("r2a.type", info.Type),
		attribute.Int("r2a.batch.sequence", info.Sequence),
		attribute.StringSlice("r2a.fields", info.Fields),
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("r2a/%s", info.Type),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
	return ctx, &spanToken{span: span, startTime: time.Now()}
}

func (h *hook) OnBatchEnd(ctx context.Context, token pipeline.HookToken, info pipeline.BatchInfo, stats *pipeline.BatchStatistics, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}
	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		attrs := metric.WithAttributes(
			attribute.String("r2a.type", info.Type),
			attribute.String("status", status),
		)
		if h.batchCounter != nil {
			h.batchCounter.Add(ctx, 1, attrs)
		}
		if stats != nil {
			if h.rowCounter != nil {
				h.rowCounter.Add(ctx, stats.Rows, attrs)
			}
			if h.rejectedCounter != nil {
				h.rejectedCounter.Add(ctx, stats.Rejected, attrs)
			}
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), attrs)
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}
	if stats != nil {
		st.span.SetAttributes(
			attribute.Int64("r2a.frames", stats.Frames),
			attribute.Int64("r2a.rows", stats.Rows),
			attribute.Int64("r2a.rejected", stats.Rejected),
			attribute.Int64("r2a.payload_bytes", stats.PayloadBytes),
			attribute.Int64("r2a.buffer_bytes", stats.BufferBytes),
		)
	}
	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordExceptions {
			st.span.RecordError(err)
		}
		errType := fmt.Sprintf("%T", err)
		var rerr *r2a.Error
		if errors.As(err, &rerr) {
			errType = rerr.Kind.String()
		}
		st.span.SetAttributes(attribute.String("r2a.error_type", errType))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()
}
