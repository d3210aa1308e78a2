// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2aotel

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/istvan-fodor/r2a/pipeline"
	"github.com/istvan-fodor/r2a/r2a"
)

func newTestHook(t *testing.T) (pipeline.BatchHook, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	cfg := DefaultConfig()
	cfg.TracerProvider = tp
	cfg.MeterProvider = mp
	cfg.CustomAttributes = []attribute.KeyValue{attribute.String("robot", "r1")}
	return Instrument(cfg), spans, reader
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestInstrumentSuccess(t *testing.T) {
	hook, spans, reader := newTestHook(t)
	info := pipeline.BatchInfo{Type: "std_msgs/msg/Header", Sequence: 1, Fields: []string{"frame_id"}}

	ctx, token := hook.OnBatchStart(context.Background(), info)
	stats := &pipeline.BatchStatistics{Frames: 11, Rows: 10, Rejected: 1}
	hook.OnBatchEnd(ctx, token, info, stats, nil)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, "r2a/std_msgs/msg/Header", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(10), attrs["r2a.rows"].AsInt64())
	assert.Equal(t, int64(1), attrs["r2a.batch.sequence"].AsInt64())
	assert.Equal(t, "r1", attrs["robot"].AsString())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), sumOf(t, rm, "r2a.batches"))
	assert.Equal(t, int64(10), sumOf(t, rm, "r2a.rows"))
	assert.Equal(t, int64(1), sumOf(t, rm, "r2a.rejected"))
}

func TestInstrumentError(t *testing.T) {
	hook, spans, _ := newTestHook(t)
	info := pipeline.BatchInfo{Type: "x/msg/Y", Sequence: 2}

	ctx, token := hook.OnBatchStart(context.Background(), info)
	err := &r2a.Error{Kind: r2a.KindConversion, Message: "bad"}
	hook.OnBatchEnd(ctx, token, info, &pipeline.BatchStatistics{}, errors.Join(errors.New("writing"), err))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	var errType string
	for _, kv := range ended[0].Attributes() {
		if kv.Key == "r2a.error_type" {
			errType = kv.Value.AsString()
		}
	}
	assert.Equal(t, r2a.KindConversion.String(), errType)
	assert.NotEmpty(t, ended[0].Events())
}

func TestInstrumentTracingDisabled(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())

	hook := Instrument(Config{TracerProvider: tp, EnableMetrics: false})
	ctx, token := hook.OnBatchStart(context.Background(), pipeline.BatchInfo{Type: "a/msg/B"})
	hook.OnBatchEnd(ctx, token, pipeline.BatchInfo{Type: "a/msg/B"}, nil, nil)
	assert.Empty(t, spans.Ended())

	// Foreign tokens are ignored.
	hook.OnBatchEnd(ctx, "nope", pipeline.BatchInfo{}, nil, nil)
}

func TestSetup(t *testing.T) {
	_, err := Setup(context.Background(), SetupConfig{Exporter: "jaeger"})
	assert.Error(t, err)

	shutdown, err := Setup(context.Background(), SetupConfig{Exporter: ExporterNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	var buf bytes.Buffer
	shutdown, err = Setup(context.Background(), SetupConfig{Exporter: ExporterStdout, Writer: &buf})
	require.NoError(t, err)
	hook := Instrument(DefaultConfig())
	ctx, token := hook.OnBatchStart(context.Background(), pipeline.BatchInfo{Type: "a/msg/B", Sequence: 1})
	hook.OnBatchEnd(ctx, token, pipeline.BatchInfo{Type: "a/msg/B", Sequence: 1}, &pipeline.BatchStatistics{Rows: 1}, nil)
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "r2a/a/msg/B")
}
