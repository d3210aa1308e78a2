// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/pipeline"
	"github.com/istvan-fodor/r2a/r2aotel"
	"github.com/istvan-fodor/r2a/sink"
	"github.com/istvan-fodor/r2a/transport"
)

func newRecordCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record messages from a ZeroMQ publisher into a sink",
		Long: `Record subscribes to a ZeroMQ PUB socket, converts every message into a
row and writes a record batch to the configured sink every batch_size rows.
Interrupting the command writes the last partial batch before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.record(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("type", "", "message type id, e.g. sensor_msgs/msg/LaserScan")
	f.StringSlice("fields", nil, "columns to record (default: every top-level field)")
	f.Bool("flat", false, "record every leaf field as its own column")
	f.Int("batch-size", 0, "rows per batch")
	f.String("endpoint", "", "ZeroMQ endpoint to subscribe to")
	f.String("topic", "", "ZeroMQ topic filter")
	f.String("sink", "", "sink kind: file, dir or gcs")
	f.String("path", "", "sink file, directory or object prefix")
	f.String("bucket", "", "GCS bucket")
	f.String("format", "", "output format: parquet or arrow")
	f.String("compression", "", "compression: none, zstd, snappy or lz4")
	for flag, key := range map[string]string{
		"type":        "record.type",
		"fields":      "record.fields",
		"flat":        "record.flat",
		"batch-size":  "record.batch_size",
		"endpoint":    "record.source.endpoint",
		"topic":       "record.source.topic",
		"sink":        "sink.kind",
		"path":        "sink.path",
		"bucket":      "sink.bucket",
		"format":      "sink.format",
		"compression": "sink.compression",
	} {
		bindFlag(cmd, flag, key)
	}
	return cmd
}

func (a *app) record(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.ValidateRecord(); err != nil {
		return err
	}
	support, err := a.registry.Support(cfg.Record.Type)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithFields(cfg.Record.Fields...),
		pipeline.WithFlat(cfg.Record.Flat),
		pipeline.WithBatchSize(cfg.Record.BatchSize),
		pipeline.WithLogger(a.logger),
	}
	if cfg.Telemetry.Enabled {
		shutdown, err := r2aotel.Setup(ctx, r2aotel.SetupConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    cfg.Telemetry.Exporter,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				a.logger.Warn("telemetry shutdown", zap.Error(err))
			}
		}()
		opts = append(opts, pipeline.WithHook(r2aotel.Instrument(r2aotel.DefaultConfig())))
	}

	var topics []string
	if cfg.Record.Source.Topic != "" {
		topics = append(topics, cfg.Record.Source.Topic)
	}
	source, err := transport.NewSubscriber(ctx, cfg.Record.Source.Endpoint, a.logger, topics...)
	if err != nil {
		return err
	}
	defer source.Close()

	rec, err := pipeline.NewRecorder(support, source, opts...)
	if err != nil {
		return err
	}
	w, err := sink.Open(ctx, cfg.Sink.Sink(), rec.Schema(), support.TypeName(), a.logger)
	if err != nil {
		return err
	}

	a.logger.Info("recording",
		zap.String("type", support.TypeName()),
		zap.String("endpoint", cfg.Record.Source.Endpoint),
		zap.String("sink", cfg.Sink.Kind),
		zap.Int("batch_size", cfg.Record.BatchSize),
	)
	runErr := rec.Run(ctx, w)
	if err := w.Close(); runErr == nil {
		runErr = err
	}
	totals := rec.Totals()
	a.logger.Info("recording stopped",
		zap.Int64("rows", totals.Rows),
		zap.Int64("rejected", totals.Rejected),
		zap.Int64("batches", totals.WrittenBatches),
	)
	return runErr
}
