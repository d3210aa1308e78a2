// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/pipeline"
	"github.com/istvan-fodor/r2a/sink"
	"github.com/istvan-fodor/r2a/transport"
)

func newConvertCommand(a *app) *cobra.Command {
	var (
		fields      []string
		flat        bool
		output      string
		format      string
		compression string
		batchSize   int
	)
	cmd := &cobra.Command{
		Use:   "convert <type> [file]",
		Short: "Convert length-prefixed CDR frames to Arrow or parquet",
		Long: `Convert reads frames of the form [uint32 little-endian length][CDR
message] from file, or stdin when no file is given, and writes them as an
Arrow IPC stream or a parquet file. Frames that fail to convert are
reported and skipped.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			support, err := a.registry.Support(args[0])
			if err != nil {
				return err
			}

			var in io.ReadCloser = io.NopCloser(cmd.InOrStdin())
			if len(args) == 2 && args[1] != "-" {
				if in, err = os.Open(args[1]); err != nil {
					return err
				}
			}
			source := transport.NewFrameReader(in, args[0])
			defer source.Close()

			rec, err := pipeline.NewRecorder(support, source,
				pipeline.WithFields(fields...),
				pipeline.WithFlat(flat),
				pipeline.WithBatchSize(batchSize),
				pipeline.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			cfg := sink.Config{
				Kind:        sink.KindFile,
				Path:        output,
				Format:      sink.Format(format),
				Compression: sink.Compression(compression),
			}
			w, err := sink.Open(cmd.Context(), cfg, rec.Schema(), support.TypeName(), a.logger)
			if err != nil {
				return err
			}
			runErr := rec.Run(cmd.Context(), w)
			if err := w.Close(); runErr == nil {
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			totals := rec.Totals()
			a.logger.Info("converted",
				zap.String("type", support.TypeName()),
				zap.Int64("rows", totals.Rows),
				zap.Int64("rejected", totals.Rejected),
			)
			if totals.Rejected > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d frames rejected\n", totals.Rejected, totals.Frames)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "columns to convert (default: every top-level field)")
	cmd.Flags().BoolVar(&flat, "flat", false, "convert every leaf field as its own column")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", string(sink.FormatArrow), "output format: arrow or parquet")
	cmd.Flags().StringVar(&compression, "compression", string(sink.CompressionNone), "compression: none, zstd, snappy or lz4")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1024, "rows per record batch")
	return cmd
}
