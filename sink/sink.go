// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package sink persists Arrow record batches produced by row builders.
//
// Three kinds of sink are provided:
//
//   - file: one Arrow IPC stream or parquet file holding every batch
//   - dir:  one file per batch in a local directory
//   - gcs:  one object per batch in a Google Cloud Storage bucket
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"
)

// Writer consumes record batches. Implementations are not safe for
// concurrent use.
type Writer interface {
	WriteBatch(ctx context.Context, rec arrow.RecordBatch) error
	Close() error
}

// Format is an on-disk encoding.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatArrow   Format = "arrow"
)

// Compression names a codec. Parquet applies it per column chunk; Arrow
// streams are compressed as a whole.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionZstd   Compression = "zstd"
	CompressionSnappy Compression = "snappy"
	CompressionLZ4    Compression = "lz4"
)

// Sink kinds.
const (
	KindFile = "file"
	KindDir  = "dir"
	KindGCS  = "gcs"
)

// Config selects and configures a sink.
type Config struct {
	Kind        string
	Path        string // file path ("-" for stdout), directory, or object prefix
	Format      Format
	Compression Compression
	Bucket      string
	// CredentialsFile is an optional service account key for gcs.
	CredentialsFile string
}

// Validate checks that the combination of options is supported.
func (c Config) Validate() error {
	switch c.Format {
	case FormatParquet, FormatArrow:
	default:
		return fmt.Errorf("sink: unknown format %q", c.Format)
	}
	switch c.Compression {
	case "", CompressionNone, CompressionZstd, CompressionSnappy, CompressionLZ4:
	default:
		return fmt.Errorf("sink: unknown compression %q", c.Compression)
	}
	switch c.Kind {
	case KindFile:
		if c.Path == "" {
			return fmt.Errorf("sink: file sink needs a path")
		}
		if c.Path == "-" && c.Format == FormatParquet {
			return fmt.Errorf("sink: parquet cannot be written to stdout")
		}
	case KindDir:
		if c.Path == "" {
			return fmt.Errorf("sink: dir sink needs a path")
		}
	case KindGCS:
		if c.Bucket == "" {
			return fmt.Errorf("sink: gcs sink needs a bucket")
		}
	default:
		return fmt.Errorf("sink: unknown kind %q", c.Kind)
	}
	return nil
}

// Open creates the sink described by cfg for batches of schema. typeName
// is the message type id and is used to name files and objects.
func Open(ctx context.Context, cfg Config, schema *arrow.Schema, typeName string, logger *zap.Logger) (Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Kind {
	case KindFile:
		// Hide Close so that closing the sink leaves stdout open.
		var out io.Writer = struct{ io.Writer }{os.Stdout}
		if cfg.Path != "-" {
			f, err := os.Create(cfg.Path)
			if err != nil {
				return nil, fmt.Errorf("sink: %w", err)
			}
			out = f
		}
		return NewFileWriter(out, schema, cfg.Format, cfg.Compression)
	case KindDir:
		return NewDirWriter(cfg.Path, typeName, cfg.Format, cfg.Compression, logger)
	default:
		return NewGCSWriter(ctx, cfg, typeName, logger)
	}
}

// Extension returns the file name suffix for a format and compression.
func Extension(format Format, compression Compression) string {
	if format == FormatParquet {
		return ".parquet"
	}
	switch compression {
	case CompressionZstd:
		return ".arrows.zst"
	case CompressionLZ4:
		return ".arrows.lz4"
	case CompressionSnappy:
		return ".arrows.sz"
	}
	return ".arrows"
}

// slug turns a type id such as "sensor_msgs/msg/LaserScan" into a file
// name component.
func slug(typeName string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(typeName)
}
