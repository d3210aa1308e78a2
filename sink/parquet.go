// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetWriter writes batches as row groups of one parquet file. The
// Arrow schema is stored in the file so that large lists and binaries
// read back with their original types.
type ParquetWriter struct {
	fw *pqarrow.FileWriter
}

// NewParquetWriter starts a parquet file for schema on w. pqarrow closes
// w when the writer is closed if w is an io.Closer.
func NewParquetWriter(w io.Writer, schema *arrow.Schema, compression Compression) (*ParquetWriter, error) {
	codec, err := parquetCodec(compression)
	if err != nil {
		return nil, err
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(false),
	)
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, fmt.Errorf("sink: creating parquet writer: %w", err)
	}
	return &ParquetWriter{fw: fw}, nil
}

func (pw *ParquetWriter) WriteBatch(_ context.Context, rec arrow.RecordBatch) error {
	if err := pw.fw.Write(rec); err != nil {
		return fmt.Errorf("sink: writing parquet row group: %w", err)
	}
	return nil
}

func (pw *ParquetWriter) Close() error {
	return pw.fw.Close()
}

func parquetCodec(c Compression) (compress.Compression, error) {
	switch c {
	case "", CompressionNone:
		return compress.Codecs.Uncompressed, nil
	case CompressionZstd:
		return compress.Codecs.Zstd, nil
	case CompressionSnappy:
		return compress.Codecs.Snappy, nil
	case CompressionLZ4:
		return compress.Codecs.Lz4Raw, nil
	}
	return compress.Codecs.Uncompressed, fmt.Errorf("sink: unknown compression %q", c)
}

// NewFileWriter returns a writer for format on w.
func NewFileWriter(w io.Writer, schema *arrow.Schema, format Format, compression Compression) (Writer, error) {
	if format == FormatParquet {
		return NewParquetWriter(w, schema, compression)
	}
	return NewIPCWriter(w, schema, compression)
}
