// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// IPCWriter writes batches as one Arrow IPC stream, optionally wrapped in
// a zstd, lz4 or snappy stream.
type IPCWriter struct {
	w      *ipc.Writer
	comp   io.WriteCloser // nil when uncompressed
	closer io.Closer      // underlying destination, may be nil
}

// NewIPCWriter starts an IPC stream for schema on w. If w is an io.Closer
// it is closed by Close.
func NewIPCWriter(w io.Writer, schema *arrow.Schema, compression Compression) (*IPCWriter, error) {
	iw := &IPCWriter{}
	if c, ok := w.(io.Closer); ok {
		iw.closer = c
	}
	var err error
	switch compression {
	case "", CompressionNone:
	case CompressionZstd:
		iw.comp, err = zstd.NewWriter(w)
	case CompressionLZ4:
		iw.comp = lz4.NewWriter(w)
	case CompressionSnappy:
		iw.comp = snappy.NewBufferedWriter(w)
	default:
		err = fmt.Errorf("unknown compression %q", compression)
	}
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	dst := w
	if iw.comp != nil {
		dst = iw.comp
	}
	iw.w = ipc.NewWriter(dst, ipc.WithSchema(schema))
	return iw, nil
}

func (iw *IPCWriter) WriteBatch(_ context.Context, rec arrow.RecordBatch) error {
	if err := iw.w.Write(rec); err != nil {
		return fmt.Errorf("sink: writing IPC batch: %w", err)
	}
	return nil
}

// Close ends the stream and closes the compressor and destination.
func (iw *IPCWriter) Close() error {
	err := iw.w.Close()
	if iw.comp != nil {
		if cerr := iw.comp.Close(); err == nil {
			err = cerr
		}
	}
	if iw.closer != nil {
		if cerr := iw.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewIPCReader opens an IPC stream written by IPCWriter. The returned
// reader must be released.
func NewIPCReader(r io.Reader, compression Compression) (*ipc.Reader, error) {
	switch compression {
	case "", CompressionNone:
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("sink: %w", err)
		}
		r = dec.IOReadCloser()
	case CompressionLZ4:
		r = lz4.NewReader(r)
	case CompressionSnappy:
		r = snappy.NewReader(r)
	default:
		return nil, fmt.Errorf("sink: unknown compression %q", compression)
	}
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("sink: opening IPC stream: %w", err)
	}
	return rdr, nil
}
