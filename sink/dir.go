// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirWriter writes every batch to its own file in a directory. Files are
// written under a temporary name and renamed when complete, so readers
// never see a partial file.
type DirWriter struct {
	dir         string
	typeName    string
	format      Format
	compression Compression
	seq         int
	files       []string
	logger      *zap.Logger
}

// NewDirWriter creates dir if needed.
func NewDirWriter(dir, typeName string, format Format, compression Compression, logger *zap.Logger) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirWriter{dir: dir, typeName: typeName, format: format, compression: compression, logger: logger}, nil
}

func (d *DirWriter) WriteBatch(ctx context.Context, rec arrow.RecordBatch) error {
	d.seq++
	name := objectName(d.typeName, d.seq, d.format, d.compression)
	final := filepath.Join(d.dir, name)
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if err := encodeBatch(ctx, f, rec, d.format, d.compression); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	d.files = append(d.files, final)
	d.logger.Debug("wrote batch file",
		zap.String("path", final),
		zap.Int64("rows", rec.NumRows()),
	)
	return nil
}

// Files returns the paths written so far, in order.
func (d *DirWriter) Files() []string {
	return append([]string(nil), d.files...)
}

func (d *DirWriter) Close() error { return nil }

// objectName names the seq-th batch file of a type.
func objectName(typeName string, seq int, format Format, compression Compression) string {
	return fmt.Sprintf("%s-%06d-%s%s", slug(typeName), seq, uuid.NewString(), Extension(format, compression))
}

// encodeBatch writes rec as a complete file to w and closes w.
func encodeBatch(ctx context.Context, w io.WriteCloser, rec arrow.RecordBatch, format Format, compression Compression) error {
	fw, err := NewFileWriter(w, rec.Schema(), format, compression)
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := fw.WriteBatch(ctx, rec); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("sink: closing batch file: %w", err)
	}
	return nil
}
