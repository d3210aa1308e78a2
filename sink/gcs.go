// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSWriter uploads every batch as its own object. Object names are
// "<prefix>/<type>-<seq>-<uuid><ext>".
type GCSWriter struct {
	client      *storage.Client
	bucket      *storage.BucketHandle
	prefix      string
	typeName    string
	format      Format
	compression Compression
	seq         int
	logger      *zap.Logger
}

// NewGCSWriter creates a storage client for cfg.Bucket. The client honors
// STORAGE_EMULATOR_HOST.
func NewGCSWriter(ctx context.Context, cfg Config, typeName string, logger *zap.Logger) (*GCSWriter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sink: creating storage client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSWriter{
		client:      client,
		bucket:      client.Bucket(cfg.Bucket),
		prefix:      cfg.Path,
		typeName:    typeName,
		format:      cfg.Format,
		compression: cfg.Compression,
		logger:      logger,
	}, nil
}

func (g *GCSWriter) WriteBatch(ctx context.Context, rec arrow.RecordBatch) error {
	g.seq++
	name := path.Join(g.prefix, objectName(g.typeName, g.seq, g.format, g.compression))
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType(g.format)
	w.Metadata = map[string]string{"r2a-type": g.typeName}
	if err := encodeBatch(ctx, w, rec, g.format, g.compression); err != nil {
		return fmt.Errorf("sink: uploading %s: %w", name, err)
	}
	g.logger.Debug("uploaded batch object",
		zap.String("object", name),
		zap.Int64("rows", rec.NumRows()),
	)
	return nil
}

func (g *GCSWriter) Close() error {
	return g.client.Close()
}

func contentType(f Format) string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "application/vnd.apache.arrow.stream"
}
