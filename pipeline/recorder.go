// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline records a stream of serialized ROS 2 messages into
// Arrow record batches and hands each batch to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/r2a"
	"github.com/istvan-fodor/r2a/sink"
	"github.com/istvan-fodor/r2a/transport"
)

// DefaultBatchSize is the number of rows per batch when none is set.
const DefaultBatchSize = 10

// Option configures a Recorder.
type Option func(*Recorder)

// WithFields binds the named columns. No fields selects every top-level
// field.
func WithFields(fields ...string) Option {
	return func(r *Recorder) { r.fields = fields }
}

// WithFlat binds every leaf path of the type instead of top-level fields.
func WithFlat(flat bool) Option {
	return func(r *Recorder) { r.flat = flat }
}

// WithBatchSize sets the number of rows written per batch.
func WithBatchSize(n int) Option {
	return func(r *Recorder) { r.batchSize = n }
}

// WithHook installs a BatchHook.
func WithHook(h BatchHook) Option {
	return func(r *Recorder) { r.hook = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithBuilderOptions passes options to every row builder.
func WithBuilderOptions(opts ...r2a.BuilderOption) Option {
	return func(r *Recorder) { r.builderOpts = opts }
}

// Recorder turns frames from a transport.Source into record batches.
// Frames that fail to decode or convert are logged and counted, and do not
// stop the recording.
type Recorder struct {
	support     r2a.ArrowSupport
	source      transport.Source
	fields      []string
	flat        bool
	batchSize   int
	hook        BatchHook
	logger      *zap.Logger
	builderOpts []r2a.BuilderOption

	schema  *arrow.Schema
	columns []string
	totals  BatchStatistics
	seq     int
}

// NewRecorder checks the options by binding a builder once.
func NewRecorder(support r2a.ArrowSupport, source transport.Source, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		support:   support,
		source:    source,
		batchSize: DefaultBatchSize,
	}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.batchSize <= 0 {
		return nil, fmt.Errorf("pipeline: batch size must be positive, got %d", r.batchSize)
	}
	if r.flat && len(r.fields) > 0 {
		return nil, fmt.Errorf("pipeline: flat recording does not take a field list")
	}
	b, err := r.newBuilder()
	if err != nil {
		return nil, err
	}
	r.schema = b.Schema()
	b.Release()
	r.columns = make([]string, r.schema.NumFields())
	for i, f := range r.schema.Fields() {
		r.columns[i] = f.Name
	}
	return r, nil
}

// Schema is the schema of every batch the recorder writes.
func (r *Recorder) Schema() *arrow.Schema { return r.schema }

// Totals returns the statistics accumulated over all batches so far.
func (r *Recorder) Totals() BatchStatistics { return r.totals }

func (r *Recorder) newBuilder() (*r2a.RowBuilder, error) {
	opts := append([]r2a.BuilderOption{r2a.WithInitialCapacity(r.batchSize)}, r.builderOpts...)
	if r.flat {
		return r.support.NewFlatRowBuilder(opts...)
	}
	return r.support.NewRowBuilderWith(r.fields, opts...)
}

// batch is the state of the batch being filled.
type batch struct {
	builder *r2a.RowBuilder
	info    BatchInfo
	stats   BatchStatistics
	ctx     context.Context
	token   HookToken
}

// Run receives frames until the source is exhausted or ctx is done,
// writing a batch to w every batchSize rows. The last partial batch is
// written before Run returns. Run returns nil on io.EOF or cancellation.
func (r *Recorder) Run(ctx context.Context, w sink.Writer) error {
	var cur *batch
	defer func() {
		if cur != nil {
			cur.builder.Release()
		}
	}()

	for {
		frame, err := r.source.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				// Cancellation still flushes what was collected.
				ferr := r.flush(context.WithoutCancel(ctx), w, cur)
				cur = nil
				return ferr
			}
			ferr := r.flush(context.WithoutCancel(ctx), w, cur)
			cur = nil
			return errors.Join(fmt.Errorf("pipeline: receiving: %w", err), ferr)
		}

		if cur == nil {
			if cur, err = r.start(ctx); err != nil {
				return err
			}
		}
		cur.stats.RecordFrame(len(frame.Payload))
		if err := cur.builder.AppendRaw(frame.Payload); err != nil {
			cur.stats.RecordRejected()
			r.logger.Warn("rejected frame",
				zap.String("type", r.support.TypeName()),
				zap.String("topic", frame.Topic),
				zap.Int("bytes", len(frame.Payload)),
				zap.Error(err),
			)
			continue
		}
		cur.stats.RecordRow()

		if cur.builder.RowCount() >= r.batchSize {
			err := r.flush(ctx, w, cur)
			cur = nil
			if err != nil {
				return err
			}
		}
	}
}

func (r *Recorder) start(ctx context.Context) (*batch, error) {
	b, err := r.newBuilder()
	if err != nil {
		return nil, err
	}
	r.seq++
	cur := &batch{
		builder: b,
		info:    BatchInfo{Type: r.support.TypeName(), Sequence: r.seq, Fields: r.columns},
		ctx:     ctx,
	}
	if r.hook != nil {
		cur.ctx, cur.token = r.hook.OnBatchStart(ctx, cur.info)
	}
	return cur, nil
}

// flush finalizes cur and writes it. A batch with no rows is not written.
func (r *Recorder) flush(ctx context.Context, w sink.Writer, cur *batch) (err error) {
	if cur == nil {
		return nil
	}
	defer func() {
		r.totals.Add(cur.stats)
		if r.hook != nil {
			r.hook.OnBatchEnd(cur.ctx, cur.token, cur.info, &cur.stats, err)
		}
	}()

	rows := cur.builder.RowCount()
	cols, err := cur.builder.Finalize()
	if err != nil {
		return err
	}
	defer r2a.ReleaseColumns(cols)
	if rows == 0 {
		return nil
	}

	md := r.schema.Metadata()
	rec := r2a.NewRecordBatch(cols, &md)
	defer rec.Release()
	if err := w.WriteBatch(ctx, rec); err != nil {
		return fmt.Errorf("pipeline: writing batch %d: %w", cur.info.Sequence, err)
	}
	cur.stats.RecordWrite(rec)
	r.logger.Debug("wrote batch",
		zap.String("type", cur.info.Type),
		zap.Int("sequence", cur.info.Sequence),
		zap.Int("rows", rows),
		zap.Int64("rejected", cur.stats.Rejected),
	)
	return nil
}
