// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// BatchHook provides observability callpoints around each batch a
// Recorder builds and writes. A batch starts with its first frame and ends
// once it has been written to the sink (or has failed).
type BatchHook interface {
	OnBatchStart(ctx context.Context, info BatchInfo) (context.Context, HookToken)
	OnBatchEnd(ctx context.Context, token HookToken, info BatchInfo, stats *BatchStatistics, err error)
}

// HookToken is an opaque value returned by OnBatchStart and passed back to
// OnBatchEnd. Only meaningful to the BatchHook that created it.
type HookToken interface{}

// BatchInfo identifies a batch.
type BatchInfo struct {
	Type     string   // message type id
	Sequence int      // 1-based batch number within a Run
	Fields   []string // bound column names
}

// BatchStatistics holds per-batch counters.
type BatchStatistics struct {
	Frames         int64 // frames received
	Rows           int64 // rows appended
	Rejected       int64 // frames that failed to decode or convert
	PayloadBytes   int64 // raw frame bytes received
	BufferBytes    int64 // Arrow buffer bytes written
	WrittenBatches int64
}

// RecordFrame records one received frame of n bytes.
func (s *BatchStatistics) RecordFrame(n int) {
	s.Frames++
	s.PayloadBytes += int64(n)
}

// RecordRow records one appended row.
func (s *BatchStatistics) RecordRow() { s.Rows++ }

// RecordRejected records one frame that did not become a row.
func (s *BatchStatistics) RecordRejected() { s.Rejected++ }

// RecordWrite records one record batch handed to the sink.
func (s *BatchStatistics) RecordWrite(batch arrow.RecordBatch) {
	s.WrittenBatches++
	s.BufferBytes += batchBufferSize(batch)
}

// Add accumulates o into s.
func (s *BatchStatistics) Add(o BatchStatistics) {
	s.Frames += o.Frames
	s.Rows += o.Rows
	s.Rejected += o.Rejected
	s.PayloadBytes += o.PayloadBytes
	s.BufferBytes += o.BufferBytes
	s.WrittenBatches += o.WrittenBatches
}

// batchBufferSize returns the total top-level buffer size in bytes across
// all columns in a record batch.
func batchBufferSize(batch arrow.RecordBatch) int64 {
	var total int64
	for i := int64(0); i < batch.NumCols(); i++ {
		col := batch.Column(int(i))
		for _, buf := range col.Data().Buffers() {
			if buf != nil {
				total += int64(buf.Len())
			}
		}
	}
	return total
}

// hookFunc adapts a pair of plain functions to BatchHook.
type hookFunc struct {
	start func(ctx context.Context, info BatchInfo) context.Context
	end   func(ctx context.Context, info BatchInfo, stats *BatchStatistics, err error)
}

func (h hookFunc) OnBatchStart(ctx context.Context, info BatchInfo) (context.Context, HookToken) {
	if h.start != nil {
		ctx = h.start(ctx, info)
	}
	return ctx, nil
}

func (h hookFunc) OnBatchEnd(ctx context.Context, _ HookToken, info BatchInfo, stats *BatchStatistics, err error) {
	if h.end != nil {
		h.end(ctx, info, stats, err)
	}
}

// HookFuncs builds a BatchHook from optional start and end callbacks.
func HookFuncs(
	start func(ctx context.Context, info BatchInfo) context.Context,
	end func(ctx context.Context, info BatchInfo, stats *BatchStatistics, err error),
) BatchHook {
	return hookFunc{start: start, end: end}
}
