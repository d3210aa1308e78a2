// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istvan-fodor/r2a/msgs"
	"github.com/istvan-fodor/r2a/r2a"
	"github.com/istvan-fodor/r2a/transport"
)

// sliceSource yields its frames, then err (io.EOF when nil).
type sliceSource struct {
	frames []transport.Frame
	err    error
	closed bool
}

func (s *sliceSource) Receive(ctx context.Context) (transport.Frame, error) {
	if err := ctx.Err(); err != nil {
		return transport.Frame{}, err
	}
	if len(s.frames) == 0 {
		if s.err != nil {
			return transport.Frame{}, s.err
		}
		return transport.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// memSink keeps every batch it is given.
type memSink struct {
	batches []arrow.RecordBatch
	failAt  int
}

func (m *memSink) WriteBatch(_ context.Context, rec arrow.RecordBatch) error {
	if m.failAt > 0 && len(m.batches)+1 == m.failAt {
		return errors.New("disk full")
	}
	rec.Retain()
	m.batches = append(m.batches, rec)
	return nil
}

func (m *memSink) Close() error {
	for _, b := range m.batches {
		b.Release()
	}
	return nil
}

type recordingHook struct {
	mu     sync.Mutex
	starts []BatchInfo
	ends   []BatchStatistics
	errs   []error
}

func (h *recordingHook) OnBatchStart(ctx context.Context, info BatchInfo) (context.Context, HookToken) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, info)
	return ctx, info.Sequence
}

func (h *recordingHook) OnBatchEnd(_ context.Context, token HookToken, info BatchInfo, stats *BatchStatistics, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if token.(int) != info.Sequence {
		panic("token mismatch")
	}
	h.ends = append(h.ends, *stats)
	h.errs = append(h.errs, err)
}

func headerFrames(t *testing.T, n int) []transport.Frame {
	t.Helper()
	reg := msgs.NewRegistry()
	schema, err := reg.SchemaFor("std_msgs/msg/Header")
	require.NoError(t, err)
	frames := make([]transport.Frame, n)
	for i := range n {
		raw, err := r2a.EncodeCDR(schema, msgs.Header{
			Stamp:   msgs.Time{Sec: int32(i), Nanosec: uint32(i * 100)},
			FrameID: fmt.Sprintf("f%d", i),
		})
		require.NoError(t, err)
		frames[i] = transport.Frame{Topic: "header", Payload: raw}
	}
	return frames
}

func headerSupport(t *testing.T) r2a.ArrowSupport {
	t.Helper()
	sup, err := msgs.NewRegistry().Support("std_msgs/msg/Header")
	require.NoError(t, err)
	return sup
}

func TestRecorderBatches(t *testing.T) {
	src := &sliceSource{frames: headerFrames(t, 25)}
	hook := &recordingHook{}
	rec, err := NewRecorder(headerSupport(t), src,
		WithFields("stamp.sec", "frame_id"),
		WithHook(hook),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"stamp.sec", "frame_id"}, []string{rec.Schema().Field(0).Name, rec.Schema().Field(1).Name})

	out := &memSink{}
	defer out.Close()
	require.NoError(t, rec.Run(context.Background(), out))

	require.Len(t, out.batches, 3)
	assert.Equal(t, int64(10), out.batches[0].NumRows())
	assert.Equal(t, int64(10), out.batches[1].NumRows())
	assert.Equal(t, int64(5), out.batches[2].NumRows())

	secs := out.batches[2].Column(0).(*array.Int32)
	assert.Equal(t, []int32{20, 21, 22, 23, 24}, secs.Int32Values())
	ids := out.batches[1].Column(1).(*array.String)
	assert.Equal(t, "f10", ids.Value(0))

	require.Len(t, hook.starts, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{hook.starts[0].Sequence, hook.starts[1].Sequence, hook.starts[2].Sequence})
	assert.Equal(t, "std_msgs/msg/Header", hook.starts[0].Type)
	assert.Equal(t, []string{"stamp.sec", "frame_id"}, hook.starts[0].Fields)
	for _, err := range hook.errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(5), hook.ends[2].Rows)
	assert.Equal(t, int64(1), hook.ends[2].WrittenBatches)

	totals := rec.Totals()
	assert.Equal(t, int64(25), totals.Frames)
	assert.Equal(t, int64(25), totals.Rows)
	assert.Equal(t, int64(3), totals.WrittenBatches)
	assert.Positive(t, totals.BufferBytes)
}

func TestRecorderRejectsBadFrames(t *testing.T) {
	frames := headerFrames(t, 4)
	frames = append(frames[:2], append([]transport.Frame{{Payload: []byte{0, 1, 0, 0, 9}}}, frames[2:]...)...)
	src := &sliceSource{frames: frames}

	rec, err := NewRecorder(headerSupport(t), src, WithBatchSize(2))
	require.NoError(t, err)
	out := &memSink{}
	defer out.Close()
	require.NoError(t, rec.Run(context.Background(), out))

	require.Len(t, out.batches, 2)
	assert.Equal(t, int64(2), out.batches[0].NumRows())
	assert.Equal(t, int64(2), out.batches[1].NumRows())

	totals := rec.Totals()
	assert.Equal(t, int64(5), totals.Frames)
	assert.Equal(t, int64(4), totals.Rows)
	assert.Equal(t, int64(1), totals.Rejected)
}

func TestRecorderFlat(t *testing.T) {
	src := &sliceSource{frames: headerFrames(t, 3)}
	rec, err := NewRecorder(headerSupport(t), src, WithFlat(true))
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Schema().NumFields())

	out := &memSink{}
	defer out.Close()
	require.NoError(t, rec.Run(context.Background(), out))
	require.Len(t, out.batches, 1)
	assert.Equal(t, int64(3), out.batches[0].NumCols())
}

func TestRecorderOptions(t *testing.T) {
	sup := headerSupport(t)
	_, err := NewRecorder(sup, &sliceSource{}, WithBatchSize(0))
	assert.Error(t, err)
	_, err = NewRecorder(sup, &sliceSource{}, WithFlat(true), WithFields("frame_id"))
	assert.Error(t, err)
	_, err = NewRecorder(sup, &sliceSource{}, WithFields("nope"))
	assert.ErrorIs(t, err, r2a.ErrConfiguration)
}

func TestRecorderEmptySource(t *testing.T) {
	hook := &recordingHook{}
	rec, err := NewRecorder(headerSupport(t), &sliceSource{}, WithHook(hook))
	require.NoError(t, err)
	out := &memSink{}
	require.NoError(t, rec.Run(context.Background(), out))
	assert.Empty(t, out.batches)
	assert.Empty(t, hook.starts)
}

func TestRecorderSourceError(t *testing.T) {
	boom := errors.New("socket closed")
	src := &sliceSource{frames: headerFrames(t, 3), err: boom}
	rec, err := NewRecorder(headerSupport(t), src)
	require.NoError(t, err)
	out := &memSink{}
	defer out.Close()

	err = rec.Run(context.Background(), out)
	require.ErrorIs(t, err, boom)
	// The partial batch is still written.
	require.Len(t, out.batches, 1)
	assert.Equal(t, int64(3), out.batches[0].NumRows())
}

func TestRecorderSinkError(t *testing.T) {
	hook := &recordingHook{}
	src := &sliceSource{frames: headerFrames(t, 30)}
	rec, err := NewRecorder(headerSupport(t), src, WithHook(hook))
	require.NoError(t, err)
	out := &memSink{failAt: 2}
	defer out.Close()

	err = rec.Run(context.Background(), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing batch 2")
	assert.Len(t, out.batches, 1)
	require.Len(t, hook.errs, 2)
	assert.Error(t, hook.errs[1])
}

func TestRecorderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec, err := NewRecorder(headerSupport(t), &sliceSource{frames: headerFrames(t, 1)})
	require.NoError(t, err)
	out := &memSink{}
	assert.NoError(t, rec.Run(ctx, out))
	assert.Empty(t, out.batches)
}

func TestHookFuncs(t *testing.T) {
	var ended []int
	hook := HookFuncs(nil, func(_ context.Context, info BatchInfo, stats *BatchStatistics, _ error) {
		ended = append(ended, int(stats.Rows))
	})
	rec, err := NewRecorder(headerSupport(t), &sliceSource{frames: headerFrames(t, 7)}, WithHook(hook), WithBatchSize(4))
	require.NoError(t, err)
	out := &memSink{}
	defer out.Close()
	require.NoError(t, rec.Run(context.Background(), out))
	assert.Equal(t, []int{4, 3}, ended)
}
