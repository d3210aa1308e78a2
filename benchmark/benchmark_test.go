// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package benchmark

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istvan-fodor/r2a/msgs"
	"github.com/istvan-fodor/r2a/r2a"
	"github.com/istvan-fodor/r2a/sink"
)

var scanFields = []string{"header.stamp.sec", "header.stamp.nanosec", "ranges", "intensities"}

func TestFixtures(t *testing.T) {
	assert.Equal(t, LaserScan(3), LaserScan(3))
	assert.Len(t, LaserScan(0).Ranges, ScanPoints)

	pc := PointCloud2(1, 100)
	assert.Len(t, pc.Data, 1200)
	assert.Equal(t, uint32(1200), pc.RowStep)

	reg := msgs.NewRegistry()
	frames, err := Frames(reg, 4, LaserScan)
	require.NoError(t, err)
	require.Len(t, frames, 4)

	sup, err := reg.Support("sensor_msgs/msg/LaserScan")
	require.NoError(t, err)
	rb, err := sup.NewRowBuilder(scanFields...)
	require.NoError(t, err)
	defer rb.Release()
	for _, f := range frames {
		require.NoError(t, rb.AppendRaw(f))
	}
	assert.Equal(t, 4, rb.RowCount())
}

func BenchmarkAppendLaserScan(b *testing.B) {
	reg := msgs.NewRegistry()
	sup, err := reg.Support("sensor_msgs/msg/LaserScan")
	require.NoError(b, err)
	scans := LaserScans(64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb, err := sup.NewRowBuilder(scanFields...)
		if err != nil {
			b.Fatal(err)
		}
		for _, s := range scans {
			if err := rb.Append(s); err != nil {
				b.Fatal(err)
			}
		}
		cols, err := rb.Finalize()
		if err != nil {
			b.Fatal(err)
		}
		r2a.ReleaseColumns(cols)
	}
}

func BenchmarkAppendRawLaserScan(b *testing.B) {
	reg := msgs.NewRegistry()
	sup, err := reg.Support("sensor_msgs/msg/LaserScan")
	require.NoError(b, err)
	frames, err := Frames(reg, 64, LaserScan)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb, err := sup.NewRowBuilder(scanFields...)
		if err != nil {
			b.Fatal(err)
		}
		for _, f := range frames {
			b.SetBytes(int64(len(f)))
			if err := rb.AppendRaw(f); err != nil {
				b.Fatal(err)
			}
		}
		cols, err := rb.Finalize()
		if err != nil {
			b.Fatal(err)
		}
		r2a.ReleaseColumns(cols)
	}
}

func BenchmarkAppendPointCloud2(b *testing.B) {
	reg := msgs.NewRegistry()
	sup, err := reg.Support("sensor_msgs/msg/PointCloud2")
	require.NoError(b, err)
	clouds := make([]msgs.PointCloud2, 16)
	for i := range clouds {
		clouds[i] = PointCloud2(i, 32_768)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb, err := sup.NewRowBuilder("header", "width", "fields", "data")
		if err != nil {
			b.Fatal(err)
		}
		for _, c := range clouds {
			if err := rb.Append(&c); err != nil {
				b.Fatal(err)
			}
		}
		cols, err := rb.Finalize()
		if err != nil {
			b.Fatal(err)
		}
		r2a.ReleaseColumns(cols)
	}
}

func BenchmarkBuildParallel(b *testing.B) {
	reg := msgs.NewRegistry()
	sup, err := reg.Support("sensor_msgs/msg/LaserScan")
	require.NoError(b, err)
	scans := LaserScans(512)

	for _, workers := range []int{1, 4} {
		b.Run("workers="+strconv.Itoa(workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				cols, err := r2a.BuildParallel(context.Background(), sup, scanFields, workers, scans)
				if err != nil {
					b.Fatal(err)
				}
				r2a.ReleaseColumns(cols)
			}
		})
	}
}

func BenchmarkParquetWrite(b *testing.B) {
	reg := msgs.NewRegistry()
	sup, err := reg.Support("sensor_msgs/msg/LaserScan")
	require.NoError(b, err)
	rb, err := sup.NewRowBuilder()
	require.NoError(b, err)
	schema := rb.Schema()
	for _, s := range LaserScans(10) {
		require.NoError(b, rb.Append(s))
	}
	cols, err := rb.Finalize()
	require.NoError(b, err)
	defer r2a.ReleaseColumns(cols)
	md := schema.Metadata()
	batch := r2a.NewRecordBatch(cols, &md)
	defer batch.Release()

	for _, c := range []sink.Compression{sink.CompressionNone, sink.CompressionZstd, sink.CompressionSnappy} {
		b.Run(string(c), func(b *testing.B) {
			var buf bytes.Buffer
			for i := 0; i < b.N; i++ {
				buf.Reset()
				w, err := sink.NewParquetWriter(nopCloser{&buf}, schema, c)
				if err != nil {
					b.Fatal(err)
				}
				if err := w.WriteBatch(context.Background(), batch); err != nil {
					b.Fatal(err)
				}
				if err := w.Close(); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(buf.Len()))
		})
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
