// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package benchmark generates sensor messages of realistic size for
// measuring conversion throughput.
package benchmark

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/istvan-fodor/r2a/msgs"
	"github.com/istvan-fodor/r2a/r2a"
)

// ScanPoints is the number of ranges in a generated LaserScan, the
// resolution of a typical 2D lidar at 0.25 degrees.
const ScanPoints = 1440

// LaserScan returns the i-th scan of a deterministic sequence.
func LaserScan(i int) msgs.LaserScan {
	rng := rand.New(rand.NewPCG(uint64(i), 1))
	ranges := make([]float32, ScanPoints)
	intensities := make([]float32, ScanPoints)
	for j := range ranges {
		ranges[j] = 0.1 + rng.Float32()*30
		intensities[j] = rng.Float32() * 1000
	}
	return msgs.LaserScan{
		Header: msgs.Header{
			Stamp:   msgs.Time{Sec: int32(i / 10), Nanosec: uint32(i%10) * 100_000_000},
			FrameID: "laser",
		},
		AngleMin:       -math.Pi,
		AngleMax:       math.Pi,
		AngleIncrement: 2 * math.Pi / ScanPoints,
		ScanTime:       0.1,
		RangeMin:       0.1,
		RangeMax:       30,
		Ranges:         ranges,
		Intensities:    intensities,
	}
}

// PointCloud2 returns a cloud of n xyz points packed as little-endian
// float32.
func PointCloud2(i, n int) msgs.PointCloud2 {
	rng := rand.New(rand.NewPCG(uint64(i), 2))
	const step = 12
	data := make([]byte, n*step)
	for p := range n {
		for k := range 3 {
			binary.LittleEndian.PutUint32(data[p*step+k*4:], math.Float32bits(rng.Float32()*50-25))
		}
	}
	return msgs.PointCloud2{
		Header: msgs.Header{Stamp: msgs.Time{Sec: int32(i)}, FrameID: "velodyne"},
		Height: 1,
		Width:  uint32(n),
		Fields: []msgs.PointField{
			{Name: "x", Offset: 0, Datatype: msgs.PointFieldFloat32, Count: 1},
			{Name: "y", Offset: 4, Datatype: msgs.PointFieldFloat32, Count: 1},
			{Name: "z", Offset: 8, Datatype: msgs.PointFieldFloat32, Count: 1},
		},
		PointStep: step,
		RowStep:   uint32(n * step),
		Data:      data,
		IsDense:   true,
	}
}

// LaserScans returns n scans as a slice ready for BuildParallel.
func LaserScans(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = LaserScan(i)
	}
	return out
}

// Frames returns the CDR encodings of n messages produced by gen.
func Frames[T any](reg *r2a.Registry, n int, gen func(int) T) ([][]byte, error) {
	sup, err := r2a.SupportFor[T](reg)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		if out[i], err = r2a.EncodeCDR(sup.FieldDescriptors(), gen(i)); err != nil {
			return nil, fmt.Errorf("benchmark: encoding message %d: %w", i, err)
		}
	}
	return out, nil
}
