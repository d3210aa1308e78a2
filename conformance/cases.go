// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"math"

	"github.com/istvan-fodor/r2a/r2a"
)

// Case is one conformance input: a message appended to a builder of Type
// bound to Fields (all top-level fields when empty).
type Case struct {
	Name    string
	Type    string
	Fields  []string
	Message any
	// Err is the sentinel the append must match, nil for valid messages.
	Err error
	// HasNulls marks valid messages with null values. CDR has no nulls,
	// so these do not survive a serialization round trip.
	HasNulls bool
}

func ptr[T any](v T) *T { return &v }

// Cases returns the canonical conformance inputs, valid ones first.
func Cases() []Case {
	scalars := Scalars{}.MessageType()
	arrays := Arrays{}.MessageType()
	optional := Optional{}.MessageType()
	scene := Scene{}.MessageType()

	return []Case{
		{Name: "scalars/zero", Type: scalars, Message: Scalars{}},
		{Name: "scalars/max", Type: scalars, Message: Scalars{
			B: true, I8: math.MaxInt8, I16: math.MaxInt16, I32: math.MaxInt32, I64: math.MaxInt64,
			U8: math.MaxUint8, U16: math.MaxUint16, U32: math.MaxUint32, U64: math.MaxUint64,
			F32: math.MaxFloat32, F64: math.Inf(1), S: "héllo wörld", Bounded: "abcd",
		}},
		{Name: "scalars/min", Type: scalars, Message: &Scalars{
			I8: math.MinInt8, I16: math.MinInt16, I32: math.MinInt32, I64: math.MinInt64,
			F32: -math.MaxFloat32, F64: math.Inf(-1), S: "", Bounded: "",
		}},
		{Name: "scalars/map", Type: scalars, Fields: []string{"i8", "u64", "s"}, Message: map[string]any{
			"i8": 12, "u64": uint64(1 << 40), "s": "from map",
		}},
		{Name: "arrays/full", Type: arrays, Message: Arrays{
			Fixed:     [3]float64{1.5, -2, 3},
			Bounded:   []int16{-7, 7},
			Unbounded: []uint32{1, 2, 3, 4},
			Data:      []byte{0, 1, 0xfe, 0xff},
			Digest:    [4]uint8{0xde, 0xad, 0xbe, 0xef},
			Flags:     []bool{true, false, true},
			Names:     []string{"a", "", "ζ"},
			Points:    []Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
			Corners:   [2]Point{{X: -1, Y: -1}, {X: 1, Y: 1}},
		}},
		{Name: "arrays/empty", Type: arrays, Message: Arrays{
			Bounded:   []int16{},
			Unbounded: []uint32{},
			Data:      []byte{},
			Flags:     []bool{},
			Names:     []string{},
			Points:    []Point{},
		}},
		{Name: "optional/set", Type: optional, Message: Optional{
			Label:  ptr("lidar"),
			Count:  ptr[int32](42),
			Origin: &Point{X: 0.5, Y: 0.25},
			Values: &[]float32{1, 2, 3},
		}},
		{Name: "optional/unset", Type: optional, Message: Optional{}, HasNulls: true},
		{Name: "scene/nested", Type: scene, Message: Scene{
			Name: "kitchen",
			Box:  Box{TopLeft: Point{X: 0, Y: 10}, BottomRight: Point{X: 10, Y: 0}, Label: "table"},
			Boxes: []Box{
				{Label: "cup"},
				{TopLeft: Point{X: 1, Y: 1}, BottomRight: Point{X: 2, Y: 0}, Label: "plate"},
			},
			Optional: Optional{Count: ptr[int32](2)},
		}, HasNulls: true},
		{Name: "scene/paths", Type: scene, Fields: []string{"box.top_left.x", "boxes", "optional.label"}, Message: Scene{
			Box:   Box{TopLeft: Point{X: 4}},
			Boxes: []Box{{Label: "only"}},
		}, HasNulls: true},
		{Name: "wide/all", Type: WideType, Message: map[string]any{
			"letter":         'A',
			"flag":           uint8(1),
			"greeting":       "grüß dich 👋",
			"short_greeting": "hi",
			"code":           []byte("OK"),
			"blob":           []byte{1, 2, 3},
			"small_blob":     []byte{9},
			"phrases":        []string{"one", "δύο"},
			"origin":         map[string]any{"x": 1.0, "y": 2.0},
		}},
		{Name: "wide/short-greeting-utf16", Type: WideType, Fields: []string{"short_greeting"},
			Message: map[string]any{"short_greeting": "äöüß"}},

		{Name: "invalid/int8-overflow", Type: scalars, Fields: []string{"i8"},
			Message: map[string]any{"i8": 300}, Err: r2a.ErrConversion},
		{Name: "invalid/uint-negative", Type: scalars, Fields: []string{"u16"},
			Message: map[string]any{"u16": -1}, Err: r2a.ErrConversion},
		{Name: "invalid/float32-overflow", Type: scalars, Fields: []string{"f32"},
			Message: map[string]any{"f32": math.MaxFloat64}, Err: r2a.ErrConversion},
		{Name: "invalid/float32-precision", Type: scalars, Fields: []string{"f32"},
			Message: map[string]any{"f32": 0.1}, Err: r2a.ErrConversion},
		{Name: "invalid/float32-int-precision", Type: scalars, Fields: []string{"f32"},
			Message: map[string]any{"f32": int32(1<<24 + 1)}, Err: r2a.ErrConversion},
		{Name: "invalid/float64-int-precision", Type: scalars, Fields: []string{"f64"},
			Message: map[string]any{"f64": int64(1<<53 + 1)}, Err: r2a.ErrConversion},
		{Name: "invalid/float64-uint-precision", Type: scalars, Fields: []string{"f64"},
			Message: map[string]any{"f64": uint64(math.MaxUint64)}, Err: r2a.ErrConversion},
		{Name: "invalid/utf8", Type: scalars, Message: Scalars{S: "\xff\xfe"}, Err: r2a.ErrConversion},
		{Name: "invalid/string-bound", Type: scalars, Message: Scalars{Bounded: "toolong"}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/bool-type", Type: scalars, Fields: []string{"b"},
			Message: map[string]any{"b": "yes"}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/missing", Type: scalars, Fields: []string{"i32"},
			Message: map[string]any{}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/sequence-bound", Type: arrays, Message: Arrays{Bounded: []int16{1, 2, 3}}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/fixed-length", Type: arrays, Fields: []string{"fixed"},
			Message: map[string]any{"fixed": []float64{1}}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/nested-element", Type: arrays, Fields: []string{"points"},
			Message: map[string]any{"points": []any{map[string]any{"x": 1.0, "y": "no"}}}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/wrong-message", Type: arrays, Message: Scalars{}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/char-overflow", Type: WideType, Fields: []string{"letter"},
			Message: map[string]any{"letter": 256}, Err: r2a.ErrConversion},
		{Name: "invalid/wstring-bound", Type: WideType, Fields: []string{"short_greeting"},
			Message: map[string]any{"short_greeting": "hello"}, Err: r2a.ErrSchemaMismatch},
		{Name: "invalid/wstring-bound-surrogates", Type: WideType, Fields: []string{"short_greeting"},
			Message: map[string]any{"short_greeting": "ab\U0001F600"}, Err: r2a.ErrSchemaMismatch},
	}
}

// Valid returns the cases that must append without error.
func Valid() []Case {
	var out []Case
	for _, c := range Cases() {
		if c.Err == nil {
			out = append(out, c)
		}
	}
	return out
}
