// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTime struct {
	Sec     int32
	Nanosec uint32
}

func (testTime) MessageType() string { return "builtin_interfaces/msg/Time" }

type testHeader struct {
	Stamp   testTime
	FrameID string
}

func (testHeader) MessageType() string { return "std_msgs/msg/Header" }

type testPoint struct {
	X, Y, Z float64
}

func (testPoint) MessageType() string { return "geometry_msgs/msg/Point" }

type testScan struct {
	Header  testHeader
	Ranges  []float32
	Bounded []int16 `r2a:"bounded,bound=3"`
	Fixed   [3]float64
	Data    []byte
	Points  []testPoint
	Label   *string
	Name    string `r2a:"name,bound=4"`
	Ignored int    `r2a:"-"`
}

func (testScan) MessageType() string { return "test_msgs/msg/Scan" }

func headerSupport(t *testing.T) ArrowSupport {
	t.Helper()
	s, err := Register[testHeader](NewRegistry())
	require.NoError(t, err)
	return s
}

func scanSupport(t *testing.T) ArrowSupport {
	t.Helper()
	s, err := Register[testScan](NewRegistry())
	require.NoError(t, err)
	return s
}

func finalize(t *testing.T, rb *RowBuilder) []FinalizedColumn {
	t.Helper()
	cols, err := rb.Finalize()
	require.NoError(t, err)
	t.Cleanup(func() { ReleaseColumns(cols) })
	return cols
}

func TestHeaderColumns(t *testing.T) {
	rb, err := headerSupport(t).NewRowBuilder("stamp.sec", "stamp.nanosec", "frame_id")
	require.NoError(t, err)

	for i, frame := range []string{"a", "b", "c"} {
		require.NoError(t, rb.Append(testHeader{Stamp: testTime{Sec: int32(i), Nanosec: uint32(i * 100)}, FrameID: frame}))
	}
	assert.Equal(t, 3, rb.RowCount())

	cols := finalize(t, rb)
	require.Len(t, cols, 3)
	assert.Equal(t, "stamp.sec", cols[0].Field.Name)
	assert.Equal(t, "stamp.nanosec", cols[1].Field.Name)
	assert.Equal(t, "frame_id", cols[2].Field.Name)

	assert.Equal(t, []int32{0, 1, 2}, cols[0].Array.(*array.Int32).Int32Values())
	assert.Equal(t, []uint32{0, 100, 200}, cols[1].Array.(*array.Uint32).Uint32Values())
	frames := cols[2].Array.(*array.String)
	assert.Equal(t, []string{"a", "b", "c"}, []string{frames.Value(0), frames.Value(1), frames.Value(2)})
}

func TestEmptyFieldListBindsAllFields(t *testing.T) {
	rb, err := headerSupport(t).NewRowBuilder()
	require.NoError(t, err)
	require.NoError(t, rb.Append(&testHeader{FrameID: "map"}))

	cols := finalize(t, rb)
	require.Len(t, cols, 2)
	assert.Equal(t, "stamp", cols[0].Field.Name)
	assert.True(t, arrow.TypeEqual(arrow.StructOf(
		arrow.Field{Name: "sec", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "nanosec", Type: arrow.PrimitiveTypes.Uint32},
	), cols[0].Array.DataType()))
	assert.Equal(t, "map", cols[1].Array.(*array.String).Value(0))
}

func TestFinalizeOrderFollowsBinding(t *testing.T) {
	rb, err := headerSupport(t).NewRowBuilder("frame_id", "stamp.nanosec", "stamp")
	require.NoError(t, err)
	require.NoError(t, rb.Append(testHeader{FrameID: "x"}))

	cols := finalize(t, rb)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Field.Name
		assert.Equal(t, 1, c.Array.Len())
	}
	assert.Equal(t, []string{"frame_id", "stamp.nanosec", "stamp"}, names)
	assert.Equal(t, names, schemaNames(rb.Schema()))
}

func TestFinalizeIsSingleUse(t *testing.T) {
	rb, err := headerSupport(t).NewRowBuilder("frame_id")
	require.NoError(t, err)
	finalize(t, rb)

	_, err = rb.Finalize()
	require.ErrorIs(t, err, ErrState)
	require.ErrorIs(t, rb.Append(testHeader{}), ErrState)
	require.ErrorIs(t, rb.AppendRaw([]byte{0, 1, 0, 0}), ErrState)
}

func TestFinalizeEmptyBuilder(t *testing.T) {
	rb, err := scanSupport(t).NewRowBuilder("ranges", "header.frame_id")
	require.NoError(t, err)
	cols := finalize(t, rb)
	require.Len(t, cols, 2)
	for _, c := range cols {
		assert.Equal(t, 0, c.Array.Len())
	}
}

func TestBuilderConfigurationErrors(t *testing.T) {
	s := scanSupport(t)
	tests := []struct {
		name   string
		fields []string
	}{
		{"unknown", []string{"nope"}},
		{"unknown nested", []string{"header.nope"}},
		{"duplicate", []string{"ranges", "ranges"}},
		{"through array", []string{"points.x"}},
		{"through primitive", []string{"name.x"}},
		{"empty", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.NewRowBuilder(tt.fields...)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestArrayColumns(t *testing.T) {
	label := "front"
	rb, err := scanSupport(t).NewRowBuilder("ranges", "bounded", "fixed", "data", "points", "label", "name")
	require.NoError(t, err)

	require.NoError(t, rb.Append(testScan{
		Ranges:  []float32{1.5, 2.5},
		Bounded: []int16{7},
		Fixed:   [3]float64{1, 2, 3},
		Data:    []byte{0xde, 0xad},
		Points:  []testPoint{{X: 1}, {Y: 2}},
		Label:   &label,
		Name:    "lidr",
	}))
	require.NoError(t, rb.Append(testScan{}))

	cols := finalize(t, rb)

	assert.True(t, arrow.TypeEqual(arrow.LargeListOf(arrow.PrimitiveTypes.Float32), cols[0].Field.Type))
	assert.True(t, arrow.TypeEqual(arrow.LargeListOf(arrow.PrimitiveTypes.Int16), cols[1].Field.Type))
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float64), cols[2].Field.Type))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.LargeBinary, cols[3].Field.Type))
	assert.Equal(t, arrow.LARGE_LIST, cols[4].Field.Type.ID())
	assert.True(t, cols[5].Field.Nullable)
	assert.False(t, cols[6].Field.Nullable)

	ranges := cols[0].Array.(*array.LargeList)
	start, end := ranges.ValueOffsets(0)
	assert.Equal(t, []float32{1.5, 2.5}, ranges.ListValues().(*array.Float32).Float32Values()[start:end])
	start, end = ranges.ValueOffsets(1)
	assert.Equal(t, start, end)

	fixed := cols[2].Array.(*array.FixedSizeList)
	assert.Equal(t, []float64{1, 2, 3, 0, 0, 0}, fixed.ListValues().(*array.Float64).Float64Values())

	data := cols[3].Array.(*array.LargeBinary)
	assert.Equal(t, []byte{0xde, 0xad}, data.Value(0))
	assert.Empty(t, data.Value(1))

	points := cols[4].Array.(*array.LargeList)
	xs := points.ListValues().(*array.Struct).Field(0).(*array.Float64)
	assert.Equal(t, []float64{1, 0}, xs.Float64Values())

	labels := cols[5].Array.(*array.String)
	assert.Equal(t, "front", labels.Value(0))
	assert.True(t, labels.IsNull(1))
}

func TestAppendIsAtomic(t *testing.T) {
	rb, err := scanSupport(t).NewRowBuilder("header.frame_id", "ranges", "bounded", "name")
	require.NoError(t, err)
	require.NoError(t, rb.Append(testScan{Header: testHeader{FrameID: "ok"}, Ranges: []float32{1}}))

	// ranges is staged before bounded fails; nothing may be committed.
	err = rb.Append(testScan{Header: testHeader{FrameID: "bad"}, Ranges: []float32{2}, Bounded: []int16{1, 2, 3, 4}})
	require.ErrorIs(t, err, ErrSchemaMismatch)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "bounded", rerr.Field)
	assert.Equal(t, "test_msgs/msg/Scan", rerr.Type)

	err = rb.Append(testScan{Name: "too long"})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	err = rb.Append(testScan{Name: "\xff"})
	require.ErrorIs(t, err, ErrConversion)

	assert.Equal(t, 1, rb.RowCount())
	cols := finalize(t, rb)
	for _, c := range cols {
		assert.Equal(t, 1, c.Array.Len(), c.Field.Name)
	}
	assert.Equal(t, "ok", cols[0].Array.(*array.String).Value(0))
}

func TestAppendWrongType(t *testing.T) {
	rb, err := headerSupport(t).NewRowBuilder("frame_id")
	require.NoError(t, err)
	require.ErrorIs(t, rb.Append(testPoint{}), ErrSchemaMismatch)
	require.ErrorIs(t, rb.Append(nil), ErrSchemaMismatch)
	require.ErrorIs(t, rb.Append((*testHeader)(nil)), ErrSchemaMismatch)
	require.ErrorIs(t, rb.Append(42), ErrSchemaMismatch)
	assert.Equal(t, 0, rb.RowCount())
	rb.Release()
}

func TestMessageStructColumn(t *testing.T) {
	s := headerSupport(t)
	rb, err := s.NewRowBuilder("frame_id", MessageStructColumn)
	require.NoError(t, err)
	require.NoError(t, rb.Append(testHeader{Stamp: testTime{Sec: 5}, FrameID: "f"}))

	cols := finalize(t, rb)
	require.Len(t, cols, 2)
	assert.Equal(t, MessageStructColumn, cols[1].Field.Name)
	assert.True(t, arrow.TypeEqual(s.FieldDescriptors().StructType(), cols[1].Array.DataType()))

	st := cols[1].Array.(*array.Struct)
	stamp := st.Field(0).(*array.Struct)
	assert.Equal(t, int32(5), stamp.Field(0).(*array.Int32).Value(0))
	assert.Equal(t, "f", st.Field(1).(*array.String).Value(0))

	schema := s.ArrowSchema(true)
	assert.Equal(t, []string{"stamp", "frame_id", MessageStructColumn}, schemaNames(schema))
}

func TestFlatRowBuilder(t *testing.T) {
	s := scanSupport(t)
	assert.Equal(t, []string{
		"header.stamp.sec", "header.stamp.nanosec", "header.frame_id",
		"ranges", "bounded", "fixed", "data", "points", "label", "name",
	}, s.FlatFieldNames())

	rb, err := s.NewFlatRowBuilder()
	require.NoError(t, err)
	require.NoError(t, rb.Append(&testScan{Header: testHeader{Stamp: testTime{Sec: 9}}}))
	cols := finalize(t, rb)
	assert.Equal(t, int32(9), cols[0].Array.(*array.Int32).Value(0))
	assert.True(t, rb.Schema().Equal(s.FieldDescriptors().FlatArrowSchema()))
}

func TestAllocatorIsReleased(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := scanSupport(t)
	rb, err := s.NewRowBuilderWith([]string{"ranges", "points", "data"}, WithAllocator(mem), WithInitialCapacity(1))
	require.NoError(t, err)
	for i := range 10 {
		require.NoError(t, rb.Append(testScan{Ranges: make([]float32, i), Points: make([]testPoint, i%3)}))
	}
	cols, err := rb.Finalize()
	require.NoError(t, err)
	for _, c := range cols {
		assert.Equal(t, 10, c.Array.Len())
	}
	ReleaseColumns(cols)

	rb, err = s.NewRowBuilderWith([]string{"ranges"}, WithAllocator(mem))
	require.NoError(t, err)
	require.NoError(t, rb.Append(testScan{Ranges: []float32{1}}))
	rb.Release()
}

func TestRecordBatchAndConcat(t *testing.T) {
	s := headerSupport(t)
	build := func(frames ...string) []FinalizedColumn {
		rb, err := s.NewRowBuilder("frame_id", "stamp.sec")
		require.NoError(t, err)
		for _, f := range frames {
			require.NoError(t, rb.Append(testHeader{FrameID: f}))
		}
		return finalize(t, rb)
	}

	cols, err := ConcatColumns(memory.DefaultAllocator, build("a", "b"), build("c"))
	require.NoError(t, err)
	defer ReleaseColumns(cols)

	rec := NewRecordBatch(cols, nil)
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, "c", rec.Column(0).(*array.String).Value(2))

	_, err = ConcatColumns(memory.DefaultAllocator, build("a"), cols[:1])
	require.ErrorIs(t, err, ErrConfiguration)

	// An empty leading set must not hide wider sets after it.
	_, err = ConcatColumns(memory.DefaultAllocator, []FinalizedColumn{}, build("a"))
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = ConcatColumns(memory.DefaultAllocator, nil, nil, cols)
	require.ErrorIs(t, err, ErrConfiguration)

	empty, err := ConcatColumns(memory.DefaultAllocator, nil, []FinalizedColumn{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func schemaNames(s *arrow.Schema) []string {
	names := make([]string, s.NumFields())
	for i, f := range s.Fields() {
		names[i] = f.Name
	}
	return names
}
