// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package cdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaderAndAlignment(t *testing.T) {
	e := NewEncoder(true)
	e.Uint8(7)
	e.Uint32(0x01020304)
	e.Float64(1.5)

	want := []byte{
		0x00, 0x01, 0x00, 0x00, // header: CDR_LE
		0x07, 0x00, 0x00, 0x00, // uint8 + 3 bytes padding
		0x04, 0x03, 0x02, 0x01, // uint32
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf8, 0x3f, // float64, already aligned at 8
	}
	assert.Equal(t, want, e.Data())
}

func TestStringEncoding(t *testing.T) {
	e := NewEncoder(true)
	e.WriteString("ab")
	assert.Equal(t, []byte{0, 1, 0, 0, 3, 0, 0, 0, 'a', 'b', 0}, e.Data())

	d, err := NewDecoder(e.Data())
	require.NoError(t, err)
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "ab", s)
	assert.Equal(t, 0, d.Remaining())
}

func TestRoundTripBothByteOrders(t *testing.T) {
	for _, little := range []bool{true, false} {
		e := NewEncoder(little)
		e.Bool(true)
		e.Int8(-3)
		e.Int16(-300)
		e.Int32(-70000)
		e.Int64(-1 << 40)
		e.Uint16(65000)
		e.Uint64(1 << 63)
		e.Float32(3.25)
		e.WriteString("frame")
		e.SequenceLength(2)
		e.Bytes([]byte{9, 8})
		e.WString([]uint16{0x263a})

		d, err := NewDecoder(e.Data())
		require.NoError(t, err)

		b, err := d.Bool()
		require.NoError(t, err)
		assert.True(t, b)
		i8, _ := d.Int8()
		assert.Equal(t, int8(-3), i8)
		i16, _ := d.Int16()
		assert.Equal(t, int16(-300), i16)
		i32, _ := d.Int32()
		assert.Equal(t, int32(-70000), i32)
		i64, _ := d.Int64()
		assert.Equal(t, int64(-1<<40), i64)
		u16, _ := d.Uint16()
		assert.Equal(t, uint16(65000), u16)
		u64, _ := d.Uint64()
		assert.Equal(t, uint64(1<<63), u64)
		f32, _ := d.Float32()
		assert.Equal(t, float32(3.25), f32)
		s, _ := d.ReadString()
		assert.Equal(t, "frame", s)
		n, err := d.SequenceLength(1)
		require.NoError(t, err)
		raw, err := d.Bytes(n)
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 8}, raw)
		ws, err := d.WString()
		require.NoError(t, err)
		assert.Equal(t, []uint16{0x263a}, ws)
		assert.Equal(t, 0, d.Remaining())
	}
}

func TestDecoderErrors(t *testing.T) {
	_, err := NewDecoder([]byte{0, 1})
	require.ErrorIs(t, err, ErrTruncated)

	_, err = NewDecoder([]byte{0x7f, 0x7f, 0, 0})
	require.Error(t, err)

	d, err := NewDecoder([]byte{0, 1, 0, 0, 1, 0})
	require.NoError(t, err)
	_, err = d.Uint32()
	require.ErrorIs(t, err, ErrTruncated)

	// A count that cannot fit in the remaining bytes is rejected up front.
	e := NewEncoder(true)
	e.SequenceLength(1 << 30)
	d, err = NewDecoder(e.Data())
	require.NoError(t, err)
	_, err = d.SequenceLength(4)
	require.ErrorIs(t, err, ErrTruncated)

	// Elements without a known size still take at least one byte each.
	d, err = NewDecoder(e.Data())
	require.NoError(t, err)
	_, err = d.SequenceLength(0)
	require.ErrorIs(t, err, ErrTruncated)
}
