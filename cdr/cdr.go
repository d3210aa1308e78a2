// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package cdr reads and writes the OMG Common Data Representation used by
// ROS 2 middleware to serialize messages.
//
// A serialized message starts with a 4-byte encapsulation header: a
// big-endian representation identifier followed by two option bytes.
// Primitives are aligned to their own size, counted from the end of the
// header. Strings are a uint32 length that includes the NUL terminator,
// followed by the bytes and the terminator. Sequences are a uint32 element
// count followed by the elements; fixed arrays have no count.
package cdr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Representation identifiers from the encapsulation header.
const (
	CDRBigEndian    uint16 = 0x0000
	CDRLittleEndian uint16 = 0x0001
	PLCDRBigEndian  uint16 = 0x0002
	PLCDRLittle     uint16 = 0x0003
)

// HeaderSize is the length of the encapsulation header.
const HeaderSize = 4

// ErrTruncated is returned when the buffer ends before a value does.
var ErrTruncated = errors.New("cdr: truncated buffer")

// Decoder reads primitives from a CDR buffer.
type Decoder struct {
	buf   []byte // payload after the header
	off   int
	order binary.ByteOrder
}

// NewDecoder parses the encapsulation header of data.
func NewDecoder(data []byte) (*Decoder, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("cdr: %d bytes is shorter than the encapsulation header: %w", len(data), ErrTruncated)
	}
	d := &Decoder{buf: data[HeaderSize:]}
	switch rep := binary.BigEndian.Uint16(data[:2]); rep {
	case CDRLittleEndian, PLCDRLittle:
		d.order = binary.LittleEndian
	case CDRBigEndian, PLCDRBigEndian:
		d.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("cdr: unsupported representation 0x%04x", rep)
	}
	return d, nil
}

// Remaining returns the number of unread payload bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Offset returns the read position relative to the end of the header.
func (d *Decoder) Offset() int { return d.off }

func (d *Decoder) align(n int) {
	if r := d.off % n; r != 0 {
		d.off += n - r
	}
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.off+n > len(d.buf) {
		return nil, fmt.Errorf("cdr: reading %d bytes at offset %d: %w", n, d.off, ErrTruncated)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) fixed(n int) ([]byte, error) {
	d.align(n)
	return d.take(n)
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) Int8() (int8, error) {
	v, err := d.Uint8()
	return int8(v), err
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.fixed(2)
	if err != nil {
		return 0, err
	}
	return d.order.Uint16(b), nil
}

func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.fixed(4)
	if err != nil {
		return 0, err
	}
	return d.order.Uint32(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.fixed(8)
	if err != nil {
		return 0, err
	}
	return d.order.Uint64(b), nil
}

func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

func (d *Decoder) Float32() (float32, error) {
	v, err := d.Uint32()
	return math.Float32frombits(v), err
}

func (d *Decoder) Float64() (float64, error) {
	v, err := d.Uint64()
	return math.Float64frombits(v), err
}

// SequenceLength reads a sequence element count. minElemSize is the
// smallest encoded element size and is used to reject counts that cannot
// fit in the remaining buffer; values below 1 count as 1.
func (d *Decoder) SequenceLength(minElemSize int) (int, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	minElemSize = max(minElemSize, 1)
	if uint64(n)*uint64(minElemSize) > uint64(d.Remaining()) {
		return 0, fmt.Errorf("cdr: sequence of %d elements exceeds remaining %d bytes: %w", n, d.Remaining(), ErrTruncated)
	}
	return int(n), nil
}

// Bytes reads n raw bytes. The result aliases the decoder's buffer.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	return d.take(n)
}

// ReadString reads a NUL-terminated string with a uint32 length prefix.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.SequenceLength(1)
	if err != nil {
		return "", err
	}
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	if n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b), nil
}

// WString reads a wide string: a uint32 count of UTF-16 code units
// followed by the units, without a terminator.
func (d *Decoder) WString() ([]uint16, error) {
	n, err := d.SequenceLength(2)
	if err != nil {
		return nil, err
	}
	units := make([]uint16, n)
	for i := range units {
		if units[i], err = d.Uint16(); err != nil {
			return nil, err
		}
	}
	return units, nil
}

type appendOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Encoder writes primitives into a CDR buffer.
type Encoder struct {
	buf   []byte
	order appendOrder
}

// NewEncoder starts a buffer with a CDR encapsulation header.
func NewEncoder(littleEndian bool) *Encoder {
	e := &Encoder{buf: make([]byte, HeaderSize, 256)}
	if littleEndian {
		e.order = binary.LittleEndian
		binary.BigEndian.PutUint16(e.buf, CDRLittleEndian)
	} else {
		e.order = binary.BigEndian
		binary.BigEndian.PutUint16(e.buf, CDRBigEndian)
	}
	return e
}

// Data returns the encoded message including the header.
func (e *Encoder) Data() []byte { return e.buf }

func (e *Encoder) align(n int) {
	for (len(e.buf)-HeaderSize)%n != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }
func (e *Encoder) Int8(v int8)   { e.buf = append(e.buf, uint8(v)) }

func (e *Encoder) Uint16(v uint16) {
	e.align(2)
	e.buf = e.order.AppendUint16(e.buf, v)
}

func (e *Encoder) Int16(v int16) { e.Uint16(uint16(v)) }

func (e *Encoder) Uint32(v uint32) {
	e.align(4)
	e.buf = e.order.AppendUint32(e.buf, v)
}

func (e *Encoder) Int32(v int32) { e.Uint32(uint32(v)) }

func (e *Encoder) Uint64(v uint64) {
	e.align(8)
	e.buf = e.order.AppendUint64(e.buf, v)
}

func (e *Encoder) Int64(v int64)     { e.Uint64(uint64(v)) }
func (e *Encoder) Float32(v float32) { e.Uint32(math.Float32bits(v)) }
func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

// SequenceLength writes a sequence element count.
func (e *Encoder) SequenceLength(n int) { e.Uint32(uint32(n)) }

// Bytes writes raw bytes without a length prefix.
func (e *Encoder) Bytes(b []byte) { e.buf = append(e.buf, b...) }

// WriteString writes s with a length prefix and NUL terminator.
func (e *Encoder) WriteString(s string) {
	e.Uint32(uint32(len(s) + 1))
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// WString writes UTF-16 code units with a count prefix.
func (e *Encoder) WString(units []uint16) {
	e.Uint32(uint32(len(units)))
	for _, u := range units {
		e.Uint16(u)
	}
}
