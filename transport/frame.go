// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package transport moves serialized ROS 2 messages between processes.
//
// A Frame carries one CDR-serialized message. Frames arrive from a ZeroMQ
// subscriber, or from a stream of length-prefixed frames as written by
// FrameWriter.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single length-prefixed frame.
const MaxFrameSize = 256 << 20

// frameChunk is the initial payload buffer size.
const frameChunk = 64 << 10

// ErrFrameTooLarge is returned for frames larger than MaxFrameSize.
var ErrFrameTooLarge = errors.New("transport: frame too large")

// Frame is one message as received from a source.
type Frame struct {
	Topic   string
	Payload []byte
}

// Source yields frames until it is exhausted, in which case Receive
// returns io.EOF.
type Source interface {
	Receive(ctx context.Context) (Frame, error)
	Close() error
}

// FrameReader reads frames of the form [uint32 little-endian length][payload].
type FrameReader struct {
	r     *bufio.Reader
	c     io.Closer
	topic string
}

// NewFrameReader reads frames from r. Every frame gets the given topic.
// If r is an io.Closer, Close closes it.
func NewFrameReader(r io.Reader, topic string) *FrameReader {
	fr := &FrameReader{r: bufio.NewReader(r), topic: topic}
	if c, ok := r.(io.Closer); ok {
		fr.c = c
	}
	return fr
}

// Receive reads the next frame. It returns io.EOF at a clean end of
// stream and io.ErrUnexpectedEOF when a frame is cut short.
func (fr *FrameReader) Receive(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	var hdr [4]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := []byte{}
	if n > 0 {
		// The buffer grows with the bytes that actually arrive, so a
		// header alone cannot reserve MaxFrameSize.
		var buf bytes.Buffer
		buf.Grow(int(min(n, frameChunk)))
		if _, err := io.CopyN(&buf, fr.r, int64(n)); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Frame{}, err
		}
		payload = buf.Bytes()
	}
	return Frame{Topic: fr.topic, Payload: payload}, nil
}

func (fr *FrameReader) Close() error {
	if fr.c != nil {
		return fr.c.Close()
	}
	return nil
}

// FrameWriter writes length-prefixed frames.
type FrameWriter struct {
	w io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one payload with its length prefix.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := fw.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := fw.w.Write(payload)
	return err
}
