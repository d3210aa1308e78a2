// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	require.NoError(t, fw.WriteFrame([]byte{1, 2, 3}))
	require.NoError(t, fw.WriteFrame(nil))
	require.NoError(t, fw.WriteFrame([]byte("abc")))

	fr := NewFrameReader(&buf, "t")
	ctx := context.Background()
	var got [][]byte
	for {
		f, err := fr.Receive(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "t", f.Topic)
		got = append(got, f.Payload)
	}
	assert.Equal(t, [][]byte{{1, 2, 3}, {}, []byte("abc")}, got)
	require.NoError(t, fr.Close())
}

func TestFrameReaderTruncated(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader([]byte{5, 0, 0, 0, 1, 2}), "")
	_, err := fr.Receive(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	fr = NewFrameReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}), "")
	_, err = fr.Receive(context.Background())
	require.ErrorIs(t, err, ErrFrameTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFrameReader(bytes.NewReader(nil), "").Receive(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFrameReaderAllocatesWhatArrives(t *testing.T) {
	// The header announces 192 MiB but only 16 bytes follow.
	data := append([]byte{0, 0, 0, 0x0c}, make([]byte, 16)...)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := NewFrameReader(bytes.NewReader(data), "").Receive(context.Background())
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(8<<20))
}

func freeEndpoint(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "tcp://" + addr
}

func TestPubSub(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ep := freeEndpoint(t)
	pub, err := NewPublisher(ctx, ep)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber(ctx, ep, nil, "scan")
	require.NoError(t, err)
	defer sub.Close()

	// Subscriptions propagate asynchronously; keep publishing until the
	// subscriber has seen a message.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-tick.C:
				_ = pub.Publish("other", []byte("ignored"))
				_ = pub.Publish("scan", []byte(fmt.Sprint(i)))
			}
		}
	}()

	f, err := sub.Receive(ctx)
	close(stop)
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, "scan", f.Topic)
	assert.NotEmpty(t, f.Payload)
}

func TestSubscriberReceiveCancelled(t *testing.T) {
	ep := freeEndpoint(t)
	pub, err := NewPublisher(context.Background(), ep)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber(context.Background(), ep, nil)
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
