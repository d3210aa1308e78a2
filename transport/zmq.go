// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
)

// Subscriber receives frames from a ZeroMQ PUB socket. Messages are
// two-part: [topic, payload]. Single-part messages are accepted with an
// empty topic.
type Subscriber struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewSubscriber connects to endpoint and subscribes to topics. No topics
// subscribes to everything.
func NewSubscriber(ctx context.Context, endpoint string, logger *zap.Logger, topics ...string) (*Subscriber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(endpoint); err != nil {
		cancel()
		return nil, fmt.Errorf("transport: dialing %s: %w", endpoint, err)
	}
	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
			cancel()
			_ = sock.Close()
			return nil, fmt.Errorf("transport: subscribing to %q: %w", topic, err)
		}
	}
	logger.Info("subscribed", zap.String("endpoint", endpoint), zap.Strings("topics", topics))
	return &Subscriber{sock: sock, cancel: cancel, logger: logger}, nil
}

// Receive blocks until the next message arrives or ctx is done. A
// Receive interrupted by ctx leaves the subscriber closed.
func (s *Subscriber) Receive(ctx context.Context) (Frame, error) {
	type result struct {
		msg zmq4.Msg
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := s.sock.Recv()
		ch <- result{msg, err}
	}()

	select {
	case <-ctx.Done():
		// Unblock the pending Recv.
		s.cancel()
		return Frame{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil {
				return Frame{}, ctx.Err()
			}
			return Frame{}, fmt.Errorf("transport: receiving: %w", r.err)
		}
		switch len(r.msg.Frames) {
		case 0:
			return Frame{}, fmt.Errorf("transport: empty message")
		case 1:
			return Frame{Payload: r.msg.Frames[0]}, nil
		default:
			return Frame{Topic: string(r.msg.Frames[0]), Payload: r.msg.Frames[1]}, nil
		}
	}
}

func (s *Subscriber) Close() error {
	s.cancel()
	return s.sock.Close()
}

// Publisher sends frames on a ZeroMQ PUB socket.
type Publisher struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
}

// NewPublisher binds a PUB socket to endpoint.
func NewPublisher(ctx context.Context, endpoint string) (*Publisher, error) {
	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(endpoint); err != nil {
		cancel()
		return nil, fmt.Errorf("transport: listening on %s: %w", endpoint, err)
	}
	return &Publisher{sock: sock, cancel: cancel}, nil
}

// Addr returns the bound address, useful with port 0 endpoints.
func (p *Publisher) Addr() string {
	if a := p.sock.Addr(); a != nil {
		return a.String()
	}
	return ""
}

// Publish sends payload under topic.
func (p *Publisher) Publish(topic string, payload []byte) error {
	if err := p.sock.Send(zmq4.NewMsgFrom([]byte(topic), payload)); err != nil {
		return fmt.Errorf("transport: publishing on %q: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.cancel()
	return p.sock.Close()
}
