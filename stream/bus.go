// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package stream

import (
	"context"
	"sync"
)

// DefaultBufferSize is the number of events a Bus holds before Publish
// blocks.
const DefaultBufferSize = 16

// Bus is a bounded single-producer, single-consumer event queue. The
// producer publishes and finally closes it; the consumer ranges over
// Events.
type Bus struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewBus creates a Bus holding up to size events. A size below one uses
// DefaultBufferSize.
func NewBus(size int) *Bus {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish enqueues ev, blocking while the buffer is full. It gives up with
// ctx's error once ctx is done, which is how a consumer that went away
// unblocks the producer.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Only the producer may call it; later calls are
// no-ops.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.ch) })
}

// Events returns the channel the consumer reads. It is closed by Close.
func (b *Bus) Events() <-chan Event {
	return b.ch
}
