// Package ws exposes chat rooms over websocket connections. It owns the
// upgrade handshake, the read/write pumps and the wire encoding; all chat
// semantics live behind the runtime broker.
package ws

import (
	"chat-rooms/domain/event"
	"context"
	"fmt"
	"sync"
)

// ConnectionSink is the outbound channel of one websocket connection. The
// router pushes events in, the write pump drains them to the peer.
type ConnectionSink struct {
	ch        chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		ch:   make(chan event.DomainEvent, bufferSize),
		done: make(chan struct{}),
	}
}

// Consume enqueues one event for the write pump. A full buffer or a closed
// connection yields an error so the router can log and move on.
func (c *ConnectionSink) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection closed")
	default:
	}

	select {
	case c.ch <- e:
		return nil
	default:
		return fmt.Errorf("outbound buffer full")
	}
}

// Events is drained by the write pump.
func (c *ConnectionSink) Events() <-chan event.DomainEvent {
	return c.ch
}

// Done unblocks the write pump when the connection tears down.
func (c *ConnectionSink) Done() <-chan struct{} {
	return c.done
}

// Close is idempotent. The channel itself is never closed: the router may
// still hold a stale reference for a short window after unregistration.
func (c *ConnectionSink) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
