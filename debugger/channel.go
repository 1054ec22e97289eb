package debugger

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tailored-agentic-units/flow/observability"
)

// eventChannel is the bounded per-subscriber buffer between the observer
// and one websocket writer. Offers never block; a full buffer drops.
type eventChannel struct {
	channel    chan observability.Event
	bufferSize int
	dropped    atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func newEventChannel(bufferSize int) *eventChannel {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &eventChannel{
		channel:    make(chan observability.Event, bufferSize),
		bufferSize: bufferSize,
	}
}

// Offer enqueues event unless the buffer is full or the channel is closed.
func (ec *eventChannel) Offer(event observability.Event) bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	if ec.closed {
		return false
	}

	select {
	case ec.channel <- event:
		return true
	default:
		ec.dropped.Add(1)
		return false
	}
}

// Receive blocks for the next event. It returns ErrStreamClosed once the
// channel is closed and drained.
func (ec *eventChannel) Receive(ctx context.Context) (observability.Event, error) {
	select {
	case event, ok := <-ec.channel:
		if !ok {
			return observability.Event{}, ErrStreamClosed
		}
		return event, nil
	case <-ctx.Done():
		return observability.Event{}, ctx.Err()
	}
}

func (ec *eventChannel) Close() {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if !ec.closed {
		ec.closed = true
		close(ec.channel)
	}
}

func (ec *eventChannel) Dropped() int64 {
	return ec.dropped.Load()
}

func (ec *eventChannel) QueueLength() int {
	return len(ec.channel)
}
