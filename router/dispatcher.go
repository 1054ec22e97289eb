package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/flow/observability"
)

// Start launches the dispatcher goroutine. Deliveries enqueued before Start
// are drained once it runs.
func (r *Router) Start(ctx context.Context) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.done != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.dispatchLoop(loopCtx, r.done)
	r.kick()

	r.logger.DebugContext(
		ctx,
		"router started",
		slog.String("router", r.name),
		slog.Int("routes", r.table.Len()),
	)

	return nil
}

// Shutdown stops the dispatcher. Pending deliveries stay queued; a later
// Start continues from the head.
func (r *Router) Shutdown(timeout time.Duration) error {
	r.lifecycleMu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.lifecycleMu.Unlock()

	if done == nil {
		return ErrNotRunning
	}

	r.logger.Debug(
		"shutting down router",
		slog.String("router", r.name),
		slog.Int("pending", r.queue.Len()),
	)
	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("router shutdown timeout after %v", timeout)
	}
}

func (r *Router) running() bool {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()
	return r.done != nil
}

// kick schedules a drain step. The buffer of one coalesces repeated signals.
func (r *Router) kick() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop handles one delivery per wake signal and re-signals itself
// while work remains, so cancellation and pauses are observed between steps.
func (r *Router) dispatchLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			if r.step(ctx) {
				r.kick()
			}
		}
	}
}

// step attempts the head delivery and reports whether more work can be done
// right away.
func (r *Router) step(ctx context.Context) bool {
	if r.paused.Load() {
		return false
	}

	d, ok := r.queue.Acquire()
	if !ok {
		return false
	}
	defer r.queue.Release()

	collab := r.collaborators()

	if !d.Intercepted && !d.checked {
		if collab.Breakpoints.ShouldIntercept(*d) {
			d.Intercepted = true
			r.queue.PushFront(d)
			r.metrics.RecordIntercepted(1)
			r.emit(ctx, EventIntercept, observability.LevelInfo, "router.dispatch", deliveryData(r.name, d))
			r.Pause()
			return false
		}
		d.checked = true
	}

	node, ok := collab.Graph.Resolve(d.Destination)
	switch {
	case !ok || node == nil:
		r.metrics.RecordDropped(1)
		r.emit(ctx, EventDrop, observability.LevelWarning, "router.dispatch", deliveryData(r.name, d))
	case !r.commit(d):
		return false
	default:
		r.deliver(ctx, node, d)
	}

	return !r.paused.Load() && r.queue.Len() > 0
}

// commit rechecks the pause flag under commitMu, which Pause also holds, so
// a Pause that has returned is never overtaken by a delivery. A paused
// delivery goes back to the head and is not offered to the hook again.
func (r *Router) commit(d *Delivery) bool {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	if r.paused.Load() {
		r.queue.PushFront(d)
		return false
	}
	return true
}

func (r *Router) deliver(ctx context.Context, node Node, d *Delivery) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(
				ctx,
				"node receive panicked",
				slog.String("router", r.name),
				slog.String("destination", d.Destination),
				slog.String("correlation_id", d.CorrelationID()),
				slog.Any("panic", p),
			)
		}
	}()

	r.metrics.RecordDelivered(1)
	r.emit(ctx, EventDeliver, observability.LevelVerbose, "router.dispatch", deliveryData(r.name, d))

	node.Receive(ctx, d.Message)
}
