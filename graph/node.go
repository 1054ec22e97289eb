package graph

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/router"
)

// Sender is the part of the router a node emits through.
type Sender interface {
	Send(ctx context.Context, source router.Source, outputs ...messaging.Output)
}

// EmitFunc sends outputs, one per port, as the emitting node.
type EmitFunc func(ctx context.Context, outputs ...messaging.Output)

// Handler processes one received message. Errors are logged by the node and
// never reach the router.
type Handler func(ctx context.Context, msg *messaging.Message, emit EmitFunc) error

// FunctionNode wraps a Handler as a node that is both a router.Node and a
// router.Source.
type FunctionNode struct {
	id      string
	kind    string
	handler Handler
	sender  Sender
	logger  *slog.Logger

	received atomic.Int64
	failed   atomic.Int64

	mu      sync.Mutex
	metrics map[string]int64
	last    map[string]any
}

// NewFunctionNode creates a node that runs handler for every received
// message and emits through sender.
func NewFunctionNode(id, kind string, sender Sender, handler Handler, logger *slog.Logger) *FunctionNode {
	if logger == nil {
		logger = slog.Default()
	}
	return &FunctionNode{
		id:      id,
		kind:    kind,
		handler: handler,
		sender:  sender,
		logger:  logger.With(slog.String("node", id), slog.String("type", kind)),
		metrics: make(map[string]int64),
	}
}

func (n *FunctionNode) ID() string   { return n.id }
func (n *FunctionNode) Type() string { return n.kind }

// Receive implements router.Node.
func (n *FunctionNode) Receive(ctx context.Context, msg *messaging.Message) {
	n.received.Add(1)

	if err := n.handler(ctx, msg, n.Emit); err != nil {
		n.failed.Add(1)
		n.logger.ErrorContext(
			ctx,
			"handler failed",
			slog.String("correlation_id", msg.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Emit sends outputs through the router with this node as the source. It is
// also how messages are injected into a flow from outside.
func (n *FunctionNode) Emit(ctx context.Context, outputs ...messaging.Output) {
	n.sender.Send(ctx, n, outputs...)
}

// Metric implements router.Source.
func (n *FunctionNode) Metric(event string, details map[string]any) {
	n.mu.Lock()
	n.metrics[event]++
	n.last = maps.Clone(details)
	n.mu.Unlock()

	n.logger.Debug(
		"node metric",
		slog.String("event", event),
		slog.Any("details", details),
	)
}

// Stats returns per-node counters: "received", "failed", and one entry per
// metric event name.
func (n *FunctionNode) Stats() map[string]int64 {
	n.mu.Lock()
	stats := maps.Clone(n.metrics)
	n.mu.Unlock()

	stats["received"] = n.received.Load()
	stats["failed"] = n.failed.Load()
	return stats
}

// LastMetric returns the details of the most recent metric call.
func (n *FunctionNode) LastMetric() map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return maps.Clone(n.last)
}
