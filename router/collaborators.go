package router

import (
	"context"

	"github.com/tailored-agentic-units/flow/messaging"
)

// MetricSend is the metric name reported to a source node once per Send.
const MetricSend = "send"

// Node is a resolvable destination.
type Node interface {
	// Receive handles one message. It runs on the dispatcher goroutine;
	// long-running work belongs on the node's own goroutines.
	Receive(ctx context.Context, msg *messaging.Message)
}

// Source is an emitting node.
type Source interface {
	ID() string
	Metric(event string, details map[string]any)
}

// Graph resolves a node id to a live node.
type Graph interface {
	Resolve(id string) (Node, bool)
}

// GraphFunc adapts a function to the Graph interface.
type GraphFunc func(id string) (Node, bool)

func (f GraphFunc) Resolve(id string) (Node, bool) {
	return f(id)
}

// BreakpointHook decides whether a pending delivery is paused before commit.
// It receives a copy and must not deliver or mutate anything.
type BreakpointHook interface {
	ShouldIntercept(d Delivery) bool
}

// BreakpointFunc adapts a function to the BreakpointHook interface.
type BreakpointFunc func(d Delivery) bool

func (f BreakpointFunc) ShouldIntercept(d Delivery) bool {
	return f(d)
}

// NeverIntercept is the default hook.
var NeverIntercept = BreakpointFunc(func(Delivery) bool { return false })

// CloneFunc produces a copy of msg sharing no mutable state with it.
type CloneFunc func(msg *messaging.Message) *messaging.Message

// IDFunc produces a fresh correlation identifier.
type IDFunc func() string

// Collaborators are the external references a router depends on. Nil fields
// take defaults: no graph (every destination is unresolvable), the
// NeverIntercept hook, Message.Clone and messaging.NewID.
type Collaborators struct {
	Graph       Graph
	Breakpoints BreakpointHook
	Clone       CloneFunc
	NewID       IDFunc
}

type emptyGraph struct{}

func (emptyGraph) Resolve(string) (Node, bool) { return nil, false }

func (c Collaborators) withDefaults() Collaborators {
	if c.Graph == nil {
		c.Graph = emptyGraph{}
	}
	if c.Breakpoints == nil {
		c.Breakpoints = NeverIntercept
	}
	if c.Clone == nil {
		c.Clone = (*messaging.Message).Clone
	}
	if c.NewID == nil {
		c.NewID = messaging.NewID
	}
	return c
}
