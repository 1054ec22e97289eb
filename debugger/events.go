package debugger

import "github.com/tailored-agentic-units/flow/observability"

const (
	EventBreakpointSet     observability.EventType = "debugger.breakpoint.set"
	EventBreakpointCleared observability.EventType = "debugger.breakpoint.cleared"
	EventBreakpointToggled observability.EventType = "debugger.breakpoint.toggled"
	EventBreakpointHit     observability.EventType = "debugger.breakpoint.hit"
	EventStreamOpen        observability.EventType = "debugger.stream.open"
	EventStreamClose       observability.EventType = "debugger.stream.close"
)
