package kernel

import "github.com/tailored-agentic-units/flow/observability"

// Kernel lifecycle event types.
const (
	EventStart  observability.EventType = "kernel.start"
	EventInject observability.EventType = "kernel.inject"
	EventStop   observability.EventType = "kernel.stop"
)
