package router

import "github.com/tailored-agentic-units/flow/observability"

const (
	EventSend       observability.EventType = "router.send"
	EventDeliver    observability.EventType = "router.deliver"
	EventDrop       observability.EventType = "router.drop"
	EventIntercept  observability.EventType = "router.intercept"
	EventPause      observability.EventType = "router.pause"
	EventResume     observability.EventType = "router.resume"
	EventRegister   observability.EventType = "router.register"
	EventUnregister observability.EventType = "router.unregister"
	EventInit       observability.EventType = "router.init"
)

// Event data keys shared with the trace and debugger packages.
const (
	KeyRouter        = "router"
	KeyCorrelationID = "correlation_id"
	KeySource        = "source_node"
	KeyPort          = "source_port"
	KeyDestination   = "destination"
	KeyDeliveries    = "deliveries"
	KeyQueueLength   = "queue_length"
)

func deliveryData(name string, d *Delivery) map[string]any {
	return map[string]any{
		KeyRouter:        name,
		KeyCorrelationID: d.CorrelationID(),
		KeySource:        d.Source,
		KeyPort:          d.SourcePort,
		KeyDestination:   d.Destination,
	}
}
