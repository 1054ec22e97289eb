package trace

import (
	"time"

	"github.com/tailored-agentic-units/flow/observability"
	"github.com/tailored-agentic-units/flow/router"
)

// Record is one router event in the life of a correlation id. Seq is
// assigned by the store and orders records within a store.
type Record struct {
	Seq           int64
	CorrelationID string
	Event         observability.EventType
	Level         observability.Level
	Router        string
	Source        string
	Port          int
	Destination   string
	Timestamp     time.Time
	Data          map[string]any
}

// FromEvent builds a record from an event. It reports false when the event
// carries no correlation id.
func FromEvent(event observability.Event) (Record, bool) {
	id := event.String(router.KeyCorrelationID)
	if id == "" {
		return Record{}, false
	}

	port, ok := event.Int(router.KeyPort)
	if !ok {
		port = -1
	}

	return Record{
		CorrelationID: id,
		Event:         event.Type,
		Level:         event.Level,
		Router:        event.String(router.KeyRouter),
		Source:        event.String(router.KeySource),
		Port:          port,
		Destination:   event.String(router.KeyDestination),
		Timestamp:     event.Timestamp,
		Data:          event.Data,
	}, true
}
