package router

import (
	"fmt"

	"github.com/tailored-agentic-units/flow/messaging"
)

// Delivery is one pending message bound for one destination.
type Delivery struct {
	Source      string
	SourcePort  int
	Destination string
	Message     *messaging.Message

	// Intercepted is set the first time the breakpoint hook stops this
	// delivery. An intercepted delivery is never offered to the hook again.
	Intercepted bool

	// checked is set once the hook let this delivery proceed.
	checked bool
}

// CorrelationID returns the correlation identifier of the carried message.
func (d Delivery) CorrelationID() string {
	if d.Message == nil {
		return ""
	}
	return d.Message.ID
}

func (d Delivery) String() string {
	return fmt.Sprintf("%s[%d] -> %s (%s)", d.Source, d.SourcePort, d.Destination, d.CorrelationID())
}
