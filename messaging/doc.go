// Package messaging provides the message primitives that flow between graph
// nodes, and the tagged output shape a node emits on its ports.
//
// # Messages
//
// A Message carries a correlation identifier (ID), an optional topic and
// headers, and a structured payload held as a protobuf Struct so it can be
// deep-copied and rendered as JSON without reflection:
//
//	msg := messaging.NewMessage().
//	    Topic("sensors/temp").
//	    Field("value", 21.5).
//	    MustBuild()
//
// The correlation identifier starts empty and is assigned by the router the
// first time the message is sent. Every copy produced from one originating
// message shares that identifier, which makes all deliveries of a fan-out
// traceable as one logical message.
//
// # Cloning
//
// Clone returns a copy that shares no mutable state with the original: the
// payload is copied with proto.Clone and headers with maps.Clone.
//
// # Outputs
//
// Output is the per-port value a node emits. It is one of:
//
//   - Absent(): nothing on this port
//   - Single(msg): exactly one message
//   - Sequence(msgs...): an ordered batch of messages
//
// A send call takes one Output per output port, in port order:
//
//	r.Send(ctx, node, messaging.Single(msg), messaging.Absent(), messaging.Sequence(a, b))
package messaging
