// Package router turns a node's emit call into an ordered, correlated and
// individually traceable set of deliveries to the nodes wired to its ports.
//
// # Routing
//
// A routing entry maps a source node id to its output ports, each holding an
// ordered list of destination ids:
//
//	r.Register("ingest", [][]string{{"store", "audit"}, {"errors"}})
//
// Registration replaces the previous entry for the source wholesale.
// Destinations are not validated at registration time; they are resolved
// through the Graph collaborator when each delivery is attempted, and
// deliveries to unresolvable destinations are dropped.
//
// # Sending
//
// Send takes one messaging.Output per port:
//
//	r.Send(ctx, node, messaging.Single(msg))
//
// All deliveries produced by one Send share a correlation identifier. The
// first delivery carries the caller's message; every other delivery carries
// a deep copy, so a destination mutating its message cannot affect another.
// Deliveries are enqueued port by port, then wire by wire, then message by
// message.
//
// # Dispatch
//
// A single dispatcher goroutine owns delivery. It processes one queued
// delivery per tick and re-signals itself while work remains, so deliveries
// reach destinations strictly in enqueue order and a long queue never grows
// the stack.
//
// Before each delivery the BreakpointHook is consulted once. When it asks to
// stop, the delivery is marked intercepted, put back at the head of the
// queue, and the router pauses. After Resume the same delivery is committed
// without consulting the hook again.
//
//	r, _ := router.New(config.DefaultRouterConfig())
//	r.Init(router.Collaborators{Graph: registry, Breakpoints: breakpoints})
//	r.Start(ctx)
//	defer r.Shutdown(5 * time.Second)
//
// Pause may be called from anywhere, including from inside a node's Receive
// or from the hook itself; it takes effect before the next delivery.
package router
