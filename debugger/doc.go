// Package debugger is the control plane for a running router: breakpoint
// rules, a Connect service for pausing, resuming and inspecting the router,
// and a websocket stream of live observability events.
//
// Breakpoints implements router.BreakpointHook and is installed through
// router.Collaborators. Service exposes a Controller (satisfied by
// *router.Router) and a Breakpoints set under the
// flow.debug.v1.DebugService procedures. The request and response messages
// are protobuf well-known types, so no generated code is needed on either
// side; Client wraps the same procedures for the CLI.
package debugger
