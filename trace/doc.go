// Package trace records router events by correlation identifier so the full
// path of one message through a flow can be inspected after the fact.
//
// Observer is an observability.Observer that turns every event carrying a
// correlation_id into a Record and appends it to a Store. Two stores exist:
// an in-memory store for tests and short runs, and a SQLite store for
// durable traces.
package trace
