// Package config provides configuration structures for the router, the debug
// control plane, the delivery trace store and flow definitions.
//
// Every configuration type has a Default constructor and a Merge method, so a
// loaded file can be layered over defaults:
//
//	cfg, err := config.Load("flow.yaml")
//
// Merge semantics by field type:
//
//   - Strings: Merge if source is non-empty
//   - Integers: Merge if source is greater than zero
//   - Booleans with false defaults: Merge if source is true
//   - Slices: Replace if source is non-empty
//   - Nested configs: Recursive merge
//
// Files are YAML. References of the form ${VAR} are expanded from the
// environment before parsing:
//
//	router:
//	  name: telemetry
//	  observer: slog
//	  queue_capacity: 256
//	debugger:
//	  addr: ${FLOW_DEBUG_ADDR}
//	flow:
//	  nodes:
//	    - id: ingest
//	      type: passthrough
//	      wires: [[store, audit]]
//	    - id: store
//	      type: sink
//	    - id: audit
//	      type: sink
//
// Configuration only exists during initialization; constructors in the
// router, debugger and trace packages turn it into runtime values.
package config
