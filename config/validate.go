package config

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyNodeID     = errors.New("node id is empty")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrEmptyNodeType   = errors.New("node type is empty")
	ErrUnknownWire     = errors.New("wire references undeclared node")
)

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Router.QueueCapacity < 1 {
		return fmt.Errorf("router queue_capacity must be positive, got %d", c.Router.QueueCapacity)
	}
	switch c.Trace.Store {
	case "", "memory":
	case "sqlite":
		if c.Trace.Path == "" {
			return errors.New("trace path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown trace store %q", c.Trace.Store)
	}
	return c.Flow.Validate()
}

// Validate checks that node ids are unique and every wire names a declared node.
// Wires are not required to be acyclic.
func (c *FlowConfig) Validate() error {
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrEmptyNodeID)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		if n.Type == "" {
			return fmt.Errorf("node %s: %w", n.ID, ErrEmptyNodeType)
		}
		seen[n.ID] = true
	}

	var errs []error
	for _, n := range c.Nodes {
		for port, wires := range n.Wires {
			for _, dst := range wires {
				if !seen[dst] {
					errs = append(errs, fmt.Errorf("node %s port %d: %w: %s", n.ID, port, ErrUnknownWire, dst))
				}
			}
		}
	}
	return errors.Join(errs...)
}
