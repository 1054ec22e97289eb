package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tailored-agentic-units/flow/config"
)

// Router is what a deployment needs from the router: routing registration
// and the send path nodes emit through.
type Router interface {
	Sender
	Register(source string, outputs [][]string)
	Unregister(source string)
}

// Deployment is a flow whose nodes are in a Registry and whose wires are
// registered with a Router.
type Deployment struct {
	name     string
	ids      []string
	nodes    map[string]*FunctionNode
	registry *Registry
	router   Router
}

// Deploy validates flow, builds every node with factory, adds them to
// registry and registers their wires with r. Nodes without wires are
// terminal and get no routing entry. On failure, everything already
// deployed is torn down.
func Deploy(ctx context.Context, flow config.FlowConfig, registry *Registry, r Router, factory Factory) (*Deployment, error) {
	if err := flow.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flow %s: %w", flow.Name, err)
	}

	d := &Deployment{
		name:     flow.Name,
		nodes:    make(map[string]*FunctionNode, len(flow.Nodes)),
		registry: registry,
		router:   r,
	}

	for _, cfg := range flow.Nodes {
		node, err := factory(cfg, r)
		if err != nil {
			return nil, errors.Join(err, d.Teardown())
		}
		if err := registry.Add(cfg.ID, node); err != nil {
			return nil, errors.Join(err, d.Teardown())
		}

		d.ids = append(d.ids, cfg.ID)
		d.nodes[cfg.ID] = node

		if len(cfg.Wires) > 0 {
			r.Register(cfg.ID, cfg.Wires)
		}
	}

	slog.DebugContext(
		ctx,
		"flow deployed",
		slog.String("flow", flow.Name),
		slog.Int("nodes", len(d.ids)),
	)

	return d, nil
}

func (d *Deployment) Name() string {
	return d.name
}

// Node returns the deployed node with the given id.
func (d *Deployment) Node(id string) (*FunctionNode, error) {
	node, exists := d.nodes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return node, nil
}

// Nodes returns deployed node ids in declaration order.
func (d *Deployment) Nodes() []string {
	return slices.Clone(d.ids)
}

// Teardown unregisters routing entries and removes nodes in reverse
// declaration order. Deliveries still queued for removed nodes are dropped by
// the router.
func (d *Deployment) Teardown() error {
	var errs []error
	for _, id := range slices.Backward(d.ids) {
		d.router.Unregister(id)
		if err := d.registry.Remove(id); err != nil {
			errs = append(errs, err)
		}
	}
	d.ids = nil
	clear(d.nodes)
	return errors.Join(errs...)
}
