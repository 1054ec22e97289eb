package graph

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/flow/router"
)

// Registry maps node ids to live nodes. It implements router.Graph and is
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]router.Node
}

func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]router.Node),
	}
}

// Add registers node under id.
func (r *Registry) Add(id string, node router.Node) error {
	if id == "" {
		return ErrEmptyNodeID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, id)
	}

	r.nodes[id] = node
	return nil
}

// Replace swaps the node registered under id. Deliveries already queued for
// id reach the new node, since the router resolves at delivery time.
func (r *Registry) Replace(id string, node router.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	r.nodes[id] = node
	return nil
}

func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	delete(r.nodes, id)
	return nil
}

// Resolve implements router.Graph.
func (r *Registry) Resolve(id string) (router.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, exists := r.nodes[id]
	return node, exists
}

// List returns registered node ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.nodes))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
