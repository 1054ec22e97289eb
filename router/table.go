package router

import (
	"maps"
	"slices"
	"sync"
)

// Table maps a source id to its per-port destination lists.
// Safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	routes map[string][][]string
}

func NewTable() *Table {
	return &Table{
		routes: make(map[string][][]string),
	}
}

// Register replaces any entry for source with a private copy of outputs.
func (t *Table) Register(source string, outputs [][]string) {
	entry := make([][]string, len(outputs))
	for i, wires := range outputs {
		entry[i] = slices.Clone(wires)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[source] = entry
}

// Unregister removes the entry for source and reports whether one existed.
func (t *Table) Unregister(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.routes[source]
	delete(t.routes, source)
	return exists
}

// Lookup returns the entry for source. The returned slices must not be
// modified; Register never mutates an entry in place.
func (t *Table) Lookup(source string) ([][]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	outputs, exists := t.routes[source]
	return outputs, exists
}

// Sources lists registered source ids in sorted order.
func (t *Table) Sources() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Sorted(maps.Keys(t.routes))
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Reset removes every entry and returns how many were removed.
func (t *Table) Reset() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.routes)
	clear(t.routes)
	return n
}
