package debugger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/flow/observability"
	"github.com/tailored-agentic-units/flow/router"
)

// AnyPort matches every source port.
const AnyPort = -1

// Breakpoint is a rule matched against pending deliveries. Empty Source or
// Destination match any node.
type Breakpoint struct {
	ID          string `json:"id"`
	Source      string `json:"source,omitempty"`
	Port        int    `json:"port"`
	Destination string `json:"destination,omitempty"`
	Enabled     bool   `json:"enabled"`
	Hits        int64  `json:"hits"`
}

// Matches reports whether the rule applies to d, ignoring Enabled.
func (b Breakpoint) Matches(d router.Delivery) bool {
	if b.Source != "" && b.Source != d.Source {
		return false
	}
	if b.Port != AnyPort && b.Port != d.SourcePort {
		return false
	}
	if b.Destination != "" && b.Destination != d.Destination {
		return false
	}
	return true
}

// Hit records the delivery that most recently stopped at a breakpoint.
type Hit struct {
	BreakpointID string
	Delivery     router.Delivery
	At           time.Time
}

// Breakpoints is an ordered rule set. It implements router.BreakpointHook;
// the first enabled matching rule wins.
type Breakpoints struct {
	mu       sync.RWMutex
	rules    []*Breakpoint
	last     *Hit
	observer observability.Observer
}

func NewBreakpoints(observer observability.Observer) *Breakpoints {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Breakpoints{observer: observer}
}

// Set adds an enabled rule and returns its id. A preset ID is replaced.
func (b *Breakpoints) Set(bp Breakpoint) (string, error) {
	if bp.Port < AnyPort {
		return "", fmt.Errorf("%w: %d", ErrInvalidPort, bp.Port)
	}

	bp.ID = uuid.NewString()
	bp.Enabled = true
	bp.Hits = 0

	b.mu.Lock()
	b.rules = append(b.rules, &bp)
	b.mu.Unlock()

	b.observer.OnEvent(context.Background(), observability.NewEvent(
		EventBreakpointSet,
		observability.LevelInfo,
		"debugger.Breakpoints",
		map[string]any{
			"breakpoint_id": bp.ID,
			"source":        bp.Source,
			"port":          bp.Port,
			"destination":   bp.Destination,
		},
	))

	return bp.ID, nil
}

func (b *Breakpoints) Clear(id string) error {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBreakpointNotFound, id)
	}
	b.rules = slices.Delete(b.rules, i, i+1)
	b.mu.Unlock()

	b.observer.OnEvent(context.Background(), observability.NewEvent(
		EventBreakpointCleared,
		observability.LevelInfo,
		"debugger.Breakpoints",
		map[string]any{"breakpoint_id": id},
	))
	return nil
}

// ClearAll removes every rule and returns how many were removed.
func (b *Breakpoints) ClearAll() int {
	b.mu.Lock()
	n := len(b.rules)
	b.rules = nil
	b.mu.Unlock()

	b.observer.OnEvent(context.Background(), observability.NewEvent(
		EventBreakpointCleared,
		observability.LevelInfo,
		"debugger.Breakpoints",
		map[string]any{"count": n},
	))
	return n
}

// Enable toggles a rule without removing it.
func (b *Breakpoints) Enable(id string, enabled bool) error {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBreakpointNotFound, id)
	}
	b.rules[i].Enabled = enabled
	b.mu.Unlock()

	b.observer.OnEvent(context.Background(), observability.NewEvent(
		EventBreakpointToggled,
		observability.LevelInfo,
		"debugger.Breakpoints",
		map[string]any{"breakpoint_id": id, "enabled": enabled},
	))
	return nil
}

// List returns copies of all rules in insertion order.
func (b *Breakpoints) List() []Breakpoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Breakpoint, len(b.rules))
	for i, rule := range b.rules {
		out[i] = *rule
	}
	return out
}

// LastHit returns the most recent interception.
func (b *Breakpoints) LastHit() (Hit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.last == nil {
		return Hit{}, false
	}
	return *b.last, true
}

// ShouldIntercept implements router.BreakpointHook.
func (b *Breakpoints) ShouldIntercept(d router.Delivery) bool {
	b.mu.Lock()
	var hit *Breakpoint
	for _, rule := range b.rules {
		if rule.Enabled && rule.Matches(d) {
			hit = rule
			break
		}
	}
	if hit == nil {
		b.mu.Unlock()
		return false
	}
	hit.Hits++
	b.last = &Hit{BreakpointID: hit.ID, Delivery: d, At: time.Now()}
	id := hit.ID
	b.mu.Unlock()

	b.observer.OnEvent(context.Background(), observability.NewEvent(
		EventBreakpointHit,
		observability.LevelInfo,
		"debugger.Breakpoints",
		map[string]any{
			"breakpoint_id":         id,
			router.KeyCorrelationID: d.CorrelationID(),
			router.KeySource:        d.Source,
			router.KeyPort:          d.SourcePort,
			router.KeyDestination:   d.Destination,
		},
	))
	return true
}

func (b *Breakpoints) index(id string) int {
	return slices.IndexFunc(b.rules, func(rule *Breakpoint) bool {
		return rule.ID == id
	})
}
