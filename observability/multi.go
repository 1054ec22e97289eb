package observability

import "context"

// MultiObserver fans out events to multiple observers in registration order.
// The observer list is fixed at construction.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers. Nested MultiObservers are flattened.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		switch o := obs.(type) {
		case nil:
		case *MultiObserver:
			filtered = append(filtered, o.observers...)
		default:
			filtered = append(filtered, o)
		}
	}
	return &MultiObserver{observers: filtered}
}

// Len reports how many observers receive events.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}
