package trace

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/flow/config"
)

// Store persists trace records.
type Store interface {
	Append(ctx context.Context, r Record) error

	// ByCorrelation returns the records for id in append order.
	ByCorrelation(ctx context.Context, id string) ([]Record, error)

	// Correlations lists the most recently seen correlation ids, newest
	// first, up to limit.
	Correlations(ctx context.Context, limit int) ([]string, error)

	Close() error
}

// Open creates the store named by cfg.
func Open(cfg config.TraceConfig) (Store, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Store)
	}
}
