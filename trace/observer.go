package trace

import (
	"context"
	"log/slog"

	"github.com/tailored-agentic-units/flow/observability"
)

// Observer appends every correlated event to a Store. Store failures are
// logged and never reach the emitter.
type Observer struct {
	store  Store
	logger *slog.Logger
}

func NewObserver(store Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{store: store, logger: logger}
}

func (o *Observer) OnEvent(ctx context.Context, event observability.Event) {
	record, ok := FromEvent(event)
	if !ok {
		return
	}

	if err := o.store.Append(ctx, record); err != nil {
		o.logger.WarnContext(
			ctx,
			"trace append failed",
			slog.String("correlation_id", record.CorrelationID),
			slog.String("event", string(record.Event)),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Observer) Store() Store {
	return o.store
}
