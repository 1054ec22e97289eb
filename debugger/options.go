package debugger

import (
	"log/slog"

	"github.com/tailored-agentic-units/flow/observability"
)

// Option configures a Service or a Stream.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer observability.Observer
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithObserver(observer observability.Observer) Option {
	return func(o *options) { o.observer = observer }
}
