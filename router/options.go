package router

import (
	"log/slog"

	"github.com/tailored-agentic-units/flow/observability"
)

// Option configures a Router after config-driven initialization.
type Option func(*Router)

// WithLogger overrides slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithObserver overrides the observer named in the config.
func WithObserver(o observability.Observer) Option {
	return func(r *Router) { r.observer = o }
}

// WithCollaborators initializes the router as Init would.
func WithCollaborators(c Collaborators) Option {
	return func(r *Router) { r.bind(c) }
}
