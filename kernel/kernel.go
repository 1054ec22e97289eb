// Package kernel assembles a runnable flow from configuration: the router,
// the node registry and deployed flow, breakpoints, the debug service, the
// event stream and the trace store.
//
// The kernel initializes from configuration via New. Functional options
// replace any config-created subsystem, which is how tests inject loggers,
// observers and trace stores.
//
//	k, err := kernel.New(cfg)
//	result, err := k.Run(ctx, "inject", msg)
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/debugger"
	"github.com/tailored-agentic-units/flow/graph"
	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/observability"
	"github.com/tailored-agentic-units/flow/router"
	"github.com/tailored-agentic-units/flow/trace"
)

// Result holds the outcome of a Run invocation.
type Result struct {
	CorrelationID string
	Metrics       router.MetricsSnapshot
	Trace         []trace.Record
	Nodes         map[string]map[string]int64
}

// Option configures a Kernel before its subsystems are assembled.
type Option func(*Kernel)

func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) { k.logger = logger }
}

// WithObserver overrides the observer named by the router config. Trace and
// stream observers are still attached.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithTraceStore overrides the config-selected trace store.
func WithTraceStore(s trace.Store) Option {
	return func(k *Kernel) { k.trace = s }
}

// WithFactory overrides graph.DefaultFactory.
func WithFactory(f graph.Factory) Option {
	return func(k *Kernel) { k.factory = f }
}

// Kernel is one running flow.
type Kernel struct {
	cfg      config.Config
	logger   *slog.Logger
	observer observability.Observer
	factory  graph.Factory

	router      *router.Router
	registry    *graph.Registry
	breakpoints *debugger.Breakpoints
	stream      *debugger.Stream
	trace       trace.Store

	mu         sync.Mutex
	deployment *graph.Deployment
	stopped    bool
}

// New creates a Kernel from configuration. The flow is not deployed until
// Start.
func New(cfg *config.Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{cfg: *cfg}
	for _, opt := range opts {
		opt(k)
	}

	if k.logger == nil {
		k.logger = slog.Default()
	}

	if k.observer == nil {
		observer, err := observability.GetObserver(cfg.Router.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		k.observer = observer
	}

	var opened trace.Store
	if k.trace == nil && cfg.Trace.Store != "" {
		store, err := trace.Open(cfg.Trace)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace store: %w", err)
		}
		k.trace = store
		opened = store
	}

	if k.factory == nil {
		k.factory = graph.DefaultFactory(k.logger)
	}

	k.stream = debugger.NewStream(cfg.Debugger.StreamBuffer, debugger.WithLogger(k.logger))

	observers := []observability.Observer{k.observer, k.stream}
	if k.trace != nil {
		observers = append(observers, trace.NewObserver(k.trace, k.logger))
	}
	observer := observability.NewMultiObserver(observers...)

	k.breakpoints = debugger.NewBreakpoints(observer)
	k.registry = graph.NewRegistry()

	r, err := router.New(cfg.Router, router.WithLogger(k.logger), router.WithObserver(observer))
	if err != nil {
		err = fmt.Errorf("failed to create router: %w", err)
		if opened != nil {
			err = errors.Join(err, opened.Close())
		}
		return nil, err
	}
	r.Init(router.Collaborators{
		Graph:       k.registry,
		Breakpoints: k.breakpoints,
	})
	k.router = r

	return k, nil
}

func (k *Kernel) Router() *router.Router             { return k.router }
func (k *Kernel) Registry() *graph.Registry          { return k.registry }
func (k *Kernel) Breakpoints() *debugger.Breakpoints { return k.breakpoints }
func (k *Kernel) Stream() *debugger.Stream           { return k.stream }
func (k *Kernel) Trace() trace.Store                 { return k.trace }
func (k *Kernel) Observer() observability.Observer   { return k.observer }

// Deployment returns the deployed flow, or nil before Start and after Stop.
func (k *Kernel) Deployment() *graph.Deployment {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.deployment
}

// Start deploys the flow and starts the dispatcher.
func (k *Kernel) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.deployment != nil || k.stopped {
		return ErrAlreadyStarted
	}

	deployment, err := graph.Deploy(ctx, k.cfg.Flow, k.registry, k.router, k.factory)
	if err != nil {
		return err
	}

	if err := k.router.Start(ctx); err != nil {
		return errors.Join(err, deployment.Teardown())
	}
	k.deployment = deployment

	k.observer.OnEvent(ctx, observability.NewEvent(
		EventStart,
		observability.LevelInfo,
		"kernel.Start",
		map[string]any{
			"flow":  deployment.Name(),
			"nodes": len(deployment.Nodes()),
		},
	))
	return nil
}

// Inject emits msg on port 0 as if node from had produced it.
func (k *Kernel) Inject(ctx context.Context, from string, msg *messaging.Message) error {
	deployment := k.Deployment()
	if deployment == nil {
		return ErrNotStarted
	}

	node, err := deployment.Node(from)
	if err != nil {
		return err
	}

	node.Emit(ctx, messaging.Single(msg))

	k.observer.OnEvent(ctx, observability.NewEvent(
		EventInject,
		observability.LevelVerbose,
		"kernel.Inject",
		map[string]any{
			"node":                  from,
			router.KeyCorrelationID: msg.ID,
		},
	))
	return nil
}

// Run starts the flow if needed, injects msg from node from, waits for the
// router to drain and reports what happened. A breakpoint hit surfaces as
// router.ErrPaused.
func (k *Kernel) Run(ctx context.Context, from string, msg *messaging.Message) (*Result, error) {
	deployment := k.Deployment()
	if deployment == nil {
		if err := k.Start(ctx); err != nil {
			return nil, err
		}
		deployment = k.Deployment()
	}

	if err := k.Inject(ctx, from, msg); err != nil {
		return nil, err
	}

	result := &Result{CorrelationID: msg.ID}
	waitErr := k.router.WaitIdle(ctx)

	result.Metrics = k.router.Metrics()
	result.Nodes = make(map[string]map[string]int64)
	for _, id := range deployment.Nodes() {
		if node, err := deployment.Node(id); err == nil {
			result.Nodes[id] = node.Stats()
		}
	}

	if k.trace != nil && result.CorrelationID != "" {
		records, err := k.trace.ByCorrelation(ctx, result.CorrelationID)
		if err != nil {
			return result, fmt.Errorf("failed to read trace: %w", err)
		}
		result.Trace = records
	}

	return result, waitErr
}

// Handler returns the debug service and the event stream on one mux.
func (k *Kernel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(debugger.NewService(k.router, k.breakpoints, debugger.WithLogger(k.logger)).Handler())
	mux.Handle(k.cfg.Debugger.StreamPath, k.stream)
	return mux
}

// Serve starts the flow and the debug listener and blocks until ctx is
// cancelled or the listener fails.
func (k *Kernel) Serve(ctx context.Context) error {
	if err := k.Start(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              k.cfg.Debugger.Addr,
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		k.logger.Info("debug listener started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("debug listener failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		k.stream.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), k.cfg.Debugger.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	return errors.Join(err, k.Stop(k.cfg.Debugger.ShutdownTimeout))
}

// Stop halts the dispatcher, tears the flow down and closes the trace store.
func (k *Kernel) Stop(timeout time.Duration) error {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return nil
	}
	k.stopped = true
	deployment := k.deployment
	k.deployment = nil
	k.mu.Unlock()

	var errs []error

	if err := k.router.Shutdown(timeout); err != nil && !errors.Is(err, router.ErrNotRunning) {
		errs = append(errs, err)
	}

	if deployment != nil {
		errs = append(errs, deployment.Teardown())
	}

	if k.trace != nil {
		errs = append(errs, k.trace.Close())
	}

	k.observer.OnEvent(context.Background(), observability.NewEvent(
		EventStop,
		observability.LevelInfo,
		"kernel.Stop",
		map[string]any{"router": k.router.Name()},
	))

	return errors.Join(errs...)
}
