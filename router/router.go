package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/observability"
)

// Router owns one graph instance's routing table, send queue and pause state.
type Router struct {
	name        string
	resetRoutes bool

	table *Table
	queue *Queue

	collabMu    sync.RWMutex
	collab      Collaborators
	initialized atomic.Bool
	paused      atomic.Bool
	commitMu    sync.Mutex
	wake        chan struct{}
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}

	logger   *slog.Logger
	observer observability.Observer
	metrics  *Metrics
}

// Status is a point-in-time view of a router.
type Status struct {
	Name        string
	Running     bool
	Paused      bool
	QueueLength int
	Routes      int
	Sources     []string
	Head        *Delivery
	Metrics     MetricsSnapshot
	Queue       QueueStats
}

// New creates a Router from configuration. The observer named by the config
// is resolved from the observability registry; options are applied after.
// The router accepts sends once collaborators are bound with Init or
// WithCollaborators, and delivers once Start is called.
func New(cfg config.RouterConfig, opts ...Option) (*Router, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	r := &Router{
		name:        cfg.Name,
		resetRoutes: cfg.ResetRoutesOnInit,
		table:       NewTable(),
		queue:       NewQueue(cfg.QueueCapacity),
		collab:      Collaborators{}.withDefaults(),
		wake:        make(chan struct{}, 1),
		logger:      slog.Default(),
		observer:    observer,
		metrics:     NewMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Router) Name() string {
	return r.name
}

// Init binds collaborators, discards pending deliveries and clears the pause
// flag. Routing entries are kept unless the router was configured with
// ResetRoutesOnInit.
func (r *Router) Init(c Collaborators) {
	dropped := r.queue.Reset()
	r.paused.Store(false)

	cleared := 0
	if r.resetRoutes {
		cleared = r.table.Reset()
	}

	r.bind(c)

	r.emit(context.Background(), EventInit, observability.LevelInfo, "router.Init", map[string]any{
		KeyRouter:        r.name,
		"dropped":        dropped,
		"routes_cleared": cleared,
	})
}

func (r *Router) bind(c Collaborators) {
	r.collabMu.Lock()
	r.collab = c.withDefaults()
	r.collabMu.Unlock()
	r.initialized.Store(true)
}

func (r *Router) collaborators() Collaborators {
	r.collabMu.RLock()
	defer r.collabMu.RUnlock()
	return r.collab
}

// Register replaces the routing entry for source. outputs holds one list of
// destination ids per output port.
func (r *Router) Register(source string, outputs [][]string) {
	r.table.Register(source, outputs)

	r.emit(context.Background(), EventRegister, observability.LevelVerbose, "router.Register", map[string]any{
		KeyRouter: r.name,
		KeySource: source,
		"ports":   len(outputs),
	})
}

// Unregister removes the routing entry for source, if any.
func (r *Router) Unregister(source string) {
	if !r.table.Unregister(source) {
		return
	}

	r.emit(context.Background(), EventUnregister, observability.LevelVerbose, "router.Unregister", map[string]any{
		KeyRouter: r.name,
		KeySource: source,
	})
}

// Routes returns the routing entry for source.
func (r *Router) Routes(source string) ([][]string, bool) {
	return r.table.Lookup(source)
}

// Send expands outputs into deliveries for every wire of the source's
// routing entry and hands them to the dispatcher. outputs holds one Output
// per port; ports beyond the routing entry are ignored.
//
// Send is a no-op when every output is absent or the source has no routing
// entry. Otherwise it reports MetricSend to the source exactly once.
func (r *Router) Send(ctx context.Context, source Source, outputs ...messaging.Output) {
	if source == nil || messaging.AllAbsent(outputs) {
		return
	}

	sourceID := source.ID()
	if !r.initialized.Load() {
		r.logger.WarnContext(
			ctx,
			"send before init dropped",
			slog.String("router", r.name),
			slog.String("source_node", sourceID),
		)
		return
	}

	ports, exists := r.table.Lookup(sourceID)
	if !exists {
		return
	}

	collab := r.collaborators()

	var deliveries []*Delivery
	for port := 0; port < len(ports) && port < len(outputs); port++ {
		msgs := outputs[port].Messages()
		if len(msgs) == 0 {
			continue
		}
		for _, destination := range ports[port] {
			for _, msg := range msgs {
				if msg == nil {
					continue
				}
				if len(deliveries) > 0 {
					msg = collab.Clone(msg)
				}
				deliveries = append(deliveries, &Delivery{
					Source:      sourceID,
					SourcePort:  port,
					Destination: destination,
					Message:     msg,
				})
			}
		}
	}

	var correlationID string
	if len(deliveries) > 0 && deliveries[0].Message.HasID() {
		correlationID = deliveries[0].Message.ID
	} else {
		correlationID = collab.NewID()
	}
	for _, d := range deliveries {
		if !d.Message.HasID() {
			d.Message.ID = correlationID
		}
	}

	r.queue.Push(deliveries...)
	r.metrics.RecordSend(len(deliveries))

	source.Metric(MetricSend, map[string]any{KeyCorrelationID: correlationID})
	r.emit(ctx, EventSend, observability.LevelVerbose, "router.Send", map[string]any{
		KeyRouter:        r.name,
		KeyCorrelationID: correlationID,
		KeySource:        sourceID,
		KeyDeliveries:    len(deliveries),
	})

	r.kick()
}

// Pause stops delivery before the next queued element. Idempotent and safe
// to call from inside Receive or the breakpoint hook.
func (r *Router) Pause() {
	r.commitMu.Lock()
	swapped := r.paused.CompareAndSwap(false, true)
	r.commitMu.Unlock()
	if !swapped {
		return
	}

	r.emit(context.Background(), EventPause, observability.LevelInfo, "router.Pause", map[string]any{
		KeyRouter:      r.name,
		KeyQueueLength: r.queue.Len(),
	})
}

// Resume clears the pause flag and schedules a drain attempt. It never
// delivers inline.
func (r *Router) Resume() {
	if r.paused.CompareAndSwap(true, false) {
		r.emit(context.Background(), EventResume, observability.LevelInfo, "router.Resume", map[string]any{
			KeyRouter:      r.name,
			KeyQueueLength: r.queue.Len(),
		})
	}
	r.kick()
}

func (r *Router) Paused() bool {
	return r.paused.Load()
}

// QueueLength returns the number of pending deliveries.
func (r *Router) QueueLength() int {
	return r.queue.Len()
}

// Pending returns copies of all pending deliveries in dispatch order.
func (r *Router) Pending() []Delivery {
	return r.queue.Snapshot()
}

func (r *Router) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}

func (r *Router) Status() Status {
	sources := r.table.Sources()
	status := Status{
		Name:        r.name,
		Running:     r.running(),
		Paused:      r.paused.Load(),
		QueueLength: r.queue.Len(),
		Routes:      len(sources),
		Sources:     sources,
		Metrics:     r.metrics.Snapshot(),
		Queue:       r.queue.Stats(),
	}
	if head, ok := r.queue.Peek(); ok {
		status.Head = &head
	}
	return status
}

// WaitIdle blocks until the queue is empty and no delivery is in progress.
// It returns ErrPaused if the router is paused with deliveries pending.
func (r *Router) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		pending, inflight := r.queue.Outstanding()
		if pending == 0 && inflight == 0 {
			return nil
		}
		if inflight == 0 && r.paused.Load() {
			return ErrPaused
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Router) emit(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	r.observer.OnEvent(ctx, observability.NewEvent(eventType, level, source, data))
}
