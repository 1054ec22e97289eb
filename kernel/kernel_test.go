package kernel_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/debugger"
	"github.com/tailored-agentic-units/flow/graph"
	"github.com/tailored-agentic-units/flow/kernel"
	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/observability"
	"github.com/tailored-agentic-units/flow/router"
	"github.com/tailored-agentic-units/flow/trace"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Router.Observer = "noop"
	cfg.Flow = config.FlowConfig{
		Name: "test",
		Nodes: []config.NodeConfig{
			{ID: "in", Type: "passthrough", Wires: [][]string{{"tag"}}},
			{ID: "tag", Type: "tag", Settings: map[string]any{"seen": true}, Wires: [][]string{{"out"}}},
			{ID: "out", Type: "sink"},
		},
	}
	return &cfg
}

func newKernel(t *testing.T, cfg *config.Config, opts ...kernel.Option) *kernel.Kernel {
	t.Helper()

	opts = append([]kernel.Option{kernel.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	k, err := kernel.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = k.Stop(time.Second) })
	return k
}

func TestNew_UnknownObserver(t *testing.T) {
	cfg := testConfig()
	cfg.Router.Observer = "missing"

	if _, err := kernel.New(cfg); err == nil {
		t.Error("New() error = nil, want unknown observer error")
	}
}

func TestNew_UnknownTraceStore(t *testing.T) {
	cfg := testConfig()
	cfg.Trace.Store = "postgres"

	_, err := kernel.New(cfg)
	if !errors.Is(err, trace.ErrUnknownStore) {
		t.Errorf("New() error = %v, want ErrUnknownStore", err)
	}
}

func TestNew_ClosesTraceStoreOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	cfg := testConfig()
	cfg.Router.Observer = "missing"
	cfg.Trace = config.TraceConfig{Store: "sqlite", Path: path}

	_, err := kernel.New(cfg, kernel.WithObserver(observability.NoOpObserver{}))
	if err == nil {
		t.Fatal("New() error = nil, want router error")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("trace database not created: %v", err)
	}
	if _, err := os.Stat(path + "-wal"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("write-ahead log still present after failed New(), store left open (stat error = %v)", err)
	}
}

func TestRun(t *testing.T) {
	store := trace.NewMemoryStore()
	k := newKernel(t, testConfig(), kernel.WithTraceStore(store))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg := messaging.NewMessage().Field("value", 1).MustBuild()
	result, err := k.Run(ctx, "in", msg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.CorrelationID == "" {
		t.Error("CorrelationID is empty")
	}
	if result.Metrics.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", result.Metrics.Delivered)
	}
	if result.Metrics.Sends != 2 {
		t.Errorf("Sends = %d, want 2", result.Metrics.Sends)
	}
	if got := result.Nodes["out"]["received"]; got != 1 {
		t.Errorf("out received = %d, want 1", got)
	}
	if got := result.Nodes["tag"][router.MetricSend]; got != 1 {
		t.Errorf("tag send metrics = %d, want 1", got)
	}

	if seen, _ := msg.Get("seen"); seen != true {
		t.Errorf("seen = %v, want true", seen)
	}

	var sends, delivers int
	for _, r := range result.Trace {
		switch r.Event {
		case router.EventSend:
			sends++
		case router.EventDeliver:
			delivers++
		}
	}
	if sends != 2 || delivers != 2 {
		t.Errorf("trace sends = %d delivers = %d, want 2 and 2", sends, delivers)
	}
}

func TestRun_UnknownNode(t *testing.T) {
	k := newKernel(t, testConfig())

	_, err := k.Run(context.Background(), "nowhere", messaging.NewMessage().MustBuild())
	if !errors.Is(err, graph.ErrNodeNotFound) {
		t.Errorf("Run() error = %v, want ErrNodeNotFound", err)
	}
}

func TestRun_StopsAtBreakpoint(t *testing.T) {
	k := newKernel(t, testConfig())

	if _, err := k.Breakpoints().Set(debugger.Breakpoint{Destination: "out", Port: debugger.AnyPort}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := k.Run(ctx, "in", messaging.NewMessage().MustBuild())
	if !errors.Is(err, router.ErrPaused) {
		t.Fatalf("Run() error = %v, want ErrPaused", err)
	}
	if result.Metrics.Intercepted != 1 {
		t.Errorf("Intercepted = %d, want 1", result.Metrics.Intercepted)
	}
	if got := result.Nodes["out"]["received"]; got != 0 {
		t.Errorf("out received = %d, want 0 before resume", got)
	}

	k.Router().Resume()
	if err := k.Router().WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}
	out, _ := k.Deployment().Node("out")
	if got := out.Stats()["received"]; got != 1 {
		t.Errorf("out received = %d, want 1 after resume", got)
	}
}

func TestStart_Twice(t *testing.T) {
	k := newKernel(t, testConfig())

	if err := k.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := k.Start(context.Background()); !errors.Is(err, kernel.ErrAlreadyStarted) {
		t.Errorf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestInject_NotStarted(t *testing.T) {
	k := newKernel(t, testConfig())

	err := k.Inject(context.Background(), "in", messaging.NewMessage().MustBuild())
	if !errors.Is(err, kernel.ErrNotStarted) {
		t.Errorf("Inject() error = %v, want ErrNotStarted", err)
	}
}

func TestHandler(t *testing.T) {
	var (
		mu     sync.Mutex
		events []observability.EventType
	)
	observer := observability.ObserverFunc(func(ctx context.Context, e observability.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	})

	k := newKernel(t, testConfig(), kernel.WithObserver(observer))
	if err := k.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	server := httptest.NewServer(k.Handler())
	defer server.Close()

	client := debugger.NewClient(server.Client(), server.URL)
	if err := client.Pause(context.Background()); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status["paused"] != true {
		t.Errorf("paused = %v, want true", status["paused"])
	}
	if status["routes"] != float64(2) {
		t.Errorf("routes = %v, want 2", status["routes"])
	}

	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, e := range events {
		if e == router.EventPause {
			found = true
		}
	}
	if !found {
		t.Errorf("events = %v, want %s", events, router.EventPause)
	}
}

func TestStop_Idempotent(t *testing.T) {
	k := newKernel(t, testConfig(), kernel.WithTraceStore(trace.NewMemoryStore()))

	if err := k.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := k.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := k.Stop(time.Second); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if k.Registry().Len() != 0 {
		t.Errorf("Registry().Len() = %d, want 0", k.Registry().Len())
	}
}

func TestStop_Concurrent(t *testing.T) {
	var (
		mu    sync.Mutex
		stops int
	)
	observer := observability.ObserverFunc(func(ctx context.Context, e observability.Event) {
		if e.Type == kernel.EventStop {
			mu.Lock()
			stops++
			mu.Unlock()
		}
	})
	k := newKernel(t, testConfig(), kernel.WithObserver(observer))

	if err := k.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = k.Deployment()
			errs <- k.Stop(time.Second)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}
	if k.Deployment() != nil {
		t.Error("Deployment() != nil after Stop()")
	}
	if err := k.Start(context.Background()); !errors.Is(err, kernel.ErrAlreadyStarted) {
		t.Errorf("Start() after Stop() error = %v, want ErrAlreadyStarted", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if stops != 1 {
		t.Errorf("kernel.stop events = %d, want 1", stops)
	}
}
