package router_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/messaging"
	"github.com/tailored-agentic-units/flow/observability"
	"github.com/tailored-agentic-units/flow/router"
)

type recordingNode struct {
	mu       sync.Mutex
	id       string
	received []*messaging.Message
	onRecv   func(msg *messaging.Message)
}

func (n *recordingNode) Receive(ctx context.Context, msg *messaging.Message) {
	n.mu.Lock()
	n.received = append(n.received, msg)
	hook := n.onRecv
	n.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
}

func (n *recordingNode) Received() []*messaging.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*messaging.Message(nil), n.received...)
}

type metricCall struct {
	Event   string
	Details map[string]any
}

type fakeSource struct {
	mu      sync.Mutex
	id      string
	metrics []metricCall
}

func (s *fakeSource) ID() string { return s.id }

func (s *fakeSource) Metric(event string, details map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, metricCall{Event: event, Details: details})
}

func (s *fakeSource) Metrics() []metricCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]metricCall(nil), s.metrics...)
}

type eventLog struct {
	mu     sync.Mutex
	events []observability.Event
}

func (l *eventLog) OnEvent(ctx context.Context, event observability.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) Types() []observability.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]observability.EventType, len(l.events))
	for i, e := range l.events {
		types[i] = e.Type
	}
	return types
}

func graphOf(nodes ...*recordingNode) router.Graph {
	index := make(map[string]router.Node, len(nodes))
	for _, n := range nodes {
		index[n.id] = n
	}
	return router.GraphFunc(func(id string) (router.Node, bool) {
		node, ok := index[id]
		return node, ok
	})
}

func newRouter(t *testing.T, collab router.Collaborators, opts ...router.Option) (*router.Router, *eventLog) {
	t.Helper()

	events := &eventLog{}
	cfg := config.DefaultRouterConfig()
	cfg.Name = t.Name()
	cfg.Observer = "noop"

	opts = append([]router.Option{router.WithObserver(events)}, opts...)
	r, err := router.New(cfg, opts...)
	require.NoError(t, err)
	r.Init(collab)
	return r, events
}

func start(t *testing.T, r *router.Router) {
	t.Helper()
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { _ = r.Shutdown(time.Second) })
}

func waitIdle(t *testing.T, r *router.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.WaitIdle(ctx))
}

func msg(t *testing.T, fields map[string]any) *messaging.Message {
	t.Helper()
	m, err := messaging.FromMap(fields)
	require.NoError(t, err)
	return m
}

func TestNew_UnknownObserver(t *testing.T) {
	cfg := config.DefaultRouterConfig()
	cfg.Observer = "missing"

	_, err := router.New(cfg)
	assert.Error(t, err)
}

func TestSend_SingleDestination(t *testing.T) {
	b := &recordingNode{id: "B"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})
	start(t, r)

	a := &fakeSource{id: "A"}
	r.Send(context.Background(), a, messaging.Single(msg(t, map[string]any{"value": 1})))
	waitIdle(t, r)

	received := b.Received()
	require.Len(t, received, 1)
	value, ok := received[0].Get("value")
	require.True(t, ok)
	assert.Equal(t, float64(1), value)
	assert.NotEmpty(t, received[0].ID)

	metrics := a.Metrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, router.MetricSend, metrics[0].Event)
	assert.Equal(t, received[0].ID, metrics[0].Details[router.KeyCorrelationID])
}

func TestSend_FanOutCopies(t *testing.T) {
	b := &recordingNode{id: "B"}
	c := &recordingNode{id: "C"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b, c)})
	r.Register("A", [][]string{{"B", "C"}})
	start(t, r)

	original := msg(t, map[string]any{"value": "x"})
	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(original))
	waitIdle(t, r)

	require.Len(t, b.Received(), 1)
	require.Len(t, c.Received(), 1)
	gotB, gotC := b.Received()[0], c.Received()[0]

	assert.Same(t, original, gotB)
	assert.NotSame(t, original, gotC)
	assert.True(t, gotB.Equal(gotC))
	assert.Equal(t, gotB.ID, gotC.ID)

	require.NoError(t, gotC.Set("value", "changed"))
	value, _ := gotB.Get("value")
	assert.Equal(t, "x", value)
}

func TestSend_CorrelationSharing(t *testing.T) {
	nodes := []*recordingNode{{id: "B"}, {id: "C"}, {id: "D"}}
	r, _ := newRouter(t, router.Collaborators{
		Graph: graphOf(nodes...),
		NewID: func() string { return "fresh-id" },
	})
	r.Register("A", [][]string{{"B"}, {"C", "D"}})

	r.Send(context.Background(), &fakeSource{id: "A"},
		messaging.Single(msg(t, map[string]any{"port": 0})),
		messaging.Sequence(msg(t, map[string]any{"n": 1}), nil, msg(t, map[string]any{"n": 2})),
	)

	pending := r.Pending()
	require.Len(t, pending, 5)
	for _, d := range pending {
		assert.Equal(t, "fresh-id", d.CorrelationID())
	}

	got := make([]string, len(pending))
	for i, d := range pending {
		got[i] = d.Destination
	}
	if diff := cmp.Diff([]string{"B", "C", "C", "D", "D"}, got); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_CopiesAcrossPortsAndWires(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{})
	r.Register("A", [][]string{{"B"}, {"C", "D"}})

	m0 := msg(t, map[string]any{"n": "zero"})
	m1 := msg(t, map[string]any{"n": "one"})
	m2 := msg(t, map[string]any{"n": "two"})
	r.Send(context.Background(), &fakeSource{id: "A"},
		messaging.Single(m0),
		messaging.Sequence(m1, m2),
	)

	pending := r.Pending()
	require.Len(t, pending, 5)
	assert.Same(t, m0, pending[0].Message)

	sources := []*messaging.Message{m0, m1, m2, m1, m2}
	for i := 1; i < len(pending); i++ {
		got := pending[i].Message
		for _, src := range []*messaging.Message{m0, m1, m2} {
			assert.NotSame(t, src, got, "delivery %d aliases a sent message", i)
		}
		assert.True(t, sources[i].Equal(got), "delivery %d differs from its source", i)
		for j := 0; j < i; j++ {
			assert.NotSame(t, pending[j].Message, got, "deliveries %d and %d alias", j, i)
		}
	}

	require.NoError(t, pending[1].Message.Set("n", "changed"))
	want := []string{"zero", "changed", "two", "one", "two"}
	for i, d := range pending {
		v, _ := d.Message.Get("n")
		assert.Equal(t, want[i], v, "delivery %d", i)
	}
	v, _ := m1.Get("n")
	assert.Equal(t, "one", v)
}

func TestSend_PreservesExistingID(t *testing.T) {
	b := &recordingNode{id: "B"}
	c := &recordingNode{id: "C"}
	r, _ := newRouter(t, router.Collaborators{
		Graph: graphOf(b, c),
		NewID: func() string { return "unused" },
	})
	r.Register("A", [][]string{{"B", "C"}})

	a := &fakeSource{id: "A"}
	forwarded := messaging.NewMessage().ID("upstream").MustBuild()
	r.Send(context.Background(), a, messaging.Single(forwarded))

	for _, d := range r.Pending() {
		assert.Equal(t, "upstream", d.CorrelationID())
	}
	assert.Equal(t, "upstream", a.Metrics()[0].Details[router.KeyCorrelationID])
}

func TestSend_MixedIDsNotOverwritten(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{NewID: func() string { return "fresh" }})
	r.Register("A", [][]string{{"B"}})

	first := messaging.NewMessage().MustBuild()
	second := messaging.NewMessage().ID("own").MustBuild()
	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Sequence(first, second))

	pending := r.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "fresh", pending[0].CorrelationID())
	assert.Equal(t, "own", pending[1].CorrelationID())
}

func TestSend_ExtraPortsIgnored(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{})
	r.Register("A", [][]string{{"B"}})

	r.Send(context.Background(), &fakeSource{id: "A"},
		messaging.Single(messaging.NewMessage().MustBuild()),
		messaging.Single(messaging.NewMessage().MustBuild()),
	)

	assert.Equal(t, 1, r.QueueLength())
}

func TestSend_DeadEnds(t *testing.T) {
	tests := []struct {
		name    string
		routes  map[string][][]string
		outputs []messaging.Output
	}{
		{
			name:    "no routing",
			outputs: []messaging.Output{messaging.Single(messaging.NewMessage().MustBuild())},
		},
		{
			name:    "nil payload",
			routes:  map[string][][]string{"A": {{"B"}}},
			outputs: []messaging.Output{messaging.Single(nil)},
		},
		{
			name:   "no outputs",
			routes: map[string][][]string{"A": {{"B"}}},
		},
		{
			name:    "all absent",
			routes:  map[string][][]string{"A": {{"B"}}},
			outputs: []messaging.Output{messaging.Absent(), messaging.Absent()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, events := newRouter(t, router.Collaborators{})
			for source, outputs := range tt.routes {
				r.Register(source, outputs)
			}
			before := len(events.Types())

			a := &fakeSource{id: "A"}
			r.Send(context.Background(), a, tt.outputs...)

			assert.Zero(t, r.QueueLength())
			assert.Empty(t, a.Metrics())
			assert.Len(t, events.Types(), before)
			assert.Zero(t, r.Metrics().Sends)
		})
	}
}

func TestSend_MetricWithoutDeliveries(t *testing.T) {
	tests := []struct {
		name    string
		routes  [][]string
		outputs []messaging.Output
	}{
		{
			name:    "empty sequence",
			routes:  [][]string{{"B"}},
			outputs: []messaging.Output{messaging.Sequence()},
		},
		{
			name:    "port without wires",
			routes:  [][]string{{}},
			outputs: []messaging.Output{messaging.Single(messaging.NewMessage().MustBuild())},
		},
		{
			name:    "sequence of nils",
			routes:  [][]string{{"B"}},
			outputs: []messaging.Output{messaging.Sequence(nil, nil)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, events := newRouter(t, router.Collaborators{NewID: func() string { return "generated" }})
			r.Register("A", tt.routes)

			a := &fakeSource{id: "A"}
			r.Send(context.Background(), a, tt.outputs...)

			assert.Zero(t, r.QueueLength())
			metrics := a.Metrics()
			require.Len(t, metrics, 1)
			assert.Equal(t, router.MetricSend, metrics[0].Event)
			assert.Equal(t, "generated", metrics[0].Details[router.KeyCorrelationID])
			assert.Contains(t, events.Types(), router.EventSend)

			snap := r.Metrics()
			assert.Equal(t, int64(1), snap.Sends)
			assert.Zero(t, snap.Enqueued)
		})
	}
}

func TestSend_AfterUnregister(t *testing.T) {
	b := &recordingNode{id: "B"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})
	r.Unregister("A")
	r.Unregister("A")
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	waitIdle(t, r)

	assert.Empty(t, b.Received())
	_, exists := r.Routes("A")
	assert.False(t, exists)
}

func TestSend_BeforeInit(t *testing.T) {
	cfg := config.DefaultRouterConfig()
	cfg.Observer = "noop"
	r, err := router.New(cfg)
	require.NoError(t, err)
	r.Register("A", [][]string{{"B"}})

	a := &fakeSource{id: "A"}
	r.Send(context.Background(), a, messaging.Single(messaging.NewMessage().MustBuild()))

	assert.Zero(t, r.QueueLength())
	assert.Empty(t, a.Metrics())
}

func TestRegister_Replaces(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{})
	wires := [][]string{{"B", "C"}}
	r.Register("A", wires)
	wires[0][0] = "mutated"

	got, ok := r.Routes("A")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"B", "C"}}, got)

	r.Register("A", [][]string{{}, {"D"}})
	got, _ = r.Routes("A")
	assert.Equal(t, [][]string{{}, {"D"}}, got)
}

func TestDispatch_FIFOAcrossSources(t *testing.T) {
	var mu sync.Mutex
	var order []string
	sink := &recordingNode{id: "Z", onRecv: func(m *messaging.Message) {
		mu.Lock()
		defer mu.Unlock()
		v, _ := m.Get("seq")
		order = append(order, v.(string))
	}}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(sink)})
	r.Register("A", [][]string{{"Z"}})
	r.Register("B", [][]string{{"Z"}})

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Sequence(
		msg(t, map[string]any{"seq": "a1"}),
		msg(t, map[string]any{"seq": "a2"}),
	))
	r.Send(context.Background(), &fakeSource{id: "B"}, messaging.Single(msg(t, map[string]any{"seq": "b1"})))
	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(msg(t, map[string]any{"seq": "a3"})))

	start(t, r)
	waitIdle(t, r)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a1", "a2", "b1", "a3"}, order)
}

func TestDispatch_UnresolvableDropped(t *testing.T) {
	c := &recordingNode{id: "C"}
	r, events := newRouter(t, router.Collaborators{Graph: graphOf(c)})
	r.Register("A", [][]string{{"gone", "C"}})
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	waitIdle(t, r)

	assert.Len(t, c.Received(), 1)
	assert.Equal(t, int64(1), r.Metrics().Dropped)
	assert.Contains(t, events.Types(), router.EventDrop)
}

func TestDispatch_ReceivePanicRecovered(t *testing.T) {
	bad := &recordingNode{id: "bad", onRecv: func(*messaging.Message) { panic("boom") }}
	good := &recordingNode{id: "good"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(bad, good)})
	r.Register("A", [][]string{{"bad", "good"}})
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	waitIdle(t, r)

	assert.Len(t, good.Received(), 1)
}

func TestPauseResume(t *testing.T) {
	b := &recordingNode{id: "B"}
	r, events := newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})
	start(t, r)

	r.Pause()
	r.Pause()
	assert.True(t, r.Paused())

	a := &fakeSource{id: "A"}
	r.Send(context.Background(), a, messaging.Single(msg(t, map[string]any{"n": 1})))
	r.Send(context.Background(), a, messaging.Single(msg(t, map[string]any{"n": 2})))

	assert.Never(t, func() bool { return len(b.Received()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, r.WaitIdle(context.Background()), router.ErrPaused)
	assert.Equal(t, 2, r.QueueLength())

	r.Resume()
	waitIdle(t, r)

	received := b.Received()
	require.Len(t, received, 2)
	first, _ := received[0].Get("n")
	second, _ := received[1].Get("n")
	assert.Equal(t, float64(1), first)
	assert.Equal(t, float64(2), second)

	var pauses int
	for _, typ := range events.Types() {
		if typ == router.EventPause {
			pauses++
		}
	}
	assert.Equal(t, 1, pauses)
}

func TestPause_FromReceive(t *testing.T) {
	var r *router.Router
	b := &recordingNode{id: "B"}
	b.onRecv = func(*messaging.Message) { r.Pause() }
	r, _ = newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Sequence(
		messaging.NewMessage().MustBuild(),
		messaging.NewMessage().MustBuild(),
		messaging.NewMessage().MustBuild(),
	))
	start(t, r)

	assert.Eventually(t, r.Paused, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(b.Received()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 2, r.QueueLength())

	r.Resume()
	assert.Eventually(t, func() bool { return len(b.Received()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestBreakpoint_InterceptsOnce(t *testing.T) {
	var mu sync.Mutex
	var calls []router.Delivery
	hook := router.BreakpointFunc(func(d router.Delivery) bool {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, d)
		return len(calls) == 1
	})

	b := &recordingNode{id: "B"}
	r, events := newRouter(t, router.Collaborators{Graph: graphOf(b), Breakpoints: hook})
	r.Register("A", [][]string{{"B"}})
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))

	assert.Eventually(t, r.Paused, time.Second, 5*time.Millisecond)
	assert.Empty(t, b.Received())

	status := r.Status()
	require.NotNil(t, status.Head)
	assert.True(t, status.Head.Intercepted)
	assert.Equal(t, "B", status.Head.Destination)
	assert.Equal(t, int64(1), status.Metrics.Intercepted)
	assert.Contains(t, events.Types(), router.EventIntercept)

	r.Resume()
	waitIdle(t, r)

	assert.Len(t, b.Received(), 1)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1)
}

func TestBreakpoint_InterceptedThenDropped(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{
		Breakpoints: router.BreakpointFunc(func(router.Delivery) bool { return true }),
	})
	r.Register("A", [][]string{{"missing"}})
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	assert.Eventually(t, r.Paused, time.Second, 5*time.Millisecond)

	r.Resume()
	waitIdle(t, r)

	snap := r.Metrics()
	assert.Equal(t, int64(1), snap.Intercepted)
	assert.Equal(t, int64(1), snap.Dropped)
	assert.False(t, r.Paused())
}

func TestPause_NotOvertakenByDeliveryInProgress(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	hook := router.BreakpointFunc(func(router.Delivery) bool {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return false
	})

	b := &recordingNode{id: "B"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b), Breakpoints: hook})
	r.Register("A", [][]string{{"B"}})
	start(t, r)

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("dispatcher never consulted the breakpoint hook")
	}
	r.Pause()
	close(release)

	assert.Never(t, func() bool { return len(b.Received()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return r.QueueLength() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, r.WaitIdle(context.Background()), router.ErrPaused)

	status := r.Status()
	require.NotNil(t, status.Head)
	assert.False(t, status.Head.Intercepted)

	r.Resume()
	waitIdle(t, r)

	assert.Len(t, b.Received(), 1)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, r.Metrics().Intercepted)
}

func TestInit_ResetsQueueAndPause(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{})
	r.Register("A", [][]string{{"B"}})
	r.Pause()
	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	require.Equal(t, 1, r.QueueLength())

	r.Init(router.Collaborators{})

	assert.Zero(t, r.QueueLength())
	assert.False(t, r.Paused())
	_, exists := r.Routes("A")
	assert.True(t, exists)
}

func TestInit_ResetRoutesOnInit(t *testing.T) {
	cfg := config.DefaultRouterConfig()
	cfg.Observer = "noop"
	cfg.ResetRoutesOnInit = true

	r, err := router.New(cfg)
	require.NoError(t, err)
	r.Register("A", [][]string{{"B"}})

	r.Init(router.Collaborators{})

	_, exists := r.Routes("A")
	assert.False(t, exists)
}

func TestLifecycle(t *testing.T) {
	r, _ := newRouter(t, router.Collaborators{})

	assert.ErrorIs(t, r.Shutdown(time.Second), router.ErrNotRunning)
	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), router.ErrAlreadyRunning)
	assert.True(t, r.Status().Running)

	require.NoError(t, r.Shutdown(time.Second))
	assert.False(t, r.Status().Running)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Shutdown(time.Second))
}

func TestLifecycle_QueueSurvivesRestart(t *testing.T) {
	b := &recordingNode{id: "B"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})

	r.Send(context.Background(), &fakeSource{id: "A"}, messaging.Single(messaging.NewMessage().MustBuild()))
	assert.Never(t, func() bool { return len(b.Received()) > 0 }, 30*time.Millisecond, 5*time.Millisecond)

	start(t, r)
	waitIdle(t, r)
	assert.Len(t, b.Received(), 1)
}

func TestConcurrentSends(t *testing.T) {
	b := &recordingNode{id: "B"}
	r, _ := newRouter(t, router.Collaborators{Graph: graphOf(b)})
	r.Register("A", [][]string{{"B"}})
	start(t, r)

	const senders, each = 8, 50
	var wg sync.WaitGroup
	for range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := &fakeSource{id: "A"}
			for range each {
				r.Send(context.Background(), a, messaging.Single(messaging.NewMessage().MustBuild()))
			}
		}()
	}
	wg.Wait()
	waitIdle(t, r)

	assert.Len(t, b.Received(), senders*each)
	snap := r.Metrics()
	assert.Equal(t, int64(senders*each), snap.Sends)
	assert.Equal(t, int64(senders*each), snap.Delivered)
}
