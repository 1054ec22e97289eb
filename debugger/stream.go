package debugger

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/flow/observability"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Stream fans observability events out to websocket subscribers as JSON.
// It is both an observability.Observer and an http.Handler.
type Stream struct {
	bufferSize int
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	observer   observability.Observer

	mu          sync.RWMutex
	subscribers map[string]*eventChannel
	closed      bool
}

// NewStream creates a stream whose subscribers buffer up to bufferSize
// events each; slow subscribers lose events rather than slowing the router.
func NewStream(bufferSize int, opts ...Option) *Stream {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Stream{
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:      o.logger,
		observer:    o.observer,
		subscribers: make(map[string]*eventChannel),
	}
}

// OnEvent implements observability.Observer.
func (s *Stream) OnEvent(ctx context.Context, event observability.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		sub.Offer(event)
	}
}

// Subscribers returns the number of connected clients.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	id, sub, ok := s.subscribe()
	if !ok {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
			time.Now().Add(time.Second),
		)
		return
	}
	defer s.unsubscribe(id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.observer.OnEvent(ctx, observability.NewEvent(
		EventStreamOpen,
		observability.LevelVerbose,
		"debugger.Stream",
		map[string]any{"subscriber": id, "remote": r.RemoteAddr},
	))

	// Reads only detect the peer going away; clients send nothing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.writeLoop(ctx, conn, sub)

	s.observer.OnEvent(context.Background(), observability.NewEvent(
		EventStreamClose,
		observability.LevelVerbose,
		"debugger.Stream",
		map[string]any{"subscriber": id, "dropped": sub.Dropped()},
	))
}

func (s *Stream) writeLoop(ctx context.Context, conn *websocket.Conn, sub *eventChannel) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	events := make(chan observability.Event)
	go func() {
		defer close(events)
		for {
			event, err := sub.Receive(ctx)
			if err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				s.logger.Debug("websocket write deadline failed", slog.String("error", err.Error()))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Stream) subscribe() (string, *eventChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", nil, false
	}

	id := uuid.NewString()
	sub := newEventChannel(s.bufferSize)
	s.subscribers[id] = sub
	return id, sub, true
}

func (s *Stream) unsubscribe(id string) {
	s.mu.Lock()
	sub, exists := s.subscribers[id]
	delete(s.subscribers, id)
	s.mu.Unlock()

	if exists {
		sub.Close()
	}
}

// Close disconnects every subscriber and rejects new ones.
func (s *Stream) Close() {
	s.mu.Lock()
	subs := s.subscribers
	s.subscribers = make(map[string]*eventChannel)
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
