package daemon

import (
	"sync"

	"log/slog"

	"github.com/gorilla/websocket"

	"serfdom/internal/logging"
	"serfdom/internal/workflow"
)

// subscriberBuffer bounds the per-client event backlog. Publish drops events
// for clients that fall behind instead of stalling the pipeline.
const subscriberBuffer = 32

// Hub fans workflow events out to websocket subscribers. It implements
// workflow.EventSink.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan workflow.Event]struct{}
	closed  bool
}

// NewHub constructs an event hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		logger:  logging.NewComponentLogger(logger, "events"),
		clients: make(map[chan workflow.Event]struct{}),
	}
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(event workflow.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				logging.String("type", event.Type),
				logging.String(logging.FieldRequestID, event.RequestID),
			)
		}
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all subscribers and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

func (h *Hub) subscribe() chan workflow.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		ch := make(chan workflow.Event)
		close(ch)
		return ch
	}
	ch := make(chan workflow.Event, subscriberBuffer)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(ch chan workflow.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Serve pumps events to one websocket connection until the client
// disconnects or the hub closes. It owns the connection.
func (h *Hub) Serve(conn *websocket.Conn) {
	events := h.subscribe()
	defer h.unsubscribe(events)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
