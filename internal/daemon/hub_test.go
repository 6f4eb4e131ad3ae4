package daemon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"serfdom/internal/logging"
	"serfdom/internal/workflow"
)

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(logging.NewNop())
	hub.Publish(workflow.Event{Type: workflow.EventTaskStarted, RequestID: "req-1"})
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.SubscriberCount())
	}
}

func TestHubDropsEventsForSlowSubscribers(t *testing.T) {
	hub := NewHub(logging.NewNop())
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	// Nobody drains ch, so publishes past the buffer must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(workflow.Event{Type: workflow.EventStageCompleted, RequestID: "req-slow"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d events, got %d", subscriberBuffer, len(ch))
	}
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(logging.NewNop())
	ch := hub.subscribe()
	hub.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected subscriber channel to be closed")
	}
	// Publishing after close is a no-op.
	hub.Publish(workflow.Event{Type: workflow.EventTaskCompleted, RequestID: "req-after"})
}

func TestHubServesWebsocketClients(t *testing.T) {
	hub := NewHub(logging.NewNop())
	defer hub.Close()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(workflow.Event{Type: workflow.EventTaskStarted, RequestID: "req-ws", Timestamp: time.Now().UTC()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event workflow.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != workflow.EventTaskStarted || event.RequestID != "req-ws" {
		t.Fatalf("unexpected event: %+v", event)
	}
}
