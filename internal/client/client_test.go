package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"serfdom/internal/api"
	"serfdom/internal/client"
)

func newStubDaemon(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return client.New(server.URL, "")
}

func TestClientStatus(t *testing.T) {
	c := newStubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.StatusSnapshot{Running: true, PID: 42})
	})

	snapshot, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !snapshot.Running || snapshot.PID != 42 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestClientProcessSendsBody(t *testing.T) {
	c := newStubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		var body api.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.RequestType != "computation" {
			t.Errorf("unexpected request type: %q", body.RequestType)
		}
		json.NewEncoder(w).Encode(api.TaskView{RequestID: "req-1", Status: "completed"})
	})

	view, err := c.Process(context.Background(), api.ProcessRequest{
		RequestType: "computation",
		Payload:     map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if view.Status != "completed" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(api.MetricsView{})
	}))
	defer server.Close()

	c := client.New(server.URL, "secret")
	if _, err := c.Metrics(context.Background()); err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if got != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	c := newStubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "task not found"})
	})

	_, err := c.Task(context.Background(), "req-missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestClientUpgradesBareAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.QueueStatusView{Length: 1, Active: map[string]string{"req-1": "processing"}})
	}))
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	c := client.New(addr, "")
	queue, err := c.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if queue.Length != 1 {
		t.Fatalf("unexpected queue: %+v", queue)
	}
}

func TestClientListsDelegations(t *testing.T) {
	c := newStubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.DelegationListResponse{
			Delegations: []api.DelegationView{{DelegationID: "del_1", AgentType: "serf"}},
		})
	})

	records, err := c.Delegations(context.Background())
	if err != nil {
		t.Fatalf("Delegations: %v", err)
	}
	if len(records) != 1 || records[0].DelegationID != "del_1" {
		t.Fatalf("unexpected delegations: %+v", records)
	}
}
