package daemon

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if !d.Status(ctx).Running {
		t.Fatal("expected running status after Start")
	}
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected api address after Start")
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected stopped status after Stop")
	}
}

func TestDaemonStartIsExclusive(t *testing.T) {
	d := newTestDaemon(t, nil)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start on a running daemon to fail")
	}
}
