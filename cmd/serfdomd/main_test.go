package main

import (
	"context"
	"testing"

	"serfdom/internal/logging"
	"serfdom/internal/testsupport"
)

func TestBootstrapWithoutLLM(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := bootstrap(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.LLMReady {
		t.Fatal("expected LLMReady false without an api key")
	}
}
