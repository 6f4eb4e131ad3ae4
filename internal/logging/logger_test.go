package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithStage(ctx, "validation")

	fields := ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 context fields, got %d", len(fields))
	}
	if fields[0].Key != FieldRequestID || fields[0].Value.String() != "req-1" {
		t.Fatalf("unexpected request field: %v", fields[0])
	}
	if fields[1].Key != FieldStage || fields[1].Value.String() != "validation" {
		t.Fatalf("unexpected stage field: %v", fields[1])
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("discarded")
}
