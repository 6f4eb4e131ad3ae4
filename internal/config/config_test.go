package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"serfdom/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Workflow.StorageRetention != "30_days" {
		t.Fatalf("unexpected default retention: %q", cfg.Workflow.StorageRetention)
	}
	if !cfg.Notifications.TaskCompleted || !cfg.Notifications.TaskFailed {
		t.Fatal("expected completion/failure notifications enabled by default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind: %s", cfg.Paths.APIBind)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %s", cfg.Logging.Format)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`api_bind = "127.0.0.1:9000"`,
		"",
		"[workflow]",
		"stage_timeout_seconds = 30",
		`storage_retention = "7_days"`,
		"",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected api bind: %s", cfg.Paths.APIBind)
	}
	if cfg.Workflow.StageTimeoutSeconds != 30 {
		t.Fatalf("unexpected stage timeout: %d", cfg.Workflow.StageTimeoutSeconds)
	}
	if cfg.Workflow.StorageRetention != "7_days" {
		t.Fatalf("unexpected retention: %s", cfg.Workflow.StorageRetention)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadBind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[paths]\napi_bind = \"not-a-bind\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for malformed api_bind")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
