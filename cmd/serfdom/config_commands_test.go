package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestConfigShowMasksAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[llm]\napi_key = \"sk-secret\"\n\n[paths]\nlog_dir = \"" + filepath.Join(dir, "logs") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", path, "config", "show"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}

	rendered := out.String()
	requireContains(t, rendered, "(set)")
	if strings.Contains(rendered, "sk-secret") {
		t.Fatal("config show leaked the api key")
	}
}
