package testsupport

import (
	"path/filepath"
	"testing"

	"serfdom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The ledger defaults to in-memory and the API binds to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = ""
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDataDir switches the test config to a file-backed ledger.
func WithDataDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.DataDir = dir
	}
}

// WithAPIToken enables bearer authentication on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}
