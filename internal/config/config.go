package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	// DataDir backs the result/delegation ledger. When empty the ledger
	// lives in an in-memory database and nothing survives a restart.
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// LLM contains connection settings for the model collaborator.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains configuration for the processing pipeline.
type Workflow struct {
	// StageTimeoutSeconds bounds a single stage execution. Zero disables
	// the bound. Cancellation is only observed at stage boundaries.
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
	// StorageRetention is the retention tag attached by the storage stage.
	StorageRetention string `toml:"storage_retention"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	TaskCompleted  bool   `toml:"task_completed"`
	TaskFailed     bool   `toml:"task_failed"`
	Delegation     bool   `toml:"delegation"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for serfdom.
//
// Configuration sections by subsystem:
//   - Paths: ledger/log directories and API bind address
//   - LLM: model collaborator connection settings
//   - Workflow: pipeline timing and storage tagging
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/serfdom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The second return is the
// resolved path, the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, creating parent
// directories as needed. It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Paths.DataDir != "" {
		dirs = append(dirs, c.Paths.DataDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
