package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.DataDir = strings.TrimSpace(c.Paths.DataDir)
	if c.Paths.DataDir != "" {
		if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
			return fmt.Errorf("paths.data_dir: %w", err)
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SERFDOM_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.StageTimeoutSeconds < 0 {
		c.Workflow.StageTimeoutSeconds = 0
	}
	c.Workflow.StorageRetention = strings.TrimSpace(c.Workflow.StorageRetention)
	if c.Workflow.StorageRetention == "" {
		c.Workflow.StorageRetention = defaultStorageRetention
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path must not be empty")
	}
	if trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}
