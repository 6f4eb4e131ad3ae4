package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if bind := strings.TrimSpace(c.Paths.APIBind); bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("paths.api_bind must be host:port: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	// The API key is optional: the workflow engine runs without a model,
	// only strategize and serf interactions require one.
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StageTimeoutSeconds < 0 {
		return errors.New("workflow.stage_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
