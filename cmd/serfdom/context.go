package main

import (
	"strings"
	"sync"

	"serfdom/internal/client"
	"serfdom/internal/config"
)

type commandContext struct {
	addrFlag   *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiClient builds a daemon API client from the --addr flag, falling back to
// the configured bind address.
func (c *commandContext) apiClient() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	addr := ""
	if c.addrFlag != nil {
		addr = strings.TrimSpace(*c.addrFlag)
	}
	token := ""
	if cfg != nil {
		if addr == "" {
			addr = cfg.Paths.APIBind
		}
		token = cfg.Paths.APIToken
	}
	return client.New(addr, token), nil
}
