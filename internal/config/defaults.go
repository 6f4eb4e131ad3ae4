package config

const (
	defaultLogDir              = "~/.local/share/serfdom/logs"
	defaultAPIBind             = "127.0.0.1:7519"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "openai/gpt-4o-mini"
	defaultLLMReferer          = "https://github.com/serfdom/serfdom"
	defaultLLMTitle            = "Serfdom Overseer"
	defaultLLMTimeoutSeconds   = 60
	defaultNotifyTimeout       = 10
	defaultStorageRetention    = "30_days"
	defaultStageTimeoutSeconds = 0
)

// Default returns a Config populated with repository defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
			StorageRetention:    defaultStorageRetention,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			TaskCompleted:  true,
			TaskFailed:     true,
			Delegation:     false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
