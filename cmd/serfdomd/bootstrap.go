package main

import (
	"log/slog"

	"serfdom/internal/config"
	"serfdom/internal/daemon"
	"serfdom/internal/ledger"
	"serfdom/internal/notifications"
	"serfdom/internal/overseer"
	"serfdom/internal/serf"
	"serfdom/internal/services/llm"
	"serfdom/internal/workflow"
)

// bootstrap wires the daemon's collaborators. The LLM client is only
// constructed when an API key is configured; without it the strategize and
// interact surfaces report unavailable while the pipeline keeps working.
func bootstrap(cfg *config.Config, store *ledger.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	hub := daemon.NewHub(logger)
	notifier := notifications.NewService(cfg)

	var model *llm.Client
	if cfg.LLM.APIKey != "" {
		model = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}

	engine := workflow.NewEngine(cfg, store, logger,
		workflow.WithNotifier(notifier),
		workflow.WithEvents(hub),
	)

	overseerOpts := []overseer.Option{overseer.WithNotifier(notifier)}
	agent := serf.New(nil, logger)
	if model != nil {
		overseerOpts = append(overseerOpts, overseer.WithModel(model))
		agent = serf.New(model, logger)
	}
	boss := overseer.New(store, logger, overseerOpts...)

	return daemon.New(daemon.Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Engine:   engine,
		Overseer: boss,
		Agent:    agent,
		Model:    model,
		Hub:      hub,
	})
}
