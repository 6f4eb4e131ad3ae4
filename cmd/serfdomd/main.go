package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		os.Exit(1)
	}

	d, err := bootstrap(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("serfdomd shutting down")
}
