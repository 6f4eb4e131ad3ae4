package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
	"serfdom/internal/metrics"
	"serfdom/internal/overseer"
	"serfdom/internal/serf"
	"serfdom/internal/services/llm"
	"serfdom/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	engine   *workflow.Engine
	overseer *overseer.Overseer
	agent    *serf.Agent
	model    *llm.Client
	hub      *Hub

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Deps carries the daemon's collaborators. Model and Hub are optional.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *ledger.Store
	Engine   *workflow.Engine
	Overseer *overseer.Overseer
	Agent    *serf.Agent
	Model    *llm.Client
	Hub      *Hub
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LedgerPath   string
	LockFilePath string
	LLMReady     bool
	Metrics      metrics.Snapshot
	Queue        map[string]string
}

// New constructs a daemon with initialized dependencies.
func New(deps Deps) (*Daemon, error) {
	if deps.Config == nil || deps.Logger == nil || deps.Store == nil || deps.Engine == nil {
		return nil, errors.New("daemon requires config, logger, store, and workflow engine")
	}

	lockPath := filepath.Join(deps.Config.Paths.LogDir, "serfdomd.lock")
	d := &Daemon{
		cfg:      deps.Config,
		logger:   deps.Logger,
		store:    deps.Store,
		engine:   deps.Engine,
		overseer: deps.Overseer,
		agent:    deps.Agent,
		model:    deps.Model,
		hub:      deps.Hub,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(deps.Config, d, deps.Logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start runs preflight checks, acquires the daemon lock, and brings up the
// API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := checkDataDir(d.cfg.Paths.DataDir); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if err := os.MkdirAll(d.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure log directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another serfdom daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("serfdom daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.hub != nil {
		d.hub.Close()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("serfdom daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr reports the bound API address, empty until Start succeeds.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LedgerPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		LLMReady:     d.model != nil,
		Metrics:      d.engine.Metrics(),
		Queue:        d.engine.QueueStatus(),
	}
}

// runContext returns the context governing daemon background work, falling
// back to the background context before Start.
func (d *Daemon) runContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}
