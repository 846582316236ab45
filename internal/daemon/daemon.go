package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"linguaflow/internal/config"
	"linguaflow/internal/logging"
	"linguaflow/internal/server"
	"linguaflow/internal/store"
	"linguaflow/internal/worker"
)

// Daemon coordinates the background services and enforces single-instance
// execution via an flock lock file in the data directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	workers *worker.Manager
	server  *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The worker manager
// may be nil when no translation provider is configured; the HTTP API still
// runs.
func New(cfg *config.Config, st *store.Store, workers *worker.Manager, srv *server.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || srv == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, server, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "linguaflowd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		workers:  workers,
		server:   srv,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker manager and HTTP
// server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another linguaflow daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	if d.workers != nil {
		d.workers.Start(runCtx)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.server.Addr()))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.workers != nil {
		d.workers.Stop()
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address once the daemon has started.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Running reports whether Start has succeeded and Stop has not yet run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
