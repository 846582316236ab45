package daemon_test

import (
	"context"
	"testing"

	"linguaflow/internal/cache"
	"linguaflow/internal/config"
	"linguaflow/internal/daemon"
	"linguaflow/internal/importer"
	"linguaflow/internal/logging"
	"linguaflow/internal/queue"
	"linguaflow/internal/server"
	"linguaflow/internal/store"
	"linguaflow/internal/testsupport"
	"linguaflow/internal/worker"
	"linguaflow/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config, st *store.Store) *daemon.Daemon {
	t.Helper()

	logger := logging.NewNop()
	qs := queue.NewStore(st.DB(), cfg.Workflow.MaxRetries)
	memory := cache.NewMemory()
	effects := workflow.NewEffects(st, memory, nil, nil, logger)
	wf := workflow.NewEngine(st, effects, logger)
	imp := importer.NewEngine(st, wf, logger)
	enqueuer := worker.NewEnqueuer(st, qs)
	srv := server.New(cfg, st, qs, imp, wf, enqueuer, memory, logger)

	d, err := daemon.New(cfg, st, nil, srv, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d := newDaemon(t, cfg, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}
	if d.Addr() == "" {
		t.Fatal("daemon should expose the bound API address")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first := newDaemon(t, cfg, st)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := newDaemon(t, cfg, st)
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance must fail to acquire the lock")
	}
}
