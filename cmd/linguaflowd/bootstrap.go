package main

import (
	"context"
	"log/slog"

	"linguaflow/internal/cache"
	"linguaflow/internal/config"
	"linguaflow/internal/daemon"
	"linguaflow/internal/importer"
	"linguaflow/internal/notifications"
	"linguaflow/internal/queue"
	"linguaflow/internal/server"
	"linguaflow/internal/store"
	"linguaflow/internal/translator"
	"linguaflow/internal/webhooks"
	"linguaflow/internal/worker"
	"linguaflow/internal/workflow"
)

// bootstrap wires the full service graph. The worker manager is omitted when
// no translation provider is enabled; pull, push, and review still work.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	qs := queue.NewStore(st.DB(), cfg.Workflow.MaxRetries)
	memory := cache.NewMemory()
	notifier := notifications.NewService(cfg)
	dispatcher := webhooks.NewDispatcher(cfg, logger)

	effects := workflow.NewEffects(st, memory, notifier, dispatcher, logger)
	wf := workflow.NewEngine(st, effects, logger)
	imp := importer.NewEngine(st, wf, logger)
	enqueuer := worker.NewEnqueuer(st, qs)

	chain, err := translator.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	var workers *worker.Manager
	if len(chain.Providers()) > 0 {
		workers = worker.NewManager(cfg, st, qs, chain, wf, notifier, dispatcher, logger)
	} else {
		logger.Warn("no translation providers configured; queue processing disabled")
	}

	srv := server.New(cfg, st, qs, imp, wf, enqueuer, memory, logger)

	d, err := daemon.New(cfg, st, workers, srv, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return d, nil
}
