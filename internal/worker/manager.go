package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"linguaflow/internal/config"
	"linguaflow/internal/logging"
	"linguaflow/internal/queue"
	"linguaflow/internal/store"
	"linguaflow/internal/translator"
	"linguaflow/internal/webhooks"
	"linguaflow/internal/workflow"
)

// Translator is the slice of the provider chain the worker needs.
type Translator interface {
	Translate(ctx context.Context, req translator.Request) (string, error)
}

// Notifier is the slice of the notification service the worker needs.
type Notifier interface {
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, operation string) error
}

// fuzzyMemoryThreshold is the minimum cosine similarity for reusing a
// near-match from translation memory instead of calling a provider.
const fuzzyMemoryThreshold = 0.95

// Manager runs the translation queue workers. Each worker claims pending
// items, calls the provider chain outside any database transaction, and
// commits results through the state machine's write path.
type Manager struct {
	cfg        *config.Config
	store      *store.Store
	queue      *queue.Store
	translator Translator
	workflow   *workflow.Engine
	notifier   Notifier
	webhooks   webhooks.Dispatcher
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager assembles the worker pool.
func NewManager(
	cfg *config.Config,
	st *store.Store,
	qs *queue.Store,
	chain Translator,
	wf *workflow.Engine,
	notifier Notifier,
	dispatcher webhooks.Dispatcher,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      st,
		queue:      qs,
		translator: chain,
		workflow:   wf,
		notifier:   notifier,
		webhooks:   dispatcher,
		logger:     logging.NewComponentLogger(logger, "worker"),
	}
}

// Start launches the worker loops and the stale-item reclaimer. It returns
// immediately; Stop blocks until all loops exit.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	workers := m.cfg.Workflow.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func(id int) {
			defer m.wg.Done()
			m.runLoop(runCtx, id)
		}(i + 1)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reclaimLoop(runCtx)
	}()

	m.logger.Info("queue workers started", logging.Int("workers", workers))
}

// Stop halts all loops and waits for in-flight items to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.logger.Info("queue workers stopped")
}

func (m *Manager) pollInterval() time.Duration {
	interval := time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return interval
}

func (m *Manager) heartbeatTimeout() time.Duration {
	timeout := time.Duration(m.cfg.Workflow.HeartbeatTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return timeout
}

func (m *Manager) runLoop(ctx context.Context, id int) {
	ticker := time.NewTicker(m.pollInterval())
	defer ticker.Stop()

	for {
		m.drain(ctx, id)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drain claims and processes items until the queue is empty, then reports a
// batch summary when anything was handled.
func (m *Manager) drain(ctx context.Context, id int) {
	start := time.Now()
	processed, failed := 0, 0
	for {
		if ctx.Err() != nil {
			break
		}
		item, err := m.queue.ClaimNext(ctx)
		if err != nil {
			m.logger.Error("claim failed", logging.Int("worker", id), logging.Error(err))
			break
		}
		if item == nil {
			break
		}
		if err := m.process(ctx, item); err != nil {
			failed++
		} else {
			processed++
		}
	}
	if processed == 0 && failed == 0 {
		return
	}

	duration := time.Since(start)
	m.logger.Info("queue batch finished",
		logging.Int("worker", id),
		logging.Int("processed", processed),
		logging.Int("failed", failed),
		logging.Duration("duration", duration))
	if m.notifier != nil {
		if err := m.notifier.NotifyQueueCompleted(ctx, processed, failed, duration); err != nil {
			m.logger.Warn("queue notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) process(ctx context.Context, item *queue.Item) error {
	project, key, source, target, err := m.loadItemContext(ctx, item)
	if err != nil {
		m.recordFailure(ctx, item, err)
		return err
	}

	value, err := m.resolveValue(ctx, item, project, source, target)
	if err != nil {
		m.recordFailure(ctx, item, err)
		return err
	}

	var result workflow.WriteResult
	err = m.store.WithTx(ctx, func(tx *sql.Tx) error {
		result, err = workflow.ApplyWrite(ctx, tx, workflow.WriteRequest{
			KeyID:          item.KeyID,
			LanguageID:     item.TargetLanguageID,
			Value:          value,
			ActorID:        0, // system write, no human author
			RequiresReview: project.RequiresReview,
		})
		return err
	})
	if err != nil {
		m.recordFailure(ctx, item, err)
		return err
	}
	if err := m.queue.MarkCompleted(ctx, item.ID, result.Translation.ID); err != nil {
		m.logger.Error("mark completed failed", logging.Int64("item_id", item.ID), logging.Error(err))
		return err
	}

	m.workflow.FireReviewRequested(ctx, workflow.TransitionContext{
		Project:      project,
		Key:          key,
		Language:     target,
		OldValue:     result.OldValue,
		NewValue:     value,
		OldState:     result.OldState,
		NewState:     result.Translation.State,
		Translation:  result.Translation,
		StateChanged: result.OldState != result.Translation.State,
	})
	m.dispatch(ctx, webhooks.EventQueueCompleted, item, map[string]any{
		"keyId":    item.KeyID,
		"language": target.Code,
	})
	return nil
}

// resolveValue consults translation memory before paying for a provider
// call. The provider call runs with a heartbeat so a crashed worker's claim
// eventually goes stale and is reclaimed.
func (m *Manager) resolveValue(ctx context.Context, item *queue.Item, project *store.Project, source, target *store.Language) (string, error) {
	if entry, err := m.store.LookupMemory(ctx, item.ProjectID, item.SourceLanguageID, item.TargetLanguageID, item.SourceText); err == nil && entry != nil {
		m.logger.Debug("translation memory hit",
			logging.Int64("item_id", item.ID),
			logging.String("language", target.Code))
		return entry.TargetText, nil
	}
	if entry, score, err := m.store.LookupMemoryFuzzy(ctx, item.ProjectID, item.SourceLanguageID, item.TargetLanguageID, item.SourceText, fuzzyMemoryThreshold); err == nil && entry != nil {
		m.logger.Debug("fuzzy translation memory hit",
			logging.Int64("item_id", item.ID),
			logging.String("language", target.Code),
			logging.Any("score", score))
		return entry.TargetText, nil
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go m.heartbeat(heartbeatCtx, item.ID)

	return m.translator.Translate(ctx, translator.Request{
		SourceText:     item.SourceText,
		SourceLanguage: source.Code,
		TargetLanguage: target.Code,
		ProjectName:    project.Name,
	})
}

func (m *Manager) heartbeat(ctx context.Context, itemID int64) {
	interval := m.heartbeatTimeout() / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.queue.UpdateHeartbeat(ctx, itemID); err != nil {
				m.logger.Warn("heartbeat update failed", logging.Int64("item_id", itemID), logging.Error(err))
			}
		}
	}
}

func (m *Manager) recordFailure(ctx context.Context, item *queue.Item, failure error) {
	status, err := m.queue.MarkFailed(ctx, item, failure)
	if err != nil {
		m.logger.Error("mark failed errored", logging.Int64("item_id", item.ID), logging.Error(err))
		return
	}
	m.logger.Warn("queue item failed",
		logging.Int64("item_id", item.ID),
		logging.Int("attempts", item.Attempts),
		logging.String("next_status", string(status)),
		logging.Error(failure))

	if status != queue.StatusFailed {
		return
	}
	m.dispatch(ctx, webhooks.EventQueueFailed, item, map[string]any{
		"keyId": item.KeyID,
		"error": failure.Error(),
	})
	if m.notifier != nil {
		if err := m.notifier.NotifyError(ctx, failure, "queue translation"); err != nil {
			m.logger.Warn("error notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, eventType webhooks.EventType, item *queue.Item, data map[string]any) {
	if m.webhooks == nil {
		return
	}
	m.webhooks.Dispatch(ctx, webhooks.NewEvent(eventType, item.ProjectID, data))
}

func (m *Manager) loadItemContext(ctx context.Context, item *queue.Item) (*store.Project, *store.TranslationKey, *store.Language, *store.Language, error) {
	project, err := m.store.GetProject(ctx, item.ProjectID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if project == nil {
		return nil, nil, nil, nil, errInvalidItem("project not found")
	}
	key, err := store.GetKey(ctx, m.store.DB(), item.KeyID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if key == nil {
		return nil, nil, nil, nil, errInvalidItem("key not found")
	}
	source, err := m.store.GetLanguage(ctx, item.SourceLanguageID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if source == nil {
		return nil, nil, nil, nil, errInvalidItem("source language not found")
	}
	target, err := m.store.GetLanguage(ctx, item.TargetLanguageID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if target == nil {
		return nil, nil, nil, nil, errInvalidItem("target language not found")
	}
	return project, key, source, target, nil
}

// errInvalidItem marks structurally broken queue items. The message keeps
// the "not found" phrasing so retry classification treats them as terminal.
func errInvalidItem(msg string) error {
	return fmt.Errorf("invalid queue item: %s", msg)
}

func (m *Manager) reclaimLoop(ctx context.Context) {
	timeout := m.heartbeatTimeout()
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := m.queue.ReclaimStaleProcessing(ctx, time.Now().Add(-timeout))
			if err != nil {
				m.logger.Error("stale reclaim failed", logging.Error(err))
				continue
			}
			if reclaimed > 0 {
				m.logger.Warn("reclaimed stale queue items", logging.Int64("count", reclaimed))
			}
		}
	}
}
