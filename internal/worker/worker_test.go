package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"linguaflow/internal/logging"
	"linguaflow/internal/queue"
	"linguaflow/internal/store"
	"linguaflow/internal/testsupport"
	"linguaflow/internal/translator"
	"linguaflow/internal/worker"
	"linguaflow/internal/workflow"
)

type fixture struct {
	store    *store.Store
	queue    *queue.Store
	project  *store.Project
	source   *store.Language
	target   *store.Language
	key      *store.TranslationKey
	enqueuer *worker.Enqueuer
}

func newFixture(t *testing.T, requiresReview bool) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.WorkerCount = 1
	st := testsupport.MustOpenStore(t, cfg)
	qs := queue.NewStore(st.DB(), cfg.Workflow.MaxRetries)

	source := testsupport.SeedLanguage(t, st, "en", "English")
	target := testsupport.SeedLanguage(t, st, "es", "Spanish")
	project := testsupport.SeedProject(t, st, "web-app", requiresReview, source.ID)
	key := testsupport.SeedKey(t, st, project.ID, "welcome", "common")

	if _, _, err := store.UpsertTranslation(context.Background(), st.DB(), store.TranslationWrite{
		KeyID:      key.ID,
		LanguageID: source.ID,
		Value:      "Welcome",
		State:      store.StateApproved,
		CreatedBy:  1,
	}); err != nil {
		t.Fatalf("seed source translation: %v", err)
	}

	return &fixture{
		store:    st,
		queue:    qs,
		project:  project,
		source:   source,
		target:   target,
		key:      key,
		enqueuer: worker.NewEnqueuer(st, qs),
	}
}

func TestEnqueueExpandsKeyLanguagePairs(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	second := testsupport.SeedKey(t, fx.store, fx.project.ID, "goodbye", "common")

	result, err := fx.enqueuer.Enqueue(ctx, fx.project.ID, []int64{fx.key.ID, second.ID}, []int64{fx.target.ID})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if result.Queued != 1 {
		t.Fatalf("expected 1 queued (second key has no source value), got %d", result.Queued)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 soft error for sourceless key, got %v", result.Errors)
	}

	health, err := fx.queue.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Pending != 1 {
		t.Fatalf("expected 1 pending item, got %+v", health)
	}
}

func TestManagerProcessesPendingItem(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	result, err := fx.enqueuer.Enqueue(ctx, fx.project.ID, []int64{fx.key.ID}, []int64{fx.target.ID})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if result.Queued != 1 {
		t.Fatalf("expected 1 queued, got %d", result.Queued)
	}

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.WorkerCount = 1

	chain := translator.NewChain(time.Second, logging.NewNop(), translator.Func{
		ProviderName: "stub",
		Fn: func(_ context.Context, req translator.Request) (string, error) {
			return "Bienvenido", nil
		},
	})
	wf := workflow.NewEngine(fx.store, nil, logging.NewNop())
	manager := worker.NewManager(cfg, fx.store, fx.queue, chain, wf, nil, nil, logging.NewNop())
	manager.Start(ctx)
	defer manager.Stop()

	item := waitForStatus(t, fx.queue, queue.StatusCompleted)
	if item.TranslationID == nil {
		t.Fatal("completed item must link its translation")
	}

	translation, err := store.GetTranslation(ctx, fx.store.DB(), *item.TranslationID)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if translation.Value != "Bienvenido" {
		t.Fatalf("expected Bienvenido, got %q", translation.Value)
	}
	if translation.State != store.StateReview {
		t.Fatalf("review-required project must land in review, got %s", translation.State)
	}
}

func TestManagerRetriesTransientFailures(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if _, err := fx.enqueuer.Enqueue(ctx, fx.project.ID, []int64{fx.key.ID}, []int64{fx.target.ID}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.WorkerCount = 1

	attempts := 0
	chain := translator.NewChain(time.Second, logging.NewNop(), translator.Func{
		ProviderName: "flaky",
		Fn: func(context.Context, translator.Request) (string, error) {
			attempts++
			if attempts < 2 {
				return "", errors.New("ETIMEDOUT contacting provider")
			}
			return "Bienvenido", nil
		},
	})
	wf := workflow.NewEngine(fx.store, nil, logging.NewNop())
	manager := worker.NewManager(cfg, fx.store, fx.queue, chain, wf, nil, nil, logging.NewNop())
	manager.Start(ctx)
	defer manager.Stop()

	item := waitForStatus(t, fx.queue, queue.StatusCompleted)
	if item.Attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", item.Attempts)
	}
}

func TestManagerFailsTerminalErrorsImmediately(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if _, err := fx.enqueuer.Enqueue(ctx, fx.project.ID, []int64{fx.key.ID}, []int64{fx.target.ID}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.WorkerCount = 1

	calls := 0
	chain := translator.NewChain(time.Second, logging.NewNop(), translator.Func{
		ProviderName: "denied",
		Fn: func(context.Context, translator.Request) (string, error) {
			calls++
			return "", errors.New("401 invalid api key")
		},
	})
	wf := workflow.NewEngine(fx.store, nil, logging.NewNop())
	manager := worker.NewManager(cfg, fx.store, fx.queue, chain, wf, nil, nil, logging.NewNop())
	manager.Start(ctx)
	defer manager.Stop()

	item := waitForStatus(t, fx.queue, queue.StatusFailed)
	if item.Attempts != 1 {
		t.Fatalf("terminal failure must not retry; attempts = %d", item.Attempts)
	}
	if item.ErrorMessage == "" {
		t.Fatal("expected the failure to be recorded on the item")
	}
}

func TestManagerUsesTranslationMemory(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if err := fx.store.UpsertMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome", "Bienvenido"); err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}
	if _, err := fx.enqueuer.Enqueue(ctx, fx.project.ID, []int64{fx.key.ID}, []int64{fx.target.ID}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.WorkerCount = 1

	chain := translator.NewChain(time.Second, logging.NewNop(), translator.Func{
		ProviderName: "provider",
		Fn: func(context.Context, translator.Request) (string, error) {
			t.Error("provider must not be called on a memory hit")
			return "", errors.New("unexpected call")
		},
	})
	wf := workflow.NewEngine(fx.store, nil, logging.NewNop())
	manager := worker.NewManager(cfg, fx.store, fx.queue, chain, wf, nil, nil, logging.NewNop())
	manager.Start(ctx)
	defer manager.Stop()

	item := waitForStatus(t, fx.queue, queue.StatusCompleted)
	translation, err := store.GetTranslation(ctx, fx.store.DB(), *item.TranslationID)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if translation.Value != "Bienvenido" {
		t.Fatalf("expected memory value, got %q", translation.Value)
	}
}

func waitForStatus(t *testing.T, qs *queue.Store, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		items, err := qs.List(context.Background(), want)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) > 0 {
			return items[0]
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for a %s item", want)
	return nil
}
