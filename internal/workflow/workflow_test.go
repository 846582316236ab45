package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"linguaflow/internal/logging"
	"linguaflow/internal/services"
	"linguaflow/internal/store"
	"linguaflow/internal/testsupport"
	"linguaflow/internal/workflow"
)

type recordingNotifier struct {
	mu             sync.Mutex
	reviewRequests []string
	approvals      []string
	rejections     []string
	queueCompleted int
	errorsNotified int
}

func (r *recordingNotifier) NotifyReviewRequested(_ context.Context, projectName, keyName, languageCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviewRequests = append(r.reviewRequests, keyName+"/"+languageCode)
	return nil
}

func (r *recordingNotifier) NotifyTranslationApproved(_ context.Context, projectName, keyName, languageCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals = append(r.approvals, keyName+"/"+languageCode)
	return nil
}

func (r *recordingNotifier) NotifyTranslationRejected(_ context.Context, projectName, keyName, languageCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, keyName+"/"+languageCode)
	return nil
}

func (r *recordingNotifier) NotifyQueueCompleted(context.Context, int, int, time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueCompleted++
	return nil
}

func (r *recordingNotifier) NotifyError(context.Context, error, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorsNotified++
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

type fixture struct {
	store    *store.Store
	engine   *workflow.Engine
	notifier *recordingNotifier
	project  *store.Project
	source   *store.Language
	target   *store.Language
	key      *store.TranslationKey
}

func newFixture(t *testing.T, requiresReview bool) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	source := testsupport.SeedLanguage(t, st, "en", "English")
	target := testsupport.SeedLanguage(t, st, "es", "Spanish")
	project := testsupport.SeedProject(t, st, "web-app", requiresReview, source.ID)
	key := testsupport.SeedKey(t, st, project.ID, "welcome", "common")

	notifier := &recordingNotifier{}
	logger := logging.NewNop()
	effects := workflow.NewEffects(st, nil, notifier, nil, logger)
	engine := workflow.NewEngine(st, effects, logger)

	return &fixture{
		store:    st,
		engine:   engine,
		notifier: notifier,
		project:  project,
		source:   source,
		target:   target,
		key:      key,
	}
}

func TestSubmitForReviewEntersReviewState(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()
	actor := workflow.Actor{ID: 1, Role: store.RoleTranslator}

	translation, err := fx.engine.SubmitForReview(ctx, actor, fx.project.ID, fx.key.ID, fx.target.ID, "Hola")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if translation.State != store.StateReview {
		t.Fatalf("expected state %s, got %s", store.StateReview, translation.State)
	}
	if translation.Value != "Hola" {
		t.Fatalf("expected value Hola, got %q", translation.Value)
	}

	history, err := fx.store.HistoryForTranslation(ctx, translation.ID)
	if err != nil {
		t.Fatalf("HistoryForTranslation: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].State != store.StateReview {
		t.Fatalf("expected history state review, got %s", history[0].State)
	}

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	if len(fx.notifier.reviewRequests) != 1 {
		t.Fatalf("expected 1 review notification, got %d", len(fx.notifier.reviewRequests))
	}
	if fx.notifier.reviewRequests[0] != "common.welcome/es" {
		t.Fatalf("unexpected review notification %q", fx.notifier.reviewRequests[0])
	}
}

func TestSubmitWithoutReviewGateStaysDraft(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()
	actor := workflow.Actor{ID: 1, Role: store.RoleTranslator}

	translation, err := fx.engine.SubmitForReview(ctx, actor, fx.project.ID, fx.key.ID, fx.target.ID, "Hola")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if translation.State != store.StateDraft {
		t.Fatalf("expected state draft, got %s", translation.State)
	}

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	if len(fx.notifier.reviewRequests) != 0 {
		t.Fatalf("expected no review notifications, got %d", len(fx.notifier.reviewRequests))
	}
}

func TestTranslatorCannotApprove(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()
	author := workflow.Actor{ID: 1, Role: store.RoleTranslator}

	translation, err := fx.engine.SubmitForReview(ctx, author, fx.project.ID, fx.key.ID, fx.target.ID, "Hola")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}

	_, err = fx.engine.Approve(ctx, author, fx.project.ID, translation.ID)
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	current, err := store.GetTranslation(ctx, fx.store.DB(), translation.ID)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if current.State != store.StateReview {
		t.Fatalf("failed approval must not change state; got %s", current.State)
	}
}

func TestReviewerApprovesAndSyncsMemory(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()
	author := workflow.Actor{ID: 1, Role: store.RoleTranslator}
	reviewer := workflow.Actor{ID: 2, Role: store.RoleReviewer}

	// Source-language value so approval has a memory pair to record.
	if _, _, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
		KeyID:      fx.key.ID,
		LanguageID: fx.source.ID,
		Value:      "Welcome",
		State:      store.StateApproved,
		CreatedBy:  author.ID,
	}); err != nil {
		t.Fatalf("seed source translation: %v", err)
	}

	translation, err := fx.engine.SubmitForReview(ctx, author, fx.project.ID, fx.key.ID, fx.target.ID, "Bienvenido")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}

	approved, err := fx.engine.Approve(ctx, reviewer, fx.project.ID, translation.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.State != store.StateApproved {
		t.Fatalf("expected state approved, got %s", approved.State)
	}
	if approved.ReviewedBy == nil || *approved.ReviewedBy != reviewer.ID {
		t.Fatalf("expected reviewedBy %d, got %v", reviewer.ID, approved.ReviewedBy)
	}

	history, err := fx.store.HistoryForTranslation(ctx, translation.ID)
	if err != nil {
		t.Fatalf("HistoryForTranslation: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	entry, err := fx.store.LookupMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome")
	if err != nil {
		t.Fatalf("LookupMemory: %v", err)
	}
	if entry == nil {
		t.Fatal("expected translation memory entry after approval")
	}
	if entry.TargetText != "Bienvenido" {
		t.Fatalf("expected memory target Bienvenido, got %q", entry.TargetText)
	}
}

func TestRejectReturnsToDraft(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()
	author := workflow.Actor{ID: 1, Role: store.RoleTranslator}
	reviewer := workflow.Actor{ID: 2, Role: store.RoleReviewer}

	translation, err := fx.engine.SubmitForReview(ctx, author, fx.project.ID, fx.key.ID, fx.target.ID, "Hola")
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}

	rejected, err := fx.engine.Reject(ctx, reviewer, fx.project.ID, translation.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.State != store.StateDraft {
		t.Fatalf("expected state draft, got %s", rejected.State)
	}

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	if len(fx.notifier.rejections) != 1 {
		t.Fatalf("expected 1 rejection notification, got %d", len(fx.notifier.rejections))
	}
}

func TestOtherAuthorCannotOverwriteDraft(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()
	author := workflow.Actor{ID: 1, Role: store.RoleTranslator}
	other := workflow.Actor{ID: 7, Role: store.RoleTranslator}

	if _, err := fx.engine.SubmitForReview(ctx, author, fx.project.ID, fx.key.ID, fx.target.ID, "Hola"); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}

	_, err := fx.engine.SubmitForReview(ctx, other, fx.project.ID, fx.key.ID, fx.target.ID, "Buenas")
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAdminOverridesAuthorLock(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()
	author := workflow.Actor{ID: 1, Role: store.RoleTranslator}
	admin := workflow.Actor{ID: 9, Role: store.RoleAdmin}

	if _, err := fx.engine.SubmitForReview(ctx, author, fx.project.ID, fx.key.ID, fx.target.ID, "Hola"); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}

	translation, err := fx.engine.SubmitForReview(ctx, admin, fx.project.ID, fx.key.ID, fx.target.ID, "Buenas")
	if err != nil {
		t.Fatalf("admin SubmitForReview: %v", err)
	}
	if translation.Value != "Buenas" {
		t.Fatalf("expected admin write to land, got %q", translation.Value)
	}

	count, err := fx.store.CountTranslations(ctx)
	if err != nil {
		t.Fatalf("CountTranslations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per key and language, got %d", count)
	}
}
