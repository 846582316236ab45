package workflow

import (
	"context"
	"log/slog"

	"linguaflow/internal/cache"
	"linguaflow/internal/logging"
	"linguaflow/internal/notifications"
	"linguaflow/internal/store"
	"linguaflow/internal/webhooks"
)

// Effects fans out the side effects of a committed state transition: cache
// invalidation, push notification, webhook event, and translation-memory
// sync. Every effect is best-effort; failures are logged and never surfaced
// to the API caller or rolled into the transaction.
type Effects struct {
	store    *store.Store
	cache    cache.Cache
	notifier notifications.Service
	webhooks webhooks.Dispatcher
	logger   *slog.Logger
}

// NewEffects wires the fan-out targets. Any nil collaborator disables its
// effect.
func NewEffects(st *store.Store, c cache.Cache, notifier notifications.Service, dispatcher webhooks.Dispatcher, logger *slog.Logger) *Effects {
	return &Effects{
		store:    st,
		cache:    c,
		notifier: notifier,
		webhooks: dispatcher,
		logger:   logging.NewComponentLogger(logger, "workflow-effects"),
	}
}

// TransitionContext carries the denormalized names the effects need so they
// never re-query inside the fan-out path.
type TransitionContext struct {
	Project      *store.Project
	Key          *store.TranslationKey
	Language     *store.Language
	OldValue     string
	NewValue     string
	OldState     store.State
	NewState     store.State
	Translation  *store.Translation
	StateChanged bool
}

func (e *Effects) translationUpdated(ctx context.Context, tc TransitionContext) {
	e.invalidate(tc)
	e.dispatch(ctx, webhooks.EventTranslationUpdated, tc)
	if e.notifier != nil && tc.StateChanged && tc.NewState == store.StateReview {
		if err := e.notifier.NotifyReviewRequested(ctx, tc.Project.Name, tc.Key.QualifiedName(), tc.Language.Code); err != nil {
			e.warn("review notification failed", err)
		}
	}
}

func (e *Effects) translationApproved(ctx context.Context, tc TransitionContext) {
	e.invalidate(tc)
	e.dispatch(ctx, webhooks.EventTranslationApproved, tc)
	if e.notifier == nil {
		e.syncMemory(ctx, tc)
		return
	}
	if err := e.notifier.NotifyTranslationApproved(ctx, tc.Project.Name, tc.Key.QualifiedName(), tc.Language.Code); err != nil {
		e.warn("approval notification failed", err)
	}
	e.syncMemory(ctx, tc)
}

func (e *Effects) translationRejected(ctx context.Context, tc TransitionContext) {
	e.invalidate(tc)
	e.dispatch(ctx, webhooks.EventTranslationRejected, tc)
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyTranslationRejected(ctx, tc.Project.Name, tc.Key.QualifiedName(), tc.Language.Code); err != nil {
		e.warn("rejection notification failed", err)
	}
}

func (e *Effects) invalidate(tc TransitionContext) {
	if e.cache == nil {
		return
	}
	e.cache.Invalidate(tc.Project.ID, tc.Language.ID)
}

func (e *Effects) dispatch(ctx context.Context, eventType webhooks.EventType, tc TransitionContext) {
	if e.webhooks == nil {
		return
	}
	e.webhooks.Dispatch(ctx, webhooks.NewEvent(eventType, tc.Project.ID, map[string]any{
		"key":       tc.Key.Key,
		"namespace": tc.Key.Namespace,
		"language":  tc.Language.Code,
		"oldValue":  tc.OldValue,
		"newValue":  tc.NewValue,
		"oldState":  string(tc.OldState),
		"newState":  string(tc.NewState),
	}))
}

// syncMemory records the approved (source, target) pair keyed by the
// project's default language. Keys without a source-language value are
// skipped; there is nothing to pair.
func (e *Effects) syncMemory(ctx context.Context, tc TransitionContext) {
	if e.store == nil {
		return
	}
	if tc.Language.ID == tc.Project.DefaultLanguageID {
		return
	}
	source, err := store.GetTranslationByKeyLanguage(ctx, e.store.DB(), tc.Key.ID, tc.Project.DefaultLanguageID)
	if err != nil {
		e.warn("translation memory source lookup failed", err)
		return
	}
	if source == nil || source.Value == "" {
		return
	}
	if err := e.store.UpsertMemory(ctx, tc.Project.ID, tc.Project.DefaultLanguageID, tc.Language.ID, source.Value, tc.NewValue); err != nil {
		e.warn("translation memory sync failed", err)
	}
}

func (e *Effects) warn(msg string, err error) {
	e.logger.Warn(msg, logging.Error(err))
}
