package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"linguaflow/internal/logging"
	"linguaflow/internal/services"
	"linguaflow/internal/store"
)

// Engine enforces the translation state machine: draft -> review -> approved,
// with review -> draft on rejection. Every transition is one transaction
// (history snapshot plus translation update); side effects fire after commit.
type Engine struct {
	store   *store.Store
	effects *Effects
	logger  *slog.Logger
}

// NewEngine constructs the state machine over the given store.
func NewEngine(st *store.Store, effects *Effects, logger *slog.Logger) *Engine {
	return &Engine{
		store:   st,
		effects: effects,
		logger:  logging.NewComponentLogger(logger, "workflow"),
	}
}

// WriteRequest describes an authored value write flowing through the state
// machine's write path.
type WriteRequest struct {
	KeyID          int64
	LanguageID     int64
	Value          string
	ActorID        int64
	RequiresReview bool
}

// WriteResult reports what ApplyWrite changed.
type WriteResult struct {
	Translation *store.Translation
	Created     bool
	OldValue    string
	OldState    store.State
}

// ApplyWrite is the single write path for translation values: it snapshots
// history and upserts the row atomically. Callers compose it inside their
// own transaction (the engine for single edits, the importer per batch item,
// the queue worker on completion).
func ApplyWrite(ctx context.Context, q store.DBTX, req WriteRequest) (WriteResult, error) {
	existing, err := store.GetTranslationByKeyLanguage(ctx, q, req.KeyID, req.LanguageID)
	if err != nil {
		return WriteResult{}, err
	}

	result := WriteResult{}
	if existing != nil {
		result.OldValue = existing.Value
		result.OldState = existing.State
	}

	state := store.StateDraft
	if req.RequiresReview {
		state = store.StateReview
	}

	translation, created, err := store.UpsertTranslation(ctx, q, store.TranslationWrite{
		KeyID:      req.KeyID,
		LanguageID: req.LanguageID,
		Value:      req.Value,
		State:      state,
		CreatedBy:  req.ActorID,
	})
	if err != nil {
		return WriteResult{}, err
	}
	if err := store.AppendHistory(ctx, q, translation.ID, req.Value, state, req.ActorID); err != nil {
		return WriteResult{}, err
	}

	result.Translation = translation
	result.Created = created
	return result, nil
}

// SubmitForReview writes a new value for (keyID, languageID) on behalf of the
// actor. The resulting state is review when the project requires review and
// draft otherwise. Permission violations fail fast without touching storage.
func (e *Engine) SubmitForReview(ctx context.Context, actor Actor, projectID, keyID, languageID int64, value string) (*store.Translation, error) {
	tc, err := e.loadContext(ctx, projectID, keyID, languageID)
	if err != nil {
		return nil, err
	}

	existing, err := store.GetTranslationByKeyLanguage(ctx, e.store.DB(), keyID, languageID)
	if err != nil {
		return nil, err
	}
	var (
		existingState store.State
		createdBy     int64
	)
	if existing != nil {
		existingState = existing.State
		createdBy = existing.CreatedBy
	}
	if !CanEditTranslation(actor.Role, existingState, createdBy, actor.ID) {
		return nil, services.Wrap(services.ErrForbidden, "submit for review",
			fmt.Sprintf("role %s may not edit translation in state %s", actor.Role, existingState), nil)
	}

	var result WriteResult
	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		result, err = ApplyWrite(ctx, tx, WriteRequest{
			KeyID:          keyID,
			LanguageID:     languageID,
			Value:          value,
			ActorID:        actor.ID,
			RequiresReview: tc.Project.RequiresReview,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	tc.OldValue = result.OldValue
	tc.OldState = result.OldState
	tc.NewValue = value
	tc.NewState = result.Translation.State
	tc.Translation = result.Translation
	tc.StateChanged = result.OldState != result.Translation.State
	if e.effects != nil {
		e.effects.translationUpdated(ctx, tc)
	}
	return result.Translation, nil
}

// Approve moves a translation from review to approved and records the
// reviewer. Only reviewers and admins may approve, and only from review.
func (e *Engine) Approve(ctx context.Context, actor Actor, projectID, translationID int64) (*store.Translation, error) {
	return e.decide(ctx, actor, projectID, translationID, store.StateApproved)
}

// Reject moves a translation from review back to draft.
func (e *Engine) Reject(ctx context.Context, actor Actor, projectID, translationID int64) (*store.Translation, error) {
	return e.decide(ctx, actor, projectID, translationID, store.StateDraft)
}

func (e *Engine) decide(ctx context.Context, actor Actor, projectID, translationID int64, target store.State) (*store.Translation, error) {
	translation, err := store.GetTranslation(ctx, e.store.DB(), translationID)
	if err != nil {
		return nil, err
	}
	if translation == nil {
		return nil, services.Wrap(services.ErrNotFound, "review decision", fmt.Sprintf("translation %d", translationID), nil)
	}
	if !CanApproveTranslation(actor.Role, translation.State) {
		return nil, services.Wrap(services.ErrForbidden, "review decision",
			fmt.Sprintf("role %s may not decide a translation in state %s", actor.Role, translation.State), nil)
	}

	tc, err := e.loadContext(ctx, projectID, translation.KeyID, translation.LanguageID)
	if err != nil {
		return nil, err
	}

	var reviewedBy *int64
	if target == store.StateApproved {
		reviewedBy = &actor.ID
	}

	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.UpdateTranslationState(ctx, tx, translation.ID, target, reviewedBy); err != nil {
			return err
		}
		return store.AppendHistory(ctx, tx, translation.ID, translation.Value, target, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	updated, err := store.GetTranslation(ctx, e.store.DB(), translation.ID)
	if err != nil {
		return nil, err
	}

	tc.OldValue = translation.Value
	tc.NewValue = translation.Value
	tc.OldState = translation.State
	tc.NewState = target
	tc.Translation = updated
	tc.StateChanged = true
	if e.effects != nil {
		if target == store.StateApproved {
			e.effects.translationApproved(ctx, tc)
		} else {
			e.effects.translationRejected(ctx, tc)
		}
	}
	return updated, nil
}

// FireReviewRequested lets batch write paths (push, import) reuse the same
// post-commit fan-out as single edits.
func (e *Engine) FireReviewRequested(ctx context.Context, tc TransitionContext) {
	if e.effects != nil {
		e.effects.translationUpdated(ctx, tc)
	}
}

// Store exposes the backing store for collaborators that compose with the
// engine's write path.
func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) loadContext(ctx context.Context, projectID, keyID, languageID int64) (TransitionContext, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return TransitionContext{}, err
	}
	if project == nil {
		return TransitionContext{}, services.Wrap(services.ErrNotFound, "load project", fmt.Sprintf("project %d", projectID), nil)
	}
	key, err := store.GetKey(ctx, e.store.DB(), keyID)
	if err != nil {
		return TransitionContext{}, err
	}
	if key == nil || key.ProjectID != projectID {
		return TransitionContext{}, services.Wrap(services.ErrNotFound, "load key", fmt.Sprintf("key %d", keyID), nil)
	}
	language, err := e.store.GetLanguage(ctx, languageID)
	if err != nil {
		return TransitionContext{}, err
	}
	if language == nil {
		return TransitionContext{}, services.Wrap(services.ErrNotFound, "load language", fmt.Sprintf("language %d", languageID), nil)
	}
	return TransitionContext{Project: project, Key: key, Language: language}, nil
}
