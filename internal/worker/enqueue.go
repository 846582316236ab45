package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"linguaflow/internal/queue"
	"linguaflow/internal/services"
	"linguaflow/internal/store"
)

// Enqueuer expands an enqueue request into individual queue items. It is
// deliberately separate from the Manager so the HTTP layer can enqueue
// without holding the worker pool.
type Enqueuer struct {
	store *store.Store
	queue *queue.Store
}

// NewEnqueuer wires the enqueue service.
func NewEnqueuer(st *store.Store, qs *queue.Store) *Enqueuer {
	return &Enqueuer{store: st, queue: qs}
}

// EnqueueResult reports how many items were queued and any per-key issues.
type EnqueueResult struct {
	Queued  int      `json:"queued"`
	BatchID string   `json:"batchId"`
	Errors  []string `json:"errors,omitempty"`
}

// Enqueue creates one pending item per (key, target language) pair. The
// source text is the key's value in the project's default language; keys
// without one are skipped as soft errors. Target languages equal to the
// source are ignored.
func (e *Enqueuer) Enqueue(ctx context.Context, projectID int64, keyIDs, targetLanguageIDs []int64) (*EnqueueResult, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "enqueue", fmt.Sprintf("project %d", projectID), nil)
	}
	if len(keyIDs) == 0 || len(targetLanguageIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "enqueue", "keyIds and targetLanguageIds are required", nil)
	}

	result := &EnqueueResult{BatchID: uuid.NewString()}
	for _, keyID := range keyIDs {
		key, err := store.GetKey(ctx, e.store.DB(), keyID)
		if err != nil {
			return nil, err
		}
		if key == nil || key.ProjectID != projectID {
			result.Errors = append(result.Errors, fmt.Sprintf("key %d not found in project", keyID))
			continue
		}

		source, err := store.GetTranslationByKeyLanguage(ctx, e.store.DB(), keyID, project.DefaultLanguageID)
		if err != nil {
			return nil, err
		}
		if source == nil || source.Value == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("key %q has no source-language value", key.QualifiedName()))
			continue
		}

		for _, targetID := range targetLanguageIDs {
			if targetID == project.DefaultLanguageID {
				continue
			}
			if _, err := e.queue.Enqueue(ctx, queue.EnqueueRequest{
				ProjectID:        projectID,
				KeyID:            keyID,
				SourceText:       source.Value,
				SourceLanguageID: project.DefaultLanguageID,
				TargetLanguageID: targetID,
				BatchID:          result.BatchID,
			}); err != nil {
				return nil, err
			}
			result.Queued++
		}
	}
	return result, nil
}
