package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"linguaflow/internal/logging"
	"linguaflow/internal/services"
	"linguaflow/internal/store"
	"linguaflow/internal/workflow"
)

// Resolution is the policy applied when an imported key already exists.
type Resolution string

const (
	ResolutionSkip      Resolution = "skip"
	ResolutionOverwrite Resolution = "overwrite"
	ResolutionMerge     Resolution = "merge"
)

// ParseResolution validates a resolution string, defaulting to overwrite
// when empty.
func ParseResolution(value string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return ResolutionOverwrite, nil
	case ResolutionSkip:
		return ResolutionSkip, nil
	case ResolutionOverwrite:
		return ResolutionOverwrite, nil
	case ResolutionMerge:
		return ResolutionMerge, nil
	default:
		return "", fmt.Errorf("unknown conflict resolution %q", value)
	}
}

// Item is one imported key with its per-language values. A nil Description
// leaves an existing description untouched.
type Item struct {
	Key          string
	Namespace    string
	Description  *string
	Translations map[string]string
}

// Request describes one bulk import batch.
type Request struct {
	ProjectID         int64
	ActorID           int64
	Items             []Item
	Resolutions       map[string]Resolution
	DefaultResolution Resolution
	Deprecate         []string
	DryRun            bool
}

// Report carries the counters for one batch. Merge resolution counts a
// translation as updated even when the incoming value was empty or identical;
// the counting contract is part of the API surface and covered by tests.
type Report struct {
	KeysCreated         int      `json:"keysCreated"`
	KeysUpdated         int      `json:"keysUpdated"`
	TranslationsCreated int      `json:"translationsCreated"`
	TranslationsUpdated int      `json:"translationsUpdated"`
	KeysSkipped         int      `json:"keysSkipped"`
	Deprecated          int      `json:"deprecated"`
	Errors              []string `json:"errors,omitempty"`
	DryRun              bool     `json:"dryRun,omitempty"`
}

// Engine runs bulk imports as a single transaction and exports approved
// snapshots. Dry runs execute the identical write path and roll the
// transaction back, so preview counts match a subsequent real run against
// the same state.
type Engine struct {
	store    *store.Store
	workflow *workflow.Engine
	logger   *slog.Logger
}

// NewEngine wires the importer over the shared store and state machine.
func NewEngine(st *store.Store, wf *workflow.Engine, logger *slog.Logger) *Engine {
	return &Engine{
		store:    st,
		workflow: wf,
		logger:   logging.NewComponentLogger(logger, "importer"),
	}
}

var errDryRunRollback = errors.New("dry run rollback")

// Run executes one import batch. Structural failures abort and roll back the
// whole batch; expected per-item issues (unknown language codes, unknown
// deprecate targets) are collected into Report.Errors and do not abort.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	project, err := e.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "bulk import", fmt.Sprintf("project %d", req.ProjectID), nil)
	}

	defaultResolution := req.DefaultResolution
	if defaultResolution == "" {
		defaultResolution = ResolutionOverwrite
	}

	languages, err := e.languageIndex(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var transitions []workflow.TransitionContext

	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		index, err := keyIndex(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			if err := e.applyItem(ctx, tx, project, index, languages, item, req, defaultResolution, report, &transitions); err != nil {
				return err
			}
		}

		if err := e.applyDeprecations(ctx, tx, index, req.Deprecate, report); err != nil {
			return err
		}

		if req.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if errors.Is(err, errDryRunRollback) {
		report.DryRun = true
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	for _, tc := range transitions {
		e.workflow.FireReviewRequested(ctx, tc)
	}

	e.logger.Info("bulk import committed",
		logging.Int64("project_id", req.ProjectID),
		logging.Int("keys_created", report.KeysCreated),
		logging.Int("keys_updated", report.KeysUpdated),
		logging.Int("translations_created", report.TranslationsCreated),
		logging.Int("translations_updated", report.TranslationsUpdated),
		logging.Int("soft_errors", len(report.Errors)))
	return report, nil
}

func (e *Engine) applyItem(
	ctx context.Context,
	tx *sql.Tx,
	project *store.Project,
	index map[string]*store.TranslationKey,
	languages map[string]*store.Language,
	item Item,
	req Request,
	defaultResolution Resolution,
	report *Report,
	transitions *[]workflow.TransitionContext,
) error {
	name := strings.TrimSpace(item.Key)
	if name == "" {
		report.Errors = append(report.Errors, "empty translation key")
		return nil
	}

	resolution := defaultResolution
	if override, ok := req.Resolutions[name]; ok {
		resolution = override
	}

	indexKey := item.Namespace + "\x00" + name
	key, exists := index[indexKey]
	switch {
	case !exists:
		description := ""
		if item.Description != nil {
			description = *item.Description
		}
		created, err := store.CreateKey(ctx, tx, project.ID, name, item.Namespace, description)
		if err != nil {
			return err
		}
		index[indexKey] = created
		key = created
		report.KeysCreated++
	case resolution == ResolutionSkip:
		report.KeysSkipped++
	default:
		if item.Description != nil && *item.Description != key.Description {
			if err := store.UpdateKeyMetadata(ctx, tx, key.ID, *item.Description, key.Deprecated); err != nil {
				return err
			}
			key.Description = *item.Description
		}
		report.KeysUpdated++
	}

	for _, code := range sortedCodes(item.Translations) {
		value := item.Translations[code]
		lang, ok := languages[code]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("unknown language code %q for key %q", code, key.QualifiedName()))
			continue
		}

		existing, err := store.GetTranslationByKeyLanguage(ctx, tx, key.ID, lang.ID)
		if err != nil {
			return err
		}

		write := false
		switch {
		case existing == nil:
			write = true
			report.TranslationsCreated++
		case resolution == ResolutionSkip:
			// Existing rows stay untouched under skip.
		case resolution == ResolutionOverwrite:
			write = true
			report.TranslationsUpdated++
		case resolution == ResolutionMerge:
			report.TranslationsUpdated++
			write = value != "" && value != existing.Value
		}
		if !write {
			continue
		}

		result, err := workflow.ApplyWrite(ctx, tx, workflow.WriteRequest{
			KeyID:          key.ID,
			LanguageID:     lang.ID,
			Value:          value,
			ActorID:        req.ActorID,
			RequiresReview: project.RequiresReview,
		})
		if err != nil {
			return err
		}

		if key.Deprecated {
			if err := store.SetKeyDeprecated(ctx, tx, key.ID, false); err != nil {
				return err
			}
			key.Deprecated = false
		}

		*transitions = append(*transitions, workflow.TransitionContext{
			Project:      project,
			Key:          key,
			Language:     lang,
			OldValue:     result.OldValue,
			NewValue:     value,
			OldState:     result.OldState,
			NewState:     result.Translation.State,
			Translation:  result.Translation,
			StateChanged: result.OldState != result.Translation.State,
		})
	}
	return nil
}

// applyDeprecations marks named keys deprecated. Names match either the bare
// key or its qualified "namespace.key" form; marking an already-deprecated
// key is a no-op that still counts.
func (e *Engine) applyDeprecations(ctx context.Context, tx *sql.Tx, index map[string]*store.TranslationKey, names []string, report *Report) error {
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		matched := false
		for _, key := range index {
			if key.Key != name && key.QualifiedName() != name {
				continue
			}
			matched = true
			if err := store.SetKeyDeprecated(ctx, tx, key.ID, true); err != nil {
				return err
			}
			key.Deprecated = true
			report.Deprecated++
		}
		if !matched {
			report.Errors = append(report.Errors, fmt.Sprintf("unknown key %q in deprecate list", name))
		}
	}
	return nil
}

// languageIndex resolves every language code referenced by the batch in one
// pass. Unknown codes are simply absent; the per-item loop reports them as
// soft errors.
func (e *Engine) languageIndex(ctx context.Context, items []Item) (map[string]*store.Language, error) {
	out := make(map[string]*store.Language)
	for _, item := range items {
		for code := range item.Translations {
			if _, seen := out[code]; seen {
				continue
			}
			lang, err := e.store.GetLanguageByCode(ctx, code)
			if err != nil {
				if errors.Is(err, store.ErrInvalidLanguageCode) {
					continue
				}
				return nil, err
			}
			if lang != nil {
				out[code] = lang
			}
		}
	}
	return out, nil
}

func keyIndex(ctx context.Context, tx *sql.Tx, projectID int64) (map[string]*store.TranslationKey, error) {
	keys, err := store.KeysByProject(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*store.TranslationKey, len(keys))
	for _, key := range keys {
		index[key.Namespace+"\x00"+key.Key] = key
	}
	return index, nil
}

func sortedCodes(values map[string]string) []string {
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
