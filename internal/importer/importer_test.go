package importer_test

import (
	"context"
	"testing"

	"linguaflow/internal/importer"
	"linguaflow/internal/logging"
	"linguaflow/internal/store"
	"linguaflow/internal/testsupport"
	"linguaflow/internal/workflow"
)

type fixture struct {
	store   *store.Store
	engine  *importer.Engine
	project *store.Project
	source  *store.Language
	target  *store.Language
}

func newFixture(t *testing.T, requiresReview bool) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	source := testsupport.SeedLanguage(t, st, "en", "English")
	target := testsupport.SeedLanguage(t, st, "es", "Spanish")
	project := testsupport.SeedProject(t, st, "web-app", requiresReview, source.ID)

	logger := logging.NewNop()
	wf := workflow.NewEngine(st, nil, logger)
	engine := importer.NewEngine(st, wf, logger)

	return &fixture{store: st, engine: engine, project: project, source: source, target: target}
}

func (fx *fixture) value(t *testing.T, key *store.TranslationKey, lang *store.Language) string {
	t.Helper()
	translation, err := store.GetTranslationByKeyLanguage(context.Background(), fx.store.DB(), key.ID, lang.ID)
	if err != nil {
		t.Fatalf("GetTranslationByKeyLanguage: %v", err)
	}
	if translation == nil {
		t.Fatalf("expected translation for key %d lang %d", key.ID, lang.ID)
	}
	return translation.Value
}

func TestImportCreatesKeysAndTranslations(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	report, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"en": "Welcome", "es": "Bienvenido"}},
			{Key: "goodbye", Namespace: "common", Translations: map[string]string{"en": "Goodbye"}},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.KeysCreated != 2 {
		t.Fatalf("expected 2 keys created, got %d", report.KeysCreated)
	}
	if report.TranslationsCreated != 3 {
		t.Fatalf("expected 3 translations created, got %d", report.TranslationsCreated)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("expected no soft errors, got %v", report.Errors)
	}

	key, err := store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil {
		t.Fatalf("FindKey: %v", err)
	}
	if key == nil {
		t.Fatal("expected welcome key to exist")
	}
	if got := fx.value(t, key, fx.target); got != "Bienvenido" {
		t.Fatalf("expected Bienvenido, got %q", got)
	}
}

func TestDryRunMatchesRealRunAndLeavesNoRows(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	req := importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"en": "Welcome", "es": "Bienvenido"}},
		},
		DryRun: true,
	}

	before, err := fx.store.CountTranslations(ctx)
	if err != nil {
		t.Fatalf("CountTranslations: %v", err)
	}

	preview, err := fx.engine.Run(ctx, req)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !preview.DryRun {
		t.Fatal("expected dryRun flag on preview report")
	}

	after, err := fx.store.CountTranslations(ctx)
	if err != nil {
		t.Fatalf("CountTranslations: %v", err)
	}
	if before != after {
		t.Fatalf("dry run changed row count: %d -> %d", before, after)
	}

	req.DryRun = false
	committed, err := fx.engine.Run(ctx, req)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}

	if preview.KeysCreated != committed.KeysCreated ||
		preview.TranslationsCreated != committed.TranslationsCreated ||
		preview.TranslationsUpdated != committed.TranslationsUpdated ||
		preview.KeysSkipped != committed.KeysSkipped {
		t.Fatalf("preview counts %+v do not match committed counts %+v", preview, committed)
	}
}

func TestResolutionSemantics(t *testing.T) {
	seed := func(t *testing.T) (*fixture, *store.TranslationKey) {
		fx := newFixture(t, false)
		if _, err := fx.engine.Run(context.Background(), importer.Request{
			ProjectID: fx.project.ID,
			ActorID:   1,
			Items: []importer.Item{
				{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Hola"}},
			},
		}); err != nil {
			t.Fatalf("seed import: %v", err)
		}
		key, err := store.FindKey(context.Background(), fx.store.DB(), fx.project.ID, "welcome", "common")
		if err != nil || key == nil {
			t.Fatalf("FindKey: %v", err)
		}
		return fx, key
	}

	t.Run("skip never changes an existing value", func(t *testing.T) {
		fx, key := seed(t)
		report, err := fx.engine.Run(context.Background(), importer.Request{
			ProjectID:         fx.project.ID,
			ActorID:           1,
			DefaultResolution: importer.ResolutionSkip,
			Items: []importer.Item{
				{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Buenas"}},
			},
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.KeysSkipped != 1 {
			t.Fatalf("expected 1 key skipped, got %d", report.KeysSkipped)
		}
		if got := fx.value(t, key, fx.target); got != "Hola" {
			t.Fatalf("skip must not change value; got %q", got)
		}
	})

	t.Run("overwrite always replaces", func(t *testing.T) {
		fx, key := seed(t)
		report, err := fx.engine.Run(context.Background(), importer.Request{
			ProjectID:         fx.project.ID,
			ActorID:           1,
			DefaultResolution: importer.ResolutionOverwrite,
			Items: []importer.Item{
				{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Buenas"}},
			},
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.TranslationsUpdated != 1 {
			t.Fatalf("expected 1 translation updated, got %d", report.TranslationsUpdated)
		}
		if got := fx.value(t, key, fx.target); got != "Buenas" {
			t.Fatalf("overwrite must replace value; got %q", got)
		}
	})

	t.Run("merge replaces only non-empty differing values", func(t *testing.T) {
		fx, key := seed(t)
		report, err := fx.engine.Run(context.Background(), importer.Request{
			ProjectID:         fx.project.ID,
			ActorID:           1,
			DefaultResolution: importer.ResolutionMerge,
			Items: []importer.Item{
				{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": ""}},
			},
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := fx.value(t, key, fx.target); got != "Hola" {
			t.Fatalf("merge with empty value must not replace; got %q", got)
		}
		// The updated counter still moves for merge, changed value or not.
		if report.TranslationsUpdated != 1 {
			t.Fatalf("merge counting contract: expected 1 translation updated, got %d", report.TranslationsUpdated)
		}

		report, err = fx.engine.Run(context.Background(), importer.Request{
			ProjectID:         fx.project.ID,
			ActorID:           1,
			DefaultResolution: importer.ResolutionMerge,
			Items: []importer.Item{
				{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Buenas"}},
			},
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := fx.value(t, key, fx.target); got != "Buenas" {
			t.Fatalf("merge with differing value must replace; got %q", got)
		}
		if report.TranslationsUpdated != 1 {
			t.Fatalf("expected 1 translation updated, got %d", report.TranslationsUpdated)
		}
	})
}

func TestUnknownLanguageIsSoftError(t *testing.T) {
	fx := newFixture(t, false)

	report, err := fx.engine.Run(context.Background(), importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"fr": "Bienvenue", "es": "Bienvenido"}},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 soft error, got %v", report.Errors)
	}
	if report.TranslationsCreated != 1 {
		t.Fatalf("batch must continue past soft errors; got %d created", report.TranslationsCreated)
	}
}

func TestDeprecateAndPushClears(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if _, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Hola"}},
		},
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	report, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Deprecate: []string{"welcome"},
	})
	if err != nil {
		t.Fatalf("deprecate run: %v", err)
	}
	if report.Deprecated != 1 {
		t.Fatalf("expected 1 deprecated, got %d", report.Deprecated)
	}

	// Deprecating again is idempotent and still counts.
	report, err = fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Deprecate: []string{"welcome"},
	})
	if err != nil {
		t.Fatalf("repeat deprecate run: %v", err)
	}
	if report.Deprecated != 1 {
		t.Fatalf("expected idempotent deprecate to count 1, got %d", report.Deprecated)
	}

	key, err := store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil || key == nil {
		t.Fatalf("FindKey: %v", err)
	}
	if !key.Deprecated {
		t.Fatal("expected key to be deprecated")
	}

	// Pushing a value clears the deprecated flag.
	if _, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Buenas"}},
		},
	}); err != nil {
		t.Fatalf("push run: %v", err)
	}
	key, err = store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil || key == nil {
		t.Fatalf("FindKey: %v", err)
	}
	if key.Deprecated {
		t.Fatal("pushing a value must clear the deprecated flag")
	}
}

func TestImportIntoReviewProjectEntersReview(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	if _, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Hola"}},
		},
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	key, err := store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil || key == nil {
		t.Fatalf("FindKey: %v", err)
	}
	translation, err := store.GetTranslationByKeyLanguage(ctx, fx.store.DB(), key.ID, fx.target.ID)
	if err != nil {
		t.Fatalf("GetTranslationByKeyLanguage: %v", err)
	}
	if translation.State != store.StateReview {
		t.Fatalf("expected review state, got %s", translation.State)
	}
}

func TestExportPublishesOnlyApproved(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	if _, err := fx.engine.Run(ctx, importer.Request{
		ProjectID: fx.project.ID,
		ActorID:   1,
		Items: []importer.Item{
			{Key: "welcome", Namespace: "common", Translations: map[string]string{"es": "Hola"}},
			{Key: "goodbye", Namespace: "common", Translations: map[string]string{"es": "Adios"}},
		},
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	key, err := store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil || key == nil {
		t.Fatalf("FindKey: %v", err)
	}
	translation, err := store.GetTranslationByKeyLanguage(ctx, fx.store.DB(), key.ID, fx.target.ID)
	if err != nil {
		t.Fatalf("GetTranslationByKeyLanguage: %v", err)
	}
	if err := store.UpdateTranslationState(ctx, fx.store.DB(), translation.ID, store.StateApproved, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	snapshot, err := fx.engine.Export(ctx, fx.project.ID, "es", "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	common := snapshot.Translations["common"]
	if common["welcome"] != "Hola" {
		t.Fatalf("expected approved value in export, got %v", common)
	}
	if _, ok := common["goodbye"]; ok {
		t.Fatal("draft values must not be exported")
	}
}
