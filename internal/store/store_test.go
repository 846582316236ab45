package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"linguaflow/internal/store"
	"linguaflow/internal/testsupport"
)

type fixture struct {
	store   *store.Store
	project *store.Project
	source  *store.Language
	target  *store.Language
	key     *store.TranslationKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	source := testsupport.SeedLanguage(t, st, "en", "English")
	target := testsupport.SeedLanguage(t, st, "es", "Spanish")
	project := testsupport.SeedProject(t, st, "web-app", true, source.ID)
	key := testsupport.SeedKey(t, st, project.ID, "welcome", "common")
	return &fixture{store: st, project: project, source: source, target: target, key: key}
}

func TestUpsertTranslationKeepsSingleRow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, created, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
		KeyID:      fx.key.ID,
		LanguageID: fx.target.ID,
		Value:      "Hola",
		CreatedBy:  1,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert must report created")
	}

	second, created, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
		KeyID:      fx.key.ID,
		LanguageID: fx.target.ID,
		Value:      "Buenas",
		CreatedBy:  2,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert must report updated, not created")
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must reuse the row: %d != %d", second.ID, first.ID)
	}
	if second.Value != "Buenas" {
		t.Fatalf("expected updated value, got %q", second.Value)
	}
	if second.CreatedBy != 1 {
		t.Fatalf("updates must preserve the original author, got %d", second.CreatedBy)
	}

	count, err := fx.store.CountTranslations(ctx)
	if err != nil {
		t.Fatalf("CountTranslations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row per key and language, got %d", count)
	}
}

func TestUpsertTranslationConcurrentWriters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
				KeyID:      fx.key.ID,
				LanguageID: fx.target.ID,
				Value:      "value",
				CreatedBy:  int64(n),
			})
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert: %v", err)
		}
	}

	count, err := fx.store.CountTranslations(ctx)
	if err != nil {
		t.Fatalf("CountTranslations: %v", err)
	}
	if count != 1 {
		t.Fatalf("uniqueness invariant violated: %d rows", count)
	}
}

func TestKeyIdentityIsNamespaceScoped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	other, err := store.CreateKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "emails", "")
	if err != nil {
		t.Fatalf("CreateKey in second namespace: %v", err)
	}
	if other.ID == fx.key.ID {
		t.Fatal("same key name in different namespaces must be distinct rows")
	}

	found, err := store.FindKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common")
	if err != nil {
		t.Fatalf("FindKey: %v", err)
	}
	if found == nil || found.ID != fx.key.ID {
		t.Fatal("FindKey must match on namespace")
	}

	if _, err := store.CreateKey(ctx, fx.store.DB(), fx.project.ID, "welcome", "common", ""); err == nil {
		t.Fatal("duplicate (project, key, namespace) must be rejected")
	}
}

func TestLanguageCodeNormalization(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	lang, err := fx.store.CreateLanguage(ctx, " PT-br ", "Portuguese (Brazil)")
	if err != nil {
		t.Fatalf("CreateLanguage: %v", err)
	}
	if lang.Code != "pt-BR" {
		t.Fatalf("expected canonical pt-BR, got %q", lang.Code)
	}

	byCode, err := fx.store.GetLanguageByCode(ctx, "pt-br")
	if err != nil {
		t.Fatalf("GetLanguageByCode: %v", err)
	}
	if byCode == nil || byCode.ID != lang.ID {
		t.Fatal("lookup must normalize before matching")
	}

	if _, err := fx.store.CreateLanguage(ctx, "not a tag", "Bogus"); !errors.Is(err, store.ErrInvalidLanguageCode) {
		t.Fatalf("expected ErrInvalidLanguageCode, got %v", err)
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	translation, _, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
		KeyID:      fx.key.ID,
		LanguageID: fx.target.ID,
		Value:      "Hola",
		CreatedBy:  1,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for i, value := range []string{"Hola", "Buenas", "Saludos"} {
		if err := store.AppendHistory(ctx, fx.store.DB(), translation.ID, value, store.StateDraft, int64(i+1)); err != nil {
			t.Fatalf("AppendHistory %d: %v", i, err)
		}
	}

	history, err := fx.store.HistoryForTranslation(ctx, translation.ID)
	if err != nil {
		t.Fatalf("HistoryForTranslation: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Value != "Hola" || history[2].Value != "Saludos" {
		t.Fatalf("history must preserve insertion order, got %+v", history)
	}
}

func TestMemoryUsageCountIncrements(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := fx.store.UpsertMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome", "Bienvenido"); err != nil {
			t.Fatalf("UpsertMemory %d: %v", i, err)
		}
	}

	entry, err := fx.store.LookupMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome")
	if err != nil {
		t.Fatalf("LookupMemory: %v", err)
	}
	if entry == nil {
		t.Fatal("expected memory entry")
	}
	if entry.UsageCount != 3 {
		t.Fatalf("expected usage count 3, got %d", entry.UsageCount)
	}
}

func TestMemoryFuzzyLookupFindsNearMatch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.store.UpsertMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome to the dashboard", "Bienvenido al panel"); err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}
	if err := fx.store.UpsertMemory(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Delete your account", "Elimina tu cuenta"); err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}

	entry, score, err := fx.store.LookupMemoryFuzzy(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Welcome to the Dashboard!", 0.95)
	if err != nil {
		t.Fatalf("LookupMemoryFuzzy: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a fuzzy match")
	}
	if entry.TargetText != "Bienvenido al panel" {
		t.Fatalf("wrong entry matched: %+v", entry)
	}
	if score < 0.95 {
		t.Fatalf("score below threshold: %f", score)
	}

	entry, _, err = fx.store.LookupMemoryFuzzy(ctx, fx.project.ID, fx.source.ID, fx.target.ID, "Completely unrelated text", 0.95)
	if err != nil {
		t.Fatalf("LookupMemoryFuzzy: %v", err)
	}
	if entry != nil {
		t.Fatalf("unrelated text must not match, got %+v", entry)
	}
}

func TestDeleteKeyCascades(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	translation, _, err := store.UpsertTranslation(ctx, fx.store.DB(), store.TranslationWrite{
		KeyID:      fx.key.ID,
		LanguageID: fx.target.ID,
		Value:      "Hola",
		CreatedBy:  1,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.AppendHistory(ctx, fx.store.DB(), translation.ID, "Hola", store.StateDraft, 1); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	deleted, err := fx.store.DeleteKey(ctx, fx.key.ID)
	if err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if !deleted {
		t.Fatal("expected key to be deleted")
	}

	gone, err := store.GetTranslation(ctx, fx.store.DB(), translation.ID)
	if err != nil {
		t.Fatalf("GetTranslation: %v", err)
	}
	if gone != nil {
		t.Fatal("translations must cascade on key delete")
	}
}
