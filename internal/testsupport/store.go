package testsupport

import (
	"context"
	"testing"

	"linguaflow/internal/config"
	"linguaflow/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedProject creates a project for tests using the provided store.
func SeedProject(t testing.TB, st *store.Store, name string, requiresReview bool, defaultLanguageID int64) *store.Project {
	t.Helper()

	project, err := st.CreateProject(context.Background(), name, requiresReview, defaultLanguageID)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}

// SeedLanguage registers a language for tests, failing on invalid codes.
func SeedLanguage(t testing.TB, st *store.Store, code, name string) *store.Language {
	t.Helper()

	lang, err := st.CreateLanguage(context.Background(), code, name)
	if err != nil {
		t.Fatalf("store.CreateLanguage(%s): %v", code, err)
	}
	return lang
}

// SeedKey creates a translation key for tests.
func SeedKey(t testing.TB, st *store.Store, projectID int64, key, namespace string) *store.TranslationKey {
	t.Helper()

	created, err := store.CreateKey(context.Background(), st.DB(), projectID, key, namespace, "")
	if err != nil {
		t.Fatalf("store.CreateKey(%s): %v", key, err)
	}
	return created
}
