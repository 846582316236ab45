package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const translationColumns = "id, key_id, language_id, value, state, created_by, reviewed_by, created_at, updated_at"

// TranslationWrite describes one atomic insert-or-update of a translation
// value. The UNIQUE(key_id, language_id) constraint plus ON CONFLICT keeps
// concurrent writers from racing a separate existence check.
type TranslationWrite struct {
	KeyID      int64
	LanguageID int64
	Value      string
	State      State
	CreatedBy  int64
	ReviewedBy *int64
}

// UpsertTranslation atomically creates or replaces the value for
// (KeyID, LanguageID) and reports whether a new row was created. The
// created flag relies on a preceding count, so callers that need it to be
// exact run inside a transaction; the write itself is race-free either way.
func UpsertTranslation(ctx context.Context, q DBTX, w TranslationWrite) (*Translation, bool, error) {
	if w.State == "" {
		w.State = StateDraft
	}
	now := timestamp(time.Now().UTC())

	var before int64
	if err := q.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM translations WHERE key_id = ? AND language_id = ?`,
		w.KeyID, w.LanguageID,
	).Scan(&before); err != nil {
		return nil, false, fmt.Errorf("count translation: %w", err)
	}

	if _, err := q.ExecContext(
		ctx,
		`INSERT INTO translations (key_id, language_id, value, state, created_by, reviewed_by, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(key_id, language_id) DO UPDATE SET
             value = excluded.value,
             state = excluded.state,
             reviewed_by = excluded.reviewed_by,
             updated_at = excluded.updated_at`,
		w.KeyID,
		w.LanguageID,
		w.Value,
		w.State,
		w.CreatedBy,
		nullableInt64(w.ReviewedBy),
		now,
		now,
	); err != nil {
		return nil, false, fmt.Errorf("upsert translation: %w", err)
	}

	translation, err := GetTranslationByKeyLanguage(ctx, q, w.KeyID, w.LanguageID)
	if err != nil {
		return nil, false, err
	}
	if translation == nil {
		return nil, false, errors.New("upsert translation: row vanished after write")
	}
	return translation, before == 0, nil
}

// GetTranslation fetches a translation by identifier. Returns nil when absent.
func GetTranslation(ctx context.Context, q DBTX, id int64) (*Translation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+translationColumns+` FROM translations WHERE id = ?`, id)
	translation, err := scanTranslation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get translation: %w", err)
	}
	return translation, nil
}

// GetTranslationByKeyLanguage fetches the unique row for (keyID, languageID).
func GetTranslationByKeyLanguage(ctx context.Context, q DBTX, keyID, languageID int64) (*Translation, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+translationColumns+` FROM translations WHERE key_id = ? AND language_id = ?`,
		keyID,
		languageID,
	)
	translation, err := scanTranslation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get translation by key/language: %w", err)
	}
	return translation, nil
}

// UpdateTranslationState persists a state transition and reviewer inside a
// transaction scope.
func UpdateTranslationState(ctx context.Context, q DBTX, id int64, state State, reviewedBy *int64) error {
	if _, err := q.ExecContext(
		ctx,
		`UPDATE translations SET state = ?, reviewed_by = ?, updated_at = ? WHERE id = ?`,
		state,
		nullableInt64(reviewedBy),
		timestamp(time.Now().UTC()),
		id,
	); err != nil {
		return fmt.Errorf("update translation state: %w", err)
	}
	return nil
}

// ApprovedTranslation pairs a key with its approved value in one language.
type ApprovedTranslation struct {
	Key   TranslationKey
	Value string
}

// ApprovedByProject returns approved translations for a project and language,
// ordered by namespace and key.
func (s *Store) ApprovedByProject(ctx context.Context, projectID, languageID int64, namespace string) ([]ApprovedTranslation, error) {
	query := `SELECT k.` + "id" + `, k.project_id, k.key, k.namespace, k.description, k.deprecated, k.created_at, t.value
        FROM translations t
        JOIN translation_keys k ON k.id = t.key_id
        WHERE k.project_id = ? AND t.language_id = ? AND t.state = ?`
	args := []any{projectID, languageID, StateApproved}
	if namespace != "" {
		query += ` AND k.namespace = ?`
		args = append(args, namespace)
	}
	query += ` ORDER BY k.namespace, k.key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("approved by project: %w", err)
	}
	defer rows.Close()

	var out []ApprovedTranslation
	for rows.Next() {
		var (
			entry      ApprovedTranslation
			deprecated int
			createdRaw string
		)
		if err := rows.Scan(
			&entry.Key.ID,
			&entry.Key.ProjectID,
			&entry.Key.Key,
			&entry.Key.Namespace,
			&entry.Key.Description,
			&deprecated,
			&createdRaw,
			&entry.Value,
		); err != nil {
			return nil, err
		}
		entry.Key.Deprecated = deprecated != 0
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.Key.CreatedAt = created
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// CountTranslations reports the total translation rows, used by dry-run tests
// and diagnostics.
func (s *Store) CountTranslations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM translations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return count, nil
}

func scanTranslation(scanner interface{ Scan(dest ...any) error }) (*Translation, error) {
	var (
		translation Translation
		stateStr    string
		reviewedBy  sql.NullInt64
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&translation.ID,
		&translation.KeyID,
		&translation.LanguageID,
		&translation.Value,
		&stateStr,
		&translation.CreatedBy,
		&reviewedBy,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	translation.State = State(stateStr)
	if reviewedBy.Valid {
		value := reviewedBy.Int64
		translation.ReviewedBy = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		translation.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		translation.UpdatedAt = updated
	}
	return &translation, nil
}
