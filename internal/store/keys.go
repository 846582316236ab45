package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const keyColumns = "id, project_id, key, namespace, description, deprecated, created_at"

// CreateKey inserts a translation key inside the given transaction scope.
func CreateKey(ctx context.Context, q DBTX, projectID int64, key, namespace, description string) (*TranslationKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("translation key is required")
	}
	now := time.Now().UTC()
	res, err := q.ExecContext(
		ctx,
		`INSERT INTO translation_keys (project_id, key, namespace, description, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		projectID,
		key,
		namespace,
		description,
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return GetKey(ctx, q, id)
}

// GetKey fetches a translation key by identifier. Returns nil when absent.
func GetKey(ctx context.Context, q DBTX, id int64) (*TranslationKey, error) {
	row := q.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM translation_keys WHERE id = ?`, id)
	key, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return key, nil
}

// FindKey looks up a key by its (project, key, namespace) identity.
func FindKey(ctx context.Context, q DBTX, projectID int64, key, namespace string) (*TranslationKey, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+keyColumns+` FROM translation_keys WHERE project_id = ? AND key = ? AND namespace = ?`,
		projectID,
		key,
		namespace,
	)
	found, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find key: %w", err)
	}
	return found, nil
}

// KeysByProject loads every key for a project in one query, ordered by
// namespace and key. Bulk operations index this once instead of querying
// per item.
func KeysByProject(ctx context.Context, q DBTX, projectID int64) ([]*TranslationKey, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT `+keyColumns+` FROM translation_keys WHERE project_id = ? ORDER BY namespace, key`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("keys by project: %w", err)
	}
	defer rows.Close()

	var keys []*TranslationKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// UpdateKeyMetadata overwrites description and deprecated for a key.
func UpdateKeyMetadata(ctx context.Context, q DBTX, id int64, description string, deprecated bool) error {
	if _, err := q.ExecContext(
		ctx,
		`UPDATE translation_keys SET description = ?, deprecated = ? WHERE id = ?`,
		description,
		boolToInt(deprecated),
		id,
	); err != nil {
		return fmt.Errorf("update key metadata: %w", err)
	}
	return nil
}

// SetKeyDeprecated flips only the deprecated flag. Idempotent.
func SetKeyDeprecated(ctx context.Context, q DBTX, id int64, deprecated bool) error {
	if _, err := q.ExecContext(
		ctx,
		`UPDATE translation_keys SET deprecated = ? WHERE id = ?`,
		boolToInt(deprecated),
		id,
	); err != nil {
		return fmt.Errorf("set key deprecated: %w", err)
	}
	return nil
}

// DeleteKey removes a key; translations and history cascade.
func (s *Store) DeleteKey(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM translation_keys WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanKey(scanner interface{ Scan(dest ...any) error }) (*TranslationKey, error) {
	var (
		key        TranslationKey
		deprecated int
		createdRaw string
	)
	if err := scanner.Scan(&key.ID, &key.ProjectID, &key.Key, &key.Namespace, &key.Description, &deprecated, &createdRaw); err != nil {
		return nil, err
	}
	key.Deprecated = deprecated != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		key.CreatedAt = created
	}
	return &key, nil
}
