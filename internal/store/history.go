package store

import (
	"context"
	"fmt"
	"time"
)

// AppendHistory records an append-only snapshot of a translation's value and
// state. History rows are never mutated; they cascade only when the parent
// translation is deleted.
func AppendHistory(ctx context.Context, q DBTX, translationID int64, value string, state State, changedBy int64) error {
	if _, err := q.ExecContext(
		ctx,
		`INSERT INTO translation_history (translation_id, value, state, changed_by, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		translationID,
		value,
		state,
		changedBy,
		timestamp(time.Now().UTC()),
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// HistoryForTranslation returns snapshots oldest first.
func (s *Store) HistoryForTranslation(ctx context.Context, translationID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, translation_id, value, state, changed_by, created_at
         FROM translation_history WHERE translation_id = ? ORDER BY id`,
		translationID,
	)
	if err != nil {
		return nil, fmt.Errorf("history for translation: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			stateStr   string
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.TranslationID, &entry.Value, &stateStr, &entry.ChangedBy, &createdRaw); err != nil {
			return nil, err
		}
		entry.State = State(stateStr)
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
