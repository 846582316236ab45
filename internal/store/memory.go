package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linguaflow/internal/textutil"
)

// UpsertMemory records an approved (source, target) pair in translation
// memory. Repeat sightings of the same source text bump the usage counter
// and refresh the target text.
func (s *Store) UpsertMemory(ctx context.Context, projectID, sourceLanguageID, targetLanguageID int64, sourceText, targetText string) error {
	if sourceText == "" || targetText == "" {
		return nil
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO translation_memory (project_id, source_language_id, target_language_id, source_text, target_text, usage_count, updated_at)
         VALUES (?, ?, ?, ?, ?, 1, ?)
         ON CONFLICT(project_id, source_language_id, target_language_id, source_text) DO UPDATE SET
             target_text = excluded.target_text,
             usage_count = usage_count + 1,
             updated_at = excluded.updated_at`,
		projectID,
		sourceLanguageID,
		targetLanguageID,
		sourceText,
		targetText,
		timestamp(time.Now().UTC()),
	); err != nil {
		return fmt.Errorf("upsert translation memory: %w", err)
	}
	return nil
}

// LookupMemory returns the stored pair for an exact source text match, or nil.
func (s *Store) LookupMemory(ctx context.Context, projectID, sourceLanguageID, targetLanguageID int64, sourceText string) (*MemoryEntry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, project_id, source_language_id, target_language_id, source_text, target_text, usage_count, updated_at
         FROM translation_memory
         WHERE project_id = ? AND source_language_id = ? AND target_language_id = ? AND source_text = ?`,
		projectID,
		sourceLanguageID,
		targetLanguageID,
		sourceText,
	)
	var (
		entry      MemoryEntry
		updatedRaw string
	)
	err := row.Scan(
		&entry.ID,
		&entry.ProjectID,
		&entry.SourceLanguageID,
		&entry.TargetLanguageID,
		&entry.SourceText,
		&entry.TargetText,
		&entry.UsageCount,
		&updatedRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup translation memory: %w", err)
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return &entry, nil
}

// LookupMemoryFuzzy scans the language pair's memory entries for the closest
// source-text match by cosine similarity. Entries below minScore are ignored
// and nil is returned when nothing qualifies. Intended as a fallback after an
// exact LookupMemory miss, so it never returns exact-match bookkeeping.
func (s *Store) LookupMemoryFuzzy(ctx context.Context, projectID, sourceLanguageID, targetLanguageID int64, sourceText string, minScore float64) (*MemoryEntry, float64, error) {
	needle := textutil.NewFingerprint(sourceText)
	if needle == nil {
		return nil, 0, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, project_id, source_language_id, target_language_id, source_text, target_text, usage_count, updated_at
         FROM translation_memory
         WHERE project_id = ? AND source_language_id = ? AND target_language_id = ?`,
		projectID,
		sourceLanguageID,
		targetLanguageID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("scan translation memory: %w", err)
	}
	defer rows.Close()

	var (
		best      *MemoryEntry
		bestScore float64
	)
	for rows.Next() {
		var (
			entry      MemoryEntry
			updatedRaw string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.ProjectID,
			&entry.SourceLanguageID,
			&entry.TargetLanguageID,
			&entry.SourceText,
			&entry.TargetText,
			&entry.UsageCount,
			&updatedRaw,
		); err != nil {
			return nil, 0, fmt.Errorf("scan translation memory row: %w", err)
		}
		score := textutil.CosineSimilarity(needle, textutil.NewFingerprint(entry.SourceText))
		if score < minScore || score <= bestScore {
			continue
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			entry.UpdatedAt = updated
		}
		bestScore = score
		best = &entry
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan translation memory: %w", err)
	}
	return best, bestScore, nil
}
