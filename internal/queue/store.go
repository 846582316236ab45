package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store manages queue persistence. It shares the application database with
// the translation store.
type Store struct {
	db         *sql.DB
	maxRetries int
}

// NewStore wraps the shared database connection. A maxRetries of zero or
// less falls back to the default attempt cap.
func NewStore(db *sql.DB, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}
	return &Store{db: db, maxRetries: maxRetries}
}

const itemColumns = "id, project_id, key_id, source_text, source_language_id, target_language_id, status, attempts, error_message, translation_id, batch_id, created_at, updated_at, last_heartbeat"

// EnqueueRequest describes one item to add to the queue.
type EnqueueRequest struct {
	ProjectID        int64
	KeyID            int64
	SourceText       string
	SourceLanguageID int64
	TargetLanguageID int64
	BatchID          string
}

// Enqueue inserts a pending item.
func (s *Store) Enqueue(ctx context.Context, req EnqueueRequest) (*Item, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            project_id, key_id, source_text, source_language_id, target_language_id,
            status, attempts, batch_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		req.ProjectID,
		req.KeyID,
		req.SourceText,
		req.SourceLanguageID,
		req.TargetLanguageID,
		StatusPending,
		nullableString(req.BatchID),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// ClaimNext atomically claims the oldest pending item for processing.
// The conditional update guarantees no two workers claim the same item:
// only the worker whose UPDATE actually flips pending to processing wins.
func (s *Store) ClaimNext(ctx context.Context) (*Item, error) {
	for {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT id FROM queue_items WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			StatusPending,
		)
		var id int64
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("find pending item: %w", err)
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_items
             SET status = ?, attempts = attempts + 1, last_heartbeat = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusProcessing,
			now,
			now,
			id,
			StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("claim queue item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// Another worker won the claim; look for the next item.
			continue
		}
		return s.GetByID(ctx, id)
	}
}

// MarkCompleted records a successful translation and links the materialized
// translation row.
func (s *Store) MarkCompleted(ctx context.Context, id int64, translationID int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET status = ?, translation_id = ?, error_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		translationID,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed records a failure. Retryable errors under the attempt cap
// re-enter pending; everything else is terminally failed.
func (s *Store) MarkFailed(ctx context.Context, item *Item, failure error) (Status, error) {
	if item == nil {
		return "", errors.New("item is nil")
	}
	status := StatusFailed
	if IsRetryable(failure) && item.Attempts < s.maxRetries {
		status = StatusPending
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ?`,
		status,
		failure.Error(),
		now,
		item.ID,
	); err != nil {
		return "", fmt.Errorf("mark failed: %w", err)
	}
	return status, nil
}

// UpdateHeartbeat refreshes the heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns processing items whose heartbeat expired
// back to pending so another worker can pick them up.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending,
		now,
		StatusProcessing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// List returns queue items filtered by status set (or all items when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for the health endpoint.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// RetryFailed moves failed items back to pending and clears their attempt
// count, for operator-initiated retries.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET status = ?, attempts = 0, error_message = NULL, updated_at = ?
         WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item          Item
		statusStr     string
		errorMessage  sql.NullString
		translationID sql.NullInt64
		batchID       sql.NullString
		createdRaw    string
		updatedRaw    string
		heartbeatRaw  sql.NullString
	)
	if err := scanner.Scan(
		&item.ID,
		&item.ProjectID,
		&item.KeyID,
		&item.SourceText,
		&item.SourceLanguageID,
		&item.TargetLanguageID,
		&statusStr,
		&item.Attempts,
		&errorMessage,
		&translationID,
		&batchID,
		&createdRaw,
		&updatedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}
	item.Status = Status(statusStr)
	item.ErrorMessage = errorMessage.String
	if translationID.Valid {
		value := translationID.Int64
		item.TranslationID = &value
	}
	item.BatchID = batchID.String
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
