package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, name string, requiresReview bool, defaultLanguageID int64) (*Project, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO projects (name, requires_review, default_language_id, created_at)
         VALUES (?, ?, ?, ?)`,
		name,
		boolToInt(requiresReview),
		defaultLanguageID,
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a project by identifier. Returns nil when absent.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, requires_review, default_language_id, created_at FROM projects WHERE id = ?`,
		id,
	)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, requires_review, default_language_id, created_at FROM projects ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		project        Project
		requiresReview int
		createdRaw     string
	)
	if err := scanner.Scan(&project.ID, &project.Name, &requiresReview, &project.DefaultLanguageID, &createdRaw); err != nil {
		return nil, err
	}
	project.RequiresReview = requiresReview != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		project.CreatedAt = created
	}
	return &project, nil
}
