package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidLanguageCode reports a language code that is not a valid BCP-47 tag.
var ErrInvalidLanguageCode = errors.New("invalid language code")

// NormalizeLanguageCode validates a BCP-47 code and returns its canonical form.
func NormalizeLanguageCode(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLanguageCode)
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguageCode, code)
	}
	return tag.String(), nil
}

// CreateLanguage registers a language, normalizing its code.
func (s *Store) CreateLanguage(ctx context.Context, code, name string) (*Language, error) {
	normalized, err := NormalizeLanguageCode(code)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO languages (code, name) VALUES (?, ?)
         ON CONFLICT(code) DO UPDATE SET name = excluded.name`,
		normalized,
		name,
	); err != nil {
		return nil, fmt.Errorf("insert language: %w", err)
	}
	return s.GetLanguageByCode(ctx, normalized)
}

// GetLanguage fetches a language by identifier. Returns nil when absent.
func (s *Store) GetLanguage(ctx context.Context, id int64) (*Language, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, code, name FROM languages WHERE id = ?`, id)
	return scanLanguageRow(row, "get language")
}

// GetLanguageByCode fetches a language by its canonical code. Returns nil when absent.
func (s *Store) GetLanguageByCode(ctx context.Context, code string) (*Language, error) {
	normalized, err := NormalizeLanguageCode(code)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, code, name FROM languages WHERE code = ?`, normalized)
	return scanLanguageRow(row, "get language by code")
}

// ListLanguages returns all registered languages ordered by code.
func (s *Store) ListLanguages(ctx context.Context) ([]*Language, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM languages ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var languages []*Language
	for rows.Next() {
		var lang Language
		if err := rows.Scan(&lang.ID, &lang.Code, &lang.Name); err != nil {
			return nil, err
		}
		languages = append(languages, &lang)
	}
	return languages, rows.Err()
}

func scanLanguageRow(row *sql.Row, op string) (*Language, error) {
	var lang Language
	err := row.Scan(&lang.ID, &lang.Code, &lang.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &lang, nil
}
