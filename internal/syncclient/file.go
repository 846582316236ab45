package syncclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"linguaflow/internal/api"
)

// DefaultFileName is the local translation file the sync commands operate on.
const DefaultFileName = "translations.json"

// ReadTranslationFile loads a local {namespace: {key: value}} file. A missing
// file is not an error; it returns an empty map so a first sync can seed it.
func ReadTranslationFile(path string) (api.TranslationMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return api.TranslationMap{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var translations api.TranslationMap
	if err := json.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if translations == nil {
		translations = api.TranslationMap{}
	}
	return translations, nil
}

// WriteTranslationFile writes the map as indented JSON, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a truncated translation file behind.
func WriteTranslationFile(path string, translations api.TranslationMap) error {
	data, err := json.MarshalIndent(translations, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".translations-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
