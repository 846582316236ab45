package importer

import (
	"context"
	"fmt"

	"linguaflow/internal/services"
	"linguaflow/internal/store"
)

// KeyMetadata is the per-key side map entry of an exported snapshot, keyed
// by the qualified "namespace.key" name.
type KeyMetadata struct {
	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
}

// Snapshot is an exported view of one project and language: approved values
// grouped by namespace, plus key metadata.
type Snapshot struct {
	Translations map[string]map[string]string `json:"translations"`
	Metadata     map[string]KeyMetadata       `json:"metadata"`
	Language     string                       `json:"language"`
	Project      string                       `json:"project"`
}

// Export returns the approved translations for a project, restricted to one
// language (the project default when langCode is empty) and optionally to one
// namespace. Only approved values are published to clients.
func (e *Engine) Export(ctx context.Context, projectID int64, langCode, namespace string) (*Snapshot, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "export", fmt.Sprintf("project %d", projectID), nil)
	}

	var lang *store.Language
	if langCode == "" {
		lang, err = e.store.GetLanguage(ctx, project.DefaultLanguageID)
	} else {
		lang, err = e.store.GetLanguageByCode(ctx, langCode)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "export", fmt.Sprintf("language %q", langCode), err)
	}
	if lang == nil {
		return nil, services.Wrap(services.ErrNotFound, "export", fmt.Sprintf("language %q", langCode), nil)
	}

	approved, err := e.store.ApprovedByProject(ctx, projectID, lang.ID, namespace)
	if err != nil {
		return nil, err
	}
	metadata, err := e.Metadata(ctx, projectID, namespace)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Translations: make(map[string]map[string]string),
		Metadata:     metadata,
		Language:     lang.Code,
		Project:      project.Name,
	}
	for _, entry := range approved {
		ns := entry.Key.Namespace
		if ns == "" {
			ns = "default"
		}
		bucket, ok := snapshot.Translations[ns]
		if !ok {
			bucket = make(map[string]string)
			snapshot.Translations[ns] = bucket
		}
		bucket[entry.Key.Key] = entry.Value
	}
	return snapshot, nil
}

// Metadata builds the key metadata side map for a project, optionally
// restricted to one namespace. Keys without a description that are not
// deprecated are omitted.
func (e *Engine) Metadata(ctx context.Context, projectID int64, namespace string) (map[string]KeyMetadata, error) {
	keys, err := store.KeysByProject(ctx, e.store.DB(), projectID)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]KeyMetadata)
	for _, key := range keys {
		if namespace != "" && key.Namespace != namespace {
			continue
		}
		if key.Description == "" && !key.Deprecated {
			continue
		}
		metadata[key.QualifiedName()] = KeyMetadata{
			Description: key.Description,
			Deprecated:  key.Deprecated,
		}
	}
	return metadata, nil
}
