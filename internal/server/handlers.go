package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"linguaflow/internal/api"
	"linguaflow/internal/cache"
	"linguaflow/internal/importer"
	"linguaflow/internal/logging"
	"linguaflow/internal/queue"
	"linguaflow/internal/services"
	"linguaflow/internal/store"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	languages, err := s.store.ListLanguages(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	translations, err := s.store.CountTranslations(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	health, err := s.queue.Health(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Version:      Version,
		Projects:     len(projects),
		Languages:    len(languages),
		Translations: translations,
		Queue:        healthResponse(health),
	})
}

// handlePull serves GET /sync. Full-project pulls are cached per
// (project, language); namespace-filtered pulls bypass the cache.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, err := queryInt64(r, "projectId")
	if err != nil {
		s.respondError(w, err)
		return
	}
	langCode := r.URL.Query().Get("lang")
	namespace := r.URL.Query().Get("namespace")

	if namespace == "" && s.cache != nil {
		project, lang, err := s.resolveProjectLanguage(r, projectID, langCode)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if snapshot, ok := s.cache.Get(project.ID, lang.ID); ok {
			metadata, err := s.importer.Metadata(ctx, project.ID, "")
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.writeJSON(w, http.StatusOK, api.PullResponse{
				Translations: api.TranslationMap(snapshot),
				Metadata:     toAPIMetadata(metadata),
				Project:      project.Name,
				Language:     lang.Code,
			})
			return
		}
	}

	snapshot, err := s.importer.Export(ctx, projectID, langCode, namespace)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if namespace == "" && s.cache != nil {
		if lang, err := s.languageByCode(r, snapshot.Language); err == nil && lang != nil {
			s.cache.Set(projectID, lang.ID, cache.Snapshot(snapshot.Translations))
		}
	}

	s.writeJSON(w, http.StatusOK, api.PullResponse{
		Translations: snapshot.Translations,
		Metadata:     toAPIMetadata(snapshot.Metadata),
		Project:      snapshot.Project,
		Language:     snapshot.Language,
	})
}

// handlePush serves POST /sync. Pushes always use overwrite resolution and
// run through the same import engine as bulk uploads.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req api.PushRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.ProjectID == 0 {
		s.respondError(w, services.Wrap(services.ErrValidation, "push", "projectId is required", nil))
		return
	}

	lang := req.Lang
	if lang == "" {
		project, err := s.store.GetProject(r.Context(), req.ProjectID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if project == nil {
			s.respondError(w, services.Wrap(services.ErrNotFound, "push", "project not found", nil))
			return
		}
		defaultLang, err := s.store.GetLanguage(r.Context(), project.DefaultLanguageID)
		if err != nil || defaultLang == nil {
			s.respondError(w, services.Wrap(services.ErrValidation, "push", "project default language missing", err))
			return
		}
		lang = defaultLang.Code
	}

	report, err := s.importer.Run(r.Context(), importer.Request{
		ProjectID:         req.ProjectID,
		ActorID:           0,
		Items:             pushItems(req.Translations, lang),
		DefaultResolution: importer.ResolutionOverwrite,
		Deprecate:         req.Deprecate,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.PushResponse{
		KeysCreated:         report.KeysCreated,
		KeysUpdated:         report.KeysUpdated,
		TranslationsCreated: report.TranslationsCreated,
		TranslationsUpdated: report.TranslationsUpdated,
		Deprecated:          report.Deprecated,
		Errors:              report.Errors,
	})
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, services.Wrap(services.ErrValidation, "bulk upload", "invalid project id", err))
		return
	}
	var req api.BulkUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if len(req.Keys) == 0 && len(req.Deprecate) == 0 {
		s.respondError(w, services.Wrap(services.ErrValidation, "bulk upload", "keys are required", nil))
		return
	}

	defaultResolution, err := importer.ParseResolution(req.DefaultResolution)
	if err != nil {
		s.respondError(w, services.Wrap(services.ErrValidation, "bulk upload", err.Error(), nil))
		return
	}
	resolutions := make(map[string]importer.Resolution, len(req.ConflictResolution))
	for key, value := range req.ConflictResolution {
		resolution, err := importer.ParseResolution(value)
		if err != nil {
			s.respondError(w, services.Wrap(services.ErrValidation, "bulk upload", err.Error(), nil))
			return
		}
		resolutions[key] = resolution
	}

	items := make([]importer.Item, 0, len(req.Keys))
	for _, key := range req.Keys {
		items = append(items, importer.Item{
			Key:          key.Key,
			Namespace:    storageNamespace(key.Namespace),
			Description:  key.Description,
			Translations: key.Translations,
		})
	}

	report, err := s.importer.Run(r.Context(), importer.Request{
		ProjectID:         projectID,
		ActorID:           0,
		Items:             items,
		Resolutions:       resolutions,
		DefaultResolution: defaultResolution,
		Deprecate:         req.Deprecate,
		DryRun:            req.DryRun,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.BulkUploadResponse{
		KeysCreated:         report.KeysCreated,
		KeysUpdated:         report.KeysUpdated,
		TranslationsCreated: report.TranslationsCreated,
		TranslationsUpdated: report.TranslationsUpdated,
		KeysSkipped:         report.KeysSkipped,
		Deprecated:          report.Deprecated,
		Errors:              report.Errors,
		DryRun:              report.DryRun,
	})
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	result, err := s.enqueuer.Enqueue(r.Context(), req.ProjectID, req.KeyIDs, req.TargetLanguageIDs)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.EnqueueResponse{
		Queued:  result.Queued,
		BatchID: result.BatchID,
		Errors:  result.Errors,
	})
}

func (s *Server) handleQueueHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.queue.Health(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse(health))
}

func (s *Server) resolveProjectLanguage(r *http.Request, projectID int64, langCode string) (*store.Project, *store.Language, error) {
	ctx := r.Context()
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "pull", "project not found", nil)
	}
	var lang *store.Language
	if langCode == "" {
		lang, err = s.store.GetLanguage(ctx, project.DefaultLanguageID)
	} else {
		lang, err = s.store.GetLanguageByCode(ctx, langCode)
	}
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "pull", "invalid language", err)
	}
	if lang == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "pull", "language not found", nil)
	}
	return project, lang, nil
}

func (s *Server) languageByCode(r *http.Request, code string) (*store.Language, error) {
	return s.store.GetLanguageByCode(r.Context(), code)
}

// pushItems flattens a {namespace: {key: value}} map into import items in a
// stable order. The wire namespace "default" maps to the implicit storage
// namespace.
func pushItems(translations api.TranslationMap, lang string) []importer.Item {
	namespaces := make([]string, 0, len(translations))
	for ns := range translations {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var items []importer.Item
	for _, ns := range namespaces {
		keys := make([]string, 0, len(translations[ns]))
		for key := range translations[ns] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			items = append(items, importer.Item{
				Key:          key,
				Namespace:    storageNamespace(ns),
				Translations: map[string]string{lang: translations[ns][key]},
			})
		}
	}
	return items
}

func storageNamespace(wire string) string {
	if wire == "default" {
		return ""
	}
	return wire
}

func toAPIMetadata(metadata map[string]importer.KeyMetadata) map[string]api.KeyMetadata {
	out := make(map[string]api.KeyMetadata, len(metadata))
	for name, entry := range metadata {
		out[name] = api.KeyMetadata{Description: entry.Description, Deprecated: entry.Deprecated}
	}
	return out
}

func healthResponse(health queue.HealthSummary) api.QueueHealthResponse {
	return api.QueueHealthResponse{
		Total:      health.Total,
		Pending:    health.Pending,
		Processing: health.Processing,
		Completed:  health.Completed,
		Failed:     health.Failed,
	}
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, services.Wrap(services.ErrValidation, "query", name+" is required", nil)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "query", "invalid "+name, err)
	}
	return value, nil
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return services.Wrap(services.ErrValidation, "decode request", "malformed JSON body", err)
	}
	return nil
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
