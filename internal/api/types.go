// Package api defines the JSON payloads shared by the HTTP server and the
// sync client.
package api

// TranslationMap groups values by namespace, then key. The implicit default
// namespace appears under "default".
type TranslationMap map[string]map[string]string

// KeyMetadata is the per-key side map of a pull response, keyed by the
// qualified "namespace.key" name.
type KeyMetadata struct {
	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
}

// PullResponse is the payload of GET /sync.
type PullResponse struct {
	Translations TranslationMap         `json:"translations"`
	Metadata     map[string]KeyMetadata `json:"metadata"`
	Project      string                 `json:"project"`
	Language     string                 `json:"language"`
}

// PushRequest is the payload of POST /sync.
type PushRequest struct {
	ProjectID    int64          `json:"projectId"`
	Translations TranslationMap `json:"translations"`
	Lang         string         `json:"lang,omitempty"`
	Deprecate    []string       `json:"deprecate,omitempty"`
}

// PushResponse reports what a push changed.
type PushResponse struct {
	KeysCreated         int      `json:"keysCreated"`
	KeysUpdated         int      `json:"keysUpdated"`
	TranslationsCreated int      `json:"translationsCreated"`
	TranslationsUpdated int      `json:"translationsUpdated"`
	Deprecated          int      `json:"deprecated"`
	Errors              []string `json:"errors,omitempty"`
}

// BulkKey is one entry of a bulk upload. A nil Description leaves an
// existing description unchanged.
type BulkKey struct {
	Key          string            `json:"key"`
	Namespace    string            `json:"namespace,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Translations map[string]string `json:"translations"`
}

// BulkUploadRequest is the payload of POST /projects/{id}/bulk-upload.
type BulkUploadRequest struct {
	Keys               []BulkKey         `json:"keys"`
	ConflictResolution map[string]string `json:"conflictResolution,omitempty"`
	DefaultResolution  string            `json:"defaultResolution,omitempty"`
	Deprecate          []string          `json:"deprecate,omitempty"`
	DryRun             bool              `json:"dryRun,omitempty"`
}

// BulkUploadResponse carries the import counters.
type BulkUploadResponse struct {
	KeysCreated         int      `json:"keysCreated"`
	KeysUpdated         int      `json:"keysUpdated"`
	TranslationsCreated int      `json:"translationsCreated"`
	TranslationsUpdated int      `json:"translationsUpdated"`
	KeysSkipped         int      `json:"keysSkipped"`
	Deprecated          int      `json:"deprecated"`
	Errors              []string `json:"errors,omitempty"`
	DryRun              bool     `json:"dryRun,omitempty"`
}

// EnqueueRequest is the payload of POST /queue.
type EnqueueRequest struct {
	ProjectID         int64   `json:"projectId"`
	KeyIDs            []int64 `json:"keyIds"`
	TargetLanguageIDs []int64 `json:"targetLanguageIds"`
}

// EnqueueResponse reports how many items were queued.
type EnqueueResponse struct {
	Queued  int      `json:"queued"`
	BatchID string   `json:"batchId"`
	Errors  []string `json:"errors,omitempty"`
}

// QueueHealthResponse is the payload of GET /queue/health.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	Version      string              `json:"version"`
	Projects     int                 `json:"projects"`
	Languages    int                 `json:"languages"`
	Translations int                 `json:"translations"`
	Queue        QueueHealthResponse `json:"queue"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
