package store

import (
	"strings"
	"time"
)

// State represents the review lifecycle of a translation value.
type State string

const (
	StateDraft    State = "draft"
	StateReview   State = "review"
	StateApproved State = "approved"
)

var stateSet = map[State]struct{}{
	StateDraft:    {},
	StateReview:   {},
	StateApproved: {},
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Role identifies a project member's permission level.
type Role string

const (
	RoleTranslator Role = "translator"
	RoleReviewer   Role = "reviewer"
	RoleAdmin      Role = "admin"
)

// Project groups translation keys and gates the review workflow.
type Project struct {
	ID                int64
	Name              string
	RequiresReview    bool
	DefaultLanguageID int64
	CreatedAt         time.Time
}

// Language is a BCP-47 tagged target for translations.
type Language struct {
	ID   int64
	Code string
	Name string
}

// TranslationKey is a stable, project-scoped identifier for one piece of
// translatable text. Namespace is "" for the implicit default namespace.
type TranslationKey struct {
	ID          int64
	ProjectID   int64
	Key         string
	Namespace   string
	Description string
	Deprecated  bool
	CreatedAt   time.Time
}

// QualifiedName returns the "namespace.key" form used in metadata maps.
func (k TranslationKey) QualifiedName() string {
	namespace := k.Namespace
	if namespace == "" {
		namespace = "default"
	}
	return namespace + "." + k.Key
}

// Translation is the value of a key in one language. At most one row exists
// per (KeyID, LanguageID); the storage layer enforces the invariant.
type Translation struct {
	ID         int64
	KeyID      int64
	LanguageID int64
	Value      string
	State      State
	CreatedBy  int64
	ReviewedBy *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HistoryEntry is one append-only snapshot of a translation's value and state.
type HistoryEntry struct {
	ID            int64
	TranslationID int64
	Value         string
	State         State
	ChangedBy     int64
	CreatedAt     time.Time
}

// MemoryEntry caches an approved (source, target) value pair for reuse.
type MemoryEntry struct {
	ID               int64
	ProjectID        int64
	SourceLanguageID int64
	TargetLanguageID int64
	SourceText       string
	TargetText       string
	UsageCount       int
	UpdatedAt        time.Time
}
