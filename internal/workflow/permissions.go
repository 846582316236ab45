package workflow

import "linguaflow/internal/store"

// Actor identifies the user performing a state machine operation.
type Actor struct {
	ID   int64
	Role store.Role
}

// CanEditTranslation reports whether an actor may write a value. Admins may
// edit at any state; the original author may keep editing while the value is
// still in draft or review. A nil state (no existing row) is writable by
// anyone who can author translations.
func CanEditTranslation(role store.Role, state store.State, createdBy, actorID int64) bool {
	if role == store.RoleAdmin {
		return true
	}
	if state == "" {
		return true
	}
	if createdBy == actorID {
		return state == store.StateDraft || state == store.StateReview
	}
	return false
}

// CanApproveTranslation reports whether an actor may approve or reject.
// Only reviewers and admins decide reviews, and only from the review state.
func CanApproveTranslation(role store.Role, state store.State) bool {
	if role != store.RoleReviewer && role != store.RoleAdmin {
		return false
	}
	return state == store.StateReview
}
