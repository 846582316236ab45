package server

import (
	"net/http"
	"strconv"

	"linguaflow/internal/services"
	"linguaflow/internal/store"
	"linguaflow/internal/workflow"
)

// ReviewDecisionRequest identifies the acting user for a review decision.
// Credential issuance is handled upstream; the API trusts the bearer-token
// holder to assert the actor.
type ReviewDecisionRequest struct {
	ProjectID int64  `json:"projectId"`
	ActorID   int64  `json:"actorId"`
	Role      string `json:"role"`
}

// TranslationResponse is the payload returned by review decisions.
type TranslationResponse struct {
	ID         int64  `json:"id"`
	KeyID      int64  `json:"keyId"`
	LanguageID int64  `json:"languageId"`
	Value      string `json:"value"`
	State      string `json:"state"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, true)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, false)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request, approve bool) {
	translationID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, services.Wrap(services.ErrValidation, "review decision", "invalid translation id", err))
		return
	}
	var req ReviewDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	actor := workflow.Actor{ID: req.ActorID, Role: store.Role(req.Role)}

	var translation *store.Translation
	if approve {
		translation, err = s.workflow.Approve(r.Context(), actor, req.ProjectID, translationID)
	} else {
		translation, err = s.workflow.Reject(r.Context(), actor, req.ProjectID, translationID)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, TranslationResponse{
		ID:         translation.ID,
		KeyID:      translation.KeyID,
		LanguageID: translation.LanguageID,
		Value:      translation.Value,
		State:      string(translation.State),
	})
}
