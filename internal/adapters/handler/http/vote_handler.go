package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	ChoiceID uuid.UUID `json:"choice_id"`
}

// CastVote answers 201 for a first vote and 200 when an earlier vote of the
// same user was replaced.
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	questionID, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	result, err := h.service.CastVote(r.Context(), ports.CastVoteInput{
		UserID:     userID,
		QuestionID: questionID,
		ChoiceID:   req.ChoiceID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *VoteHandler) ClearVote(w http.ResponseWriter, r *http.Request) {
	questionID, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	if err := h.service.ClearVote(r.Context(), userID, questionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VoteHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	questionID, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	vote, err := h.service.CurrentVote(r.Context(), userID, questionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vote)
}
