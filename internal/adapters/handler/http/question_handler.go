package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
)

type QuestionHandler struct {
	service ports.QuestionService
	tally   ports.TallyService
}

func NewQuestionHandler(service ports.QuestionService, tally ports.TallyService) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		tally:   tally,
	}
}

type createQuestionRequest struct {
	Text      string     `json:"text"`
	PublishAt *time.Time `json:"publish_at"`
	CloseAt   *time.Time `json:"close_at"`
	Choices   []string   `json:"choices"`
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	question, err := h.service.Create(r.Context(), ports.CreateQuestionInput{
		Text:      req.Text,
		PublishAt: req.PublishAt,
		CloseAt:   req.CloseAt,
		Choices:   req.Choices,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = n
	}

	input := ports.ListQuestionsInput{Page: page}
	if userID, ok := userIDFrom(r); ok {
		input.UserID = &userID
	}

	questions, err := h.service.ListPublished(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.service.GetPublished(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *QuestionHandler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	eligibility, err := h.service.Eligibility(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eligibility)
}

// GetResults only reveals the tally of published questions.
func (h *QuestionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.service.GetPublished(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	tally, err := h.tally.Tally(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tally)
}
