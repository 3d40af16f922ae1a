package handlers

import (
	"net/http"

	"github.com/thinkly/thinkly-api/internal/models"
)

func questionFilter(r *http.Request) models.QuestionFilter {
	q := r.URL.Query()
	return models.QuestionFilter{
		Difficulty: models.Difficulty(q.Get("difficulty")),
		Search:     q.Get("search"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 0),
	}
}

func isAdmin(r *http.Request) bool {
	claims := claimsFromContext(r.Context())
	return claims != nil && claims.IsAdmin
}

// ListQuestions returns the question bank. Answers are only included for
// administrators.
// @Summary List questions
// @Tags Questions
// @Produce json
// @Param difficulty query string false "easy, medium or hard"
// @Param search query string false "Title search"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(25)
// @Success 200 {array} models.Question
// @Router /questions [get]
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.ListQuestions(r.Context(), questionFilter(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	if !isAdmin(r) {
		for i := range questions {
			questions[i].Answer = ""
		}
	}
	h.jsonResponse(w, http.StatusOK, questions)
}

// GetQuestion returns one question
// @Summary Get question
// @Tags Questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} map[string]string
// @Router /questions/{id} [get]
func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}
	q, err := h.questions.GetQuestion(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !isAdmin(r) {
		q.Answer = ""
	}
	h.jsonResponse(w, http.StatusOK, q)
}

// CreateQuestion adds a question to the bank
// @Summary Create question
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.QuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} map[string]string
// @Router /admin/questions [post]
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	q, err := h.questions.CreateQuestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, q)
}

// UpdateQuestion replaces a question
// @Summary Update question
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param body body models.QuestionRequest true "Question"
// @Success 200 {object} models.Question
// @Failure 404 {object} map[string]string
// @Router /admin/questions/{id} [put]
func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}
	var req models.QuestionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	q, err := h.questions.UpdateQuestion(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, q)
}

// DeleteQuestion removes a question that no competition uses
// @Summary Delete question
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 204
// @Failure 409 {object} map[string]string "Question in use"
// @Router /admin/questions/{id} [delete]
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}
	if err := h.questions.DeleteQuestion(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRiddles returns the riddle bank
// @Summary List riddles
// @Tags Questions
// @Produce json
// @Param search query string false "Title search"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(25)
// @Success 200 {array} models.Riddle
// @Router /riddles [get]
func (h *Handler) ListRiddles(w http.ResponseWriter, r *http.Request) {
	riddles, err := h.questions.ListRiddles(r.Context(), questionFilter(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if riddles == nil {
		riddles = []models.Riddle{}
	}
	if !isAdmin(r) {
		for i := range riddles {
			riddles[i].Answer = ""
		}
	}
	h.jsonResponse(w, http.StatusOK, riddles)
}

// GetRiddle returns one riddle
// @Summary Get riddle
// @Tags Questions
// @Produce json
// @Param id path int true "Riddle ID"
// @Success 200 {object} models.Riddle
// @Failure 404 {object} map[string]string
// @Router /riddles/{id} [get]
func (h *Handler) GetRiddle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid riddle id")
		return
	}
	rd, err := h.questions.GetRiddle(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !isAdmin(r) {
		rd.Answer = ""
	}
	h.jsonResponse(w, http.StatusOK, rd)
}

// CreateRiddle adds a riddle to the bank
// @Summary Create riddle
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.RiddleRequest true "Riddle"
// @Success 201 {object} models.Riddle
// @Router /admin/riddles [post]
func (h *Handler) CreateRiddle(w http.ResponseWriter, r *http.Request) {
	var req models.RiddleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rd, err := h.questions.CreateRiddle(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, rd)
}

// UpdateRiddle replaces a riddle
// @Summary Update riddle
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Riddle ID"
// @Param body body models.RiddleRequest true "Riddle"
// @Success 200 {object} models.Riddle
// @Router /admin/riddles/{id} [put]
func (h *Handler) UpdateRiddle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid riddle id")
		return
	}
	var req models.RiddleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rd, err := h.questions.UpdateRiddle(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, rd)
}

// DeleteRiddle removes a riddle that no competition uses
// @Summary Delete riddle
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Riddle ID"
// @Success 204
// @Router /admin/riddles/{id} [delete]
func (h *Handler) DeleteRiddle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid riddle id")
		return
	}
	if err := h.questions.DeleteRiddle(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
