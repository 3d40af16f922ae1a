package handlers

import (
	"net/http"

	"github.com/thinkly/thinkly-api/internal/models"
)

// ListCompetitions returns competitions, newest first
// @Summary List competitions
// @Tags Competitions
// @Produce json
// @Param status query string false "upcoming, active, past or all" default(all)
// @Success 200 {array} models.Competition
// @Failure 400 {object} map[string]string
// @Router /competitions [get]
func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	comps, err := h.competitions.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if comps == nil {
		comps = []models.Competition{}
	}
	h.jsonResponse(w, http.StatusOK, comps)
}

// GetCurrentCompetition returns the running competition, or the next
// scheduled one when none is running
// @Summary Current competition
// @Tags Competitions
// @Produce json
// @Success 200 {object} models.Competition
// @Failure 404 {object} map[string]string
// @Router /competitions/current [get]
func (h *Handler) GetCurrentCompetition(w http.ResponseWriter, r *http.Request) {
	comp, err := h.competitions.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, comp)
}

// GetCompetition returns one competition with its rounds
// @Summary Competition detail
// @Tags Competitions
// @Produce json
// @Param id path int true "Competition ID"
// @Success 200 {object} models.CompetitionDetail
// @Failure 404 {object} map[string]string
// @Router /competitions/{id} [get]
func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid competition id")
		return
	}
	detail, err := h.competitions.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, detail)
}

// CreateCompetition schedules a competition from bank questions and riddles
// @Summary Create competition
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateCompetitionRequest true "Competition"
// @Success 201 {object} models.CompetitionDetail
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Overlaps another competition"
// @Router /admin/competitions [post]
func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCompetitionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	detail, err := h.competitions.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Infow("Competition created", "competition_id", detail.ID, "admin_id", claimsFromContext(r.Context()).UserID)
	h.jsonResponse(w, http.StatusCreated, detail)
}

// DeleteCompetition removes a competition and its results
// @Summary Delete competition
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Competition ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/competitions/{id} [delete]
func (h *Handler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid competition id")
		return
	}
	if err := h.competitions.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.leaderboard.Invalidate(r.Context(), id); err != nil {
		h.logger.Warnw("Failed to invalidate leaderboard cache", "competition_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAnswer checks an answer to a question or riddle of a running
// competition
// @Summary Submit answer
// @Tags Competitions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Competition ID"
// @Param body body models.SubmissionRequest true "Answer"
// @Success 200 {object} models.SubmissionResult
// @Failure 400 {object} map[string]string "Competition not running"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Already solved"
// @Router /competitions/{id}/submissions [post]
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid competition id")
		return
	}
	var req models.SubmissionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	userID := claimsFromContext(r.Context()).UserID
	result, event, err := h.scores.Submit(r.Context(), id, userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.Correct {
		if err := h.leaderboard.Invalidate(r.Context(), id); err != nil {
			h.logger.Warnw("Failed to invalidate leaderboard cache", "competition_id", id, "error", err)
		}
	}
	// Analytics are best effort; a full queue never fails the submission.
	if event != nil && h.pool != nil {
		h.pool.Enqueue(event)
	}

	h.jsonResponse(w, http.StatusOK, result)
}
