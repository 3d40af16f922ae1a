package handlers

import (
	"net/http"

	"github.com/thinkly/thinkly-api/internal/models"
)

// GetCurrentLeaderboard returns the windowed board of the live competition.
// Signed-in viewers outside the top ten see their own row appended.
// @Summary Live leaderboard
// @Tags Leaderboards
// @Produce json
// @Success 200 {object} models.LeaderboardView
// @Failure 404 {object} map[string]string "No competition"
// @Router /leaderboard/current [get]
func (h *Handler) GetCurrentLeaderboard(w http.ResponseWriter, r *http.Request) {
	var viewer *int64
	if claims := claimsFromContext(r.Context()); claims != nil {
		viewer = &claims.UserID
	}
	view, err := h.leaderboard.Current(r.Context(), viewer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}

// GetLeaderboardHistory returns the final boards of finished competitions
// @Summary Leaderboard history
// @Tags Leaderboards
// @Produce json
// @Success 200 {array} models.CompetitionLeaderboard
// @Router /leaderboard/history [get]
func (h *Handler) GetLeaderboardHistory(w http.ResponseWriter, r *http.Request) {
	boards, err := h.leaderboard.History(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if boards == nil {
		boards = []models.CompetitionLeaderboard{}
	}
	h.jsonResponse(w, http.StatusOK, boards)
}

// GetCompetitionLeaderboard returns one page of a competition's full board
// @Summary Competition leaderboard
// @Tags Leaderboards
// @Produce json
// @Param id path int true "Competition ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(25)
// @Success 200 {object} models.LeaderboardPage
// @Failure 404 {object} map[string]string
// @Router /leaderboard/competitions/{id} [get]
func (h *Handler) GetCompetitionLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid competition id")
		return
	}
	page, err := h.leaderboard.ForCompetition(r.Context(), id, queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, page)
}

// GetMyStanding returns the caller's ranked row in a competition
// @Summary My standing
// @Tags Leaderboards
// @Security BearerAuth
// @Produce json
// @Param id path int true "Competition ID"
// @Success 200 {object} models.RankedEntry
// @Failure 404 {object} map[string]string
// @Router /leaderboard/competitions/{id}/me [get]
func (h *Handler) GetMyStanding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid competition id")
		return
	}
	entry, err := h.leaderboard.UserStanding(r.Context(), id, claimsFromContext(r.Context()).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, entry)
}
