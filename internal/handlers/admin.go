package handlers

import (
	"net/http"

	"github.com/thinkly/thinkly-api/internal/models"
)

// GetDashboard returns platform totals and recent submission activity
// @Summary Admin dashboard
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.AdminDashboard
// @Router /admin/dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, dash)
}

// ListUsers returns one page of accounts
// @Summary List users
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param search query string false "Username or email fragment"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} models.UserList
// @Router /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.ListUsers(r.Context(), r.URL.Query().Get("search"), queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, list)
}

// SetUserAdmin grants or revokes the admin role
// @Summary Set admin role
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Param id path int true "User ID"
// @Param body body models.SetAdminRequest true "Role"
// @Success 204
// @Failure 400 {object} map[string]string "Cannot change own role"
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id}/admin [put]
func (h *Handler) SetUserAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req models.SetAdminRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	caller := claimsFromContext(r.Context())
	if caller.UserID == id {
		h.errorResponse(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}
	if err := h.admin.SetAdmin(r.Context(), id, req.IsAdmin); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Infow("Admin role changed", "user_id", id, "is_admin", req.IsAdmin, "by", caller.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser removes an account. Leaderboard rows keep the stored name.
// @Summary Delete user
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	caller := claimsFromContext(r.Context())
	if caller.UserID == id {
		h.errorResponse(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	if err := h.admin.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Infow("User deleted", "user_id", id, "by", caller.UserID)
	w.WriteHeader(http.StatusNoContent)
}
