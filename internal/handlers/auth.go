package handlers

import (
	"net/http"

	"github.com/thinkly/thinkly-api/internal/models"
)

// Register creates an account and returns an access token
// @Summary Register
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Account"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Username or email taken"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, resp)
}

// Login exchanges credentials for an access token
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// Logout revokes the caller's token
// @Summary Logout
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), claimsFromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword emails a reset link. The response does not reveal
// whether the address is registered.
// @Summary Request password reset
// @Tags Auth
// @Accept json
// @Param body body models.ForgotPasswordRequest true "Email"
// @Success 202 {object} map[string]string
// @Router /auth/password/forgot [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "If the address is registered, a reset link is on its way"})
}

// ResetPassword sets a new password using a reset token
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Param body body models.ResetPasswordRequest true "Token and new password"
// @Success 204
// @Failure 401 {object} map[string]string "Invalid or expired token"
// @Router /auth/password/reset [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword updates the caller's password
// @Summary Change password
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param body body models.ChangePasswordRequest true "Current and new password"
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /auth/password/change [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	claims := claimsFromContext(r.Context())
	if err := h.auth.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), claimsFromContext(r.Context()).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, user)
}
