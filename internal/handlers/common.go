package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a service error onto an HTTP status. Only internal
// failures are logged; their details never reach the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *models.InvalidEntryError
	if errors.As(err, &invalid) {
		h.logger.Errorw("Malformed leaderboard row", "path", r.URL.Path, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch logic.KindOf(err) {
	case logic.KindValidation:
		h.errorResponse(w, http.StatusBadRequest, logic.MessageOf(err))
	case logic.KindNotFound:
		h.errorResponse(w, http.StatusNotFound, logic.MessageOf(err))
	case logic.KindConflict:
		h.errorResponse(w, http.StatusConflict, logic.MessageOf(err))
	case logic.KindUnauthorized:
		h.errorResponse(w, http.StatusUnauthorized, logic.MessageOf(err))
	case logic.KindUpstream:
		h.logger.Warnw("Upstream failure", "path", r.URL.Path, "error", err)
		h.errorResponse(w, http.StatusBadGateway, logic.MessageOf(err))
	default:
		h.logger.Errorw("Request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// It writes the error response itself and reports whether to continue.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns a positive query parameter, or def when absent or invalid.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// Authenticate rejects requests without a valid access token.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.errorResponse(w, http.StatusUnauthorized, "Missing access token")
			return
		}
		claims, err := h.auth.ParseToken(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous requests through.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if claims, err := h.auth.ParseToken(r.Context(), token); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			h.errorResponse(w, http.StatusUnauthorized, "Missing access token")
			return
		}
		if !claims.IsAdmin {
			h.errorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request with zap.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Infow("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func claimsFromContext(ctx context.Context) *logic.Claims {
	claims, _ := ctx.Value(claimsKey).(*logic.Claims)
	return claims
}

func withClaims(ctx context.Context, claims *logic.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
