package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/thinkly/thinkly-api/internal/models"
)

func TestQuestionAnswersHidden(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantAnswer string
	}{
		{"Anonymous", "", ""},
		{"User", "user-token", ""},
		{"Admin", "admin-token", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler()

			w := serve(h, "GET", "/questions", tt.token, nil)
			var list []models.Question
			json.NewDecoder(w.Body).Decode(&list)
			if len(list) != 1 || list[0].Answer != tt.wantAnswer {
				t.Errorf("list answer = %+v, want %q", list, tt.wantAnswer)
			}

			w = serve(h, "GET", "/questions/1", tt.token, nil)
			var q models.Question
			json.NewDecoder(w.Body).Decode(&q)
			if q.Answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", q.Answer, tt.wantAnswer)
			}
		})
	}
}

func TestRiddleAnswersHidden(t *testing.T) {
	h, _ := newTestHandler()
	w := serve(h, "GET", "/riddles", "", nil)
	if strings.Contains(w.Body.String(), "an echo") {
		t.Errorf("riddle answer leaked: %s", w.Body.String())
	}
}

func TestDeleteQuestionInUse(t *testing.T) {
	h, _ := newTestHandler()
	if w := serve(h, "DELETE", "/admin/questions/1", "admin-token", nil); w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	h, _ := newTestHandler()
	body := `{"title":"Two Sum","body":"...","answer":"42","difficulty":"impossible"}`
	if w := serve(h, "POST", "/admin/questions", "admin-token", strings.NewReader(body)); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAdminUserSelfProtection(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"Demote self", "PUT", "/admin/users/1/admin", `{"is_admin":false}`, http.StatusBadRequest},
		{"Delete self", "DELETE", "/admin/users/1", "", http.StatusBadRequest},
		{"Promote other", "PUT", "/admin/users/7/admin", `{"is_admin":true}`, http.StatusNoContent},
		{"Delete other", "DELETE", "/admin/users/7", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestHandler()
			w := serve(h, tt.method, tt.path, "admin-token", strings.NewReader(tt.body))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent && len(d.admin.SetAdminCalls)+len(d.admin.DeleteCalls) != 1 {
				t.Error("admin service not called")
			}
		})
	}
}
