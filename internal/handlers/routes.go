package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/v1 router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/reset", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/logout", h.Logout)
			r.Post("/password/change", h.ChangePassword)
		})
	})
	r.With(h.Authenticate).Get("/me", h.Me)

	r.Route("/competitions", func(r chi.Router) {
		r.Get("/", h.ListCompetitions)
		r.Get("/current", h.GetCurrentCompetition)
		r.Get("/{id}", h.GetCompetition)
		r.With(h.Authenticate).Post("/{id}/submissions", h.SubmitAnswer)
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.With(h.OptionalAuth).Get("/current", h.GetCurrentLeaderboard)
		r.Get("/history", h.GetLeaderboardHistory)
		r.Get("/competitions/{id}", h.GetCompetitionLeaderboard)
		r.With(h.Authenticate).Get("/competitions/{id}/me", h.GetMyStanding)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.OptionalAuth)
		r.Get("/questions", h.ListQuestions)
		r.Get("/questions/{id}", h.GetQuestion)
		r.Get("/riddles", h.ListRiddles)
		r.Get("/riddles/{id}", h.GetRiddle)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Use(h.RequireAdmin)

		r.Post("/questions", h.CreateQuestion)
		r.Put("/questions/{id}", h.UpdateQuestion)
		r.Delete("/questions/{id}", h.DeleteQuestion)

		r.Post("/riddles", h.CreateRiddle)
		r.Put("/riddles/{id}", h.UpdateRiddle)
		r.Delete("/riddles/{id}", h.DeleteRiddle)

		r.Post("/competitions", h.CreateCompetition)
		r.Delete("/competitions/{id}", h.DeleteCompetition)

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/users", h.ListUsers)
		r.Put("/users/{id}/admin", h.SetUserAdmin)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Post("/system/install", h.InstallDatabase)
	})

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	return r
}
