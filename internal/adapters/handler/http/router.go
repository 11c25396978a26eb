package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Question *QuestionHandler
	Vote     *VoteHandler
	Auth     *AuthHandler
	User     *UserHandler
}

func NewHandler(h Handlers, tokens TokenParser, voteLimiter *VoteRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	requireAuth := RequireAuth(tokens)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Route("/questions", func(r chi.Router) {
			r.With(OptionalAuth(tokens)).Get("/", h.Question.ListQuestions)
			r.With(requireAuth).Post("/", h.Question.CreateQuestion)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Question.GetQuestion)
				r.Get("/eligibility", h.Question.GetEligibility)
				r.Get("/results", h.Question.GetResults)

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Get("/my-vote", h.Vote.GetMyVote)

					r.Group(func(r chi.Router) {
						if voteLimiter != nil {
							r.Use(voteLimiter.Middleware)
						}
						r.Post("/votes", h.Vote.CastVote)
						r.Delete("/votes", h.Vote.ClearVote)
					})
				})
			})
		})

		if h.User != nil {
			r.With(requireAuth).Get("/users/me", h.User.GetMe)
		}
	})

	if h.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google/callback", h.Auth.GoogleCallback)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/logout", h.Auth.Logout)
		})
	}

	return r
}
