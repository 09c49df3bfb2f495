package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"smartstudy-backend/internal/handlers"
	"smartstudy-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	studyPlanHandler *handlers.StudyPlanHandler,
	quizHandler *handlers.QuizHandler,
	tutorHandler *handlers.TutorHandler,
	wsHandler http.HandlerFunc,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", authHandler.Me)
		})

		// ──── Study Plan Routes ────
		r.Route("/study-plan", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Route("/topics", func(r chi.Router) {
				r.Post("/", studyPlanHandler.CreateTopic)
				r.Get("/", studyPlanHandler.ListTopics)
				r.Get("/{id}", studyPlanHandler.GetTopic)
				r.Delete("/{id}", studyPlanHandler.DeleteTopic)
			})

			r.Get("/revisions/due", studyPlanHandler.DueRevisions)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", studyPlanHandler.CreateSession)
				r.Get("/", studyPlanHandler.ListSessions)
				r.Get("/{id}", studyPlanHandler.GetSession)
				r.Put("/{id}", studyPlanHandler.UpdateSession)
				r.Delete("/{id}", studyPlanHandler.DeleteSession)
			})
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", quizHandler.List)
			r.Post("/", quizHandler.Create)
			r.Get("/{id}", quizHandler.Get)
			r.Post("/{id}/attempt", quizHandler.RecordAttempt)
		})

		// ──── AI Tutor Routes ────
		r.Route("/ai-tutor", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/ask", tutorHandler.Ask)
			r.Get("/history", tutorHandler.History)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler)
	})

	return r
}
