package httpserver

import (
	"net/http"

	"careercoach/internal/middleware"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

const (
	serviceName    = "Career Coach API"
	serviceVersion = "1.0.0"
)

type RouterDeps struct {
	Logger    *slog.Logger
	Chat      *ChatHandler
	Recommend *RecommendHandler
	Resume    *ResumeMatchHandler
}

// NewRouter assembles the chi router with the shared middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": serviceName,
			"version": serviceVersion,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", deps.Chat.Chat)
		r.Get("/chat/context/{userID}", deps.Chat.GetContext)
		r.Delete("/chat/context/{userID}", deps.Chat.ResetContext)

		r.Post("/recommendations", deps.Recommend.Create)
		r.Get("/recommendations/results/{recID}", deps.Recommend.Result)
		r.Get("/analysis/skills/demand", deps.Recommend.SkillDemand)

		r.Post("/resume-match", deps.Resume.Match)
	})

	return r
}
