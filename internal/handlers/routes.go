package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP surface. auth guards everything under /api and
// /ws.
func (h *Handler) Router(auth *Auth) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TrainerIDHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/seasons", h.GetSeasons)
		r.Get("/session/season", h.GetCurrentSeason)
		r.Put("/session/season", h.SetCurrentSeason)
		r.Get("/sprites", h.GetSprites)

		r.Route("/battles", func(r chi.Router) {
			r.Get("/", h.GetBattles)
			r.Get("/count", h.GetBattleCount)
			r.Route("/{battleId}", func(r chi.Router) {
				r.Get("/detail", h.OpenBattleDetail)
				r.Delete("/detail", h.CloseBattleDetail)
				r.Post("/memo", h.SaveMemo)
				r.Get("/log-text", h.GetBattleLogText)
			})
		})

		r.Get("/analytics", h.GetAnalytics)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", h.GetVideoStatusList)
			r.Post("/", h.SubmitVideo)
			r.Get("/format", h.CheckVideoFormat)
			r.Get("/{videoId}/log", h.GetVideoLog)
		})

		r.Route("/labeling", func(r chi.Router) {
			r.Get("/images", h.GetLabelingImages)
			r.Get("/options", h.GetLabelOptions)
			r.Post("/labels", h.SubmitLabels)
		})
	})

	r.With(auth.Middleware).Get("/ws/videos/{videoId}/progress", h.VideoProgress)

	return r
}
