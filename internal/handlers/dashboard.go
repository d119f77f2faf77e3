package handlers

import (
	"net/http"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// GetDashboard handles GET /api/v1/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Summary(r.Context(), TrainerIDFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}

// GetSeasons handles GET /api/v1/seasons
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.seasons.Seasons(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, seasons)
}

// GetCurrentSeason handles GET /api/v1/session/season
func (h *Handler) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.jsonResponse(w, http.StatusOK, map[string]int{
		"season": h.seasons.Current(ctx, TrainerIDFromContext(ctx)),
	})
}

// SetCurrentSeason handles PUT /api/v1/session/season. Changing the season
// sends the battle list back to page 1.
func (h *Handler) SetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	var req models.SetSeasonRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	if err := h.seasons.SetCurrent(ctx, TrainerIDFromContext(ctx), *req.Season); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]int{"season": *req.Season})
}

type spriteResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GetSprites handles GET /api/v1/sprites?name=...&name=...
func (h *Handler) GetSprites(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	if len(names) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(names) > 50 {
		h.errorResponse(w, http.StatusBadRequest, "at most 50 names")
		return
	}
	out := make([]spriteResponse, len(names))
	for i, name := range names {
		out[i] = spriteResponse{Name: name, URL: h.sprites.URL(name)}
	}
	h.jsonResponse(w, http.StatusOK, out)
}
