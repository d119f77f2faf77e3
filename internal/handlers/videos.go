package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// CheckVideoFormat handles GET /api/v1/videos/format?videoId=
// A passing check unlocks submission of the same video.
func (h *Handler) CheckVideoFormat(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		h.errorResponse(w, http.StatusBadRequest, "videoId is required")
		return
	}
	ctx := r.Context()
	format, err := h.videos.CheckFormat(ctx, TrainerIDFromContext(ctx), videoID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, format)
}

// SubmitVideo handles POST /api/v1/videos
func (h *Handler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	row, err := h.videos.Submit(ctx, TrainerIDFromContext(ctx), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusAccepted, row)
}

// GetVideoStatusList handles GET /api/v1/videos
func (h *Handler) GetVideoStatusList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.videos.StatusList(ctx, TrainerIDFromContext(ctx))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, list)
}

// GetVideoLog handles GET /api/v1/videos/{videoId}/log
func (h *Handler) GetVideoLog(w http.ResponseWriter, r *http.Request) {
	lines, err := h.videos.DetailLog(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, lines)
}
