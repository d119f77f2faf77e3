package handlers

import (
	"net/http"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// GetLabelingImages handles GET /api/v1/labeling/images?kind=pokemon|name_window
func (h *Handler) GetLabelingImages(w http.ResponseWriter, r *http.Request) {
	kind := models.ImageKind(r.URL.Query().Get("kind"))
	switch kind {
	case "":
		kind = models.ImageKindPokemon
	case models.ImageKindPokemon, models.ImageKindNameWindow:
	default:
		h.errorResponse(w, http.StatusBadRequest, "kind must be pokemon or name_window")
		return
	}

	ctx := r.Context()
	images, err := h.labeling.Images(ctx, TrainerIDFromContext(ctx), kind)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, images)
}

// GetLabelOptions handles GET /api/v1/labeling/options?q=&limit=
func (h *Handler) GetLabelOptions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, h.labeling.Options(r.URL.Query().Get("q"), limit))
}

// SubmitLabels handles POST /api/v1/labeling/labels. The backend's reply is
// relayed unchanged.
func (h *Handler) SubmitLabels(w http.ResponseWriter, r *http.Request) {
	var req models.SetLabelsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	resp, err := h.labeling.SubmitLabels(ctx, TrainerIDFromContext(ctx), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if len(resp) == 0 {
		h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}
