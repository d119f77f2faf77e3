package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// GetBattles handles GET /api/v1/battles?page=&size=&move=next|prev
// Without page the trainer's remembered page is served.
func (h *Handler) GetBattles(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := queryInt(r, "size")
	if err != nil || size > 100 {
		h.errorResponse(w, http.StatusBadRequest, "size must be between 1 and 100")
		return
	}

	move := logic.PageMove(r.URL.Query().Get("move"))
	if move != logic.MoveNone && move != logic.MoveNext && move != logic.MovePrev {
		h.errorResponse(w, http.StatusBadRequest, "move must be next or prev")
		return
	}

	ctx := r.Context()
	view, err := h.battles.Page(ctx, TrainerIDFromContext(ctx), logic.PageRequest{Page: page, Size: size, Move: move})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}

// GetBattleCount handles GET /api/v1/battles/count
func (h *Handler) GetBattleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.battles.Count(ctx, TrainerIDFromContext(ctx))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]int{"count": count})
}

// OpenBattleDetail handles GET /api/v1/battles/{battleId}/detail?messages=
// Opening a battle supersedes whichever detail the trainer had open.
func (h *Handler) OpenBattleDetail(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleId")
	showMessages := true
	if raw := r.URL.Query().Get("messages"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "messages must be a boolean")
			return
		}
		showMessages = v
	}

	ctx := r.Context()
	detail, err := h.detail.OpenDetail(ctx, TrainerIDFromContext(ctx), battleID, showMessages)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, detail)
}

// CloseBattleDetail handles DELETE /api/v1/battles/{battleId}/detail
func (h *Handler) CloseBattleDetail(w http.ResponseWriter, r *http.Request) {
	h.detail.CloseDetail(TrainerIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// SaveMemo handles POST /api/v1/battles/{battleId}/memo
func (h *Handler) SaveMemo(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMemoRequest
	req.BattleID = chi.URLParam(r, "battleId")
	if !h.decodeBody(w, r, &req) {
		return
	}
	// the path wins over any battle_id in the body
	req.BattleID = chi.URLParam(r, "battleId")

	ctx := r.Context()
	if err := h.battles.SaveMemo(ctx, TrainerIDFromContext(ctx), req.BattleID, req.Memo); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GetBattleLogText handles GET /api/v1/battles/{battleId}/log-text
func (h *Handler) GetBattleLogText(w http.ResponseWriter, r *http.Request) {
	text, err := h.detail.CopyBattleLog(r.Context(), chi.URLParam(r, "battleId"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"text": text})
}
