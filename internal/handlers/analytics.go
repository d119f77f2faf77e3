package handlers

import (
	"net/http"

	"github.com/pokebattlelogger/dashboard-api/internal/logic"
)

// GetAnalytics handles GET /api/v1/analytics?view=selection|knockout&sort=col[:asc|desc]&toggle=col&filter=
// toggle advances the header-click cycle of a column from the given sort.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := logic.AnalyticsQuery{
		View:   logic.ViewSelection,
		Toggle: q.Get("toggle"),
		Filter: q.Get("filter"),
	}
	if v := q.Get("view"); v != "" {
		query.View = v
	}
	if s := q.Get("sort"); s != "" {
		sort, err := logic.ParseSort(s)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Sort = sort
	}

	ctx := r.Context()
	view, err := h.analytics.Analytics(ctx, TrainerIDFromContext(ctx), query)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}
