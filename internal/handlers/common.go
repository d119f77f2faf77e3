package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/fetch"
	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint. Missing required settings are reported but do not
// fail readiness; the endpoints depending on them answer 503 instead.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]bool, len(h.checks))
	allHealthy := true
	for name, p := range h.checks {
		ok := p.Ping(ctx) == nil
		checks[name] = ok
		if !ok {
			allHealthy = false
		}
	}

	queueDepth := 0
	if h.queue != nil {
		queueDepth = h.queue.QueueDepth()
	}
	missing := h.missing
	if missing == nil {
		missing = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"missing":    missing,
		"queueDepth": queueDepth,
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeBody reads a size-limited JSON body into dst and validates it.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// queryInt parses an optional positive integer parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// serviceError maps a service failure to a status. Backend error text is
// passed through as-is so the client can show it.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrNotConfigured):
		h.errorResponse(w, http.StatusServiceUnavailable, "Backend not configured")
	case errors.Is(err, logic.ErrPageOutOfRange),
		errors.Is(err, logic.ErrInvalidView),
		errors.Is(err, logic.ErrUnknownColumn),
		errors.Is(err, logic.ErrUnknownLabel),
		errors.Is(err, logic.ErrForeignImage),
		errors.Is(err, session.ErrInvalidSeason):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrBusy):
		h.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrFormatNotChecked):
		h.errorResponse(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, logic.ErrQueueFull), errors.Is(err, logic.ErrStorageNotConfigured):
		h.errorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, fetch.ErrStale), errors.Is(err, fetch.ErrDisabled):
		// superseded or closed while loading; nothing to render
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &apiErr):
		h.logger.Warnw("Backend error", "path", r.URL.Path, "status", apiErr.Status, "error", apiErr.Error())
		h.errorResponse(w, http.StatusBadGateway, apiErr.Error())
	default:
		h.logger.Errorw("Request failed", "path", r.URL.Path, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
