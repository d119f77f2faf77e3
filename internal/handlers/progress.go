package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	relayWriteWait  = 10 * time.Second
	relayPongWait   = 60 * time.Second
	relayPingPeriod = 30 * time.Second
	// close frame reasons are limited to 123 bytes
	maxCloseReason = 120
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}

// VideoProgress handles GET /ws/videos/{videoId}/progress. It relays the
// extraction progress of a queued video and closes once extraction ends;
// a failed extraction closes with the error as the reason.
func (h *Handler) VideoProgress(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	if _, ok := h.hub.Last(videoID); !ok {
		h.errorResponse(w, http.StatusNotFound, "No extraction for this video")
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "video", videoID, "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe, ok := h.hub.Subscribe(videoID)
	defer unsubscribe()
	if !ok {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "expired"),
			time.Now().Add(relayWriteWait))
		return
	}

	activeRelays.Inc()
	defer activeRelays.Dec()

	// the client never sends anything; reading detects its disconnect
	// and services pongs
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(relayPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(relayPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(relayPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, h.finalCloseMessage(videoID))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func (h *Handler) finalCloseMessage(videoID string) []byte {
	snap, _ := h.hub.Last(videoID)
	if snap.Err == nil {
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	}
	return websocket.FormatCloseMessage(websocket.CloseInternalServerErr, truncateReason(snap.Err.Error()))
}

// truncateReason cuts s to maxCloseReason bytes without splitting a rune.
func truncateReason(s string) string {
	if len(s) <= maxCloseReason {
		return s
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
