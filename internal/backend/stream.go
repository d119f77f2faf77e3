package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// ExtractQuery identifies one extraction job.
type ExtractQuery struct {
	VideoID   string
	Language  string
	TrainerID string
	// FinalResult is the manually entered final rank. Nil leaves the
	// parameter out entirely.
	FinalResult *int
}

func (q ExtractQuery) Values() url.Values {
	v := url.Values{
		"videoId":   {q.VideoID},
		"language":  {q.Language},
		"trainerId": {q.TrainerID},
	}
	if q.FinalResult != nil {
		v.Set("finalResult", strconv.Itoa(*q.FinalResult))
	}
	return v
}

// StreamConfigured reports whether extraction jobs can be started.
func (c *Client) StreamConfigured() bool {
	return c.wsHost != ""
}

// ExtractStream starts an extraction job and calls onEvent for every
// progress frame until the backend closes the connection. A normal close
// returns nil. Cancelling ctx closes the connection.
func (c *Client) ExtractStream(ctx context.Context, q ExtractQuery, onEvent func(models.ExtractProgress)) error {
	if !c.StreamConfigured() {
		return ErrNotConfigured
	}

	u := c.wsHost + "/api/v1/extract_stats_from_video?" + q.Values().Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		requestErrors.WithLabelValues("/api/v1/extract_stats_from_video", "dial").Inc()
		return fmt.Errorf("dial extraction stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev models.ExtractProgress
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read extraction stream: %w", err)
		}
		onEvent(ev)
	}
}
