// Command submitvideo drives a local dashboard API in development: it
// checks a video's format, submits it for extraction and prints progress
// until the extraction finishes. The server must run with
// AUTH_DEV_HEADER=true and no Auth0 tenant configured.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "dashboard API base URL")
	trainer := flag.String("trainer", "dev-trainer", "trainer id sent as X-Trainer-Id")
	videoID := flag.String("video", "", "YouTube video id")
	language := flag.String("lang", "ja", "in-game language (ja or en)")
	finalResult := flag.Int("final", 0, "result of the final battle, 0 to omit")
	flag.Parse()

	if *videoID == "" {
		log.Fatal("-video is required")
	}
	base := strings.TrimRight(*apiURL, "/")
	client := &http.Client{Timeout: 30 * time.Second}

	var format models.VideoFormat
	status, err := call(client, *trainer, "GET", base+"/api/v1/videos/format?videoId="+url.QueryEscape(*videoID), nil, &format)
	if err != nil {
		log.Fatalf("Format check failed: %v", err)
	}
	fmt.Printf("Format (%d): valid=%v 1080p=%v 30fps=%v\n", status, format.IsValid, format.Is1080p, format.Is30fps)
	if !format.IsValid {
		log.Fatal("Video cannot be processed")
	}

	req := models.ExtractRequest{VideoID: *videoID, Language: *language}
	if *finalResult > 0 {
		req.FinalResult = finalResult
	}
	var row models.VideoStatus
	if _, err := call(client, *trainer, "POST", base+"/api/v1/videos", req, &row); err != nil {
		log.Fatalf("Submission failed: %v", err)
	}
	fmt.Printf("Queued %s at %s\n", row.VideoID, row.RegisteredAt)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/ws/videos/" + url.PathEscape(*videoID) + "/progress"
	header := http.Header{}
	header.Set("X-Trainer-Id", *trainer)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		log.Fatalf("Progress stream failed: %v", err)
	}
	defer conn.Close()

	printed := 0
	for {
		var ev models.ExtractProgress
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				fmt.Println("✅ Extraction finished")
				return
			}
			log.Fatalf("❌ Extraction ended: %v", err)
		}
		// each event carries the whole log so far
		for _, line := range ev.Message[min(printed, len(ev.Message)):] {
			fmt.Printf("[%5.1f%%] %s\n", ev.Progress*100, line)
		}
		printed = len(ev.Message)
	}
}

func call(client *http.Client, trainer, method, target string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trainer-Id", trainer)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return resp.StatusCode, json.Unmarshal(data, out)
}
