package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/fetch"
	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

func newTestHandler(cfg Config) *Handler {
	cfg.Logger = zap.NewNop()
	if cfg.Queue == nil {
		cfg.Queue = &MockQueue{}
	}
	if cfg.Hub == nil {
		cfg.Hub = worker.NewHub()
	}
	if cfg.Dashboard == nil {
		cfg.Dashboard = &MockDashboardService{}
	}
	if cfg.Seasons == nil {
		cfg.Seasons = &MockSeasonService{}
	}
	if cfg.Battles == nil {
		cfg.Battles = &MockBattleLogService{}
	}
	if cfg.Detail == nil {
		cfg.Detail = &MockDetailService{}
	}
	if cfg.Analytics == nil {
		cfg.Analytics = &MockAnalyticsService{}
	}
	if cfg.Videos == nil {
		cfg.Videos = &MockVideoService{}
	}
	if cfg.Labeling == nil {
		cfg.Labeling = &MockLabelingService{}
	}
	if cfg.Sprites == nil {
		table, err := sprite.LoadTable()
		if err != nil {
			panic(err)
		}
		cfg.Sprites = sprite.NewResolver(table, "")
	}
	return New(cfg)
}

func devRouter(h *Handler) http.Handler {
	return h.Router(NewAuth(AuthConfig{DevHeader: true, Logger: zap.NewNop()}))
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(TrainerIDHeader, "auth0|trainer")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

func TestReady(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedStatus int
	}{
		{
			name: "All Healthy",
			checks: map[string]Pinger{
				"cache": PingFunc(func(ctx context.Context) error { return nil }),
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Cache Down",
			checks: map[string]Pinger{
				"cache":    PingFunc(func(ctx context.Context) error { return errors.New("refused") }),
				"postgres": PingFunc(func(ctx context.Context) error { return nil }),
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Config{Checks: tt.checks, Missing: []string{"BACKEND_HOST"}, Queue: &MockQueue{Depth: 3}})
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest("GET", "/ready", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var body struct {
				Missing    []string `json:"missing"`
				QueueDepth int      `json:"queueDepth"`
			}
			json.Unmarshal(w.Body.Bytes(), &body)
			if len(body.Missing) != 1 || body.QueueDepth != 3 {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{"Backend Not Configured", backend.ErrNotConfigured, http.StatusServiceUnavailable, "Backend not configured"},
		{"Page Out Of Range", fmt.Errorf("page 9: %w", logic.ErrPageOutOfRange), http.StatusBadRequest, ""},
		{"Busy", logic.ErrBusy, http.StatusConflict, ""},
		{"Format Not Checked", logic.ErrFormatNotChecked, http.StatusPreconditionFailed, ""},
		{"Queue Full", logic.ErrQueueFull, http.StatusServiceUnavailable, ""},
		{"Unknown Label", logic.ErrUnknownLabel, http.StatusBadRequest, ""},
		{"Backend Message Verbatim", fmt.Errorf("update memo: %w", &backend.APIError{Status: 500, Message: "memo too long"}), http.StatusBadGateway, "memo too long"},
		{"Unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Config{})
			w := httptest.NewRecorder()
			h.serviceError(w, httptest.NewRequest("GET", "/x", nil), tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedError != "" {
				if got := errorBody(t, w); got != tt.expectedError {
					t.Errorf("error = %q, want %q", got, tt.expectedError)
				}
			}
		})
	}
}

func TestServiceError_SupersededFetchHasNoBody(t *testing.T) {
	h := newTestHandler(Config{})
	for _, err := range []error{fetch.ErrStale, fetch.ErrDisabled} {
		w := httptest.NewRecorder()
		h.serviceError(w, httptest.NewRequest("GET", "/x", nil), err)
		if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
			t.Errorf("%v: status %d body %q", err, w.Code, w.Body.String())
		}
	}
}

func TestAPIRequiresTrainer(t *testing.T) {
	h := newTestHandler(Config{})
	router := devRouter(h)

	req := httptest.NewRequest("GET", "/api/v1/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health expected 200, got %d", w.Code)
	}
}

func TestGetDashboard_UsesTrainerFromHeader(t *testing.T) {
	var gotTrainer string
	h := newTestHandler(Config{Dashboard: &MockDashboardService{
		SummaryFunc: func(ctx context.Context, trainerID string) (*logic.DashboardView, error) {
			gotTrainer = trainerID
			return &logic.DashboardView{WinRate: 0.5, RecentBattles: []logic.RecentBattleRow{}}, nil
		},
	}})

	w := doRequest(t, devRouter(h), "GET", "/api/v1/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotTrainer != "auth0_trainer" {
		t.Errorf("trainer = %q, want auth0_trainer", gotTrainer)
	}
}

func TestGetBattles_TableDriven(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		pageErr        error
		expectedStatus int
		expectedReq    logic.PageRequest
	}{
		{name: "Remembered Page", query: "", expectedStatus: http.StatusOK},
		{name: "Explicit Page And Size", query: "?page=3&size=12", expectedStatus: http.StatusOK, expectedReq: logic.PageRequest{Page: 3, Size: 12}},
		{name: "Non Numeric Page", query: "?page=abc", expectedStatus: http.StatusBadRequest},
		{name: "Zero Page", query: "?page=0", expectedStatus: http.StatusBadRequest},
		{name: "Huge Size", query: "?size=1000", expectedStatus: http.StatusBadRequest},
		{name: "Beyond Last Page", query: "?page=99", pageErr: logic.ErrPageOutOfRange, expectedStatus: http.StatusBadRequest, expectedReq: logic.PageRequest{Page: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq logic.PageRequest
			h := newTestHandler(Config{Battles: &MockBattleLogService{
				PageFunc: func(ctx context.Context, trainerID string, req logic.PageRequest) (*logic.BattlePageView, error) {
					gotReq = req
					if tt.pageErr != nil {
						return nil, tt.pageErr
					}
					return &logic.BattlePageView{Cards: []logic.BattleCard{}}, nil
				},
			}})

			w := doRequest(t, devRouter(h), "GET", "/api/v1/battles"+tt.query, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotReq != tt.expectedReq {
				t.Errorf("request = %+v, want %+v", gotReq, tt.expectedReq)
			}
		})
	}
}

func TestSaveMemo_PathBattleIDWins(t *testing.T) {
	var gotBattle, gotMemo string
	h := newTestHandler(Config{Battles: &MockBattleLogService{
		SaveMemoFunc: func(ctx context.Context, trainerID, battleID, memo string) error {
			gotBattle, gotMemo = battleID, memo
			return nil
		},
	}})

	w := doRequest(t, devRouter(h), "POST", "/api/v1/battles/b-42/memo", `{"battle_id":"other","memo":"good lead"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotBattle != "b-42" || gotMemo != "good lead" {
		t.Errorf("saved %q/%q", gotBattle, gotMemo)
	}
}

func TestSaveMemo_BackendErrorSurfaced(t *testing.T) {
	h := newTestHandler(Config{Battles: &MockBattleLogService{
		SaveMemoFunc: func(ctx context.Context, trainerID, battleID, memo string) error {
			return &backend.APIError{Status: 422, Message: "battle not found"}
		},
	}})

	w := doRequest(t, devRouter(h), "POST", "/api/v1/battles/b-1/memo", `{"memo":"x"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "battle not found" {
		t.Errorf("error = %q", got)
	}
}

func TestOpenBattleDetail_MessagesParam(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedShow   bool
		expectedStatus int
	}{
		{"Default Shows Messages", "", true, http.StatusOK},
		{"Hidden Messages", "?messages=false", false, http.StatusOK},
		{"Invalid Flag", "?messages=maybe", true, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotShow := true
			h := newTestHandler(Config{Detail: &MockDetailService{
				OpenDetailFunc: func(ctx context.Context, trainerID, battleID string, showMessages bool) (*logic.BattleDetail, error) {
					gotShow = showMessages
					return &logic.BattleDetail{BattleID: battleID}, nil
				},
			}})

			w := doRequest(t, devRouter(h), "GET", "/api/v1/battles/b1/detail"+tt.query, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotShow != tt.expectedShow {
				t.Errorf("showMessages = %v, want %v", gotShow, tt.expectedShow)
			}
		})
	}
}

func TestCloseBattleDetail(t *testing.T) {
	var closed string
	h := newTestHandler(Config{Detail: &MockDetailService{
		CloseDetailFunc: func(trainerID string) { closed = trainerID },
	}})

	w := doRequest(t, devRouter(h), "DELETE", "/api/v1/battles/b1/detail", "")
	if w.Code != http.StatusNoContent || closed != "auth0_trainer" {
		t.Errorf("status %d closed %q", w.Code, closed)
	}
}

func TestGetBattleLogText_Busy(t *testing.T) {
	h := newTestHandler(Config{Detail: &MockDetailService{
		CopyBattleLogFunc: func(ctx context.Context, battleID string) (string, error) {
			return "", logic.ErrBusy
		},
	}})

	w := doRequest(t, devRouter(h), "GET", "/api/v1/battles/b1/log-text", "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestGetAnalytics_Query(t *testing.T) {
	var got logic.AnalyticsQuery
	h := newTestHandler(Config{Analytics: &MockAnalyticsService{
		AnalyticsFunc: func(ctx context.Context, trainerID string, q logic.AnalyticsQuery) (*logic.AnalyticsView, error) {
			got = q
			return &logic.AnalyticsView{View: q.View}, nil
		},
	}})
	router := devRouter(h)

	w := doRequest(t, router, "GET", "/api/v1/analytics?view=knockout&sort=knock_out_count:desc&filter=gar", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := logic.AnalyticsQuery{
		View:   logic.ViewKnockOut,
		Sort:   logic.SortState{Column: "knock_out_count", Direction: logic.SortDesc},
		Filter: "gar",
	}
	if got != want {
		t.Errorf("query = %+v, want %+v", got, want)
	}

	w = doRequest(t, router, "GET", "/api/v1/analytics?sort=usage:sideways", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad sort direction: expected 400, got %d", w.Code)
	}
}

func TestSetCurrentSeason_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Valid", `{"season":3}`, http.StatusOK},
		{"All Time", `{"season":0}`, http.StatusOK},
		{"Missing Season", `{}`, http.StatusBadRequest},
		{"Negative Season", `{"season":-1}`, http.StatusBadRequest},
		{"Invalid JSON", `{season`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Config{})
			w := doRequest(t, devRouter(h), "PUT", "/api/v1/session/season", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmitVideo_TableDriven(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		submitErr      error
		expectedStatus int
	}{
		{"Accepted", `{"videoId":"abcdef123","language":"en"}`, nil, http.StatusAccepted},
		{"With Final Result", `{"videoId":"abcdef123","language":"ja","finalResult":3}`, nil, http.StatusAccepted},
		{"Zero Final Result", `{"videoId":"abcdef123","language":"ja","finalResult":0}`, nil, http.StatusBadRequest},
		{"Unsupported Language", `{"videoId":"abcdef123","language":"fr"}`, nil, http.StatusBadRequest},
		{"Missing Video", `{"language":"en"}`, nil, http.StatusBadRequest},
		{"Format Not Checked", `{"videoId":"abcdef123","language":"en"}`, logic.ErrFormatNotChecked, http.StatusPreconditionFailed},
		{"Queue Full", `{"videoId":"abcdef123","language":"en"}`, logic.ErrQueueFull, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Config{Videos: &MockVideoService{
				SubmitFunc: func(ctx context.Context, trainerID string, req models.ExtractRequest) (*models.VideoStatus, error) {
					if tt.submitErr != nil {
						return nil, tt.submitErr
					}
					return &models.VideoStatus{VideoID: req.VideoID, Status: models.VideoStatusProcessing, Pending: true}, nil
				},
			}})

			w := doRequest(t, devRouter(h), "POST", "/api/v1/videos", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCheckVideoFormat_RequiresVideoID(t *testing.T) {
	h := newTestHandler(Config{})
	router := devRouter(h)

	if w := doRequest(t, router, "GET", "/api/v1/videos/format", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	w := doRequest(t, router, "GET", "/api/v1/videos/format?videoId=abcdef", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"isValid":true`) {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestGetLabelingImages_Kind(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedKind   models.ImageKind
		expectedStatus int
	}{
		{"Default Pokemon", "", models.ImageKindPokemon, http.StatusOK},
		{"Name Window", "?kind=name_window", models.ImageKindNameWindow, http.StatusOK},
		{"Unknown Kind", "?kind=items", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKind models.ImageKind
			h := newTestHandler(Config{Labeling: &MockLabelingService{
				ImagesFunc: func(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error) {
					gotKind = kind
					return []models.LabelImage{}, nil
				},
			}})

			w := doRequest(t, devRouter(h), "GET", "/api/v1/labeling/images"+tt.query, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotKind != tt.expectedKind {
				t.Errorf("kind = %q, want %q", gotKind, tt.expectedKind)
			}
		})
	}
}

func TestGetLabelingImages_StorageNotConfigured(t *testing.T) {
	h := newTestHandler(Config{Labeling: &MockLabelingService{
		ImagesFunc: func(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error) {
			return nil, logic.ErrStorageNotConfigured
		},
	}})
	if w := doRequest(t, devRouter(h), "GET", "/api/v1/labeling/images", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestSubmitLabels_RelaysBackendReply(t *testing.T) {
	h := newTestHandler(Config{Labeling: &MockLabelingService{
		SubmitLabelsFunc: func(ctx context.Context, trainerID string, req models.SetLabelsRequest) (json.RawMessage, error) {
			return json.RawMessage(`{"updated":2}`), nil
		},
	}})
	router := devRouter(h)

	body := `{"labels":[{"fileName":"a.png","pokemonName":"カイリュー"},{"fileName":"b.png","pokemonName":"ガブリアス"}]}`
	w := doRequest(t, router, "POST", "/api/v1/labeling/labels", body)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"updated":2}` {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "POST", "/api/v1/labeling/labels", `{"labels":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty labels: expected 400, got %d", w.Code)
	}
}

func TestGetSprites(t *testing.T) {
	h := newTestHandler(Config{})
	router := devRouter(h)

	if w := doRequest(t, router, "GET", "/api/v1/sprites", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without names, got %d", w.Code)
	}

	w := doRequest(t, router, "GET", "/api/v1/sprites?name=%E3%82%AB%E3%82%A4%E3%83%AA%E3%83%A5%E3%83%BC&name=", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []spriteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].URL != sprite.DefaultBaseURL+"/dragonite.png" || got[1].URL != sprite.PlaceholderURL {
		t.Errorf("sprites = %+v", got)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestHandler(Config{})
	big := `{"memo":"` + strings.Repeat("a", MaxBodySize) + `"}`
	w := doRequest(t, devRouter(h), "POST", "/api/v1/battles/b1/memo", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}
