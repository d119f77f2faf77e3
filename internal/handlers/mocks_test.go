package handlers

import (
	"context"
	"encoding/json"

	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

// MockDashboardService
type MockDashboardService struct {
	SummaryFunc func(ctx context.Context, trainerID string) (*logic.DashboardView, error)
}

func (m *MockDashboardService) Summary(ctx context.Context, trainerID string) (*logic.DashboardView, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, trainerID)
	}
	return &logic.DashboardView{RecentBattles: []logic.RecentBattleRow{}}, nil
}

// MockSeasonService
type MockSeasonService struct {
	SeasonsFunc    func(ctx context.Context) ([]models.Season, error)
	CurrentFunc    func(ctx context.Context, trainerID string) int
	SetCurrentFunc func(ctx context.Context, trainerID string, season int) error
}

func (m *MockSeasonService) Seasons(ctx context.Context) ([]models.Season, error) {
	if m.SeasonsFunc != nil {
		return m.SeasonsFunc(ctx)
	}
	return []models.Season{}, nil
}

func (m *MockSeasonService) Current(ctx context.Context, trainerID string) int {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, trainerID)
	}
	return 0
}

func (m *MockSeasonService) SetCurrent(ctx context.Context, trainerID string, season int) error {
	if m.SetCurrentFunc != nil {
		return m.SetCurrentFunc(ctx, trainerID, season)
	}
	return nil
}

// MockBattleLogService
type MockBattleLogService struct {
	PageFunc         func(ctx context.Context, trainerID string, req logic.PageRequest) (*logic.BattlePageView, error)
	CountFunc        func(ctx context.Context, trainerID string) (int, error)
	SaveMemoFunc     func(ctx context.Context, trainerID, battleID, memo string) error
	CachedBattleFunc func(ctx context.Context, trainerID, battleID string) (*models.BattleLogEntry, bool)
}

func (m *MockBattleLogService) Page(ctx context.Context, trainerID string, req logic.PageRequest) (*logic.BattlePageView, error) {
	if m.PageFunc != nil {
		return m.PageFunc(ctx, trainerID, req)
	}
	return &logic.BattlePageView{Cards: []logic.BattleCard{}}, nil
}

func (m *MockBattleLogService) Count(ctx context.Context, trainerID string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, trainerID)
	}
	return 0, nil
}

func (m *MockBattleLogService) SaveMemo(ctx context.Context, trainerID, battleID, memo string) error {
	if m.SaveMemoFunc != nil {
		return m.SaveMemoFunc(ctx, trainerID, battleID, memo)
	}
	return nil
}

func (m *MockBattleLogService) CachedBattle(ctx context.Context, trainerID, battleID string) (*models.BattleLogEntry, bool) {
	if m.CachedBattleFunc != nil {
		return m.CachedBattleFunc(ctx, trainerID, battleID)
	}
	return nil, false
}

// MockDetailService
type MockDetailService struct {
	OpenDetailFunc    func(ctx context.Context, trainerID, battleID string, showMessages bool) (*logic.BattleDetail, error)
	CloseDetailFunc   func(trainerID string)
	CopyBattleLogFunc func(ctx context.Context, battleID string) (string, error)
}

func (m *MockDetailService) OpenDetail(ctx context.Context, trainerID, battleID string, showMessages bool) (*logic.BattleDetail, error) {
	if m.OpenDetailFunc != nil {
		return m.OpenDetailFunc(ctx, trainerID, battleID, showMessages)
	}
	return &logic.BattleDetail{BattleID: battleID}, nil
}

func (m *MockDetailService) CloseDetail(trainerID string) {
	if m.CloseDetailFunc != nil {
		m.CloseDetailFunc(trainerID)
	}
}

func (m *MockDetailService) CopyBattleLog(ctx context.Context, battleID string) (string, error) {
	if m.CopyBattleLogFunc != nil {
		return m.CopyBattleLogFunc(ctx, battleID)
	}
	return "[]", nil
}

// MockAnalyticsService
type MockAnalyticsService struct {
	AnalyticsFunc func(ctx context.Context, trainerID string, q logic.AnalyticsQuery) (*logic.AnalyticsView, error)
}

func (m *MockAnalyticsService) Analytics(ctx context.Context, trainerID string, q logic.AnalyticsQuery) (*logic.AnalyticsView, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, trainerID, q)
	}
	return &logic.AnalyticsView{View: q.View}, nil
}

// MockVideoService
type MockVideoService struct {
	CheckFormatFunc func(ctx context.Context, trainerID, videoID string) (*models.VideoFormat, error)
	SubmitFunc      func(ctx context.Context, trainerID string, req models.ExtractRequest) (*models.VideoStatus, error)
	StatusListFunc  func(ctx context.Context, trainerID string) ([]models.VideoStatus, error)
	DetailLogFunc   func(ctx context.Context, videoID string) ([]string, error)
}

func (m *MockVideoService) CheckFormat(ctx context.Context, trainerID, videoID string) (*models.VideoFormat, error) {
	if m.CheckFormatFunc != nil {
		return m.CheckFormatFunc(ctx, trainerID, videoID)
	}
	return &models.VideoFormat{IsValid: true, Is1080p: true, Is30fps: true}, nil
}

func (m *MockVideoService) Submit(ctx context.Context, trainerID string, req models.ExtractRequest) (*models.VideoStatus, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, trainerID, req)
	}
	return &models.VideoStatus{VideoID: req.VideoID, Status: models.VideoStatusProcessing, Pending: true}, nil
}

func (m *MockVideoService) StatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error) {
	if m.StatusListFunc != nil {
		return m.StatusListFunc(ctx, trainerID)
	}
	return []models.VideoStatus{}, nil
}

func (m *MockVideoService) DetailLog(ctx context.Context, videoID string) ([]string, error) {
	if m.DetailLogFunc != nil {
		return m.DetailLogFunc(ctx, videoID)
	}
	return []string{}, nil
}

// MockLabelingService
type MockLabelingService struct {
	ImagesFunc       func(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error)
	OptionsFunc      func(query string, limit int) []models.SelectOption
	SubmitLabelsFunc func(ctx context.Context, trainerID string, req models.SetLabelsRequest) (json.RawMessage, error)
}

func (m *MockLabelingService) Images(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error) {
	if m.ImagesFunc != nil {
		return m.ImagesFunc(ctx, trainerID, kind)
	}
	return []models.LabelImage{}, nil
}

func (m *MockLabelingService) Options(query string, limit int) []models.SelectOption {
	if m.OptionsFunc != nil {
		return m.OptionsFunc(query, limit)
	}
	return []models.SelectOption{}
}

func (m *MockLabelingService) SubmitLabels(ctx context.Context, trainerID string, req models.SetLabelsRequest) (json.RawMessage, error) {
	if m.SubmitLabelsFunc != nil {
		return m.SubmitLabelsFunc(ctx, trainerID, req)
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

// MockQueue
type MockQueue struct {
	Depth int
}

func (m *MockQueue) Enqueue(job worker.ExtractJob) bool { return true }
func (m *MockQueue) QueueDepth() int                    { return m.Depth }
