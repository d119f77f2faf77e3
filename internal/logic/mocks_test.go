package logic

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

// MockBattleBackend
type MockBattleBackend struct {
	BattleLogFunc      func(ctx context.Context, trainerID string, season, page, size int) ([]models.BattleLogEntry, error)
	BattleLogCountFunc func(ctx context.Context, trainerID string, season int) (int, error)
	UpdateMemoFunc     func(ctx context.Context, battleID, memo string) error
	InBattleLogFunc    func(ctx context.Context, battleID string) ([]models.InBattleLogEntry, error)
	MessageLogFunc     func(ctx context.Context, battleID string) ([]models.MessageLogEntry, error)
	MessageFullLogFunc func(ctx context.Context, battleID string) (json.RawMessage, error)
	FaintedLogFunc     func(ctx context.Context, battleID string) ([]models.FaintedLogEntry, error)

	mu             sync.Mutex
	BattleLogCalls int
	CountCalls     int
}

func (m *MockBattleBackend) BattleLog(ctx context.Context, trainerID string, season, page, size int) ([]models.BattleLogEntry, error) {
	m.mu.Lock()
	m.BattleLogCalls++
	m.mu.Unlock()
	if m.BattleLogFunc != nil {
		return m.BattleLogFunc(ctx, trainerID, season, page, size)
	}
	return nil, nil
}

func (m *MockBattleBackend) BattleLogCount(ctx context.Context, trainerID string, season int) (int, error) {
	m.mu.Lock()
	m.CountCalls++
	m.mu.Unlock()
	if m.BattleLogCountFunc != nil {
		return m.BattleLogCountFunc(ctx, trainerID, season)
	}
	return 0, nil
}

func (m *MockBattleBackend) UpdateMemo(ctx context.Context, battleID, memo string) error {
	if m.UpdateMemoFunc != nil {
		return m.UpdateMemoFunc(ctx, battleID, memo)
	}
	return nil
}

func (m *MockBattleBackend) InBattleLog(ctx context.Context, battleID string) ([]models.InBattleLogEntry, error) {
	if m.InBattleLogFunc != nil {
		return m.InBattleLogFunc(ctx, battleID)
	}
	return nil, nil
}

func (m *MockBattleBackend) MessageLog(ctx context.Context, battleID string) ([]models.MessageLogEntry, error) {
	if m.MessageLogFunc != nil {
		return m.MessageLogFunc(ctx, battleID)
	}
	return nil, nil
}

func (m *MockBattleBackend) MessageFullLog(ctx context.Context, battleID string) (json.RawMessage, error) {
	if m.MessageFullLogFunc != nil {
		return m.MessageFullLogFunc(ctx, battleID)
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockBattleBackend) FaintedLog(ctx context.Context, battleID string) ([]models.FaintedLogEntry, error) {
	if m.FaintedLogFunc != nil {
		return m.FaintedLogFunc(ctx, battleID)
	}
	return nil, nil
}

// MockAnalyticsBackend
type MockAnalyticsBackend struct {
	AnalyticsFunc func(ctx context.Context, season int, trainerID string) (*models.AnalyticsResponse, error)
	Calls         int
}

func (m *MockAnalyticsBackend) Analytics(ctx context.Context, season int, trainerID string) (*models.AnalyticsResponse, error) {
	m.Calls++
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, season, trainerID)
	}
	return &models.AnalyticsResponse{}, nil
}

// MockSeasonBackend
type MockSeasonBackend struct {
	SeasonsFunc func(ctx context.Context) ([]models.Season, error)
}

func (m *MockSeasonBackend) Seasons(ctx context.Context) ([]models.Season, error) {
	if m.SeasonsFunc != nil {
		return m.SeasonsFunc(ctx)
	}
	return nil, nil
}

// MockVideoBackend
type MockVideoBackend struct {
	CheckVideoFormatFunc     func(ctx context.Context, videoID string) (*models.VideoFormat, error)
	VideoStatusListFunc      func(ctx context.Context, trainerID string) ([]models.VideoStatus, error)
	VideoDetailStatusLogFunc func(ctx context.Context, videoID string) ([]string, error)
}

func (m *MockVideoBackend) CheckVideoFormat(ctx context.Context, videoID string) (*models.VideoFormat, error) {
	if m.CheckVideoFormatFunc != nil {
		return m.CheckVideoFormatFunc(ctx, videoID)
	}
	return &models.VideoFormat{IsValid: true, Is1080p: true, Is30fps: true}, nil
}

func (m *MockVideoBackend) VideoStatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error) {
	if m.VideoStatusListFunc != nil {
		return m.VideoStatusListFunc(ctx, trainerID)
	}
	return nil, nil
}

func (m *MockVideoBackend) VideoDetailStatusLog(ctx context.Context, videoID string) ([]string, error) {
	if m.VideoDetailStatusLogFunc != nil {
		return m.VideoDetailStatusLogFunc(ctx, videoID)
	}
	return nil, nil
}

// MockQueue
type MockQueue struct {
	Full bool
	Jobs []worker.ExtractJob
}

func (m *MockQueue) Enqueue(job worker.ExtractJob) bool {
	if m.Full {
		return false
	}
	m.Jobs = append(m.Jobs, job)
	return true
}

func (m *MockQueue) QueueDepth() int {
	return len(m.Jobs)
}

// MockLabelingBackend
type MockLabelingBackend struct {
	TrainerIDInDBFunc func(ctx context.Context, trainerID string) (int, error)
	SetLabelsFunc     func(ctx context.Context, req models.SetLabelsRequest) (json.RawMessage, error)
}

func (m *MockLabelingBackend) TrainerIDInDB(ctx context.Context, trainerID string) (int, error) {
	if m.TrainerIDInDBFunc != nil {
		return m.TrainerIDInDBFunc(ctx, trainerID)
	}
	return 42, nil
}

func (m *MockLabelingBackend) SetLabels(ctx context.Context, req models.SetLabelsRequest) (json.RawMessage, error) {
	if m.SetLabelsFunc != nil {
		return m.SetLabelsFunc(ctx, req)
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

// MockObjectStore
type MockObjectStore struct {
	ListFunc      func(ctx context.Context, prefix string) ([]string, error)
	SignedURLFunc func(ctx context.Context, name string, ttl time.Duration) (string, error)
}

func (m *MockObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, prefix)
	}
	return nil, nil
}

func (m *MockObjectStore) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	if m.SignedURLFunc != nil {
		return m.SignedURLFunc(ctx, name, ttl)
	}
	return "https://signed.example/" + name, nil
}

// MockDashboardBackend
type MockDashboardBackend struct {
	RecentSummaryFunc  func(ctx context.Context, trainerID string) (*models.RecentSummary, error)
	SaveNewTrainerFunc func(ctx context.Context, trainerID string) error

	mu        sync.Mutex
	SaveCalls int
}

func (m *MockDashboardBackend) RecentSummary(ctx context.Context, trainerID string) (*models.RecentSummary, error) {
	if m.RecentSummaryFunc != nil {
		return m.RecentSummaryFunc(ctx, trainerID)
	}
	return &models.RecentSummary{}, nil
}

func (m *MockDashboardBackend) SaveNewTrainer(ctx context.Context, trainerID string) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()
	if m.SaveNewTrainerFunc != nil {
		return m.SaveNewTrainerFunc(ctx, trainerID)
	}
	return nil
}

func testResolver() *sprite.Resolver {
	table, err := sprite.LoadTable()
	if err != nil {
		panic(err)
	}
	return sprite.NewResolver(table, "")
}

func testSeasons() *session.SeasonStore {
	return session.NewSeasonStore(session.NewMemoryPersister(), zap.NewNop().Sugar())
}
