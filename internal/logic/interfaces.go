package logic

import (
	"context"
	"encoding/json"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

// Backend slices consumed by the services. backend.Client satisfies all
// of them.

type DashboardBackend interface {
	RecentSummary(ctx context.Context, trainerID string) (*models.RecentSummary, error)
	SaveNewTrainer(ctx context.Context, trainerID string) error
}

type BattleBackend interface {
	BattleLog(ctx context.Context, trainerID string, season, page, size int) ([]models.BattleLogEntry, error)
	BattleLogCount(ctx context.Context, trainerID string, season int) (int, error)
	UpdateMemo(ctx context.Context, battleID, memo string) error
	InBattleLog(ctx context.Context, battleID string) ([]models.InBattleLogEntry, error)
	MessageLog(ctx context.Context, battleID string) ([]models.MessageLogEntry, error)
	MessageFullLog(ctx context.Context, battleID string) (json.RawMessage, error)
	FaintedLog(ctx context.Context, battleID string) ([]models.FaintedLogEntry, error)
}

type AnalyticsBackend interface {
	Analytics(ctx context.Context, season int, trainerID string) (*models.AnalyticsResponse, error)
}

type SeasonBackend interface {
	Seasons(ctx context.Context) ([]models.Season, error)
}

type VideoBackend interface {
	CheckVideoFormat(ctx context.Context, videoID string) (*models.VideoFormat, error)
	VideoStatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error)
	VideoDetailStatusLog(ctx context.Context, videoID string) ([]string, error)
}

type LabelingBackend interface {
	TrainerIDInDB(ctx context.Context, trainerID string) (int, error)
	SetLabels(ctx context.Context, req models.SetLabelsRequest) (json.RawMessage, error)
}

// ExtractionQueue accepts extraction jobs for background processing.
type ExtractionQueue interface {
	Enqueue(job worker.ExtractJob) bool
	QueueDepth() int
}

// Services consumed by the HTTP handlers.

type DashboardService interface {
	Summary(ctx context.Context, trainerID string) (*DashboardView, error)
}

type SeasonService interface {
	Seasons(ctx context.Context) ([]models.Season, error)
	Current(ctx context.Context, trainerID string) int
	SetCurrent(ctx context.Context, trainerID string, season int) error
}

type BattleLogService interface {
	Page(ctx context.Context, trainerID string, req PageRequest) (*BattlePageView, error)
	Count(ctx context.Context, trainerID string) (int, error)
	SaveMemo(ctx context.Context, trainerID, battleID, memo string) error
	BattleLookup
}

// BattleLookup finds a battle on the page the trainer last browsed.
type BattleLookup interface {
	CachedBattle(ctx context.Context, trainerID, battleID string) (*models.BattleLogEntry, bool)
}

type DetailService interface {
	OpenDetail(ctx context.Context, trainerID, battleID string, showMessages bool) (*BattleDetail, error)
	CloseDetail(trainerID string)
	CopyBattleLog(ctx context.Context, battleID string) (string, error)
}

type AnalyticsService interface {
	Analytics(ctx context.Context, trainerID string, q AnalyticsQuery) (*AnalyticsView, error)
}

type VideoService interface {
	CheckFormat(ctx context.Context, trainerID, videoID string) (*models.VideoFormat, error)
	Submit(ctx context.Context, trainerID string, req models.ExtractRequest) (*models.VideoStatus, error)
	StatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error)
	DetailLog(ctx context.Context, videoID string) ([]string, error)
}

type LabelingService interface {
	Images(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error)
	Options(query string, limit int) []models.SelectOption
	SubmitLabels(ctx context.Context, trainerID string, req models.SetLabelsRequest) (json.RawMessage, error)
}
