package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ProgressHub is the progress fan-out the websocket relay reads from.
type ProgressHub interface {
	Subscribe(videoID string) (<-chan models.ExtractProgress, func(), bool)
	Last(videoID string) (worker.Snapshot, bool)
}

type Config struct {
	Queue  logic.ExtractionQueue
	Hub    ProgressHub
	Checks map[string]Pinger
	Logger *zap.Logger

	// Missing lists required settings that were not provided.
	Missing []string

	// AllowedOrigins also gates websocket upgrades. Empty allows any origin.
	AllowedOrigins []string

	// Services
	Dashboard logic.DashboardService
	Seasons   logic.SeasonService
	Battles   logic.BattleLogService
	Detail    logic.DetailService
	Analytics logic.AnalyticsService
	Videos    logic.VideoService
	Labeling  logic.LabelingService
	Sprites   *sprite.Resolver
}

type Handler struct {
	queue          logic.ExtractionQueue
	hub            ProgressHub
	checks         map[string]Pinger
	missing        []string
	allowedOrigins []string
	logger         *zap.SugaredLogger
	validator      *validator.Validate
	dashboard      logic.DashboardService
	seasons        logic.SeasonService
	battles        logic.BattleLogService
	detail         logic.DetailService
	analytics      logic.AnalyticsService
	videos         logic.VideoService
	labeling       logic.LabelingService
	sprites        *sprite.Resolver
}

func New(cfg Config) *Handler {
	return &Handler{
		queue:          cfg.Queue,
		hub:            cfg.Hub,
		checks:         cfg.Checks,
		missing:        cfg.Missing,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         cfg.Logger.Sugar(),
		validator:      validator.New(),
		dashboard:      cfg.Dashboard,
		seasons:        cfg.Seasons,
		battles:        cfg.Battles,
		detail:         cfg.Detail,
		analytics:      cfg.Analytics,
		videos:         cfg.Videos,
		labeling:       cfg.Labeling,
		sprites:        cfg.Sprites,
	}
}
