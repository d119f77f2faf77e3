package logic

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pokebattlelogger/dashboard-api/internal/cache"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
)

type seasonService struct {
	backend SeasonBackend
	cache   cache.Store
	store   *session.SeasonStore
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.SugaredLogger
}

func NewSeasonService(backend SeasonBackend, store cache.Store, seasons *session.SeasonStore, ttl time.Duration, logger *zap.SugaredLogger) SeasonService {
	return &seasonService{
		backend: backend,
		cache:   store,
		store:   seasons,
		ttl:     ttl,
		logger:  logger,
	}
}

// Seasons lists the season descriptors. Concurrent misses share one
// backend call.
func (s *seasonService) Seasons(ctx context.Context) ([]models.Season, error) {
	if seasons, ok, err := cache.GetJSON[[]models.Season](ctx, s.cache, cache.SeasonsKey); err == nil && ok {
		return seasons, nil
	} else if err != nil {
		s.logger.Warnw("Cache read failed", "key", cache.SeasonsKey, "error", err)
	}

	v, err, _ := s.group.Do(cache.SeasonsKey, func() (interface{}, error) {
		seasons, err := s.backend.Seasons(ctx)
		if err != nil {
			return nil, fmt.Errorf("seasons: %w", err)
		}
		if seasons == nil {
			seasons = []models.Season{}
		}
		if err := cache.SetJSON(ctx, s.cache, cache.SeasonsKey, seasons, s.ttl); err != nil {
			s.logger.Warnw("Cache write failed", "key", cache.SeasonsKey, "error", err)
		}
		return seasons, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Season), nil
}

func (s *seasonService) Current(ctx context.Context, trainerID string) int {
	return s.store.Get(ctx, trainerID)
}

func (s *seasonService) SetCurrent(ctx context.Context, trainerID string, season int) error {
	return s.store.Set(ctx, trainerID, season)
}
