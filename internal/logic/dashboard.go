package logic

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
)

const heatmapDateLayout = "2006-01-02"

type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Heatmap covers one year ending today. Days missing from Days have
// level 0.
type Heatmap struct {
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Days      []HeatmapDay `json:"days"`
}

type RecentBattleRow struct {
	BattleID  string     `json:"battleId"`
	CreatedAt string     `json:"createdAt"`
	NextRank  int        `json:"nextRank"`
	Win       bool       `json:"win"`
	Your      PokemonRef `json:"your"`
	Opponent  PokemonRef `json:"opponent"`
}

type DashboardView struct {
	HasBattles    bool              `json:"hasBattles"`
	WinRate       float64           `json:"winRate"`
	LatestRank    int               `json:"latestRank"`
	LatestWin     PokemonRef        `json:"latestWin"`
	LatestLose    PokemonRef        `json:"latestLose"`
	Heatmap       Heatmap           `json:"heatmap"`
	RecentBattles []RecentBattleRow `json:"recentBattles"`
}

// HeatmapLevel buckets a day's battle count: under 2, under 4, under 6,
// then the top level. A day with a recorded entry is never level 0.
func HeatmapLevel(count int) int {
	switch {
	case count < 2:
		return 1
	case count < 4:
		return 2
	case count < 6:
		return 3
	default:
		return 4
	}
}

// BuildHeatmap keeps the entries dated within the year ending at today.
func BuildHeatmap(counts []models.BattleCountPerDate, today time.Time) Heatmap {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	start := end.AddDate(-1, 0, 0)

	h := Heatmap{
		StartDate: start.Format(heatmapDateLayout),
		EndDate:   end.Format(heatmapDateLayout),
		Days:      []HeatmapDay{},
	}
	for _, c := range counts {
		d, err := time.ParseInLocation(heatmapDateLayout, firstN(c.BattleDate, len(heatmapDateLayout)), today.Location())
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		h.Days = append(h.Days, HeatmapDay{
			Date:  d.Format(heatmapDateLayout),
			Count: c.BattleCount,
			Level: HeatmapLevel(c.BattleCount),
		})
	}
	return h
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// RoundTo rounds half away from zero to the given decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

type dashboardService struct {
	backend DashboardBackend
	sprites *sprite.Resolver
	logger  *zap.SugaredLogger
	now     func() time.Time

	registered sync.Map
}

func NewDashboardService(backend DashboardBackend, sprites *sprite.Resolver, logger *zap.SugaredLogger) DashboardService {
	return &dashboardService{
		backend: backend,
		sprites: sprites,
		logger:  logger,
		now:     time.Now,
	}
}

// Summary builds the dashboard. The first visit of a trainer in this
// process also registers them with the backend; registration failures are
// logged and retried on the next visit.
func (s *dashboardService) Summary(ctx context.Context, trainerID string) (*DashboardView, error) {
	var summary *models.RecentSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.backend.RecentSummary(gctx, trainerID)
		if err != nil {
			return fmt.Errorf("recent summary: %w", err)
		}
		return nil
	})
	if _, loaded := s.registered.LoadOrStore(trainerID, struct{}{}); !loaded {
		g.Go(func() error {
			if err := s.backend.SaveNewTrainer(gctx, trainerID); err != nil {
				s.registered.Delete(trainerID)
				s.logger.Warnw("Failed to register trainer", "trainer", trainerID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if summary == nil {
		// a null body from the backend is an empty history
		summary = &models.RecentSummary{}
	}

	view := &DashboardView{
		HasBattles:    len(summary.RecentBattleHistory) > 0,
		WinRate:       RoundTo(summary.WinRate, 4),
		LatestRank:    summary.LatestRank,
		LatestWin:     ref(s.sprites, summary.LatestWinPokemon),
		LatestLose:    ref(s.sprites, summary.LatestLosePokemon),
		Heatmap:       BuildHeatmap(summary.BattleCounts, s.now()),
		RecentBattles: make([]RecentBattleRow, len(summary.RecentBattleHistory)),
	}
	for i, b := range summary.RecentBattleHistory {
		view.RecentBattles[i] = RecentBattleRow{
			BattleID:  b.BattleID,
			CreatedAt: b.CreatedAt,
			NextRank:  b.NextRank,
			Win:       b.WinOrLose == models.OutcomeWin,
			Your:      ref(s.sprites, b.YourPokemon1),
			Opponent:  ref(s.sprites, b.OpponentPokemon1),
		}
	}
	return view, nil
}
