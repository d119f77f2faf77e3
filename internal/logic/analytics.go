package logic

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/cache"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
)

const (
	ViewSelection = "selection"
	ViewKnockOut  = "knockout"

	rateDecimals = 3
)

// AnalyticsQuery selects the view. Toggle, when set, advances the sort
// cycle of that column starting from Sort.
type AnalyticsQuery struct {
	View   string
	Sort   SortState
	Toggle string
	Filter string
}

// ColumnSort is the state a click on Column's header moves to.
type ColumnSort struct {
	Column string    `json:"column"`
	Next   SortState `json:"next"`
}

type SeriesPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// UsageRow keeps the raw stat and adds display strings for the rates.
type UsageRow struct {
	Stat           models.PokemonUsageStat `json:"stat"`
	Sprite         string                  `json:"sprite"`
	InTeamRate     string                  `json:"inTeamRate"`
	InBattleRate   string                  `json:"inBattleRate"`
	HeadBattleRate string                  `json:"headBattleRate"`
	OutcomeRate    string                  `json:"outcomeRate"`
}

type KnockOutRow struct {
	Stat           models.KnockOutStat `json:"stat"`
	YourSprite     string              `json:"yourSprite"`
	OpponentSprite string              `json:"opponentSprite"`
}

type UsageTables struct {
	Your     []UsageRow `json:"your"`
	Opponent []UsageRow `json:"opponent"`
}

type KnockOutTables struct {
	Your     []KnockOutRow `json:"your"`
	Opponent []KnockOutRow `json:"opponent"`
}

// AnalyticsView carries exactly one of Selection or KnockOut, per View.
type AnalyticsView struct {
	Season    int             `json:"season"`
	View      string          `json:"view"`
	Sort      SortState       `json:"sort"`
	Columns   []ColumnSort    `json:"columns"`
	Filter    string          `json:"filter"`
	WinRate   []SeriesPoint   `json:"winRate"`
	NextRank  []SeriesPoint   `json:"nextRank"`
	Selection *UsageTables    `json:"selection,omitempty"`
	KnockOut  *KnockOutTables `json:"knockOut,omitempty"`
}

// Series indexes a value list from 0.
func Series(values []float64) []SeriesPoint {
	out := make([]SeriesPoint, len(values))
	for i, v := range values {
		out[i] = SeriesPoint{Index: i, Value: v}
	}
	return out
}

// FormatRate renders a rate with three decimals, half away from zero.
func FormatRate(v float64) string {
	p := math.Pow10(rateDecimals)
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', rateDecimals, 64)
}

var usageColumns = map[string]Compare[UsageRow]{
	"pokemon_name": func(a, b UsageRow) int {
		return strings.Compare(a.Stat.PokemonName, b.Stat.PokemonName)
	},
	"in_team_count": func(a, b UsageRow) int {
		return compareInt(a.Stat.InTeamCount, b.Stat.InTeamCount)
	},
	"in_team_rate": func(a, b UsageRow) int {
		return compareFloat(a.Stat.InTeamRate, b.Stat.InTeamRate)
	},
	"in_battle_count": func(a, b UsageRow) int {
		return compareInt(a.Stat.InBattleCount, b.Stat.InBattleCount)
	},
	"in_battle_rate": func(a, b UsageRow) int {
		return compareFloat(a.Stat.InBattleRate, b.Stat.InBattleRate)
	},
	"head_battle_count": func(a, b UsageRow) int {
		return compareInt(a.Stat.HeadBattleCount, b.Stat.HeadBattleCount)
	},
	"head_battle_rate": func(a, b UsageRow) int {
		return compareFloat(a.Stat.HeadBattleRate, b.Stat.HeadBattleRate)
	},
	"in_battle_win_rate": func(a, b UsageRow) int {
		return compareFloat(a.Stat.InBattleWinRate, b.Stat.InBattleWinRate)
	},
	"in_battle_lose_rate": func(a, b UsageRow) int {
		return compareFloat(a.Stat.InBattleLoseRate, b.Stat.InBattleLoseRate)
	},
}

var knockOutColumns = map[string]Compare[KnockOutRow]{
	"your_pokemon_name": func(a, b KnockOutRow) int {
		return strings.Compare(a.Stat.YourPokemonName, b.Stat.YourPokemonName)
	},
	"opponent_pokemon_name": func(a, b KnockOutRow) int {
		return strings.Compare(a.Stat.OpponentPokemonName, b.Stat.OpponentPokemonName)
	},
	"knock_out_count": func(a, b KnockOutRow) int {
		return compareInt(a.Stat.KnockOutCount, b.Stat.KnockOutCount)
	},
}

func NewUsageTable(rows []UsageRow) *Table[UsageRow] {
	return NewTable(rows, func(r UsageRow) string { return r.Stat.PokemonName }, usageColumns)
}

func NewKnockOutTable(rows []KnockOutRow) *Table[KnockOutRow] {
	return NewTable(rows, func(r KnockOutRow) string { return r.Stat.YourPokemonName }, knockOutColumns)
}

type analyticsService struct {
	backend AnalyticsBackend
	cache   cache.Store
	seasons *session.SeasonStore
	sprites *sprite.Resolver
	ttl     time.Duration
	logger  *zap.SugaredLogger
}

func NewAnalyticsService(backend AnalyticsBackend, store cache.Store, seasons *session.SeasonStore, sprites *sprite.Resolver, ttl time.Duration, logger *zap.SugaredLogger) AnalyticsService {
	return &analyticsService{
		backend: backend,
		cache:   store,
		seasons: seasons,
		sprites: sprites,
		ttl:     ttl,
		logger:  logger,
	}
}

// Analytics builds the analytics page for the trainer's current season.
// The view picks the table pair; sort and filter apply to both tables.
func (s *analyticsService) Analytics(ctx context.Context, trainerID string, q AnalyticsQuery) (*AnalyticsView, error) {
	if q.View == "" {
		q.View = ViewSelection
	}
	if q.View != ViewSelection && q.View != ViewKnockOut {
		return nil, ErrInvalidView
	}

	season := s.seasons.Get(ctx, trainerID)
	resp, err := s.fetch(ctx, trainerID, season)
	if err != nil {
		return nil, err
	}

	view := &AnalyticsView{
		Season:   season,
		View:     q.View,
		Filter:   q.Filter,
		WinRate:  Series(resp.WinRate),
		NextRank: Series(resp.NextRank),
	}

	switch q.View {
	case ViewSelection:
		your := NewUsageTable(s.usageRows(resp.YourPokemonStatsSummary, true))
		opp := NewUsageTable(s.usageRows(resp.OpponentPokemonStatsSummary, false))
		if err := s.applySort(your, opp, q); err != nil {
			return nil, err
		}
		view.Sort, view.Columns = your.Sort(), columnSorts(your)
		view.Selection = &UsageTables{Your: your.Rows(q.Filter), Opponent: opp.Rows(q.Filter)}
	case ViewKnockOut:
		your := NewKnockOutTable(s.knockOutRows(resp.YourPokemonKnockOutSummary))
		opp := NewKnockOutTable(s.knockOutRows(resp.OpponentPokemonKnockOutSummary))
		if err := s.applySort(your, opp, q); err != nil {
			return nil, err
		}
		view.Sort, view.Columns = your.Sort(), columnSorts(your)
		view.KnockOut = &KnockOutTables{Your: your.Rows(q.Filter), Opponent: opp.Rows(q.Filter)}
	}
	return view, nil
}

// applySort sets the requested sort on your, applies the toggle and mirrors
// the result onto opp.
func (s *analyticsService) applySort(your, opp sortable, q AnalyticsQuery) error {
	if !your.SetSort(q.Sort) {
		s.logger.Warnw("Ignoring unknown sort column", "column", q.Sort.Column, "view", q.View)
	}
	if q.Toggle != "" {
		if err := your.ToggleSort(q.Toggle); err != nil {
			return err
		}
	}
	opp.SetSort(your.Sort())
	return nil
}

type sortable interface {
	Sort() SortState
	SetSort(SortState) bool
	ToggleSort(column string) error
	Columns() []string
}

func columnSorts(t sortable) []ColumnSort {
	cur := t.Sort()
	cols := t.Columns()
	out := make([]ColumnSort, len(cols))
	for i, c := range cols {
		out[i] = ColumnSort{Column: c, Next: NextSort(cur, c)}
	}
	return out
}

func (s *analyticsService) fetch(ctx context.Context, trainerID string, season int) (*models.AnalyticsResponse, error) {
	key := cache.AnalyticsKey(trainerID, season)
	if resp, ok, err := cache.GetJSON[models.AnalyticsResponse](ctx, s.cache, key); err == nil && ok {
		return &resp, nil
	} else if err != nil {
		s.logger.Warnw("Cache read failed", "key", key, "error", err)
	}

	resp, err := s.backend.Analytics(ctx, season, trainerID)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	if err := cache.SetJSON(ctx, s.cache, key, resp, s.ttl); err != nil {
		s.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
	return resp, nil
}

// usageRows formats one perspective. Your rows show the win rate when
// selected, opponent rows the lose rate.
func (s *analyticsService) usageRows(stats []models.PokemonUsageStat, yours bool) []UsageRow {
	out := make([]UsageRow, len(stats))
	for i, st := range stats {
		outcome := st.InBattleLoseRate
		if yours {
			outcome = st.InBattleWinRate
		}
		out[i] = UsageRow{
			Stat:           st,
			Sprite:         s.sprites.URL(st.PokemonName),
			InTeamRate:     FormatRate(st.InTeamRate),
			InBattleRate:   FormatRate(st.InBattleRate),
			HeadBattleRate: FormatRate(st.HeadBattleRate),
			OutcomeRate:    FormatRate(outcome),
		}
	}
	return out
}

func (s *analyticsService) knockOutRows(stats []models.KnockOutStat) []KnockOutRow {
	out := make([]KnockOutRow, len(stats))
	for i, st := range stats {
		out[i] = KnockOutRow{
			Stat:           st,
			YourSprite:     s.sprites.URL(st.YourPokemonName),
			OpponentSprite: s.sprites.URL(st.OpponentPokemonName),
		}
	}
	return out
}
