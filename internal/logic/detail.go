package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pokebattlelogger/dashboard-api/internal/fetch"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
)

// TimelineTurn is one turn of the in-battle timeline with the messages
// captured during it.
type TimelineTurn struct {
	Turn        int        `json:"turn"`
	FrameNumber int        `json:"frameNumber"`
	Your        PokemonRef `json:"your"`
	Opponent    PokemonRef `json:"opponent"`
	Messages    []string   `json:"messages"`
}

type FaintedView struct {
	Turn     int        `json:"turn"`
	Your     PokemonRef `json:"your"`
	Opponent PokemonRef `json:"opponent"`
	YourWin  bool       `json:"yourWin"`
}

// BattleDetail is the detail dialog. Each section fails independently;
// a failed section carries its error text and no rows.
type BattleDetail struct {
	BattleID      string         `json:"battleId"`
	Card          *BattleCard    `json:"card,omitempty"`
	MovieURL      string         `json:"movieUrl,omitempty"`
	Timeline      []TimelineTurn `json:"timeline"`
	TimelineError string         `json:"timelineError,omitempty"`
	Fainted       []FaintedView  `json:"fainted"`
	FaintedError  string         `json:"faintedError,omitempty"`
}

// JoinTimeline attaches to each turn the messages whose turn number equals
// it. Turn order and message order are preserved; a turn without messages
// gets an empty list.
func JoinTimeline(turns []models.InBattleLogEntry, messages []models.MessageLogEntry) []TimelineTurn {
	byTurn := make(map[int][]string)
	for _, m := range messages {
		byTurn[int(m.Turn)] = append(byTurn[int(m.Turn)], m.Message)
	}

	out := make([]TimelineTurn, len(turns))
	for i, t := range turns {
		msgs := byTurn[int(t.Turn)]
		if msgs == nil {
			msgs = []string{}
		}
		out[i] = TimelineTurn{
			Turn:        int(t.Turn),
			FrameNumber: int(t.FrameNumber),
			Your:        PokemonRef{Name: t.YourPokemonName},
			Opponent:    PokemonRef{Name: t.OpponentPokemonName},
			Messages:    msgs,
		}
	}
	return out
}

type detailService struct {
	backend BattleBackend
	lookup  BattleLookup
	sprites *sprite.Resolver
	slots   *fetch.Registry
	busy    *fetch.Busy
	logger  *zap.SugaredLogger
}

func NewDetailService(backend BattleBackend, lookup BattleLookup, sprites *sprite.Resolver, logger *zap.SugaredLogger) DetailService {
	return &detailService{
		backend: backend,
		lookup:  lookup,
		sprites: sprites,
		slots:   fetch.NewRegistry(),
		busy:    fetch.NewBusy(),
		logger:  logger,
	}
}

type detailParts struct {
	turns       []models.InBattleLogEntry
	messages    []models.MessageLogEntry
	fainted     []models.FaintedLogEntry
	turnsErr    error
	messagesErr error
	faintedErr  error
}

// OpenDetail loads the three logs for battleID concurrently. Opening
// another battle for the same trainer, or CloseDetail, cancels the loads
// and this call returns fetch.ErrStale.
func (s *detailService) OpenDetail(ctx context.Context, trainerID, battleID string, showMessages bool) (*BattleDetail, error) {
	parts, err := fetch.Do(ctx, s.slots.Slot(trainerID), battleID, func(ctx context.Context) (*detailParts, error) {
		p := &detailParts{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p.turns, p.turnsErr = s.backend.InBattleLog(gctx, battleID)
			return nil
		})
		g.Go(func() error {
			p.messages, p.messagesErr = s.backend.MessageLog(gctx, battleID)
			return nil
		})
		g.Go(func() error {
			p.fainted, p.faintedErr = s.backend.FaintedLog(gctx, battleID)
			return nil
		})
		_ = g.Wait()
		if p.turnsErr != nil && p.messagesErr != nil && p.faintedErr != nil {
			return nil, p.turnsErr
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	d := &BattleDetail{
		BattleID: battleID,
		Timeline: []TimelineTurn{},
		Fainted:  []FaintedView{},
	}
	if s.lookup != nil {
		if e, ok := s.lookup.CachedBattle(ctx, trainerID, battleID); ok {
			card := NewBattleCard(s.sprites, *e)
			d.Card = &card
			d.MovieURL = e.Video
		}
	}

	switch {
	case parts.turnsErr != nil:
		d.TimelineError = parts.turnsErr.Error()
	case parts.messagesErr != nil:
		d.TimelineError = parts.messagesErr.Error()
	default:
		d.Timeline = JoinTimeline(parts.turns, parts.messages)
		for i := range d.Timeline {
			d.Timeline[i].Your.Sprite = s.sprites.URL(d.Timeline[i].Your.Name)
			d.Timeline[i].Opponent.Sprite = s.sprites.URL(d.Timeline[i].Opponent.Name)
			if !showMessages {
				d.Timeline[i].Messages = []string{}
			}
		}
	}

	if parts.faintedErr != nil {
		d.FaintedError = parts.faintedErr.Error()
	} else {
		for _, f := range parts.fainted {
			d.Fainted = append(d.Fainted, FaintedView{
				Turn:     int(f.Turn),
				Your:     ref(s.sprites, f.YourPokemonName),
				Opponent: ref(s.sprites, f.OpponentPokemonName),
				YourWin:  f.YourWin(),
			})
		}
	}

	if d.TimelineError != "" || d.FaintedError != "" {
		s.logger.Warnw("Battle detail partially loaded", "battle", battleID,
			"timeline_error", d.TimelineError, "fainted_error", d.FaintedError)
	}
	return d, nil
}

func (s *detailService) CloseDetail(trainerID string) {
	s.slots.Close(trainerID)
}

// CopyBattleLog returns the full message log as indented JSON text. A
// second request for the same battle while one is running gets ErrBusy.
func (s *detailService) CopyBattleLog(ctx context.Context, battleID string) (string, error) {
	release, err := s.busy.Acquire(battleID)
	if err != nil {
		return "", err
	}
	defer release()

	raw, err := s.backend.MessageFullLog(ctx, battleID)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("format battle log: %w", err)
	}
	return buf.String(), nil
}

// IsStale reports whether err means the result was superseded and should
// be dropped silently.
func IsStale(err error) bool {
	return errors.Is(err, fetch.ErrStale) || errors.Is(err, fetch.ErrDisabled)
}
