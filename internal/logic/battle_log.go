package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pokebattlelogger/dashboard-api/internal/cache"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
)

const spriteWorkers = 8

// PokemonRef is a name with its resolved sprite URL.
type PokemonRef struct {
	Name   string `json:"name"`
	Sprite string `json:"sprite"`
}

type PageMove string

const (
	MoveNone PageMove = ""
	MoveNext PageMove = "next"
	MovePrev PageMove = "prev"
)

// PageRequest selects a page of the battle list. Zero values continue the
// trainer's current browsing position. Move steps from the selected page
// and stops at either end.
type PageRequest struct {
	Page int
	Size int
	Move PageMove
}

type BattleCard struct {
	Battle            models.BattleLogEntry             `json:"battle"`
	YourTeam          []PokemonRef                      `json:"yourTeam"`
	OpponentTeam      []PokemonRef                      `json:"opponentTeam"`
	YourSelection     [models.SelectionSlots]PokemonRef `json:"yourSelection"`
	OpponentSelection [models.SelectionSlots]PokemonRef `json:"opponentSelection"`
	TeamInvalid       bool                              `json:"teamInvalid,omitempty"`
}

type BattlePageView struct {
	Season     int          `json:"season"`
	Size       int          `json:"size"`
	Count      int          `json:"count"`
	CountKnown bool         `json:"countKnown"`
	Pager      Pager        `json:"pager"`
	Window     PageWindow   `json:"window"`
	Cards      []BattleCard `json:"cards"`
}

type browseState struct {
	page int
	size int
}

type battleLogService struct {
	backend     BattleBackend
	cache       cache.Store
	seasons     *session.SeasonStore
	sprites     *sprite.Resolver
	ttl         time.Duration
	defaultSize int
	logger      *zap.SugaredLogger

	mu     sync.Mutex
	browse map[string]browseState
}

// NewBattleLogService wires the battle list. A season change resets the
// trainer's browsing page to 1.
func NewBattleLogService(backend BattleBackend, store cache.Store, seasons *session.SeasonStore, sprites *sprite.Resolver, ttl time.Duration, defaultSize int, logger *zap.SugaredLogger) BattleLogService {
	if defaultSize <= 0 {
		defaultSize = 6
	}
	s := &battleLogService{
		backend:     backend,
		cache:       store,
		seasons:     seasons,
		sprites:     sprites,
		ttl:         ttl,
		defaultSize: defaultSize,
		logger:      logger,
		browse:      make(map[string]browseState),
	}
	seasons.Subscribe(s.resetPage)
	return s
}

func (s *battleLogService) resetPage(trainerID string, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.browse[trainerID]; ok {
		st.page = 1
		s.browse[trainerID] = st
	}
}

func (s *battleLogService) position(trainerID string) browseState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.browse[trainerID]
	if !ok {
		return browseState{page: 1, size: s.defaultSize}
	}
	return st
}

func (s *battleLogService) remember(trainerID string, st browseState) {
	s.mu.Lock()
	s.browse[trainerID] = st
	s.mu.Unlock()
}

// Page returns one page of battle cards. The count is resolved first so a
// page past the known maximum is rejected without fetching it.
func (s *battleLogService) Page(ctx context.Context, trainerID string, req PageRequest) (*BattlePageView, error) {
	season := s.seasons.Get(ctx, trainerID)
	pos := s.position(trainerID)
	if req.Size > 0 {
		pos.size = req.Size
	}
	if req.Page != 0 {
		pos.page = req.Page
	}

	count, err := s.count(ctx, trainerID, season)
	known := err == nil
	if err != nil {
		s.logger.Warnw("Battle count unavailable, using fallback max page", "trainer", trainerID, "season", season, "error", err)
	}
	maxPage := MaxPage(count, pos.size, known)
	if req.Page == 0 && pos.page > maxPage {
		// a remembered position can outlive a smaller count or larger size
		pos.page = maxPage
	}
	if pos.page < 1 || pos.page > maxPage {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pos.page, maxPage)
	}
	pager := NewPager(pos.page, maxPage)
	switch req.Move {
	case MoveNext:
		pager.Next()
	case MovePrev:
		pager.Prev()
	}
	pos.page = pager.Current

	entries, err := s.fetchPage(ctx, trainerID, season, pos.page, pos.size)
	if err != nil {
		return nil, err
	}
	s.remember(trainerID, pos)

	return &BattlePageView{
		Season:     season,
		Size:       pos.size,
		Count:      count,
		CountKnown: known,
		Pager:      pager,
		Window:     pager.Window(),
		Cards:      s.cards(ctx, entries),
	}, nil
}

func (s *battleLogService) Count(ctx context.Context, trainerID string) (int, error) {
	return s.count(ctx, trainerID, s.seasons.Get(ctx, trainerID))
}

func (s *battleLogService) count(ctx context.Context, trainerID string, season int) (int, error) {
	key := cache.BattleCountKey(trainerID, season)
	if n, ok, err := cache.GetJSON[int](ctx, s.cache, key); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.logger.Warnw("Cache read failed", "key", key, "error", err)
	}

	n, err := s.backend.BattleLogCount(ctx, trainerID, season)
	if err != nil {
		return 0, fmt.Errorf("battle count: %w", err)
	}
	if err := cache.SetJSON(ctx, s.cache, key, n, s.ttl); err != nil {
		s.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
	return n, nil
}

func (s *battleLogService) fetchPage(ctx context.Context, trainerID string, season, page, size int) ([]models.BattleLogEntry, error) {
	key := cache.BattlePageKey(trainerID, season, page, size)
	if entries, ok, err := cache.GetJSON[[]models.BattleLogEntry](ctx, s.cache, key); err == nil && ok {
		return entries, nil
	} else if err != nil {
		s.logger.Warnw("Cache read failed", "key", key, "error", err)
	}

	entries, err := s.backend.BattleLog(ctx, trainerID, season, page, size)
	if err != nil {
		return nil, fmt.Errorf("battle log page %d: %w", page, err)
	}
	if entries == nil {
		entries = []models.BattleLogEntry{}
	}
	if err := cache.SetJSON(ctx, s.cache, key, entries, s.ttl); err != nil {
		s.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
	return entries, nil
}

// cards resolves sprites for every entry. Resolution cannot fail, so the
// group only bounds concurrency.
func (s *battleLogService) cards(ctx context.Context, entries []models.BattleLogEntry) []BattleCard {
	out := make([]BattleCard, len(entries))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(spriteWorkers)
	for i := range entries {
		i := i
		g.Go(func() error {
			out[i] = s.card(entries[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *battleLogService) card(e models.BattleLogEntry) BattleCard {
	c := NewBattleCard(s.sprites, e)
	if c.TeamInvalid {
		s.logger.Warnw("Battle has an invalid team roster", "battle", e.BattleID,
			"your_team", e.YourPokemonTeam, "opponent_team", e.OpponentPokemonTeam)
	}
	return c
}

// NewBattleCard resolves every sprite shown for one battle.
func NewBattleCard(sprites *sprite.Resolver, e models.BattleLogEntry) BattleCard {
	c := BattleCard{Battle: e}

	yours, okYours := models.SplitTeam(e.YourPokemonTeam)
	theirs, okTheirs := models.SplitTeam(e.OpponentPokemonTeam)
	c.TeamInvalid = !okYours || !okTheirs
	c.YourTeam = refs(sprites, yours)
	c.OpponentTeam = refs(sprites, theirs)

	for i, name := range e.YourSelection() {
		c.YourSelection[i] = ref(sprites, name)
	}
	for i, name := range e.OpponentSelection() {
		c.OpponentSelection[i] = ref(sprites, name)
	}
	return c
}

func ref(sprites *sprite.Resolver, name string) PokemonRef {
	return PokemonRef{Name: name, Sprite: sprites.URL(name)}
}

func refs(sprites *sprite.Resolver, names []string) []PokemonRef {
	out := make([]PokemonRef, len(names))
	for i, n := range names {
		out[i] = ref(sprites, n)
	}
	return out
}

// SaveMemo posts the memo, then patches the entry on every cached page of
// the trainer that holds it, whatever season or size the page was fetched
// with. Pages are not re-fetched.
func (s *battleLogService) SaveMemo(ctx context.Context, trainerID, battleID, memo string) error {
	if err := s.backend.UpdateMemo(ctx, battleID, memo); err != nil {
		return err
	}

	keys, err := s.cache.Keys(ctx, cache.BattlePagePrefix(trainerID))
	if err != nil {
		s.logger.Warnw("Failed to list cached pages", "trainer", trainerID, "battle", battleID, "error", err)
		return nil
	}
	patched := 0
	for _, key := range keys {
		ok, err := cache.UpdateJSON(ctx, s.cache, key, s.ttl, func(entries *[]models.BattleLogEntry) bool {
			return patchMemo(*entries, battleID, memo)
		})
		if err != nil {
			// a page we cannot patch must not keep serving the old memo
			s.logger.Warnw("Failed to patch cached memo, evicting page", "key", key, "battle", battleID, "error", err)
			if err := s.cache.Del(ctx, key); err != nil {
				s.logger.Warnw("Cache delete failed", "key", key, "error", err)
			}
			continue
		}
		if ok {
			patched++
		}
	}
	s.logger.Infow("Memo saved", "trainer", trainerID, "battle", battleID, "patched_pages", patched)
	return nil
}

// patchMemo replaces the memo of the entry with battleID. Other entries are
// left untouched.
func patchMemo(entries []models.BattleLogEntry, battleID, memo string) bool {
	for i := range entries {
		if entries[i].BattleID == battleID {
			if entries[i].Memo == memo {
				return false
			}
			entries[i].Memo = memo
			return true
		}
	}
	return false
}

// CachedBattle finds battleID on the page the trainer is browsing.
func (s *battleLogService) CachedBattle(ctx context.Context, trainerID, battleID string) (*models.BattleLogEntry, bool) {
	season := s.seasons.Get(ctx, trainerID)
	pos := s.position(trainerID)
	entries, ok, err := cache.GetJSON[[]models.BattleLogEntry](ctx, s.cache, cache.BattlePageKey(trainerID, season, pos.page, pos.size))
	if err != nil || !ok {
		return nil, false
	}
	for i := range entries {
		if entries[i].BattleID == battleID {
			return &entries[i], true
		}
	}
	return nil, false
}
