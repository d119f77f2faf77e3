// Package session keeps the one piece of per-trainer UI state: the season
// every view is scoped to.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// AllTime is the aggregate season selected by default.
const AllTime = 0

var ErrInvalidSeason = errors.New("season must be 0 or positive")

// Persister stores the selected season durably.
type Persister interface {
	Load(ctx context.Context, trainerID string) (season int, found bool, err error)
	Save(ctx context.Context, trainerID string, season int) error
}

// Listener is notified after a trainer's season changes.
type Listener func(trainerID string, season int)

// SeasonStore is read by every view and written only through Set.
type SeasonStore struct {
	persist Persister
	logger  *zap.SugaredLogger

	mu        sync.RWMutex
	current   map[string]int
	listeners map[int]Listener
	nextID    int
}

func NewSeasonStore(persist Persister, logger *zap.SugaredLogger) *SeasonStore {
	return &SeasonStore{
		persist:   persist,
		logger:    logger,
		current:   make(map[string]int),
		listeners: make(map[int]Listener),
	}
}

// Get returns the trainer's season, loading it once from the persister.
// Load failures fall back to AllTime.
func (s *SeasonStore) Get(ctx context.Context, trainerID string) int {
	s.mu.RLock()
	season, ok := s.current[trainerID]
	s.mu.RUnlock()
	if ok {
		return season
	}

	season, found, err := s.persist.Load(ctx, trainerID)
	if err != nil {
		s.logger.Warnw("Failed to load season, using all-time", "trainer", trainerID, "error", err)
		return AllTime
	}
	if !found {
		season = AllTime
	}

	s.mu.Lock()
	if existing, ok := s.current[trainerID]; ok {
		season = existing
	} else {
		s.current[trainerID] = season
	}
	s.mu.Unlock()
	return season
}

// Set persists a new season and notifies listeners. Setting the current
// value again is a no-op.
func (s *SeasonStore) Set(ctx context.Context, trainerID string, season int) error {
	if season < 0 {
		return ErrInvalidSeason
	}
	if s.Get(ctx, trainerID) == season {
		return nil
	}
	if err := s.persist.Save(ctx, trainerID, season); err != nil {
		return fmt.Errorf("persist season: %w", err)
	}

	s.mu.Lock()
	s.current[trainerID] = season
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(trainerID, season)
	}
	s.logger.Infow("Season changed", "trainer", trainerID, "season", season)
	return nil
}

// Subscribe registers l and returns a function that removes it.
func (s *SeasonStore) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// MemoryPersister keeps seasons for the process lifetime only.
type MemoryPersister struct {
	mu      sync.Mutex
	seasons map[string]int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{seasons: make(map[string]int)}
}

func (m *MemoryPersister) Load(ctx context.Context, trainerID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	season, ok := m.seasons[trainerID]
	return season, ok, nil
}

func (m *MemoryPersister) Save(ctx context.Context, trainerID string, season int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasons[trainerID] = season
	return nil
}
