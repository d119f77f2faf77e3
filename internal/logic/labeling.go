package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
	"github.com/pokebattlelogger/dashboard-api/internal/storage"
)

const (
	// SignedURLTTL is how long a labeling image link stays readable.
	SignedURLTTL = time.Hour

	defaultOptionLimit = 50
	signWorkers        = 8
)

type labelingService struct {
	backend LabelingBackend
	store   storage.ObjectStore
	table   *sprite.Table
	ttl     time.Duration
	logger  *zap.SugaredLogger
}

// NewLabelingService wires the labeling flow. store may be nil when no
// bucket is configured; Images then fails with ErrStorageNotConfigured.
func NewLabelingService(backend LabelingBackend, store storage.ObjectStore, table *sprite.Table, ttl time.Duration, logger *zap.SugaredLogger) LabelingService {
	if ttl <= 0 {
		ttl = SignedURLTTL
	}
	return &labelingService{
		backend: backend,
		store:   store,
		table:   table,
		ttl:     ttl,
		logger:  logger,
	}
}

func (s *labelingService) prefix(ctx context.Context, trainerID string, kind models.ImageKind) (string, error) {
	dbID, err := s.backend.TrainerIDInDB(ctx, trainerID)
	if err != nil {
		return "", fmt.Errorf("resolve trainer id: %w", err)
	}
	if kind == models.ImageKindNameWindow {
		return storage.UnknownNameWindowPrefix(dbID), nil
	}
	return storage.UnknownPokemonPrefix(dbID), nil
}

// Images lists the trainer's unlabeled captures with signed read URLs.
func (s *labelingService) Images(ctx context.Context, trainerID string, kind models.ImageKind) ([]models.LabelImage, error) {
	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}
	prefix, err := s.prefix(ctx, trainerID, kind)
	if err != nil {
		return nil, err
	}

	names, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	out := make([]models.LabelImage, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signWorkers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			url, err := s.store.SignedURL(gctx, name, s.ttl)
			if err != nil {
				return fmt.Errorf("sign %s: %w", name, err)
			}
			out[i] = models.LabelImage{FileName: name, URL: url}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Infow("Listed unlabeled images", "trainer", trainerID, "kind", kind, "count", len(out))
	return out, nil
}

// Options feeds the label search-select.
func (s *labelingService) Options(query string, limit int) []models.SelectOption {
	if limit <= 0 {
		limit = defaultOptionLimit
	}
	entries := s.table.Search(query, limit)
	out := make([]models.SelectOption, len(entries))
	for i, e := range entries {
		out[i] = models.SelectOption{Value: e.Japanese, Label: e.Japanese, English: e.English}
	}
	return out
}

// SubmitLabels checks every label against the name table and every file
// against the trainer's own prefix, then forwards the batch. The backend's
// reply is returned as is.
func (s *labelingService) SubmitLabels(ctx context.Context, trainerID string, req models.SetLabelsRequest) (json.RawMessage, error) {
	if req.Kind == "" {
		req.Kind = models.ImageKindPokemon
	}
	prefix, err := s.prefix(ctx, trainerID, req.Kind)
	if err != nil {
		return nil, err
	}

	for i := range req.Labels {
		l := &req.Labels[i]
		l.PokemonName = norm.NFC.String(strings.TrimSpace(l.PokemonName))
		if !s.table.Contains(l.PokemonName) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l.PokemonName)
		}
		if !strings.HasPrefix(l.FileName, prefix) {
			return nil, fmt.Errorf("%w: %s", ErrForeignImage, l.FileName)
		}
	}

	resp, err := s.backend.SetLabels(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Labels submitted", "trainer", trainerID, "kind", req.Kind, "count", len(req.Labels))
	return resp, nil
}
