package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

const (
	// FormatCheckTTL is how long a passing format check unlocks submission.
	FormatCheckTTL = time.Hour
	// PendingTTL bounds how long a local row waits for the backend to
	// report its video.
	PendingTTL = 24 * time.Hour
)

type videoKey struct {
	trainerID string
	videoID   string
}

type checkedFormat struct {
	format models.VideoFormat
	at     time.Time
}

type pendingRow struct {
	row models.VideoStatus
	at  time.Time
}

type videoService struct {
	backend VideoBackend
	queue   ExtractionQueue
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu      sync.Mutex
	formats map[videoKey]checkedFormat
	pending map[string][]pendingRow
}

func NewVideoService(backend VideoBackend, queue ExtractionQueue, logger *zap.SugaredLogger) VideoService {
	return &videoService{
		backend: backend,
		queue:   queue,
		logger:  logger,
		now:     time.Now,
		formats: make(map[videoKey]checkedFormat),
		pending: make(map[string][]pendingRow),
	}
}

// prune drops expired format checks and pending rows. mu must be held.
func (s *videoService) prune() {
	now := s.now()
	for k, c := range s.formats {
		if now.Sub(c.at) > FormatCheckTTL {
			delete(s.formats, k)
		}
	}
	for trainerID, rows := range s.pending {
		kept := rows[:0]
		for _, p := range rows {
			if now.Sub(p.at) <= PendingTTL {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(s.pending, trainerID)
		} else {
			s.pending[trainerID] = kept
		}
	}
}

// CheckFormat asks the backend whether the video can be processed and
// remembers the answer for the trainer's next submission.
func (s *videoService) CheckFormat(ctx context.Context, trainerID, videoID string) (*models.VideoFormat, error) {
	format, err := s.backend.CheckVideoFormat(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video format: %w", err)
	}

	s.mu.Lock()
	s.prune()
	s.formats[videoKey{trainerID, videoID}] = checkedFormat{format: *format, at: s.now()}
	s.mu.Unlock()

	s.logger.Infow("Video format checked", "trainer", trainerID, "video", videoID,
		"valid", format.IsValid, "1080p", format.Is1080p, "30fps", format.Is30fps)
	return format, nil
}

// Submit queues an extraction. It is refused unless a format check for
// this video passed within FormatCheckTTL; an accepted submission uses the
// check up. The returned row is what the status list shows until the
// backend reports the video.
func (s *videoService) Submit(ctx context.Context, trainerID string, req models.ExtractRequest) (*models.VideoStatus, error) {
	key := videoKey{trainerID, req.VideoID}
	s.mu.Lock()
	s.prune()
	checked, ok := s.formats[key]
	s.mu.Unlock()
	if !ok || !checked.format.IsValid {
		return nil, ErrFormatNotChecked
	}

	job := worker.ExtractJob{
		ID:        uuid.NewString(),
		TrainerID: trainerID,
		Query: backend.ExtractQuery{
			VideoID:     req.VideoID,
			Language:    req.Language,
			TrainerID:   trainerID,
			FinalResult: req.FinalResult,
		},
		EnqueuedAt: s.now(),
	}
	if !s.queue.Enqueue(job) {
		return nil, ErrQueueFull
	}

	row := models.VideoStatus{
		VideoID:      req.VideoID,
		RegisteredAt: s.now().Format(models.RegisteredAtLayout),
		Status:       models.VideoStatusProcessing,
		Pending:      true,
	}
	s.mu.Lock()
	delete(s.formats, key)
	s.pending[trainerID] = append(s.pending[trainerID], pendingRow{row: row, at: s.now()})
	s.mu.Unlock()

	s.logger.Infow("Extraction queued", "trainer", trainerID, "video", req.VideoID, "job", job.ID,
		"language", req.Language, "queue_depth", s.queue.QueueDepth())
	return &row, nil
}

// StatusList is the backend's list followed by local rows the backend has
// not reported yet.
func (s *videoService) StatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error) {
	list, err := s.backend.VideoStatusList(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("video status list: %w", err)
	}
	if list == nil {
		list = []models.VideoStatus{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	reported := make(map[string]struct{}, len(list))
	for _, r := range list {
		reported[r.VideoID] = struct{}{}
	}
	var kept []pendingRow
	for _, p := range s.pending[trainerID] {
		if _, ok := reported[p.row.VideoID]; !ok {
			kept = append(kept, p)
			list = append(list, p.row)
		}
	}
	if len(kept) == 0 {
		delete(s.pending, trainerID)
	} else {
		s.pending[trainerID] = kept
	}
	return list, nil
}

func (s *videoService) DetailLog(ctx context.Context, videoID string) ([]string, error) {
	lines, err := s.backend.VideoDetailStatusLog(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video detail log: %w", err)
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}
