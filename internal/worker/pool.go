// Package worker runs video extractions in the background.
// Submissions return as soon as the job is queued:
// - Backpressure handling via load shedding when the queue is full
// - Each job streams backend progress into the Hub for browser relays
// - Graceful shutdown cancels running extractions
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// Prometheus metrics
var (
	jobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_extract_jobs_enqueued_total",
		Help: "Total number of extraction jobs accepted",
	})

	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_extract_jobs_completed_total",
		Help: "Total number of extraction jobs whose stream closed normally",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_extract_jobs_failed_total",
		Help: "Total number of extraction jobs that failed",
	})

	jobsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_extract_jobs_load_shed_total",
		Help: "Total number of extraction jobs dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_extract_queue_depth",
		Help: "Current depth of the extraction queue",
	})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_extract_job_duration_seconds",
		Help:    "Wall time of extraction jobs",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	})
)

// ExtractJob is one queued video extraction.
type ExtractJob struct {
	ID         string
	TrainerID  string
	Query      backend.ExtractQuery
	EnqueuedAt time.Time
}

// Extractor streams extraction progress for a video. backend.Client
// satisfies it.
type Extractor interface {
	ExtractStream(ctx context.Context, q backend.ExtractQuery, onEvent func(models.ExtractProgress)) error
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	// JobTimeout bounds a single extraction. Long videos take a while.
	JobTimeout time.Duration
	Extractor  Extractor
	Hub        *Hub
	Logger     *zap.Logger
}

// Pool runs extraction jobs on a fixed set of workers
type Pool struct {
	config   PoolConfig
	jobQueue chan ExtractJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	hub      *Hub

	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:   cfg,
		jobQueue: make(chan ExtractJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   cfg.Logger.Sugar(),
		hub:      cfg.Hub,
	}
}

// Hub returns the progress hub jobs publish into.
func (p *Pool) Hub() *Hub {
	return p.hub
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"jobTimeout", p.config.JobTimeout,
	)
}

// Stop cancels running extractions and waits for the workers to exit.
// Queued jobs that never started are finished with an error.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")

		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()

		p.cancel()
		p.wg.Wait()
		p.logger.Info("Worker pool stopped")
	})
}

// Enqueue adds a job without blocking. It returns false when the queue is
// full or the pool is stopped.
func (p *Pool) Enqueue(job ExtractJob) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.logger.Warnw("Worker pool stopped, dropping job", "job", job.ID, "video", job.Query.VideoID)
		return false
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	// the topic must exist before a worker can pick the job up and finish it
	opened := p.hub.Open(job.Query.VideoID)
	select {
	case p.jobQueue <- job:
		jobsEnqueued.Inc()
		return true
	default:
		if opened {
			p.hub.Drop(job.Query.VideoID)
		}
		p.logger.Warnw("Extraction queue full, dropping job", "job", job.ID, "video", job.Query.VideoID)
		jobsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.process(id, job)
		case <-p.ctx.Done():
			// drain so subscribers of never-started jobs are released
			for job := range p.jobQueue {
				p.hub.Finish(job.Query.VideoID, p.ctx.Err())
			}
			return
		}
	}
}

func (p *Pool) process(id int, job ExtractJob) {
	if p.ctx.Err() != nil {
		p.hub.Finish(job.Query.VideoID, p.ctx.Err())
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.config.JobTimeout)
	defer cancel()

	p.logger.Infow("Extraction started",
		"worker", id,
		"job", job.ID,
		"trainer", job.TrainerID,
		"video", job.Query.VideoID,
		"waited", time.Since(job.EnqueuedAt),
	)

	start := time.Now()
	err := p.config.Extractor.ExtractStream(ctx, job.Query, func(ev models.ExtractProgress) {
		p.hub.Publish(job.Query.VideoID, ev)
	})
	jobDuration.Observe(time.Since(start).Seconds())
	p.hub.Finish(job.Query.VideoID, err)

	if err != nil && !errors.Is(err, context.Canceled) {
		jobsFailed.Inc()
		p.logger.Errorw("Extraction failed",
			"worker", id,
			"job", job.ID,
			"video", job.Query.VideoID,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}
	jobsCompleted.Inc()
	p.logger.Infow("Extraction finished", "worker", id, "job", job.ID, "video", job.Query.VideoID, "duration", time.Since(start))
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(p.QueueDepth()))
		case <-p.ctx.Done():
			return
		}
	}
}
