// Package worker runs background processing: the buffered submission event
// pool and the competition reminder scheduler.
//
// The pool decouples answer submission from analytics writes:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/models"
)

// Prometheus metrics
var (
	eventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_submission_events_ingested_total",
		Help: "Total number of submission events accepted into the queue",
	})

	eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_submission_events_processed_total",
		Help: "Total number of submission events written to ClickHouse",
	})

	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_submission_events_failed_total",
		Help: "Total number of submission events that failed processing",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thinkly_worker_queue_depth",
		Help: "Current depth of the submission event queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thinkly_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	eventsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_submission_events_load_shed_total",
		Help: "Total number of submission events dropped because the queue was full",
	})
)

// dailyCounterTTL keeps the per-day Redis counters for a week.
const dailyCounterTTL = 8 * 24 * time.Hour

// Job represents a unit of work for the worker pool
type Job struct {
	Event     *models.SubmissionEvent
	Timestamp time.Time
}

// submittedAt falls back to the time the pool received the event.
func (j Job) submittedAt() time.Time {
	if j.Event.SubmittedAt.IsZero() {
		return j.Timestamp
	}
	return j.Event.SubmittedAt
}

// Pipeliner is the part of the Redis client the pool needs.
type Pipeliner interface {
	Pipeline() redis.Pipeliner
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Redis         Pipeliner
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async event processing
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	stopOnce sync.Once
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
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
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue and waits for workers to flush what is left.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		close(p.jobQueue)
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Info("Worker pool stopped")
	})
}

// Enqueue adds an event to the queue without blocking. It returns false
// when the queue is full or the pool has stopped.
func (p *Pool) Enqueue(event *models.SubmissionEvent) (ok bool) {
	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue submission event (pool stopped)", "error", r)
			ok = false
		}
	}()

	select {
	case p.jobQueue <- Job{Event: event, Timestamp: time.Now()}:
		eventsIngested.Inc()
		return true
	default:
		eventsLoadShed.Inc()
		p.logger.Warnw("Submission queue full, dropping event",
			"competition_id", event.CompetitionID,
			"user_id", event.UserID,
		)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			eventsFailed.Add(float64(len(batch)))
		} else {
			eventsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch writes a batch to ClickHouse, then applies the Redis side
// effects. A failed insert skips the side effects.
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO thinkly.submission_events (
			event_id, submitted_at, competition_id, user_id,
			kind, instance_id, correct, points
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		e := job.Event
		if err := chBatch.Append(
			e.ID,
			job.submittedAt(),
			uint64(e.CompetitionID),
			uint64(e.UserID),
			string(e.Kind),
			uint64(e.InstanceID),
			e.Correct,
			uint32(e.Points),
		); err != nil {
			p.logger.Warnw("Failed to append event to batch", "error", err, "event_id", e.ID)
			continue
		}
	}

	if err := chBatch.Send(); err != nil {
		p.logger.Errorw("Failed to send batch to ClickHouse", "error", err, "batchSize", len(batch))
		return err
	}

	p.processBatchSideEffects(ctx, batch)
	return nil
}

// processBatchSideEffects drops stale leaderboard snapshots and bumps the
// daily submission counters in one pipeline round trip.
func (p *Pool) processBatchSideEffects(ctx context.Context, batch []Job) {
	if p.config.Redis == nil {
		return
	}
	pipe := p.config.Redis.Pipeline()

	stale := make(map[int64]struct{})
	days := make(map[string]struct{})
	for _, job := range batch {
		e := job.Event
		day := job.submittedAt().UTC().Format("2006-01-02")
		days[day] = struct{}{}

		pipe.Incr(ctx, "stats:submissions:"+day)
		if e.Correct {
			pipe.Incr(ctx, "stats:correct:"+day)
			stale[e.CompetitionID] = struct{}{}
		}
	}

	for day := range days {
		pipe.Expire(ctx, "stats:submissions:"+day, dailyCounterTTL)
		pipe.Expire(ctx, "stats:correct:"+day, dailyCounterTTL)
	}
	for id := range stale {
		pipe.Incr(ctx, logic.LeaderboardGenerationKey(id))
		pipe.Del(ctx, logic.LeaderboardCacheKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Warnw("Failed to apply submission side effects", "error", err, "batchSize", len(batch))
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
