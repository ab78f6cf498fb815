package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"immo-scraper/models"
	"immo-scraper/utils"
)

// Handler processes one crawl task. A non-nil error sends the task back to
// the queue until its retries are exhausted.
type Handler func(ctx context.Context, task *models.CrawlTask) error

// QueueConfig bounds one queue run.
type QueueConfig struct {
	MaxConcurrency int
	MaxRetries     int
	RateLimitMs    int
	Retry          *utils.RetryConfig
}

// QueueStats summarizes one queue run.
type QueueStats struct {
	Enqueued   int
	Duplicates int
	Processed  int
	Retried    int
	Failed     int
	Dropped    int
}

// Queue is a FIFO of crawl tasks with per-run URL dedup and bounded retries.
// Handlers may enqueue new tasks while the queue is running.
type Queue struct {
	cfg      QueueConfig
	logger   *utils.Logger
	seen     *utils.URLSet
	onFailed func(task *models.CrawlTask, err error)

	mu       sync.Mutex
	pending  []*models.CrawlTask
	inFlight int
	stats    QueueStats
	wake     chan struct{}
}

// NewQueue creates an empty Queue.
func NewQueue(cfg QueueConfig, logger *utils.Logger) *Queue {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Queue{
		cfg:    cfg,
		logger: logger,
		seen:   utils.NewURLSet(),
		wake:   make(chan struct{}, 1),
	}
}

// OnFailed registers fn to be called once for every task that fails permanently.
func (q *Queue) OnFailed(fn func(task *models.CrawlTask, err error)) {
	q.onFailed = fn
}

// Enqueue adds task unless its URL was already enqueued during this run.
func (q *Queue) Enqueue(task *models.CrawlTask) bool {
	key, err := NormalizeURL(task.URL)
	if err != nil {
		key = strings.TrimSpace(task.URL)
	}
	if key == "" {
		return false
	}
	task.Key = key

	if !q.seen.Add(key) {
		q.mu.Lock()
		q.stats.Duplicates++
		q.mu.Unlock()
		return false
	}

	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.stats.Enqueued++
	q.mu.Unlock()
	q.signal()
	return true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stats returns a snapshot of the run counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Run drains the queue with handler until no task is pending or in flight,
// or until ctx is done.
func (q *Queue) Run(ctx context.Context, handler Handler) QueueStats {
	pool := utils.NewWorkerPool(q.cfg.MaxConcurrency, q.cfg.RateLimitMs)
	q.logger.Debug("[queue] Running with %d worker(s), %dms between visits", pool.Size(), q.cfg.RateLimitMs)

	for {
		q.mu.Lock()
		if ctx.Err() != nil {
			q.mu.Unlock()
			break
		}
		if len(q.pending) == 0 {
			idle := q.inFlight == 0
			q.mu.Unlock()
			if idle {
				break
			}
			select {
			case <-q.wake:
			case <-ctx.Done():
			}
			continue
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		q.inFlight++
		q.mu.Unlock()

		if err := pool.SubmitContext(ctx, func() { q.process(ctx, task, handler) }); err != nil {
			q.finish(func(s *QueueStats) { s.Dropped++ })
			break
		}
	}

	pool.Wait()

	q.mu.Lock()
	q.stats.Dropped += len(q.pending)
	q.pending = nil
	q.mu.Unlock()
	return q.Stats()
}

func (q *Queue) process(ctx context.Context, task *models.CrawlTask, handler Handler) {
	err := q.safeHandle(ctx, task, handler)
	switch {
	case err == nil:
		q.finish(func(s *QueueStats) { s.Processed++ })
	case ctx.Err() != nil:
		q.finish(func(s *QueueStats) { s.Dropped++ })
	case task.Attempt < q.cfg.MaxRetries:
		next := *task
		next.Attempt++
		q.logger.Warn("[queue] %s %s failed (attempt %d/%d): %v",
			task.Type, task.URL, next.Attempt, q.cfg.MaxRetries+1, err)
		if q.cfg.Retry != nil {
			if sleepErr := utils.Sleep(ctx, q.cfg.Retry.Backoff(next.Attempt)); sleepErr != nil {
				q.finish(func(s *QueueStats) { s.Dropped++ })
				return
			}
		}
		q.mu.Lock()
		q.pending = append(q.pending, &next)
		q.stats.Retried++
		q.mu.Unlock()
		q.finish(nil)
	default:
		q.logger.Error("[queue] %s %s permanent failure: %v", task.Type, task.URL, err)
		if q.onFailed != nil {
			q.onFailed(task, err)
		}
		q.finish(func(s *QueueStats) { s.Failed++ })
	}
}

// finish marks one in-flight task as done and wakes the run loop.
func (q *Queue) finish(update func(s *QueueStats)) {
	q.mu.Lock()
	if update != nil {
		update(&q.stats)
	}
	q.inFlight--
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) safeHandle(ctx context.Context, task *models.CrawlTask, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, task)
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
