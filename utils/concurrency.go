package utils

import (
	"context"
	"sort"
	"sync"
	"time"
)

// WorkerPool bounds the number of concurrent jobs and spaces job starts by a
// minimum interval.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastStart   time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A non-positive maxWorkers means one worker.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit runs job in the pool, blocking while all workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	_ = wp.SubmitContext(context.Background(), job)
}

// SubmitContext is Submit that gives up when ctx is done before a worker frees up.
// The job is skipped if ctx ends while it waits for its rate-limit slot.
func (wp *WorkerPool) SubmitContext(ctx context.Context, job func()) error {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.enforceRateLimit(ctx); err != nil {
			return
		}
		job()
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Size returns the configured number of workers.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

func (wp *WorkerPool) enforceRateLimit(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	if !wp.lastStart.IsZero() {
		if elapsed := time.Since(wp.lastStart); elapsed < minInterval {
			if err := Sleep(ctx, minInterval-elapsed); err != nil {
				return err
			}
		}
	}
	wp.lastStart = time.Now()
	return nil
}

// URLSet is a thread-safe set of URLs (or any string keys).
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been added.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Sorted returns the members in lexical order.
func (s *URLSet) Sorted() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.seen))
	for u := range s.seen {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
