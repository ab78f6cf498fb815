package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetSorted(t *testing.T) {
	s := NewURLSet()
	s.Add("https://b.fr/2")
	s.Add("https://a.fr/1")
	s.Add("https://b.fr/2")

	got := s.Sorted()
	if len(got) != 2 || got[0] != "https://a.fr/1" || got[1] != "https://b.fr/2" {
		t.Errorf("Sorted() = %v; want [https://a.fr/1 https://b.fr/2]", got)
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("ran %d jobs; want 3", len(timestamps))
	}
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min-5*time.Millisecond {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var running, peak int64

	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d; want <= 2", peak)
	}
}

func TestWorkerPoolSubmitContextCancelled(t *testing.T) {
	pool := NewWorkerPool(1, 0)
	release := make(chan struct{})
	pool.Submit(func() { <-release })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.SubmitContext(ctx, func() {}); err == nil {
		t.Error("SubmitContext on a full pool with a cancelled context should fail")
	}
	close(release)
	pool.Wait()
}
