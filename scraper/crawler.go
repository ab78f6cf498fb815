package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"immo-scraper/metrics"
	"immo-scraper/models"
	"immo-scraper/services"
	"immo-scraper/storage"
	"immo-scraper/utils"
)

var (
	// ErrNoListPage is returned when not a single list page of a source loaded.
	ErrNoListPage = errors.New("no list page could be loaded")
	// ErrEmptyListPage fails a list page that rendered without any listing
	// link. It is retried, then counted as a list failure.
	ErrEmptyListPage = errors.New("list page has no listing")
)

// CrawlerConfig bounds the crawl of one source.
type CrawlerConfig struct {
	MaxConcurrency int
	MaxRetries     int
	RateLimitMs    int
	RetryBaseDelay time.Duration
}

// Deps are the collaborators shared by every source crawler of a scan.
type Deps struct {
	Launcher Launcher
	Store    storage.Store
	Cleaner  *services.Cleaner
	// Raw optionally receives every extracted field bag.
	Raw     storage.RawListingWriter
	Metrics *metrics.Metrics
}

// RunResult summarizes one source crawl.
type RunResult struct {
	Source       string
	Status       string
	Listings     int
	Errors       int
	Unsupported  int
	ListPages    int
	ListFailures int
	Pruned       int64
	Duration     time.Duration
	Queue        QueueStats
	Scan         *models.ScanRecord
}

// Crawler runs the list -> detail crawl of one source and reconciles the
// store with what it saw.
type Crawler struct {
	site   Site
	deps   Deps
	cfg    CrawlerConfig
	logger *utils.Logger
	now    func() time.Time
}

// NewCrawler creates the crawler of one site. Every log line carries the
// source name.
func NewCrawler(site Site, deps Deps, cfg CrawlerConfig, logger *utils.Logger) *Crawler {
	return &Crawler{
		site:   site,
		deps:   deps,
		cfg:    cfg,
		logger: logger.With("source", site.Name()),
		now:    time.Now,
	}
}

// crawlRun is the mutable state of one Run call.
type crawlRun struct {
	browser Browser
	queue   *Queue
	current *utils.URLSet

	mu           sync.Mutex
	errors       int
	unsupported  int
	listPages    int
	listFailures int
}

// Run crawls the source from its seeds until the queue is drained, prunes
// listings that disappeared and records the scan outcome.
func (c *Crawler) Run(ctx context.Context) (*RunResult, error) {
	name := c.site.Name()
	start := c.now()
	result := &RunResult{Source: name, Status: models.ScanFailed}

	c.logger.Info("[%s] Starting crawl from %d seed(s)", name, len(c.site.Seeds()))

	browser, err := c.deps.Launcher.Launch(ctx)
	if err != nil {
		c.finish(ctx, result, start)
		return result, fmt.Errorf("crawler: %s: %w", name, err)
	}
	defer browser.Close()

	run := &crawlRun{
		browser: browser,
		current: utils.NewURLSet(),
		queue: NewQueue(QueueConfig{
			MaxConcurrency: c.cfg.MaxConcurrency,
			MaxRetries:     c.cfg.MaxRetries,
			RateLimitMs:    c.cfg.RateLimitMs,
			Retry:          &utils.RetryConfig{BaseDelay: c.cfg.RetryBaseDelay, MaxDelay: 30 * time.Second},
		}, c.logger),
	}
	run.queue.OnFailed(func(task *models.CrawlTask, err error) {
		if task.Type == models.PageList {
			run.mu.Lock()
			run.listFailures++
			run.mu.Unlock()
			return
		}
		c.recordError(ctx, run, task.URL, err.Error())
	})

	for _, seed := range c.site.Seeds() {
		run.queue.Enqueue(&models.CrawlTask{URL: seed, Type: models.PageList, Seed: true})
	}

	result.Queue = run.queue.Run(ctx, func(ctx context.Context, task *models.CrawlTask) error {
		if task.Type == models.PageList {
			return c.handleList(ctx, run, task)
		}
		return c.handleDetail(ctx, run, task)
	})

	run.mu.Lock()
	result.Errors = run.errors
	result.Unsupported = run.unsupported
	result.ListPages = run.listPages
	result.ListFailures = run.listFailures
	run.mu.Unlock()
	result.Listings = run.current.Size()

	switch {
	case result.ListPages == 0:
		result.Status = models.ScanFailed
	case result.ListFailures > 0 || ctx.Err() != nil:
		result.Status = models.ScanPartial
	default:
		result.Status = models.ScanSuccess
	}

	// A partial view of the source must not prune listings we simply did not reach.
	if result.Status == models.ScanSuccess {
		pruned, err := c.deps.Store.DeleteMissing(ctx, name, run.current.Sorted())
		if err != nil {
			c.logger.Error("[%s] Reconciliation failed: %v", name, err)
		} else {
			result.Pruned = pruned
			c.deps.Metrics.Pruned(name, pruned)
		}
	} else {
		c.logger.Warn("[%s] Skipping reconciliation, scan is %s", name, result.Status)
	}

	c.finish(ctx, result, start)
	c.logger.Info("[%s] Crawl %s: %d listings, %d errors, %d unsupported, %d pruned in %v",
		name, result.Status, result.Listings, result.Errors, result.Unsupported, result.Pruned,
		result.Duration.Round(time.Millisecond))

	if result.Status == models.ScanFailed {
		return result, fmt.Errorf("crawler: %s: %w", name, ErrNoListPage)
	}
	return result, nil
}

func (c *Crawler) handleList(ctx context.Context, run *crawlRun, task *models.CrawlTask) error {
	name := c.site.Name()

	page, err := run.browser.Fetch(ctx, c.site.ListRequest(task.URL, task.Seed))
	if err != nil {
		c.deps.Metrics.Page(name, "list", "fetch_error")
		return err
	}

	links := c.site.ListLinks(page)
	if len(links) == 0 {
		c.deps.Metrics.Page(name, "list", "empty")
		return fmt.Errorf("%w: %s", ErrEmptyListPage, task.URL)
	}
	added := 0
	for _, link := range links {
		if run.queue.Enqueue(&models.CrawlTask{URL: link, Type: models.PageDetail}) {
			added++
		}
	}

	next := c.site.NextPage(page)
	if next != "" {
		run.queue.Enqueue(&models.CrawlTask{URL: next, Type: models.PageList})
	}

	run.mu.Lock()
	run.listPages++
	run.mu.Unlock()
	c.deps.Metrics.Page(name, "list", "ok")
	c.logger.Info("[%s] List page %s: %d links (%d new), next=%q", name, task.URL, len(links), added, next)
	return nil
}

func (c *Crawler) handleDetail(ctx context.Context, run *crawlRun, task *models.CrawlTask) error {
	name := c.site.Name()

	page, err := run.browser.Fetch(ctx, c.site.DetailRequest(task.URL))
	if err != nil {
		c.deps.Metrics.Page(name, "detail", "fetch_error")
		return err
	}

	raw, err := c.site.Detail(page)
	if err != nil {
		c.deps.Metrics.Page(name, "detail", "extract_error")
		c.recordError(ctx, run, task.URL, err.Error())
		return nil
	}
	if raw.Link == "" {
		raw.Link = task.URL
	}
	raw.Source = name
	raw.ScrapedAt = c.now()

	if c.deps.Raw != nil {
		if err := c.deps.Raw.WriteRaw(raw); err != nil {
			c.logger.Warn("[%s] Raw dump failed for %s: %v", name, raw.Link, err)
		}
	}

	listing, err := c.deps.Cleaner.Clean(raw)
	switch {
	case errors.Is(err, services.ErrUnsupported):
		run.mu.Lock()
		run.unsupported++
		run.mu.Unlock()
		c.deps.Metrics.Page(name, "detail", "unsupported")
		c.logger.Debug("[%s] Skipping %s: %v", name, raw.Link, err)
		return nil
	case err != nil:
		c.deps.Metrics.Page(name, "detail", "incomplete")
		c.logger.Warn("[%s] %s for %s", name, err, raw.Link)
		c.recordError(ctx, run, raw.Link, err.Error())
		return nil
	}

	if err := c.deps.Store.Upsert(ctx, listing); err != nil {
		c.logger.Error("[%s] Upsert failed for %s: %v", name, listing.Link, err)
		c.deps.Metrics.Page(name, "detail", "store_error")
	} else {
		c.deps.Metrics.Upserted(name)
		c.deps.Metrics.Page(name, "detail", "ok")
	}
	// the listing exists at the source, so it must survive reconciliation
	run.current.Add(listing.Link)
	return nil
}

func (c *Crawler) recordError(ctx context.Context, run *crawlRun, url, message string) {
	run.mu.Lock()
	run.errors++
	run.mu.Unlock()

	if err := c.deps.Store.RecordError(ctx, c.site.Name(), url, message); err != nil {
		c.logger.Error("[%s] Could not record error for %s: %v", c.site.Name(), url, err)
	}
}

// finish writes the scan record. It outlives a cancelled run context so an
// aborted scan still leaves a trace.
func (c *Crawler) finish(ctx context.Context, result *RunResult, start time.Time) {
	result.Duration = c.now().Sub(start)
	c.deps.Metrics.ScanFinished(result.Source, result.Status, result.Duration)

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	rec, err := c.deps.Store.RecordScan(recCtx, result.Source, start, result.Status)
	if err != nil {
		c.logger.Error("[%s] Could not record scan: %v", result.Source, err)
		return
	}
	result.Scan = rec
}
