package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"immo-scraper/metrics"
	"immo-scraper/models"
	"immo-scraper/services"
	"immo-scraper/storage"
	"immo-scraper/utils"
)

var (
	// ErrAlreadyRunning rejects a scan request while another scan is in flight.
	ErrAlreadyRunning = errors.New("a scan is already running")
	ErrNoSources      = errors.New("no source to scan")
)

// State is the lifecycle of the orchestrator: Idle -> Running -> Idle.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Opener opens the record store for one scan invocation.
type Opener func(ctx context.Context) (storage.Store, error)

// OrchestratorOptions wires the orchestrator.
type OrchestratorOptions struct {
	Sites    []Site
	Open     Opener
	Launcher Launcher
	Cleaner  *services.Cleaner
	Raw      storage.RawListingWriter
	Metrics  *metrics.Metrics
	Crawler  CrawlerConfig
	// BaseContext bounds background scans; it defaults to context.Background.
	BaseContext context.Context
}

// Trigger identifies a scan started in the background.
type Trigger struct {
	RunID   string   `json:"run_id"`
	Sources []string `json:"sources"`
}

// Summary is the outcome of one scan invocation.
type Summary struct {
	RunID     string
	Status    string
	Results   []*RunResult
	Aggregate *models.ScanRecord
	Duration  time.Duration
}

// StatusReport is a snapshot of the orchestrator.
type StatusReport struct {
	Status    string     `json:"status"`
	RunID     string     `json:"run_id,omitempty"`
	Sources   []string   `json:"sources"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// Orchestrator runs scans one at a time: a single named source, or every
// source sequentially followed by an aggregate record.
type Orchestrator struct {
	opts   OrchestratorOptions
	logger *utils.Logger

	state atomic.Int32
	wg    sync.WaitGroup

	mu        sync.Mutex
	runID     string
	sources   []string
	startedAt time.Time
}

// NewOrchestrator creates an idle orchestrator over opts.Sites.
func NewOrchestrator(opts OrchestratorOptions, logger *utils.Logger) *Orchestrator {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	return &Orchestrator{opts: opts, logger: logger}
}

// Sites returns the registered sources.
func (o *Orchestrator) Sites() []Site {
	return append([]Site(nil), o.opts.Sites...)
}

// Resolve returns the sources designated by name. An empty or unknown name
// designates all of them; all reports which case applied.
func (o *Orchestrator) Resolve(name string) (sites []Site, all bool) {
	if name != "" {
		for _, s := range o.opts.Sites {
			if Matches(s, name) {
				return []Site{s}, false
			}
		}
		if slug(name) != slug(models.AllSources) {
			o.logger.Warn("[orchestrator] Unknown source %q, running all sources", name)
		}
	}
	return o.Sites(), true
}

// TryAcquire moves the orchestrator from Idle to Running. It reports false
// when a scan is already in flight.
func (o *Orchestrator) TryAcquire() bool {
	return o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.runID = ""
	o.sources = nil
	o.startedAt = time.Time{}
	o.mu.Unlock()
	o.state.Store(int32(StateIdle))
	o.opts.Metrics.SetRunning(false)
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Status reports whether a scan is running and over which sources.
func (o *Orchestrator) Status() StatusReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	r := StatusReport{Status: o.State().String(), RunID: o.runID, Sources: []string{}}
	if o.runID != "" {
		r.Sources = append(r.Sources, o.sources...)
		started := o.startedAt
		r.StartedAt = &started
	}
	return r
}

// Start launches a scan in the background. The store is opened before
// returning so configuration errors reach the caller.
func (o *Orchestrator) Start(name string) (*Trigger, error) {
	ctx := o.opts.BaseContext
	sc, err := o.begin(ctx, name)
	if err != nil {
		return nil, err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.execute(ctx, sc)
	}()
	return &Trigger{RunID: sc.runID, Sources: names(sc.sites)}, nil
}

// Run performs a scan and waits for it to finish.
func (o *Orchestrator) Run(ctx context.Context, name string) (*Summary, error) {
	sc, err := o.begin(ctx, name)
	if err != nil {
		return nil, err
	}
	return o.execute(ctx, sc), nil
}

// Wait blocks until background scans have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// scan is one acquired invocation.
type scan struct {
	runID string
	sites []Site
	all   bool
	store storage.Store
}

func (o *Orchestrator) begin(ctx context.Context, name string) (*scan, error) {
	sites, all := o.Resolve(name)
	if len(sites) == 0 {
		return nil, ErrNoSources
	}
	if !o.TryAcquire() {
		return nil, ErrAlreadyRunning
	}

	store, err := o.opts.Open(ctx)
	if err != nil {
		o.release()
		return nil, fmt.Errorf("orchestrator: open store: %w", err)
	}

	sc := &scan{runID: uuid.NewString(), sites: sites, all: all, store: store}
	o.mu.Lock()
	o.runID = sc.runID
	o.sources = names(sites)
	o.startedAt = time.Now()
	o.mu.Unlock()
	o.opts.Metrics.SetRunning(true)
	return sc, nil
}

func (o *Orchestrator) execute(ctx context.Context, sc *scan) *Summary {
	defer o.release()
	defer func() {
		if err := sc.store.Close(); err != nil {
			o.logger.Warn("[orchestrator] Closing store: %v", err)
		}
	}()

	logger := o.logger.With("run_id", sc.runID)
	start := time.Now()
	summary := &Summary{RunID: sc.runID}
	logger.Info("[orchestrator] Scan started over %d source(s)", len(sc.sites))

	deps := Deps{
		Launcher: o.opts.Launcher,
		Store:    sc.store,
		Cleaner:  o.opts.Cleaner,
		Raw:      o.opts.Raw,
		Metrics:  o.opts.Metrics,
	}

	for _, site := range sc.sites {
		if ctx.Err() != nil {
			logger.Warn("[orchestrator] Scan cancelled before %s", site.Name())
			break
		}
		summary.Results = append(summary.Results, o.runSource(ctx, site, deps, logger))
	}

	summary.Status = overallStatus(summary.Results, len(sc.sites))
	if sc.all {
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		rec, err := sc.store.RecordScan(recCtx, models.AllSources, start, summary.Status)
		cancel()
		if err != nil {
			logger.Error("[orchestrator] Could not record aggregate scan: %v", err)
		}
		summary.Aggregate = rec
	}

	summary.Duration = time.Since(start)
	logger.Info("[orchestrator] Scan %s in %v", summary.Status, summary.Duration.Round(time.Millisecond))
	return summary
}

// runSource crawls one site; a panic fails that source only.
func (o *Orchestrator) runSource(ctx context.Context, site Site, deps Deps, logger *utils.Logger) (res *RunResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[orchestrator] %s crashed: %v", site.Name(), r)
			res = &RunResult{Source: site.Name(), Status: models.ScanFailed}
		}
	}()

	res, err := NewCrawler(site, deps, o.opts.Crawler, logger).Run(ctx)
	if err != nil {
		logger.Error("[orchestrator] %s: %v", site.Name(), err)
	}
	return res
}

// overallStatus is success when every source succeeded, failed when none
// produced anything, partial otherwise.
func overallStatus(results []*RunResult, expected int) string {
	if len(results) == 0 {
		return models.ScanFailed
	}
	success, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case models.ScanSuccess:
			success++
		case models.ScanFailed:
			failed++
		}
	}
	switch {
	case success == expected:
		return models.ScanSuccess
	case failed == len(results):
		return models.ScanFailed
	default:
		return models.ScanPartial
	}
}

func names(sites []Site) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		out = append(out, s.Name())
	}
	return out
}
