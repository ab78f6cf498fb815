package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"immo-scraper/api"
	"immo-scraper/config"
	"immo-scraper/metrics"
	"immo-scraper/models"
	"immo-scraper/scraper"
	"immo-scraper/scraper/sites"
	"immo-scraper/services"
	"immo-scraper/storage"
	"immo-scraper/utils"
)

// app is the wiring shared by every command.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	sites  []scraper.Site
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "immo-scraper",
		Short:         "Real-estate listing crawler for Vitré and Châteaugiron",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}

			logger, err := utils.NewLoggerWithLevel(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.logger = logger

			sf, err := config.LoadSources(a.cfg.SourcesFile)
			if err != nil {
				return err
			}
			a.sites = sites.Configure(sf, logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(a.serveCommand(), a.scanCommand(), a.sourcesCommand())
	return root
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled scans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("=== Immo scraper starting ===")
			a.logger.Info("Config: %d sources | concurrency: %d | rate: %dms | retries: %d",
				len(a.sites), a.cfg.MaxConcurrency, a.cfg.RateLimitMs, a.cfg.MaxRetries)

			m := metrics.New()
			raw, closeRaw, err := a.rawWriter()
			if err != nil {
				return err
			}
			defer closeRaw()

			orch := a.orchestrator(ctx, a.postgresOpener(), raw, m)

			if a.cfg.ScanSchedule != "" {
				c, err := a.scheduler(orch)
				if err != nil {
					return err
				}
				c.Start()
				defer func() { <-c.Stop().Done() }()
			}

			reader := func(ctx context.Context) (storage.Reader, error) {
				if err := a.cfg.RequireDatabase(); err != nil {
					return nil, err
				}
				return storage.NewPostgresStore(ctx, a.cfg.DatabaseURL, a.logger)
			}

			err = api.NewServer(orch, reader, m, a.logger).ListenAndServe(ctx, a.cfg.Addr())
			a.logger.Info("Waiting for the running scan to stop")
			orch.Wait()
			return err
		},
	}
}

func (a *app) scanCommand() *cobra.Command {
	var (
		source string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan in the foreground",
		Long: `Run a scan of one source (--source) or of every source, wait for it and
print the scan records. With --dry-run listings are kept in memory and a
report is printed instead of writing to Postgres.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.checkSource(source); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			raw, closeRaw, err := a.rawWriter()
			if err != nil {
				return err
			}
			defer closeRaw()

			open := a.postgresOpener()
			var memory *storage.MemoryStore
			if dryRun {
				memory = storage.NewMemoryStore()
				open = func(context.Context) (storage.Store, error) { return memory, nil }
			}

			summary, err := a.orchestrator(ctx, open, raw, nil).Run(ctx, source)
			if err != nil {
				return err
			}
			printSummary(summary)

			if memory != nil {
				listings, _ := memory.FetchAll(ctx)
				insights := services.NewInsightService(a.logger)
				insights.Print(os.Stdout, insights.Generate(listings))
			}
			if summary.Status == models.ScanFailed {
				return fmt.Errorf("scan %s failed", summary.RunID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source key or name (default: all sources)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "keep results in memory instead of Postgres")
	return cmd
}

func (a *app) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the enabled sources and their seeds",
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tSEEDS")
			for _, s := range a.sites {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", scraper.SiteKey(s), s.Name(), len(s.Seeds()))
				for _, seed := range s.Seeds() {
					fmt.Fprintf(tw, "\t\t  %s\n", seed)
				}
			}
			return tw.Flush()
		},
	}
}

// checkSource rejects a --source that names no enabled source.
func (a *app) checkSource(name string) error {
	if name == "" || strings.EqualFold(name, models.AllSources) {
		return nil
	}
	if _, ok := sites.ByName(a.sites, name); ok {
		return nil
	}
	keys := make([]string, 0, len(a.sites))
	for _, s := range a.sites {
		keys = append(keys, scraper.SiteKey(s))
	}
	return fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(keys, ", "))
}

func (a *app) orchestrator(ctx context.Context, open scraper.Opener, raw storage.RawListingWriter, m *metrics.Metrics) *scraper.Orchestrator {
	return scraper.NewOrchestrator(scraper.OrchestratorOptions{
		Sites:    a.sites,
		Open:     open,
		Launcher: scraper.NewChromeLauncher(a.cfg, a.logger),
		Cleaner:  services.NewCleaner(a.logger),
		Raw:      raw,
		Metrics:  m,
		Crawler: scraper.CrawlerConfig{
			MaxConcurrency: a.cfg.MaxConcurrency,
			MaxRetries:     a.cfg.MaxRetries,
			RateLimitMs:    a.cfg.RateLimitMs,
			RetryBaseDelay: a.cfg.RetryBaseDelay,
		},
		BaseContext: ctx,
	}, a.logger)
}

func (a *app) postgresOpener() scraper.Opener {
	return func(ctx context.Context) (storage.Store, error) {
		if err := a.cfg.RequireDatabase(); err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(ctx, a.cfg.DatabaseURL, a.logger)
	}
}

// rawWriter opens the raw CSV dump when RAW_CSV_PATH is set. The returned
// writer is nil otherwise.
func (a *app) rawWriter() (storage.RawListingWriter, func(), error) {
	if a.cfg.RawCSVPath == "" {
		return nil, func() {}, nil
	}
	w, err := storage.NewCSVWriter(a.cfg.RawCSVPath)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("Raw listings will be appended to %s", a.cfg.RawCSVPath)
	return w, func() { _ = w.Close() }, nil
}

// scheduler triggers a scan of every source on SCAN_SCHEDULE. A tick that
// finds a scan in flight is skipped.
func (a *app) scheduler(orch *scraper.Orchestrator) (*cron.Cron, error) {
	cronLogger := utils.NewCronLogger(a.logger)
	c := cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger)))
	_, err := c.AddFunc(a.cfg.ScanSchedule, func() {
		trigger, err := orch.Start("")
		switch {
		case errors.Is(err, scraper.ErrAlreadyRunning):
			a.logger.Warn("[cron] Scan still running, skipping tick")
		case err != nil:
			a.logger.Error("[cron] Could not start scan: %v", err)
		default:
			a.logger.Info("[cron] Scan %s started", trigger.RunID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_SCHEDULE %q: %w", a.cfg.ScanSchedule, err)
	}
	a.logger.Info("[cron] Scans scheduled on %q", a.cfg.ScanSchedule)
	return c, nil
}

func printSummary(s *scraper.Summary) {
	fmt.Printf("\n  Scan %s: %s in %v\n\n", s.RunID, s.Status, s.Duration.Round(time.Second))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  SOURCE\tSTATUS\tLISTINGS\tERRORS\tUNSUPPORTED\tPRUNED\tDURATION")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%d\t%d\t%v\n",
			r.Source, r.Status, r.Listings, r.Errors, r.Unsupported, r.Pruned, r.Duration.Round(time.Second))
	}
	_ = tw.Flush()
	fmt.Println()
}
