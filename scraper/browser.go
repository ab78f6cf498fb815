package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"immo-scraper/config"
	"immo-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNotRendered is returned when a page never shows its wait selector.
var ErrNotRendered = errors.New("page did not render")

// Browser loads pages and returns rendered snapshots.
type Browser interface {
	Fetch(ctx context.Context, req FetchRequest) (*Page, error)
	Close()
}

// Launcher starts one Browser per source crawl.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewChromeLauncher creates a launcher using the browser settings of cfg
// (CHROME_BIN, HEADLESS, NAV_TIMEOUT, WAIT_TIMEOUT).
func NewChromeLauncher(cfg *config.Config, logger *utils.Logger) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg, logger: logger}
}

// Launch starts a browser process that lives until Close or until ctx ends.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	chromeBin := l.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	l.logger.Debug("[browser] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("lang", "fr-FR"),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// start the browser process now so launch errors surface here
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		cancelBrowser()
		cancelAlloc()
	})

	return &chromeBrowser{
		ctx:        browserCtx,
		navTimeout: l.cfg.NavTimeout,
		waitTime:   l.cfg.WaitTimeout,
		logger:     l.logger,
		cancel: func() {
			stop()
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeBrowser struct {
	ctx        context.Context
	navTimeout time.Duration
	waitTime   time.Duration
	logger     *utils.Logger
	cancel     func()
}

// Fetch opens req.URL in a fresh tab and snapshots the rendered document.
func (b *chromeBrowser) Fetch(ctx context.Context, req FetchRequest) (*Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.navTimeout)
	defer cancelTimeout()

	b.logger.Debug("[browser] GET %s", req.URL)

	wait := req.WaitSelector
	if wait == "" {
		wait = "body"
	}

	tasks := chromedp.Tasks{
		chromedp.Navigate(req.URL),
		waitVisible(wait, b.waitTime),
	}
	tasks = append(tasks, req.Actions...)
	if req.Scroll {
		tasks = append(tasks, scrollToBottom(5, 800*time.Millisecond))
	}
	if req.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(req.Settle))
	}

	var html, location string
	tasks = append(tasks,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return nil, fmt.Errorf("browser: fetch %s: %w", req.URL, err)
	}
	if location == "" {
		location = req.URL
	}
	return NewPage(location, html)
}

func (b *chromeBrowser) Close() {
	b.cancel()
}

// waitVisible waits up to timeout for sel. A selector that never shows up
// fails with ErrNotRendered; a cancelled tab returns the context error.
func waitVisible(sel string, timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := chromedp.WaitVisible(sel, chromedp.ByQuery).Do(waitCtx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %q after %v: %v", ErrNotRendered, sel, timeout, err)
		}
		return nil
	})
}

func scrollToBottom(steps int, pause time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < steps; i++ {
			if err := chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(pause).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClickIfPresent clicks the first element matching sel when there is one,
// then pauses. A missing element is not an error.
func ClickIfPresent(sel string, pause time.Duration) chromedp.Action {
	return clickJS(fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, sel), pause)
}

// ClickText clicks the first element matching sel whose text contains text.
func ClickText(sel, text string, pause time.Duration) chromedp.Action {
	return clickJS(fmt.Sprintf(`(function() {
		var els = document.querySelectorAll(%q);
		for (var i = 0; i < els.length; i++) {
			if ((els[i].innerText || '').indexOf(%q) !== -1) {
				els[i].click();
				return true;
			}
		}
		return false;
	})()`, sel, text), pause)
}

// ClickTextIn clicks the nth innermost element under scope whose text
// contains text, the element a user would see as the label.
func ClickTextIn(scope, text string, nth int, pause time.Duration) chromedp.Action {
	return clickJS(fmt.Sprintf(`(function() {
		var root = document.querySelector(%q);
		if (!root) return false;
		var els = Array.prototype.filter.call(root.querySelectorAll('*'), function(e) {
			return (e.innerText || '').indexOf(%q) !== -1;
		});
		var leaves = els.filter(function(e) {
			return !els.some(function(o) { return o !== e && e.contains(o); });
		});
		if (leaves.length <= %d) return false;
		leaves[%d].click();
		return true;
	})()`, scope, text, nth, nth), pause)
}

// clickJS evaluates js, which reports whether it clicked, and pauses after a
// click. Evaluation errors are ignored like a missing element.
func clickJS(js string, pause time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(js, &clicked).Do(ctx); err != nil {
			return nil
		}
		if clicked && pause > 0 {
			return chromedp.Sleep(pause).Do(ctx)
		}
		return nil
	})
}

// Fill types value into the input matching sel.
func Fill(sel, value string, pause time.Duration) chromedp.Action {
	return chromedp.Tasks{
		chromedp.SetValue(sel, "", chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
		chromedp.Sleep(pause),
	}
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
