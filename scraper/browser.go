package scraper

import (
	"context"
	"fmt"
	"os"
	"time"

	"imacwatch/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// systemChromium lists the browser binaries tried before rod downloads its own
var systemChromium = []string{
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
}

const scrollScript = `() => window.scrollBy(0, window.innerHeight)`

// RenderedPage is the DOM of a page after scripts have run
type RenderedPage struct {
	URL   string
	Title string
	HTML  string
	// Ready is false when no item selector showed up before the ready timeout
	Ready bool
}

// BrowserRenderer renders pages in a headless Chromium
type BrowserRenderer struct {
	cfg            config.BrowserConfig
	readySelectors []string
	launcher       *launcher.Launcher
	browser        *rod.Browser
	logger         *zap.Logger
}

// NewBrowserRenderer launches the browser. readySelectors are polled after
// navigation to decide that product entries have rendered.
func NewBrowserRenderer(cfg config.BrowserConfig, readySelectors []string, logger *zap.Logger) (*BrowserRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Leakless(cfg.Leakless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage")

	if bin := resolveBrowserBin(cfg.Bin); bin != "" {
		l = l.Bin(bin)
		logger.Info("Using system Chromium", zap.String("bin", bin))
	} else {
		logger.Info("Using auto-detected Chromium")
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.Debug("Browser launched", zap.String("control_url", controlURL))

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserRenderer{
		cfg:            cfg,
		readySelectors: readySelectors,
		launcher:       l,
		browser:        browser,
		logger:         logger,
	}, nil
}

// resolveBrowserBin picks the configured binary, then a system install, then
// whatever rod finds on the path. An empty result lets rod download one.
func resolveBrowserBin(configured string) string {
	if configured != "" {
		return configured
	}
	for _, bin := range systemChromium {
		if _, err := os.Stat(bin); err == nil {
			return bin
		}
	}
	if bin, ok := launcher.LookPath(); ok {
		return bin
	}
	return ""
}

// Render navigates to url and returns the rendered DOM. Running out of ready
// time is not an error; the page is returned with Ready unset.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (*RenderedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.NavigationTimeout)
	defer cancel()

	base, err := r.newPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := base.Close(); err != nil {
			r.logger.Debug("Page close failed", zap.Error(err))
		}
	}()

	// Set viewport to a regular desktop
	if err := base.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if r.cfg.UserAgent != "" {
		if err := base.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      r.cfg.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	page := base.Context(ctx)

	r.logger.Info("🔍 Loading page", zap.String("url", url))
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	ready, err := r.waitForEntries(ctx, page)
	if err != nil {
		return nil, err
	}
	if !ready {
		r.logger.Warn("⚠️  No product entries rendered before timeout",
			zap.Duration("ready_timeout", r.cfg.ReadyTimeout))
	}

	if err := r.scroll(ctx, page); err != nil {
		return nil, err
	}

	// Lazy tiles may keep mutating; a page that never settles is still usable
	if err := page.Timeout(r.cfg.SettleTimeout).WaitStable(r.cfg.PollInterval); err != nil {
		r.logger.Debug("Page did not settle", zap.Error(err))
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}

	rendered := &RenderedPage{URL: url, HTML: html, Ready: ready}
	if info, err := page.Info(); err == nil {
		rendered.Title = info.Title
		if info.URL != "" {
			rendered.URL = info.URL
		}
	}

	return rendered, nil
}

func (r *BrowserRenderer) newPage() (*rod.Page, error) {
	if r.cfg.Stealth {
		return stealth.Page(r.browser)
	}
	return r.browser.Page(proto.TargetCreateTarget{})
}

// waitForEntries polls the ready selectors until one of them matches or the
// ready timeout passes
func (r *BrowserRenderer) waitForEntries(ctx context.Context, page *rod.Page) (bool, error) {
	if len(r.readySelectors) == 0 {
		return true, nil
	}

	deadline := time.Now().Add(r.cfg.ReadyTimeout)
	for {
		for _, sel := range r.readySelectors {
			has, _, err := page.Has(sel)
			if err != nil {
				if ctx.Err() != nil {
					return false, fmt.Errorf("waiting for product entries: %w", ctx.Err())
				}
				continue
			}
			if has {
				r.logger.Debug("Product entries rendered", zap.String("selector", sel))
				return true, nil
			}
		}

		if time.Now().After(deadline) {
			return false, nil
		}
		if err := sleepCtx(ctx, r.cfg.PollInterval); err != nil {
			return false, fmt.Errorf("waiting for product entries: %w", err)
		}
	}
}

// scroll walks down the page so lazy-loaded tiles render
func (r *BrowserRenderer) scroll(ctx context.Context, page *rod.Page) error {
	for i := 0; i < r.cfg.ScrollSteps; i++ {
		if _, err := page.Eval(scrollScript); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("scrolling page: %w", ctx.Err())
			}
			r.logger.Debug("Scroll step failed", zap.Int("step", i), zap.Error(err))
			return nil
		}
		if err := sleepCtx(ctx, r.cfg.ScrollPause); err != nil {
			return fmt.Errorf("scrolling page: %w", err)
		}
	}
	return nil
}

// Close shuts the browser down and removes its profile directory
func (r *BrowserRenderer) Close() {
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			r.logger.Debug("Browser close failed", zap.Error(err))
		}
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
	r.logger.Debug("Browser closed")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
