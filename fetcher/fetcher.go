package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/klipworks/kliping/config"
	"github.com/klipworks/kliping/models"
)

// RenderedPage is the output of a successful fetch.
type RenderedPage struct {
	// HTML is the rendered document, possibly partial if the marker
	// wait timed out.
	HTML string

	// FinalURL is the page URL after redirects. Relative hrefs in the
	// document resolve against it.
	FinalURL string
}

// Fetcher manages the browser process and produces rendered DOMs for
// target URLs. It is safe for concurrent use; every Fetch call runs in
// its own incognito browser context so concurrent runs never share
// cookies, storage, or history.
type Fetcher struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	fetchCfg   config.FetcherConfig
}

// New launches a headless browser and connects to it.
func New(browserCfg config.BrowserConfig, fetchCfg config.FetcherConfig) (*Fetcher, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Fetcher{
		browser:    browser,
		browserCfg: browserCfg,
		fetchCfg:   fetchCfg,
	}, nil
}

// Fetch navigates an isolated browser session to targetURL, waits up to
// the marker timeout for waitSelector to appear, and returns the
// rendered document.
//
// A marker-wait timeout is not an error: search pages sometimes render
// without results, and the extractor tolerates zero matches. The
// session is torn down on every exit path.
func (f *Fetcher) Fetch(ctx context.Context, targetURL, waitSelector string) (*RenderedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.fetchCfg.NavTimeout+f.fetchCfg.MarkerTimeout)
	defer cancel()

	// Fresh incognito context per call: no session state bleeds across
	// concurrent runs.
	incognito, err := f.browser.Incognito()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to create incognito context",
			err,
		)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}
	// Close via the original reference so cleanup succeeds even after
	// the request context has expired.
	defer func() { _ = page.Close() }()

	// Search engines behave better with a plausible Referer.
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	p := page.Context(ctx)

	if err := p.Timeout(f.fetchCfg.NavTimeout).Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	// Bounded wait for the result container. On timeout, proceed with
	// whatever DOM exists.
	if waitSelector != "" {
		if _, waitErr := p.Timeout(f.fetchCfg.MarkerTimeout).Element(waitSelector); waitErr != nil {
			slog.Warn("marker did not appear, using partial DOM",
				"url", targetURL,
				"selector", waitSelector,
				"error", waitErr,
			)
		}
	} else {
		if stableErr := p.Timeout(f.fetchCfg.MarkerTimeout).WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
				"error", stableErr,
			)
		}
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	return &RenderedPage{
		HTML:     rawHTML,
		FinalURL: finalURL,
	}, nil
}

// Close kills the browser process. Call this on graceful shutdown to
// prevent zombie Chrome processes.
func (f *Fetcher) Close() {
	slog.Info("fetcher shutting down: closing browser")
	f.browser.MustClose()
	slog.Info("fetcher shutdown complete")
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
