package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/etender-index/internal/logger"
)

// BrowserOptions controls headless rendering of a listing page.
type BrowserOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RowSelector is polled until a listing row exists; a month without tenders
	// never gets one, so the wait is bounded by RowWait.
	RowSelector string
	RowWait     time.Duration
}

// defaultRowWait bounds the wait for client-side rows.
const defaultRowWait = 5 * time.Second

// WithBrowser renders a listing page in a headless browser and returns the HTML.
// Used in HTML mode when the listing table is built client-side.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, opts BrowserOptions, log *logger.Logger) (string, error) {
	log.Debug("starting headless browser", "url", url)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		waitForRows(opts, log),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered listing", "url", url, "bytes", len(html))
	return html, nil
}

// waitForRows polls for the first listing row. Running out of RowWait is not an
// error: the page is then parsed as it is, which yields an empty batch.
func waitForRows(opts BrowserOptions, log *logger.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if opts.RowSelector == "" {
			return nil
		}
		wait := opts.RowWait
		if wait <= 0 {
			wait = defaultRowWait
		}

		var found bool
		expr := "document.querySelector(" + strconv.Quote(opts.RowSelector) + ") !== null"
		err := chromedp.Poll(expr, &found, chromedp.WithPollingTimeout(wait)).Do(ctx)
		if err != nil && ctx.Err() == nil {
			log.Debug("no listing rows rendered", "selector", opts.RowSelector, "wait", wait)
			return nil
		}
		return err
	})
}
