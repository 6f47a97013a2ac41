// Package fetch retrieves one listing page at a time from the tender source and
// classifies each response into a page state (see State).
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/window"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "aihub-bot/1.0 (+github actions)"

// Accept headers per source mode.
const (
	AcceptJSON = "application/json, */*;q=0.8"
	AcceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
)

// Options configures the page fetcher.
type Options struct {
	BaseURL     string
	PageParam   string
	FromParam   string
	ToParam     string
	Mode        string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	RetrySleep  time.Duration
	BatchKeys   []string
	RowSelector string
	UseBrowser  bool
	Headers     map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		PageParam:   "page",
		FromParam:   "from",
		ToParam:     "to",
		Mode:        config.ModeJSON,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		MaxAttempts: 3,
		RetrySleep:  5 * time.Second,
		BatchKeys:   DefaultBatchKeys,
		RowSelector: DefaultRowSelector,
	}
}

// OptionsFromConfig maps the source section of the configuration onto Options.
func OptionsFromConfig(src config.SourceConfig) *Options {
	return &Options{
		BaseURL:     src.BaseAPI,
		PageParam:   src.PageParam,
		FromParam:   src.FromParam,
		ToParam:     src.ToParam,
		Mode:        src.Mode,
		UserAgent:   src.UserAgent,
		Timeout:     src.Timeout.Std(),
		MaxAttempts: src.MaxAttempts,
		RetrySleep:  src.RetrySleep.Std(),
		BatchKeys:   src.BatchKeys,
		RowSelector: src.RowSelector,
		UseBrowser:  src.UseBrowser,
	}
}

// PageResult is the final state of one page fetch.
type PageResult struct {
	Page       int
	URL        string
	State      State
	Batch      Batch
	Attempts   int
	StatusCode int
}

// Empty reports whether the page ended pagination without error.
func (r *PageResult) Empty() bool {
	return r.State == StateSucceededEmpty
}

// Renderer returns the rendered HTML of a URL (headless browser).
type Renderer func(ctx context.Context, url string) (string, error)

// PageFetcher issues one request per (page, window) and runs the retry state machine.
// It is not safe for concurrent use; pages are fetched strictly one at a time.
type PageFetcher struct {
	client *resty.Client
	opts   Options
	render Renderer
	log    *logger.Logger
}

// NewPageFetcher creates a fetcher. A nil log discards output.
func NewPageFetcher(opts *Options, log *logger.Logger) *PageFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if len(o.BatchKeys) == 0 {
		o.BatchKeys = DefaultBatchKeys
	}
	if log == nil {
		log = logger.Nop()
	}

	accept := AcceptJSON
	if o.Mode == config.ModeHTML {
		accept = AcceptHTML
	}

	client := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("User-Agent", o.UserAgent).
		SetHeader("Accept", accept).
		SetHeader("Connection", "keep-alive").
		SetHeaders(o.Headers)

	f := &PageFetcher{client: client, opts: o, log: log}
	if o.UseBrowser {
		f.render = func(ctx context.Context, u string) (string, error) {
			return WithBrowser(ctx, u, BrowserOptions{
				Timeout:     o.Timeout,
				UserAgent:   o.UserAgent,
				RowSelector: o.RowSelector,
			}, log)
		}
	}
	return f
}

// WithRenderer replaces the browser renderer (used in HTML mode when set).
func (f *PageFetcher) WithRenderer(r Renderer) *PageFetcher {
	f.render = r
	return f
}

// PageURL builds {base}?{page}=n&{from}=YYYY-MM-DD&{to}=YYYY-MM-DD, keeping any
// query already present on the base URL.
func (f *PageFetcher) PageURL(page int, from, to time.Time) (string, error) {
	u, err := url.Parse(f.opts.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &Error{Kind: KindUpstream, URL: f.opts.BaseURL, Message: "invalid API url", Cause: err}
	}
	q := u.Query()
	q.Set(f.opts.PageParam, strconv.Itoa(page))
	q.Set(f.opts.FromParam, from.Format(window.DateLayout))
	q.Set(f.opts.ToParam, to.Format(window.DateLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage fetches one page for the date window. The returned result is never nil;
// the error is non-nil exactly when the result state is StateTerminalError.
func (f *PageFetcher) FetchPage(ctx context.Context, page int, from, to time.Time) (*PageResult, error) {
	result := &PageResult{Page: page, State: StatePending}

	pageURL, err := f.PageURL(page, from, to)
	if err != nil {
		result.State = StateTerminalError
		return result, err
	}
	result.URL = pageURL
	log := f.log.With("page", page, "url", pageURL)

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt

		o, body, batch := f.attempt(ctx, pageURL)
		result.StatusCode = o.status
		next := transition(o, attempt, f.opts.MaxAttempts)

		switch next {
		case StateSucceeded, StateSucceededEmpty:
			result.State = next
			result.Batch = batch
			if next == StateSucceededEmpty {
				log.Info("empty page", "status", o.status)
			} else {
				log.Debug("page fetched", "rows", batch.Len(), "attempt", attempt)
			}
			return result, nil

		case StateRetrying:
			result.State = next
			log.Warn("retrying page",
				"kind", failureKind(o),
				"status", o.status,
				"attempt", attempt,
				"max_attempts", f.opts.MaxAttempts,
				"sleep", f.opts.RetrySleep,
				"error", o.transportErr,
			)
			if err := sleepCtx(ctx, f.opts.RetrySleep); err != nil {
				result.State = StateTerminalError
				return result, &Error{Kind: KindNetwork, URL: pageURL, Message: "cancelled while waiting to retry", Cause: err}
			}

		default:
			result.State = StateTerminalError
			fetchErr := f.terminalError(o, pageURL, body, attempt)
			log.Warn("stopping on page", "kind", fetchErr.Kind, "status", o.status, "attempts", attempt, "error", fetchErr.Message)
			return result, fetchErr
		}
	}
}

// attempt performs one request and decodes the body when the status allows.
func (f *PageFetcher) attempt(ctx context.Context, pageURL string) (outcome, []byte, Batch) {
	if err := ctx.Err(); err != nil {
		return outcome{transportErr: err}, nil, Batch{}
	}

	if f.opts.Mode == config.ModeHTML && f.render != nil {
		html, err := f.render(ctx, pageURL)
		if err != nil {
			return outcome{transportErr: err}, nil, Batch{}
		}
		batch, err := ParseHTMLTable(html, f.opts.RowSelector)
		return outcome{status: 200, decodeErr: err, batchSize: batch.Len()}, []byte(html), batch
	}

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return outcome{transportErr: err}, nil, Batch{}
	}

	o := outcome{status: resp.StatusCode()}
	body := resp.Body()
	if o.status < 200 || o.status >= 300 {
		return o, body, Batch{}
	}

	var batch Batch
	if f.opts.Mode == config.ModeHTML {
		batch, err = ParseHTMLTable(string(body), f.opts.RowSelector)
	} else {
		batch, err = ExtractBatch(body, f.opts.BatchKeys)
	}
	o.decodeErr = err
	o.batchSize = batch.Len()
	return o, body, batch
}

func (f *PageFetcher) terminalError(o outcome, pageURL string, body []byte, attempts int) *Error {
	kind := failureKind(o)
	e := &Error{Kind: kind, URL: pageURL, StatusCode: o.status}

	switch kind {
	case KindNetwork:
		e.Message = fmt.Sprintf("request failed after %d attempt(s)", attempts)
		e.Cause = o.transportErr
		e.Retryable = true
	case KindRateLimited:
		e.Message = fmt.Sprintf("still rate limited after %d attempt(s)", attempts)
		e.Retryable = true
	case KindUpstream:
		e.Message = fmt.Sprintf("stop on status %d; body: %q", o.status, snippet(body, 200))
		e.Retryable = o.status >= 500
	case KindDecode:
		e.Message = fmt.Sprintf("undecodable body: %q", snippet(body, 200))
		e.Cause = o.decodeErr
	}
	return e
}

// sleepCtx waits for d or until ctx is done.
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
