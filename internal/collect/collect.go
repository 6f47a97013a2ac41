// Package collect drives the page fetcher across pages of a month and months of a
// period, persisting every raw page as it goes.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/etender-index/internal/fetch"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/types"
	"github.com/jonathan/etender-index/internal/window"
)

// DefaultMaxPages bounds pagination within one month.
const DefaultMaxPages = 200

// PageSource fetches one page of a date window.
type PageSource interface {
	FetchPage(ctx context.Context, page int, from, to time.Time) (*fetch.PageResult, error)
}

// StopReason says why a month's pagination ended.
type StopReason string

// Stop reasons.
const (
	StopEmpty     StopReason = "empty"
	StopError     StopReason = "error"
	StopMaxPages  StopReason = "max_pages"
	StopCancelled StopReason = "cancelled"
)

// Options configures pagination.
type Options struct {
	StartPage int
	MaxPages  int
	PageDelay time.Duration
}

// MonthResult is everything collected for one month.
type MonthResult struct {
	Window     window.Window
	Records    []types.TenderRecord
	Pages      int
	Snapshots  []string
	StopReason StopReason
	Err        error
}

// Collector fetches months and periods sequentially.
type Collector struct {
	source PageSource
	store  *SnapshotStore
	opts   Options
	log    *logger.Logger
}

// NewCollector creates a collector. A nil log discards output.
func NewCollector(source PageSource, store *SnapshotStore, opts Options, log *logger.Logger) *Collector {
	if opts.MaxPages < 1 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.StartPage < 0 {
		opts.StartPage = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Collector{source: source, store: store, opts: opts, log: log}
}

// FetchMonth pages through one month until an empty page, a terminal fetch error or
// the page ceiling. Fetch failures end the month with a partial result and are
// reported in MonthResult.Err; the returned error is reserved for cancellation and
// storage failures.
func (c *Collector) FetchMonth(ctx context.Context, w window.Window) (*MonthResult, error) {
	result := &MonthResult{Window: w}
	log := c.log.With("month", w.Label())

	if err := c.store.EnsureMonth(w); err != nil {
		result.StopReason = StopError
		result.Err = err
		return result, err
	}

	page := c.opts.StartPage
	for {
		if result.Pages >= c.opts.MaxPages {
			result.StopReason = StopMaxPages
			log.Warn("page ceiling reached", "max_pages", c.opts.MaxPages)
			return result, nil
		}

		res, err := c.source.FetchPage(ctx, page, w.Start, w.End)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.StopReason = StopCancelled
				result.Err = err
				return result, ctxErr
			}
			result.StopReason = StopError
			result.Err = err
			log.Warn("month stopped on fetch error", "page", page, "kind", fetch.KindOf(err), "error", err)
			return result, nil
		}

		if res.Empty() {
			result.StopReason = StopEmpty
			log.Debug("pagination finished", "page", page)
			removed, err := c.store.Prune(w, page)
			if err != nil {
				log.Warn("failed to prune stale snapshots", "error", err)
			} else if len(removed) > 0 {
				log.Info("removed stale snapshots", "from_page", page, "count", len(removed))
			}
			return result, nil
		}

		path, err := c.store.Write(w, page, res.Batch.Raw)
		if err != nil {
			result.StopReason = StopError
			result.Err = err
			return result, err
		}
		log.Debug("saved page", "page", page, "rows", res.Batch.Len(), "path", path)

		result.Snapshots = append(result.Snapshots, path)
		result.Records = append(result.Records, res.Batch.Records...)
		result.Pages++
		page++

		if err := sleepCtx(ctx, c.opts.PageDelay); err != nil {
			result.StopReason = StopCancelled
			result.Err = err
			return result, err
		}
	}
}

// MonthSummary records the outcome of one month within a period.
type MonthSummary struct {
	Month      string     `json:"month"`
	Records    int        `json:"records"`
	Pages      int        `json:"pages"`
	StopReason StopReason `json:"stop_reason"`
	Error      string     `json:"error,omitempty"`
}

// PeriodSummary aggregates month outcomes.
type PeriodSummary struct {
	Months       []MonthSummary `json:"months"`
	TotalRecords int            `json:"total_records"`
	FailedMonths int            `json:"failed_months"`
}

// FetchPeriod fetches every month from January of startYear through December of
// endYear in order. A failing month never stops the loop; only cancellation does.
func (c *Collector) FetchPeriod(ctx context.Context, startYear, endYear int) ([]types.TenderRecord, *PeriodSummary, error) {
	summary := &PeriodSummary{}
	var all []types.TenderRecord

	windows := window.Months(startYear, endYear)
	if len(windows) == 0 {
		return nil, summary, fmt.Errorf("invalid period %d-%d", startYear, endYear)
	}

	for _, w := range windows {
		res, err := c.FetchMonth(ctx, w)
		all = append(all, res.Records...)

		ms := MonthSummary{
			Month:      w.Label(),
			Records:    len(res.Records),
			Pages:      res.Pages,
			StopReason: res.StopReason,
		}
		if res.Err != nil {
			ms.Error = res.Err.Error()
			summary.FailedMonths++
		}
		summary.Months = append(summary.Months, ms)
		summary.TotalRecords += len(res.Records)

		c.log.Info("month fetched", "month", w.Label(), "rows", len(res.Records), "pages", res.Pages, "stop", res.StopReason)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, summary, err
			}
			c.log.Error("month failed", "month", w.Label(), "error", err)
		}
	}

	return all, summary, nil
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
