package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/types"
)

// GroupColumn is added when the input carries none of the group columns.
const GroupColumn = "ministry"

// Options configures ClassifyTable.
type Options struct {
	// TextColumns are tried in order; the first present column supplies the text.
	TextColumns []string
	// GroupColumns are tried in order for the organization of each row.
	GroupColumns []string
	// Policy is config.PolicyStrict or config.PolicySentinel.
	Policy string
	// BatchSize > 1 enables batched requests when the classifier supports them.
	BatchSize int
	Logger    *logger.Logger
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TextColumns:  []string{"Description", "title"},
		GroupColumns: []string{GroupColumn, types.ColumnBuyer},
		Policy:       config.PolicySentinel,
	}
}

// OptionsFromConfig maps the classify section of the configuration onto Options.
func OptionsFromConfig(cfg config.ClassifyConfig, log *logger.Logger) Options {
	opts := DefaultOptions()
	if len(cfg.TextColumns) > 0 {
		opts.TextColumns = cfg.TextColumns
	}
	if len(cfg.GroupColumns) > 0 {
		opts.GroupColumns = cfg.GroupColumns
	}
	if cfg.Policy != "" {
		opts.Policy = cfg.Policy
	}
	opts.BatchSize = cfg.BatchSize
	opts.Logger = log
	return opts
}

// Result is a classified table and the per-row records scoring needs.
type Result struct {
	Table    *types.Table
	Records  []types.ClassifiedRecord
	Failures int
}

// ClassifyTable labels every row of table and returns a copy with a Category column
// appended. Rows without an organization are grouped as types.UnknownGroup; when no
// group column exists at all, a ministry column of UnknownGroup is added.
//
// Under the strict policy the first failed row aborts with a *ClassificationError
// carrying the row index. Under the sentinel policy the row is labeled Other and
// processing continues. Cancellation always aborts.
func ClassifyTable(ctx context.Context, c Classifier, table *types.Table, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Policy == "" {
		opts.Policy = config.PolicySentinel
	}

	textIdx := table.FirstIndex(opts.TextColumns...)
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: need one of %s", ErrNoTextColumn, strings.Join(opts.TextColumns, ", "))
	}

	work := table
	groupIdx := table.FirstIndex(opts.GroupColumns...)
	if groupIdx < 0 {
		filler := make([]string, table.Len())
		for i := range filler {
			filler[i] = types.UnknownGroup
		}
		work = table.WithColumn(GroupColumn, filler)
		groupIdx = len(work.Columns) - 1
	}

	texts := make([]string, work.Len())
	for i := range texts {
		texts[i] = work.Cell(i, textIdx)
	}

	labels, failures, err := labelAll(ctx, c, texts, opts, log)
	if err != nil {
		return nil, err
	}

	records := make([]types.ClassifiedRecord, work.Len())
	for i := range records {
		group := strings.TrimSpace(work.Cell(i, groupIdx))
		if group == "" {
			group = types.UnknownGroup
		}
		records[i] = types.ClassifiedRecord{Ministry: group, Text: texts[i], Category: labels[i]}
	}

	log.Info("classification complete", "rows", len(labels), "failures", failures, "policy", opts.Policy)
	return &Result{
		Table:    work.WithColumn(types.ColumnCategory, labels),
		Records:  records,
		Failures: failures,
	}, nil
}

func labelAll(ctx context.Context, c Classifier, texts []string, opts Options, log *logger.Logger) ([]string, int, error) {
	labels := make([]string, len(texts))
	failures := 0

	batcher, canBatch := c.(BatchClassifier)
	step := 1
	if canBatch && opts.BatchSize > 1 {
		step = opts.BatchSize
	}

	for start := 0; start < len(texts); start += step {
		end := min(start+step, len(texts))

		if step > 1 {
			got, err := batcher.ClassifyBatch(ctx, texts[start:end])
			if err == nil {
				copy(labels[start:end], got)
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, failures, ctxErr
			}
			log.Warn("batch classification failed; falling back to single rows",
				"first_row", start, "rows", end-start, "error", err)
		}

		for i := start; i < end; i++ {
			label, err := classifyRow(ctx, c, i, texts[i])
			if err == nil {
				labels[i] = label
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, failures, ctxErr
			}

			failures++
			log.Error("row classification failed", "row", i, "policy", opts.Policy, "error", err)
			if opts.Policy == config.PolicyStrict {
				return nil, failures, err
			}
			labels[i] = Other
		}
	}
	return labels, failures, nil
}

func classifyRow(ctx context.Context, c Classifier, row int, text string) (string, error) {
	label, err := c.Classify(ctx, text)
	if err != nil {
		if ce, ok := err.(*ClassificationError); ok {
			return "", &ClassificationError{Row: row, Message: ce.Message, Cause: ce.Cause}
		}
		return "", &ClassificationError{Row: row, Message: "classifier failed", Cause: err}
	}
	return label, nil
}
