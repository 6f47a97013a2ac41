// Package pipeline orchestrates the fetch, master, classify and aggregate steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/etender-index/internal/classify"
	"github.com/jonathan/etender-index/internal/collect"
	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/db"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/normalize"
	"github.com/jonathan/etender-index/internal/observability"
	"github.com/jonathan/etender-index/internal/pipeline/steps"
	"github.com/jonathan/etender-index/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Rows    int    `json:"rows"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Config *config.Config
	// From names the first step to run; empty runs every step.
	From string
	// Source overrides the page fetcher built from Config.
	Source collect.PageSource
	// Classifier overrides the LLM classifier built from Config.
	Classifier classify.Classifier
	Logger     *logger.Logger
	// Printer, when set, receives console summaries after each step.
	Printer    *observability.Printer
	OnProgress ProgressCallback
}

// Result holds what each executed step produced
type Result struct {
	RunID       uuid.UUID
	Steps       []string
	Period      *collect.PeriodSummary
	Master      *types.Table
	MasterStats normalize.Stats
	Classified  *classify.Result
	Ranking     []types.RankingRow
}

func emitProgress(opts *RunOptions, runID uuid.UUID, step, message string, rows int, content any) {
	if opts.OnProgress == nil {
		return
	}
	ev := ProgressEvent{Step: step, Message: message, Rows: rows, Content: content}
	if runID != uuid.Nil {
		ev.RunID = runID.String()
	}
	opts.OnProgress(ev)
}

// Run executes the planned steps in order. Steps are strictly sequential and
// cancellation of ctx stops the run at the next blocking call. Database persistence
// is used only when Config.DatabaseURL is set and never fails the run.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	log := orNop(opts.Logger)

	plan, err := steps.Plan(cfg, opts.From)
	if err != nil {
		return nil, err
	}

	rec := openRecorder(ctx, cfg, log)
	defer rec.close()

	res := &Result{RunID: rec.runID, Steps: plan}
	var records []types.TenderRecord

	for i, step := range plan {
		log.Info(fmt.Sprintf("step %d/%d: %s", i+1, len(plan), step))
		rec.startStep(ctx, step)

		rows, err := runStep(ctx, &opts, step, res, &records, rec, log)
		rec.finishStep(ctx, step, rows, err)
		if err != nil {
			rec.complete(ctx, db.RunStatusFailed)
			return res, fmt.Errorf("%s step failed: %w", step, err)
		}
		emitProgress(&opts, rec.runID, step, steps.StepRegistry[step].Description, rows, nil)
	}

	rec.complete(ctx, db.RunStatusCompleted)
	return res, nil
}

func runStep(ctx context.Context, opts *RunOptions, step string, res *Result, records *[]types.TenderRecord, rec *recorder, log *logger.Logger) (int, error) {
	cfg := opts.Config
	p := opts.Printer

	switch step {
	case db.StepFetch:
		source := opts.Source
		if source == nil {
			source = NewSource(cfg, log)
		}
		all, summary, err := Fetch(ctx, cfg, source, log)
		res.Period = summary
		*records = all
		if p != nil {
			p.PrintPeriodSummary(summary)
		}
		return len(all), err

	case db.StepMaster:
		var (
			master *types.Table
			stats  normalize.Stats
			err    error
		)
		if res.Period != nil {
			master, stats, err = BuildMaster(cfg, *records)
		} else {
			master, stats, err = RebuildMaster(cfg, log)
		}
		if err != nil {
			return 0, err
		}
		res.Master, res.MasterStats = master, stats
		rec.saveMaster(ctx, master)
		if p != nil {
			p.PrintMasterStats(cfg.Output.MasterCSV, stats)
		}
		return master.Len(), nil

	case db.StepClassify:
		c := opts.Classifier
		if c == nil {
			llmc, err := classify.NewLLMClassifier(ctx, cfg.Classify.APIKey, cfg.Classify.Model)
			if err != nil {
				return 0, err
			}
			defer func() { _ = llmc.Close() }()
			c = llmc
		}
		result, err := Classify(ctx, cfg, c, log)
		if err != nil {
			return 0, err
		}
		res.Classified = result
		if p != nil {
			p.PrintCategoryCounts(result.Records, result.Failures)
		}
		return result.Table.Len(), nil

	case db.StepAggregate:
		var (
			rows []types.RankingRow
			err  error
		)
		if res.Classified != nil {
			rows, err = Aggregate(cfg, res.Classified.Records)
		} else {
			rows, err = AggregateFile(cfg)
		}
		if err != nil {
			return 0, err
		}
		res.Ranking = rows
		rec.saveRanking(ctx, rows)
		if p != nil {
			p.PrintRanking(rows, cfg.Classify.TopN)
		}
		return len(rows), nil
	}
	return 0, fmt.Errorf("unknown step: %s", step)
}
