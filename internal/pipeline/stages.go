package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/etender-index/internal/classify"
	"github.com/jonathan/etender-index/internal/collect"
	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/fetch"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/normalize"
	"github.com/jonathan/etender-index/internal/prompts"
	"github.com/jonathan/etender-index/internal/ranking"
	"github.com/jonathan/etender-index/internal/tables"
	"github.com/jonathan/etender-index/internal/types"
)

// NewSource builds the page fetcher described by the source configuration.
func NewSource(cfg *config.Config, log *logger.Logger) *fetch.PageFetcher {
	return fetch.NewPageFetcher(fetch.OptionsFromConfig(cfg.Source), log)
}

// Fetch collects every month of the configured period, storing raw page snapshots
// under the raw directory. Failed months are reported in the summary; the error is
// non-nil only for an invalid period, storage failures or cancellation.
func Fetch(ctx context.Context, cfg *config.Config, source collect.PageSource, log *logger.Logger) ([]types.TenderRecord, *collect.PeriodSummary, error) {
	collector := collect.NewCollector(source, collect.NewSnapshotStore(cfg.Output.RawDir), collect.Options{
		StartPage: cfg.Source.StartPage,
		MaxPages:  cfg.Source.MaxPages,
		PageDelay: cfg.Source.PageDelay.Std(),
	}, log)

	return collector.FetchPeriod(ctx, cfg.Period.StartYear, cfg.Period.EndYear)
}

// BuildMaster normalizes records into the master table and writes it to the master
// CSV path.
func BuildMaster(cfg *config.Config, records []types.TenderRecord) (*types.Table, normalize.Stats, error) {
	master, stats := normalize.New(fieldKeys(cfg.Fields)).BuildMasterTable(records)
	if err := tables.Write(cfg.Output.MasterCSV, master); err != nil {
		return nil, stats, err
	}
	return master, stats, nil
}

func fieldKeys(f config.FieldsConfig) normalize.FieldKeys {
	return normalize.FieldKeys{
		ID:        f.ID,
		Title:     f.Title,
		Date:      f.Date,
		Amount:    f.Amount,
		Buyer:     f.Buyer,
		BuyerName: f.BuyerName,
	}
}

// RebuildMaster rebuilds the master table from the snapshots already on disk.
func RebuildMaster(cfg *config.Config, log *logger.Logger) (*types.Table, normalize.Stats, error) {
	log = orNop(log)
	store := collect.NewSnapshotStore(cfg.Output.RawDir)
	snapshots, err := store.List()
	if err != nil {
		return nil, normalize.Stats{}, err
	}

	var records []types.TenderRecord
	for _, s := range snapshots {
		batch, err := store.Load(s.Path)
		if err != nil {
			return nil, normalize.Stats{}, err
		}
		records = append(records, batch...)
	}
	log.Info("loaded snapshots", "files", len(snapshots), "rows", len(records), "dir", store.Root())

	return BuildMaster(cfg, records)
}

// Classify labels the classify input CSV and writes the classified CSV.
func Classify(ctx context.Context, cfg *config.Config, c classify.Classifier, log *logger.Logger) (*classify.Result, error) {
	log = orNop(log)
	input := cfg.ClassifyInput()
	table, err := tables.Read(input)
	if err != nil {
		return nil, err
	}
	log.Info("classifying", "input", input, "rows", table.Len(), "policy", cfg.Classify.Policy)
	prompts.SetOverrideDir(cfg.Classify.PromptDir)

	result, err := classify.ClassifyTable(ctx, c, table, classify.OptionsFromConfig(cfg.Classify, log))
	if err != nil {
		return nil, err
	}
	if err := tables.Write(cfg.Output.ClassifiedCSV, result.Table); err != nil {
		return nil, err
	}
	return result, nil
}

// Aggregate scores records and writes the ranking CSV.
func Aggregate(cfg *config.Config, records []types.ClassifiedRecord) ([]types.RankingRow, error) {
	rows := ranking.Aggregate(records, ranking.OptionsFromConfig(cfg.Classify))
	if err := tables.WriteRanking(cfg.Output.RankingCSV, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateFile scores the classified CSV on disk.
func AggregateFile(cfg *config.Config) ([]types.RankingRow, error) {
	table, err := tables.Read(cfg.Output.ClassifiedCSV)
	if err != nil {
		return nil, err
	}
	records, err := ranking.RecordsFromTable(table, cfg.Classify.GroupColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Output.ClassifiedCSV, err)
	}
	return Aggregate(cfg, records)
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
