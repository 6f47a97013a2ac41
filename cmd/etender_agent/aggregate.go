package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/observability"
	"github.com/jonathan/etender-index/internal/pipeline"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Score organizations from the classified CSV",
	Long:  "Groups classified rows by organization, computes DigitalShare, PaperPenalty and Score, writes the ranking CSV sorted by Score and prints the top rows.",
	RunE:  runAggregate,
}

var (
	aggregateInput  string
	aggregateOutput string
	aggregateTop    int
)

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateInput, "input", "i", "", "Classified CSV (defaults to ETENDER_CLASSIFIED_CSV)")
	aggregateCmd.Flags().StringVarP(&aggregateOutput, "out", "o", "", "Path of the ranking CSV")
	aggregateCmd.Flags().IntVar(&aggregateTop, "top", 0, "Rows to print (defaults to 10)")

	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(cmd *cobra.Command, cfg *config.Config) {
		if cmd.Flags().Changed("input") {
			cfg.Output.ClassifiedCSV = aggregateInput
		}
		if cmd.Flags().Changed("out") {
			cfg.Output.RankingCSV = aggregateOutput
		}
		if cmd.Flags().Changed("top") {
			cfg.Classify.TopN = aggregateTop
		}
	})
	if err != nil {
		return err
	}

	rows, err := pipeline.AggregateFile(cfg)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintRanking(rows, cfg.Classify.TopN)
	stdout(cmd, "Wrote %d ranking rows to %s\n", len(rows), cfg.Output.RankingCSV)
	return nil
}
