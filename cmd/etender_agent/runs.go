package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/db"
	"github.com/jonathan/etender-index/internal/observability"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	Long:  "Lists the most recent pipeline runs stored in Postgres with the status and row count of each step. With --ranking, prints the ranking saved by one run.",
	RunE:  runListRuns,
}

var (
	runsDBURL   string
	runsLimit   int
	runsRanking string
)

func init() {
	runsCmd.Flags().StringVar(&runsDBURL, "db-url", "", "Postgres URL (defaults to DATABASE_URL)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "Number of runs to list")
	runsCmd.Flags().StringVar(&runsRanking, "ranking", "", "Print the saved ranking of this run ID")

	rootCmd.AddCommand(runsCmd)
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(cmd *cobra.Command, cfg *config.Config) {
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = runsDBURL
		}
	})
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database URL is required (use --db-url or DATABASE_URL)")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	p := observability.NewPrinter(cmd.OutOrStdout())

	if runsRanking != "" {
		runID, err := uuid.Parse(runsRanking)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", runsRanking, err)
		}
		rows, err := database.GetRanking(ctx, runID)
		if err != nil {
			return err
		}
		p.PrintRanking(rows, cfg.Classify.TopN)
		return nil
	}

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	steps := make(map[uuid.UUID][]db.RunStep, len(runs))
	for _, r := range runs {
		s, err := database.ListRunSteps(ctx, r.ID)
		if err != nil {
			return err
		}
		steps[r.ID] = s
	}
	p.PrintRuns(runs, steps)
	return nil
}
