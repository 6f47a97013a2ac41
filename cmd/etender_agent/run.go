package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/observability"
	"github.com/jonathan/etender-index/internal/pipeline"
	"github.com/jonathan/etender-index/internal/pipeline/steps"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: fetch, build_master, classify, aggregate",
	Long: `Runs the pipeline steps in order. Use --from to resume at a later step; its input
artifact must already exist on disk.

When a database URL is configured the run, its steps, the master rows and the ranking
are recorded in Postgres. Recording failures are logged and never stop the run.`,
	RunE: runPipeline,
}

var (
	runFrom      string
	runStartYear int
	runEndYear   int
	runBaseAPI   string
	runPolicy    string
	runAPIKey    string
	runDBURL     string
	runTop       int
)

func init() {
	runCmd.Flags().StringVar(&runFrom, "from", "", "First step to run ("+strings.Join(steps.Order, ", ")+")")
	runCmd.Flags().IntVar(&runStartYear, "start-year", 0, "First year of the period")
	runCmd.Flags().IntVar(&runEndYear, "end-year", 0, "Last year of the period")
	runCmd.Flags().StringVar(&runBaseAPI, "base-api", "", "Listing endpoint (defaults to ETENDER_BASE_API)")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "Classification failure policy: strict or sentinel")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCmd.Flags().StringVar(&runDBURL, "db-url", "", "Postgres URL for run history (defaults to DATABASE_URL)")
	runCmd.Flags().IntVar(&runTop, "top", 0, "Ranking rows to print (defaults to 10)")

	rootCmd.AddCommand(runCmd)
}

func runOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("start-year") {
		cfg.Period.StartYear = runStartYear
	}
	if flags.Changed("end-year") {
		cfg.Period.EndYear = runEndYear
	}
	if flags.Changed("base-api") {
		cfg.Source.BaseAPI = runBaseAPI
	}
	if flags.Changed("policy") {
		cfg.Classify.Policy = runPolicy
	}
	if flags.Changed("api-key") {
		cfg.Classify.APIKey = runAPIKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDBURL
	}
	if flags.Changed("top") {
		cfg.Classify.TopN = runTop
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, runOverrides)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	p := printer(cmd)
	res, err := pipeline.Run(cmd.Context(), pipeline.RunOptions{
		Config:  cfg,
		From:    runFrom,
		Logger:  log,
		Printer: p,
		OnProgress: func(ev pipeline.ProgressEvent) {
			log.Info("step completed", "step", ev.Step, "rows", ev.Rows, "run_id", ev.RunID)
		},
	})
	if err != nil {
		return err
	}

	// verbose mode already printed the ranking after the aggregate step
	if p == nil {
		observability.NewPrinter(cmd.OutOrStdout()).PrintRanking(res.Ranking, cfg.Classify.TopN)
	}
	stdout(cmd, "Pipeline finished: %s\n", strings.Join(res.Steps, " -> "))
	return nil
}
