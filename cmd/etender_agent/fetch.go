package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every month of the period and build the master table",
	Long: `Pages through the tender source month by month from January of --start-year to
December of --end-year. Every non-empty page is stored as a raw snapshot under the raw
directory; the collected rows are then normalized into the master CSV.

A month that fails keeps the rows fetched before the failure and the run moves on to
the next month.`,
	RunE: runFetch,
}

var (
	fetchStartYear  int
	fetchEndYear    int
	fetchBaseAPI    string
	fetchMode       string
	fetchMaxPages   int
	fetchUseBrowser bool
	fetchRawDir     string
	fetchOutput     string
)

func init() {
	fetchCmd.Flags().IntVar(&fetchStartYear, "start-year", 0, "First year of the period (defaults to ETENDER_START_YEAR or the current year)")
	fetchCmd.Flags().IntVar(&fetchEndYear, "end-year", 0, "Last year of the period (defaults to ETENDER_END_YEAR or the current year)")
	fetchCmd.Flags().StringVar(&fetchBaseAPI, "base-api", "", "Listing endpoint (defaults to ETENDER_BASE_API)")
	fetchCmd.Flags().StringVar(&fetchMode, "mode", "", "Source mode: json or html")
	fetchCmd.Flags().IntVar(&fetchMaxPages, "max-pages", 0, "Page ceiling per month")
	fetchCmd.Flags().BoolVar(&fetchUseBrowser, "use-browser", false, "Render pages with headless Chrome (html mode only)")
	fetchCmd.Flags().StringVar(&fetchRawDir, "raw-dir", "", "Directory for raw page snapshots")
	fetchCmd.Flags().StringVarP(&fetchOutput, "out", "o", "", "Path of the master CSV")

	rootCmd.AddCommand(fetchCmd)
}

func fetchOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("start-year") {
		cfg.Period.StartYear = fetchStartYear
	}
	if flags.Changed("end-year") {
		cfg.Period.EndYear = fetchEndYear
	}
	if flags.Changed("base-api") {
		cfg.Source.BaseAPI = fetchBaseAPI
	}
	if flags.Changed("mode") {
		cfg.Source.Mode = fetchMode
	}
	if flags.Changed("max-pages") {
		cfg.Source.MaxPages = fetchMaxPages
	}
	if flags.Changed("use-browser") {
		cfg.Source.UseBrowser = fetchUseBrowser
	}
	if flags.Changed("raw-dir") {
		cfg.Output.RawDir = fetchRawDir
	}
	if flags.Changed("out") {
		cfg.Output.MasterCSV = fetchOutput
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, fetchOverrides)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Info("fetching period", "start_year", cfg.Period.StartYear, "end_year", cfg.Period.EndYear, "source", cfg.Source.BaseAPI)

	records, summary, err := pipeline.Fetch(cmd.Context(), cfg, pipeline.NewSource(cfg, log), log)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if p := printer(cmd); p != nil {
		p.PrintPeriodSummary(summary)
	}

	master, stats, err := pipeline.BuildMaster(cfg, records)
	if err != nil {
		return fmt.Errorf("failed to build master table: %w", err)
	}
	if p := printer(cmd); p != nil {
		p.PrintMasterStats(cfg.Output.MasterCSV, stats)
	}

	stdout(cmd, "Fetched %d rows (%d month(s) with errors); wrote %d master rows to %s\n",
		summary.TotalRecords, summary.FailedMonths, master.Len(), cfg.Output.MasterCSV)
	return nil
}
