package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/pipeline"
)

var buildMasterCmd = &cobra.Command{
	Use:   "build-master",
	Short: "Rebuild the master table from raw snapshots on disk",
	Long:  "Reads every page snapshot under the raw directory in year, month and page order and rebuilds the master CSV without contacting the source.",
	RunE:  runBuildMaster,
}

var (
	buildMasterRawDir string
	buildMasterOutput string
)

func init() {
	buildMasterCmd.Flags().StringVar(&buildMasterRawDir, "raw-dir", "", "Directory of raw page snapshots")
	buildMasterCmd.Flags().StringVarP(&buildMasterOutput, "out", "o", "", "Path of the master CSV")

	rootCmd.AddCommand(buildMasterCmd)
}

func runBuildMaster(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(cmd *cobra.Command, cfg *config.Config) {
		if cmd.Flags().Changed("raw-dir") {
			cfg.Output.RawDir = buildMasterRawDir
		}
		if cmd.Flags().Changed("out") {
			cfg.Output.MasterCSV = buildMasterOutput
		}
	})
	if err != nil {
		return err
	}

	master, stats, err := pipeline.RebuildMaster(cfg, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("failed to rebuild master table: %w", err)
	}
	if p := printer(cmd); p != nil {
		p.PrintMasterStats(cfg.Output.MasterCSV, stats)
	}

	stdout(cmd, "Wrote %d master rows (%d duplicates dropped) to %s\n", master.Len(), stats.Duplicates, cfg.Output.MasterCSV)
	return nil
}
