package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/logger"
	"github.com/jonathan/etender-index/internal/observability"
)

// loadConfig merges defaults, the config file and the environment, applies the
// command's flag overrides and validates the result.
func loadConfig(cmd *cobra.Command, override func(cmd *cobra.Command, cfg *config.Config)) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if override != nil {
		override(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(cfg.LogLevel)
}

// printer returns a console printer in verbose mode, nil otherwise.
func printer(cmd *cobra.Command) *observability.Printer {
	if !verbose {
		return nil
	}
	return observability.NewPrinter(cmd.OutOrStdout())
}

func stdout(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
