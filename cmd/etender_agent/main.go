// Package main provides the etender_agent CLI: it fetches tender listings, builds
// the master table, classifies rows and ranks organizations by digital adoption.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "etender_agent",
	Short: "Procurement digital-adoption index",
	Long: `etender_agent collects public tender listings month by month, normalizes them into a
master table, labels each tender with a procurement category and ranks organizations
by a digital-adoption score.

Configuration is read from defaults, then an optional --config file (YAML or JSON),
then ETENDER_* environment variables (a .env file is loaded when present), then flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	logLevel   string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print step summaries as tables")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
