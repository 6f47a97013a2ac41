package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/etender-index/internal/classify"
	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/pipeline"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label every row of a CSV with a procurement category",
	Long: `Reads the classify input (the master CSV unless --input is given), asks the LLM for one
category per row and writes the table with a Category column appended.

With --policy strict the first failed row aborts the command; with --policy sentinel
(the default) failed rows are labeled OTHER and logged.`,
	RunE: runClassify,
}

var (
	classifyInput     string
	classifyOutput    string
	classifyPolicy    string
	classifyBatchSize int
	classifyModel     string
	classifyPromptDir string
	classifyAPIKey    string
)

func init() {
	classifyCmd.Flags().StringVarP(&classifyInput, "input", "i", "", "Input CSV (defaults to the master CSV)")
	classifyCmd.Flags().StringVarP(&classifyOutput, "out", "o", "", "Path of the classified CSV")
	classifyCmd.Flags().StringVar(&classifyPolicy, "policy", "", "Failure policy: strict or sentinel")
	classifyCmd.Flags().IntVar(&classifyBatchSize, "batch-size", 0, "Rows per LLM request (0 or 1 classifies one row per request)")
	classifyCmd.Flags().StringVar(&classifyModel, "model", "", "Override the Gemini model")
	classifyCmd.Flags().StringVar(&classifyPromptDir, "prompt-dir", "", "Directory with classification.json overriding the built-in prompts")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	classifyCmd.Flags().StringVar(&classifyAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(classifyCmd)
}

func classifyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Classify.InputCSV = classifyInput
	}
	if flags.Changed("out") {
		cfg.Output.ClassifiedCSV = classifyOutput
	}
	if flags.Changed("policy") {
		cfg.Classify.Policy = classifyPolicy
	}
	if flags.Changed("batch-size") {
		cfg.Classify.BatchSize = classifyBatchSize
	}
	if flags.Changed("model") {
		cfg.Classify.Model = classifyModel
	}
	if flags.Changed("prompt-dir") {
		cfg.Classify.PromptDir = classifyPromptDir
	}
	if flags.Changed("api-key") {
		cfg.Classify.APIKey = classifyAPIKey
	}
}

func runClassify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, classifyOverrides)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	classifier, err := classify.NewLLMClassifier(cmd.Context(), cfg.Classify.APIKey, cfg.Classify.Model)
	if err != nil {
		return err
	}
	defer func() { _ = classifier.Close() }()

	result, err := pipeline.Classify(cmd.Context(), cfg, classifier, log)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	if p := printer(cmd); p != nil {
		p.PrintCategoryCounts(result.Records, result.Failures)
	}

	stdout(cmd, "Classified %d rows (%d failures) to %s\n", result.Table.Len(), result.Failures, cfg.Output.ClassifiedCSV)
	return nil
}
