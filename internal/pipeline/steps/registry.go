// Package steps defines the pipeline steps, their order and the artifacts each one
// needs before it can run.
package steps

import (
	"fmt"
	"os"
	"slices"

	"github.com/jonathan/etender-index/internal/config"
	dbpkg "github.com/jonathan/etender-index/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Description  string
	Dependencies []string
	// Input returns the artifact path the step reads; empty for none.
	Input func(cfg *config.Config) string
	// Output returns the artifact path the step writes.
	Output func(cfg *config.Config) string
}

// Order is the execution order of the pipeline.
var Order = []string{dbpkg.StepFetch, dbpkg.StepMaster, dbpkg.StepClassify, dbpkg.StepAggregate}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepFetch: {
		Name:         dbpkg.StepFetch,
		Description:  "fetch every month of the period and store raw page snapshots",
		Dependencies: []string{},
		Input:        func(*config.Config) string { return "" },
		Output:       func(cfg *config.Config) string { return cfg.Output.RawDir },
	},
	dbpkg.StepMaster: {
		Name:         dbpkg.StepMaster,
		Description:  "normalize raw records into the master table",
		Dependencies: []string{dbpkg.StepFetch},
		Input:        func(cfg *config.Config) string { return cfg.Output.RawDir },
		Output:       func(cfg *config.Config) string { return cfg.Output.MasterCSV },
	},
	dbpkg.StepClassify: {
		Name:         dbpkg.StepClassify,
		Description:  "label every master row with a procurement category",
		Dependencies: []string{dbpkg.StepMaster},
		Input:        func(cfg *config.Config) string { return cfg.ClassifyInput() },
		Output:       func(cfg *config.Config) string { return cfg.Output.ClassifiedCSV },
	},
	dbpkg.StepAggregate: {
		Name:         dbpkg.StepAggregate,
		Description:  "score organizations and write the ranking",
		Dependencies: []string{dbpkg.StepClassify},
		Input:        func(cfg *config.Config) string { return cfg.Output.ClassifiedCSV },
		Output:       func(cfg *config.Config) string { return cfg.Output.RankingCSV },
	},
}

// DependencyError reports a step whose input artifact is not available
type DependencyError struct {
	Step                string
	MissingDependencies []string
	Path                string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot start at %s: missing dependencies %v (no %s)", e.Step, e.MissingDependencies, e.Path)
}

// ValidateDependencies checks that the input artifact of stepName exists, so the
// pipeline can start there without running the earlier steps.
func ValidateDependencies(cfg *config.Config, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	input := def.Input(cfg)
	if input == "" {
		return nil
	}
	if _, err := os.Stat(input); err != nil {
		return &DependencyError{Step: stepName, MissingDependencies: def.Dependencies, Path: input}
	}
	return nil
}

// Plan returns the steps to run when starting at from (all steps when from is
// empty), after checking the starting step's dependencies.
func Plan(cfg *config.Config, from string) ([]string, error) {
	if from == "" {
		return slices.Clone(Order), nil
	}

	i := slices.Index(Order, from)
	if i < 0 {
		return nil, fmt.Errorf("unknown step: %s", from)
	}
	if err := ValidateDependencies(cfg, from); err != nil {
		return nil, err
	}
	return slices.Clone(Order[i:]), nil
}
