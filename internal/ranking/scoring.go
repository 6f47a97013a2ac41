// Package ranking aggregates classified rows per organization and scores their
// digital adoption.
package ranking

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonathan/etender-index/internal/config"
)

// Scoring weights and rounding.
const (
	digitalWeight        = 100
	paperWeight          = 20
	DefaultShareDecimals = 3
	DefaultScoreDecimals = 1
)

// DefaultDigitalLabels are the categories counted as digital.
var DefaultDigitalLabels = []string{"SOFTWARE", "IT", "SECURITY", "TRAINING", "CLOUD"}

// DefaultOfficeLabel is the category counted as paper-office spend.
const DefaultOfficeLabel = "OFFICE"

// Options configures aggregation.
type Options struct {
	DigitalLabels []string
	OfficeLabel   string
	ShareDecimals int32
	ScoreDecimals int32
}

// DefaultOptions returns the standard digital set and rounding.
func DefaultOptions() Options {
	return Options{
		DigitalLabels: DefaultDigitalLabels,
		OfficeLabel:   DefaultOfficeLabel,
		ShareDecimals: DefaultShareDecimals,
		ScoreDecimals: DefaultScoreDecimals,
	}
}

// OptionsFromConfig maps the classify section of the configuration onto Options.
func OptionsFromConfig(cfg config.ClassifyConfig) Options {
	opts := DefaultOptions()
	if len(cfg.DigitalLabels) > 0 {
		opts.DigitalLabels = cfg.DigitalLabels
	}
	if cfg.OfficeLabel != "" {
		opts.OfficeLabel = cfg.OfficeLabel
	}
	return opts
}

func (o Options) digitalSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.DigitalLabels))
	for _, l := range o.DigitalLabels {
		set[strings.ToUpper(strings.TrimSpace(l))] = struct{}{}
	}
	return set
}

// share returns part/total rounded half to even to places, or zero when total is
// zero.
func share(part, total int, places int32) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Div(decimal.NewFromInt(int64(total))).RoundBank(places)
}

// score combines the already rounded shares: share*100 - penalty*20.
func score(digitalShare, paperPenalty decimal.Decimal, places int32) decimal.Decimal {
	return digitalShare.Mul(decimal.NewFromInt(digitalWeight)).
		Sub(paperPenalty.Mul(decimal.NewFromInt(paperWeight))).
		RoundBank(places)
}
