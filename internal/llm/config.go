// Package llm provides the model configuration and client abstraction used for
// tender classification.
package llm

import "time"

// ModelTier represents the capability level of a model
type ModelTier string

const (
	// TierLite is for single-label classification of one row
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: batched classification
	TierStandard ModelTier = "standard"
	// TierAdvanced is unused by the pipeline but accepted in configuration
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps labels stable between runs.
const DefaultTemperature float32 = 0.1

// Defaults for request shaping and retries.
const (
	DefaultMaxOutputTokens int32 = 1024
	DefaultMaxAttempts           = 3
	DefaultRetryBackoff          = 2 * time.Second
)

// Config holds the model configuration
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	// MaxOutputTokens caps each response; labels and label arrays are short.
	MaxOutputTokens int32
	// MaxAttempts bounds calls per prompt when the API reports a transient failure.
	MaxAttempts int
	// RetryBackoff is the first wait between attempts; it doubles per retry.
	RetryBackoff time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		MaxAttempts:     DefaultMaxAttempts,
		RetryBackoff:    DefaultRetryBackoff,
	}
}

// ConfigForModel returns the default configuration with model pinned for every tier.
// An empty model returns the defaults unchanged.
func ConfigForModel(model string) *Config {
	cfg := DefaultConfig()
	if model == "" {
		return cfg
	}
	for tier := range cfg.Models {
		cfg.Models[tier] = model
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with model set for tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return &out
}
