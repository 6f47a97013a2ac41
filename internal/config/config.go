// Package config provides configuration loading and validation for the pipeline CLI.
// Values are resolved in order: defaults, optional config file, environment, CLI flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvBaseAPI        = "ETENDER_BASE_API"
	EnvMode           = "ETENDER_MODE"
	EnvPageParam      = "ETENDER_PAGE_PARAM"
	EnvFromParam      = "ETENDER_FROM_PARAM"
	EnvToParam        = "ETENDER_TO_PARAM"
	EnvUserAgent      = "ETENDER_USER_AGENT"
	EnvTimeout        = "ETENDER_TIMEOUT"
	EnvMaxAttempts    = "ETENDER_MAX_ATTEMPTS"
	EnvRetrySleep     = "ETENDER_RETRY_SLEEP"
	EnvStartPage      = "ETENDER_START_PAGE"
	EnvMaxPages       = "ETENDER_MAX_PAGES"
	EnvPageDelay      = "ETENDER_PAGE_DELAY"
	EnvBatchKeys      = "ETENDER_BATCH_KEYS"
	EnvRowSelector    = "ETENDER_ROW_SELECTOR"
	EnvUseBrowser     = "ETENDER_USE_BROWSER"
	EnvStartYear      = "ETENDER_START_YEAR"
	EnvEndYear        = "ETENDER_END_YEAR"
	EnvRawDir         = "ETENDER_RAW_DIR"
	EnvMasterCSV      = "ETENDER_MASTER_CSV"
	EnvClassifiedCSV  = "ETENDER_CLASSIFIED_CSV"
	EnvRankingCSV     = "ETENDER_RANKING_CSV"
	EnvClassifyInput  = "ETENDER_CLASSIFY_INPUT"
	EnvClassifyPolicy = "ETENDER_CLASSIFY_POLICY"
	EnvClassifyBatch  = "ETENDER_CLASSIFY_BATCH"
	EnvPromptDir      = "ETENDER_PROMPT_DIR"
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvLogLevel       = "LOG_LEVEL"
)

// Source modes.
const (
	ModeJSON = "json"
	ModeHTML = "html"
)

// Classification failure policies.
const (
	PolicyStrict   = "strict"
	PolicySentinel = "sentinel"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config error")

// Duration is a time.Duration that decodes from strings like "5s" in YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalJSON accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalYAML accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if secs, err := strconv.ParseFloat(value.Value, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(value.Value)
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the complete pipeline configuration.
type Config struct {
	Source      SourceConfig   `yaml:"source" json:"source"`
	Period      PeriodConfig   `yaml:"period" json:"period"`
	Output      OutputConfig   `yaml:"output" json:"output"`
	Classify    ClassifyConfig `yaml:"classify" json:"classify"`
	Fields      FieldsConfig   `yaml:"fields" json:"fields"`
	DatabaseURL string         `yaml:"database_url" json:"database_url,omitempty"`
	LogLevel    string         `yaml:"log_level" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
}

// FieldsConfig overrides the source keys tried for each master field. Empty lists
// keep the built-in fallback chains.
type FieldsConfig struct {
	ID        []string `yaml:"id" json:"id,omitempty"`
	Title     []string `yaml:"title" json:"title,omitempty"`
	Date      []string `yaml:"date" json:"date,omitempty"`
	Amount    []string `yaml:"amount" json:"amount,omitempty"`
	Buyer     []string `yaml:"buyer" json:"buyer,omitempty"`
	BuyerName []string `yaml:"buyer_name" json:"buyer_name,omitempty"`
}

// SourceConfig describes the upstream tender listing. The upstream contract is not
// confirmed, so every parameter name is configurable.
type SourceConfig struct {
	BaseAPI     string   `yaml:"base_api" json:"base_api" validate:"required,http_url"`
	Mode        string   `yaml:"mode" json:"mode" validate:"oneof=json html"`
	PageParam   string   `yaml:"page_param" json:"page_param" validate:"required"`
	FromParam   string   `yaml:"from_param" json:"from_param" validate:"required"`
	ToParam     string   `yaml:"to_param" json:"to_param" validate:"required"`
	UserAgent   string   `yaml:"user_agent" json:"user_agent"`
	Timeout     Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	MaxAttempts int      `yaml:"max_attempts" json:"max_attempts" validate:"min=1"`
	RetrySleep  Duration `yaml:"retry_sleep" json:"retry_sleep" validate:"gte=0"`
	StartPage   int      `yaml:"start_page" json:"start_page" validate:"min=0"`
	MaxPages    int      `yaml:"max_pages" json:"max_pages" validate:"min=1"`
	PageDelay   Duration `yaml:"page_delay" json:"page_delay" validate:"gte=0"`
	BatchKeys   []string `yaml:"batch_keys" json:"batch_keys,omitempty"`
	RowSelector string   `yaml:"row_selector" json:"row_selector,omitempty"`
	UseBrowser  bool     `yaml:"use_browser" json:"use_browser,omitempty"`
}

// PeriodConfig bounds the fetched period. Both years are included in full.
type PeriodConfig struct {
	StartYear int `yaml:"start_year" json:"start_year" validate:"min=1990"`
	EndYear   int `yaml:"end_year" json:"end_year" validate:"min=1990,gtefield=StartYear"`
}

// OutputConfig locates every artifact the pipeline writes.
type OutputConfig struct {
	RawDir        string `yaml:"raw_dir" json:"raw_dir" validate:"required"`
	MasterCSV     string `yaml:"master_csv" json:"master_csv" validate:"required"`
	ClassifiedCSV string `yaml:"classified_csv" json:"classified_csv" validate:"required"`
	RankingCSV    string `yaml:"ranking_csv" json:"ranking_csv" validate:"required"`
}

// ClassifyConfig controls labeling and scoring.
type ClassifyConfig struct {
	// APIKey is never read from or written to config files.
	APIKey        string   `yaml:"-" json:"-"`
	InputCSV      string   `yaml:"input_csv" json:"input_csv,omitempty"`
	Policy        string   `yaml:"policy" json:"policy" validate:"oneof=strict sentinel"`
	Model         string   `yaml:"model" json:"model,omitempty"`
	PromptDir     string   `yaml:"prompt_dir" json:"prompt_dir,omitempty"`
	BatchSize     int      `yaml:"batch_size" json:"batch_size" validate:"min=0"`
	TextColumns   []string `yaml:"text_columns" json:"text_columns,omitempty"`
	GroupColumns  []string `yaml:"group_columns" json:"group_columns,omitempty"`
	DigitalLabels []string `yaml:"digital_labels" json:"digital_labels,omitempty"`
	OfficeLabel   string   `yaml:"office_label" json:"office_label" validate:"required"`
	TopN          int      `yaml:"top_n" json:"top_n" validate:"min=0"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	year := time.Now().Year()
	return &Config{
		Source: SourceConfig{
			BaseAPI:     "https://etender.gov.az/api/v2/tenders",
			Mode:        ModeJSON,
			PageParam:   "page",
			FromParam:   "from",
			ToParam:     "to",
			UserAgent:   "aihub-bot/1.0 (+github actions)",
			Timeout:     Duration(30 * time.Second),
			MaxAttempts: 3,
			RetrySleep:  Duration(5 * time.Second),
			StartPage:   1,
			MaxPages:    200,
			BatchKeys:   []string{"results", "items", "data", "content", "tenders"},
			RowSelector: "table tbody tr",
		},
		Period: PeriodConfig{
			StartYear: year,
			EndYear:   year,
		},
		Output: OutputConfig{
			RawDir:        filepath.Join("data", "raw"),
			MasterCSV:     filepath.Join("data", "processed", "master.csv"),
			ClassifiedCSV: filepath.Join("data", "processed", "classified.csv"),
			RankingCSV:    filepath.Join("data", "reports", "ranking.csv"),
		},
		Classify: ClassifyConfig{
			Policy:        PolicySentinel,
			TextColumns:   []string{"Description", "title"},
			GroupColumns:  []string{"ministry", "buyer"},
			DigitalLabels: []string{"SOFTWARE", "IT", "SECURITY", "TRAINING", "CLOUD"},
			OfficeLabel:   "OFFICE",
			TopN:          10,
		},
		LogLevel: "info",
	}
}

// Load builds a configuration from defaults, the optional file at path, and the
// process environment. It does not validate; callers validate after applying flags.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes the file over the current values. YAML is used for .yaml/.yml,
// JSON otherwise.
func (c *Config) mergeFile(path string) error {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides values with any environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			if secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				*dst = Duration(secs * float64(time.Second))
				return
			}
			if err := dst.parse(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}

	str(EnvBaseAPI, &c.Source.BaseAPI)
	str(EnvMode, &c.Source.Mode)
	str(EnvPageParam, &c.Source.PageParam)
	str(EnvFromParam, &c.Source.FromParam)
	str(EnvToParam, &c.Source.ToParam)
	str(EnvUserAgent, &c.Source.UserAgent)
	dur(EnvTimeout, &c.Source.Timeout)
	num(EnvMaxAttempts, &c.Source.MaxAttempts)
	dur(EnvRetrySleep, &c.Source.RetrySleep)
	num(EnvStartPage, &c.Source.StartPage)
	num(EnvMaxPages, &c.Source.MaxPages)
	dur(EnvPageDelay, &c.Source.PageDelay)
	list(EnvBatchKeys, &c.Source.BatchKeys)
	str(EnvRowSelector, &c.Source.RowSelector)
	if v, ok := lookup(EnvUseBrowser); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvUseBrowser, err))
		} else {
			c.Source.UseBrowser = b
		}
	}

	num(EnvStartYear, &c.Period.StartYear)
	num(EnvEndYear, &c.Period.EndYear)

	str(EnvRawDir, &c.Output.RawDir)
	str(EnvMasterCSV, &c.Output.MasterCSV)
	str(EnvClassifiedCSV, &c.Output.ClassifiedCSV)
	str(EnvRankingCSV, &c.Output.RankingCSV)

	str(EnvClassifyInput, &c.Classify.InputCSV)
	str(EnvClassifyPolicy, &c.Classify.Policy)
	num(EnvClassifyBatch, &c.Classify.BatchSize)
	str(EnvPromptDir, &c.Classify.PromptDir)
	str(EnvAPIKey, &c.Classify.APIKey)

	str(EnvDatabaseURL, &c.DatabaseURL)
	str(EnvLogLevel, &c.LogLevel)

	c.Source.BaseAPI = strings.TrimRight(c.Source.BaseAPI, "/")

	return errors.Join(errs...)
}

// Validate checks field constraints and returns an error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Source.Mode == ModeHTML && strings.TrimSpace(c.Source.RowSelector) == "" {
		return fmt.Errorf("%w: source.row_selector is required in html mode", ErrInvalidConfig)
	}
	if c.Source.UseBrowser && c.Source.Mode != ModeHTML {
		return fmt.Errorf("%w: source.use_browser only applies to html mode", ErrInvalidConfig)
	}

	return nil
}

// ClassifyInput returns the CSV the classify step reads, defaulting to the master table.
func (c *Config) ClassifyInput() string {
	if c.Classify.InputCSV != "" {
		return c.Classify.InputCSV
	}
	return c.Output.MasterCSV
}

// String returns a short summary safe to log (no credentials).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s (%s), Period: %d-%d, MaxPages: %d, Attempts: %d, Raw: %s}",
		c.Source.BaseAPI,
		c.Source.Mode,
		c.Period.StartYear,
		c.Period.EndYear,
		c.Source.MaxPages,
		c.Source.MaxAttempts,
		c.Output.RawDir,
	)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
