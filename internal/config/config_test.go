package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "page", cfg.Source.PageParam)
	assert.Equal(t, 200, cfg.Source.MaxPages)
	assert.Equal(t, 5*time.Second, cfg.Source.RetrySleep.Std())
	assert.Equal(t, PolicySentinel, cfg.Classify.Policy)
	assert.Equal(t, cfg.Output.MasterCSV, cfg.ClassifyInput())
}

func TestApplyEnv_OverridesValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvBaseAPI:        "https://example.test/api/",
		EnvPageParam:      "p",
		EnvTimeout:        "10s",
		EnvRetrySleep:     "2",
		EnvMaxPages:       "7",
		EnvStartYear:      "2022",
		EnvEndYear:        "2023",
		EnvBatchKeys:      "rows, list",
		EnvClassifyPolicy: "strict",
		EnvAPIKey:         "secret",
		EnvUseBrowser:     "false",
		EnvPromptDir:      "/etc/etender/prompts",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api", cfg.Source.BaseAPI)
	assert.Equal(t, "p", cfg.Source.PageParam)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout.Std())
	assert.Equal(t, 2*time.Second, cfg.Source.RetrySleep.Std())
	assert.Equal(t, 7, cfg.Source.MaxPages)
	assert.Equal(t, 2022, cfg.Period.StartYear)
	assert.Equal(t, 2023, cfg.Period.EndYear)
	assert.Equal(t, []string{"rows", "list"}, cfg.Source.BatchKeys)
	assert.Equal(t, PolicyStrict, cfg.Classify.Policy)
	assert.Equal(t, "secret", cfg.Classify.APIKey)
	assert.Equal(t, "/etc/etender/prompts", cfg.Classify.PromptDir)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvMaxPages: "many"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMaxPages)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"non-http url", func(c *Config) { c.Source.BaseAPI = "ftp://x" }, "BaseAPI"},
		{"zero attempts", func(c *Config) { c.Source.MaxAttempts = 0 }, "MaxAttempts"},
		{"zero max pages", func(c *Config) { c.Source.MaxPages = 0 }, "MaxPages"},
		{"inverted period", func(c *Config) { c.Period.StartYear, c.Period.EndYear = 2024, 2023 }, "EndYear"},
		{"bad mode", func(c *Config) { c.Source.Mode = "xml" }, "Mode"},
		{"bad policy", func(c *Config) { c.Classify.Policy = "ignore" }, "Policy"},
		{"browser outside html", func(c *Config) { c.Source.UseBrowser = true }, "use_browser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
source:
  base_api: https://tenders.example.test/api
  mode: html
  row_selector: "table.list tr"
  retry_sleep: 250ms
  max_pages: 12
period:
  start_year: 2021
  end_year: 2022
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeHTML, cfg.Source.Mode)
	assert.Equal(t, "table.list tr", cfg.Source.RowSelector)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.RetrySleep.Std())
	assert.Equal(t, 12, cfg.Source.MaxPages)
	assert.Equal(t, 2021, cfg.Period.StartYear)
	// untouched defaults survive the merge
	assert.Equal(t, "page", cfg.Source.PageParam)
}

func TestLoad_JSONFile(t *testing.T) {
	content := `{"source": {"timeout": "45s", "max_attempts": 5}, "log_level": "debug"}`
	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Source.Timeout.Std())
	assert.Equal(t, 5, cfg.Source.MaxAttempts)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ invalid json }`), 0644))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestString_OmitsCredential(t *testing.T) {
	cfg := Default()
	cfg.Classify.APIKey = "super-secret"
	assert.NotContains(t, cfg.String(), "super-secret")
}
