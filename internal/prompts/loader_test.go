package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("classification.json", "classify-procurement")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Return ONLY the label")
	assert.Contains(t, prompt, "{{.Text}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("classification.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	result := Format("Classify {{.Text}} into [{{.Categories}}]", map[string]string{
		"Text":       "laptops",
		"Categories": "HARDWARE, OTHER",
	})
	assert.Equal(t, "Classify laptops into [HARDWARE, OTHER]", result)
}

func TestFormat_UnknownPlaceholderRemains(t *testing.T) {
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", map[string]string{}))
}

func TestRender(t *testing.T) {
	ClearCache()

	prompt, err := Render("classification.json", "classify-batch", map[string]string{
		"Categories": "IT, OTHER",
		"Items":      "0. servers",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "[IT, OTHER]")
	assert.Contains(t, prompt, "0. servers")
	assert.NotContains(t, prompt, "{{.")
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("classification.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"classify-batch", "classify-procurement"}, keys)
}

func TestFormat_SinglePass(t *testing.T) {
	result := Format("{{.Text}} / {{.Categories}}", map[string]string{
		"Text":       "{{.Categories}}",
		"Categories": "IT",
	})
	assert.Equal(t, "{{.Categories}} / IT", result)
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders("{{.Categories}} then {{.Text}} and {{.Categories}} again")
	assert.Equal(t, []string{"Categories", "Text"}, names)
}

func TestRender_MissingValue(t *testing.T) {
	ClearCache()

	_, err := Render("classification.json", "classify-procurement", map[string]string{"Text": "laptops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Categories")
}

func TestSetOverrideDir_ReplacesKeys(t *testing.T) {
	dir := t.TempDir()
	override := `{"classify-procurement": "Label {{.Text}} as one of {{.Categories}}."}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classification.json"), []byte(override), 0644))

	SetOverrideDir(dir)
	t.Cleanup(func() { SetOverrideDir("") })

	prompt, err := Get("classification.json", "classify-procurement")
	require.NoError(t, err)
	assert.Equal(t, "Label {{.Text}} as one of {{.Categories}}.", prompt)

	// keys absent from the override keep the embedded text
	batch, err := Get("classification.json", "classify-batch")
	require.NoError(t, err)
	assert.Contains(t, batch, "{{.Items}}")
}

func TestSetOverrideDir_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classification.json"), []byte("{ nope"), 0644))

	SetOverrideDir(dir)
	t.Cleanup(func() { SetOverrideDir("") })

	_, err := Get("classification.json", "classify-procurement")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse prompt file")
}

func TestSetOverrideDir_MissingFileUsesEmbedded(t *testing.T) {
	SetOverrideDir(t.TempDir())
	t.Cleanup(func() { SetOverrideDir("") })

	prompt, err := Get("classification.json", "classify-procurement")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Return ONLY the label")
}
