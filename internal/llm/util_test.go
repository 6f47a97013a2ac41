package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n[{\"index\": 0, \"category\": \"IT\"}]\n```",
			expected: `[{"index": 0, "category": "IT"}]`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before array",
			input:    "Here are the labels:\n[{\"index\": 1, \"category\": \"OFFICE\"}]",
			expected: `[{"index": 1, "category": "OFFICE"}]`,
		},
		{
			name:     "trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "braces inside strings",
			input:    `Result: {"template": "Hello {name}!", "q": "a \"}\" b"}`,
			expected: `{"template": "Hello {name}!", "q": "a \"}\" b"}`,
		},
		{
			name:     "no JSON",
			input:    "  SOFTWARE  ",
			expected: "SOFTWARE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "HARDWARE", StripCodeFence("```\nHARDWARE\n```"))
	assert.Equal(t, "CLOUD", StripCodeFence("```text\nCLOUD\n```"))
	assert.Equal(t, "IT", StripCodeFence(" IT "))
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`["a", "b"]`, `["a", "b"]`},
		{`[[1, 2], [3, 4]]`, `[[1, 2], [3, 4]]`},
		{`[1, 2, 3] extra stuff`, `[1, 2, 3]`},
		{`[1, 2`, ""},
		{"", ""},
		{"not array", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, extractJSONArray(tt.input), tt.input)
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"outer": {"inner": 1}}`, extractJSONObject(`{"outer": {"inner": 1}} tail`))
	assert.Equal(t, "", extractJSONObject("not json"))
}
