package classify

import (
	"strings"

	"github.com/jonathan/etender-index/internal/llm"
)

// Category labels.
const (
	Hardware = "HARDWARE"
	Software = "SOFTWARE"
	IT       = "IT"
	Security = "SECURITY"
	Training = "TRAINING"
	Cloud    = "CLOUD"
	Office   = "OFFICE"
	Other    = "OTHER"
)

// Vocabulary is the closed label set, in prompt order.
var Vocabulary = []string{Hardware, Software, IT, Security, Training, Cloud, Office, Other}

var vocabulary = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Vocabulary))
	for _, v := range Vocabulary {
		m[v] = struct{}{}
	}
	return m
}()

// NormalizeLabel maps a raw model answer onto the vocabulary. The answer is trimmed,
// unwrapped from code fences and quotes, and uppercased; anything outside the
// vocabulary becomes Other.
func NormalizeLabel(raw string) string {
	label := llm.StripCodeFence(raw)
	if idx := strings.IndexByte(label, '\n'); idx >= 0 {
		label = label[:idx]
	}
	label = strings.Trim(strings.TrimSpace(label), "\"'`.*[] ")
	label = strings.ToUpper(label)

	if _, ok := vocabulary[label]; ok {
		return label
	}
	return Other
}

// IsKnown reports whether label is in the vocabulary.
func IsKnown(label string) bool {
	_, ok := vocabulary[label]
	return ok
}

func categoryList() string {
	return strings.Join(Vocabulary, ", ")
}
