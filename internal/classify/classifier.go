package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/etender-index/internal/llm"
	"github.com/jonathan/etender-index/internal/prompts"
	"github.com/jonathan/etender-index/internal/schemas"
)

const promptFile = "classification.json"

// Classifier assigns one category label to a free-text description.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// BatchClassifier labels several descriptions with one call. The result has one
// label per input, in input order.
type BatchClassifier interface {
	Classifier
	ClassifyBatch(ctx context.Context, texts []string) ([]string, error)
}

// LLMClassifier classifies with an llm.Client.
type LLMClassifier struct {
	client llm.Client
	owned  bool
}

// NewLLMClassifier creates a Gemini-backed classifier. model overrides the default
// model when non-empty.
func NewLLMClassifier(ctx context.Context, apiKey, model string) (*LLMClassifier, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	client, err := llm.NewClient(ctx, llm.ConfigForModel(model), apiKey)
	if err != nil {
		return nil, &ClassificationError{Row: -1, Message: "failed to create LLM client", Cause: err}
	}
	return &LLMClassifier{client: client, owned: true}, nil
}

// NewWithClient wraps an existing client; Close leaves it open.
func NewWithClient(client llm.Client) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// Classify returns the label for text. Answers outside the vocabulary map to Other.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (string, error) {
	prompt, err := prompts.Render(promptFile, "classify-procurement", map[string]string{
		"Categories": categoryList(),
		"Text":       text,
	})
	if err != nil {
		return "", &ClassificationError{Row: -1, Message: "failed to build prompt", Cause: err}
	}

	// TierLite for a one-word answer
	resp, err := c.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", &ClassificationError{Row: -1, Message: "failed to generate content from LLM", Cause: err}
	}
	return NormalizeLabel(resp), nil
}

type batchLabel struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
}

// ClassifyBatch labels texts with a single JSON request. The response must cover
// every index; a partial or malformed answer is an error so callers can fall back
// to per-row calls.
func (c *LLMClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	var items strings.Builder
	for i, text := range texts {
		items.WriteString(strconv.Itoa(i))
		items.WriteString(". ")
		items.WriteString(strings.ReplaceAll(text, "\n", " "))
		items.WriteString("\n")
	}
	prompt, err := prompts.Render(promptFile, "classify-batch", map[string]string{
		"Categories": categoryList(),
		"Items":      items.String(),
	})
	if err != nil {
		return nil, &ClassificationError{Row: -1, Message: "failed to build prompt", Cause: err}
	}

	resp, err := c.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ClassificationError{Row: -1, Message: "failed to generate batch labels", Cause: err}
	}
	return parseBatchResponse(resp, len(texts))
}

// Close releases the client when the classifier created it.
func (c *LLMClassifier) Close() error {
	if c.owned && c.client != nil {
		return c.client.Close()
	}
	return nil
}

func parseBatchResponse(resp string, n int) ([]string, error) {
	resp = llm.CleanJSONBlock(resp)
	if err := schemas.ValidateBytes(schemas.CategoryBatch, []byte(resp)); err != nil {
		return nil, &ClassificationError{Row: -1, Message: "batch response does not match schema", Cause: err}
	}

	var labels []batchLabel
	if err := json.Unmarshal([]byte(resp), &labels); err != nil {
		return nil, &ClassificationError{Row: -1, Message: "failed to parse batch response", Cause: err}
	}

	out := make([]string, n)
	for _, l := range labels {
		if l.Index < 0 || l.Index >= n {
			return nil, &ClassificationError{Row: -1, Message: fmt.Sprintf("batch label index %d out of range", l.Index)}
		}
		out[l.Index] = NormalizeLabel(l.Category)
	}
	for i, label := range out {
		if label == "" {
			return nil, &ClassificationError{Row: -1, Message: fmt.Sprintf("batch response is missing index %d", i)}
		}
	}
	return out, nil
}
