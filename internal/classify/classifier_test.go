package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/etender-index/internal/llm"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SOFTWARE", Software},
		{"  software\n", Software},
		{"```\nCloud\n```", Cloud},
		{"\"IT\".", IT},
		{"**SECURITY**", Security},
		{"FURNITURE", Other},
		{"The category is HARDWARE", Other},
		{"", Other},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLabel(tt.in), "%q", tt.in)
	}
}

func TestNewLLMClassifier_MissingCredential(t *testing.T) {
	c, err := NewLLMClassifier(context.Background(), "", "")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Nil(t, c)
}

func TestLLMClassifier_Classify(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	mock := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt, gotTier = prompt, tier
			return " software \n", nil
		},
	}

	label, err := NewWithClient(mock).Classify(context.Background(), "Accounting software licences")
	require.NoError(t, err)

	assert.Equal(t, Software, label)
	assert.Equal(t, llm.TierLite, gotTier)
	assert.Contains(t, gotPrompt, "Text: Accounting software licences")
	assert.Contains(t, gotPrompt, "[HARDWARE, SOFTWARE, IT, SECURITY, TRAINING, CLOUD, OFFICE, OTHER]")
}

func TestLLMClassifier_ClassifyError(t *testing.T) {
	mock := &MockLLMClient{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	_, err := NewWithClient(mock).Classify(context.Background(), "x")
	var ce *ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLLMClassifier_CloseLeavesBorrowedClient(t *testing.T) {
	closed := false
	mock := &MockLLMClient{CloseFunc: func() error { closed = true; return nil }}

	require.NoError(t, NewWithClient(mock).Close())
	assert.False(t, closed)
}

func TestLLMClassifier_ClassifyBatch(t *testing.T) {
	var gotPrompt string
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt = prompt
			assert.Equal(t, llm.TierStandard, tier)
			return "```json\n[{\"index\": 1, \"category\": \"office\"}, {\"index\": 0, \"category\": \"CLOUD\"}, {\"index\": 2, \"category\": \"boats\"}]\n```", nil
		},
	}

	labels, err := NewWithClient(mock).ClassifyBatch(context.Background(), []string{"hosting", "paper\nA4", "yachts"})
	require.NoError(t, err)

	assert.Equal(t, []string{Cloud, Office, Other}, labels)
	assert.Contains(t, gotPrompt, "0. hosting\n1. paper A4\n2. yachts")
}

func TestParseBatchResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"not json", "SOFTWARE"},
		{"wrong shape", `{"labels": []}`},
		{"missing category", `[{"index": 0}]`},
		{"missing index", `[{"index": 0, "category": "IT"}]`},
		{"out of range", `[{"index": 0, "category": "IT"}, {"index": 5, "category": "IT"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBatchResponse(tt.resp, 2)
			var ce *ClassificationError
			require.ErrorAs(t, err, &ce)
		})
	}
}

func TestClassificationError_Message(t *testing.T) {
	err := &ClassificationError{Row: 3, Message: "boom", Cause: errors.New("cause")}
	assert.True(t, strings.HasPrefix(err.Error(), "classification error at row 3"))
	assert.Equal(t, "classification error: boom", (&ClassificationError{Row: -1, Message: "boom"}).Error())
}
