package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/llm"
	"github.com/jonathan/etender-index/internal/types"
)

func keywordClassifier() funcClassifier {
	return func(_ context.Context, text string) (string, error) {
		switch {
		case strings.Contains(text, "fail"):
			return "", errors.New("upstream unavailable")
		case strings.Contains(text, "software"):
			return Software, nil
		case strings.Contains(text, "paper"):
			return Office, nil
		default:
			return Other, nil
		}
	}
}

func sampleTable() *types.Table {
	t := types.NewTable([]string{"Description", "ministry"})
	t.Append("software licences", "A")
	t.Append("paper", "A")
	t.Append("fail here", "")
	t.Append("chairs", "B")
	return t
}

func TestClassifyTable_Sentinel(t *testing.T) {
	res, err := ClassifyTable(context.Background(), keywordClassifier(), sampleTable(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Description", "ministry", types.ColumnCategory}, res.Table.Columns)
	assert.Equal(t, 1, res.Failures)

	want := []types.ClassifiedRecord{
		{Ministry: "A", Text: "software licences", Category: Software},
		{Ministry: "A", Text: "paper", Category: Office},
		{Ministry: types.UnknownGroup, Text: "fail here", Category: Other},
		{Ministry: "B", Text: "chairs", Category: Other},
	}
	assert.Equal(t, want, res.Records)
	assert.Equal(t, Other, res.Table.Rows[2][2])
}

func TestClassifyTable_StrictAbortsWithRow(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = config.PolicyStrict

	res, err := ClassifyTable(context.Background(), keywordClassifier(), sampleTable(), opts)
	assert.Nil(t, res)

	var ce *ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Row)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClassifyTable_TextColumnFallback(t *testing.T) {
	table := types.NewTable(types.MasterColumns)
	table.Append("1", "paper", "2024-01-01", "10", "Ministry X")

	res, err := ClassifyTable(context.Background(), keywordClassifier(), table, DefaultOptions())
	require.NoError(t, err)

	// title supplies the text, buyer the group
	assert.Equal(t, []types.ClassifiedRecord{{Ministry: "Ministry X", Text: "paper", Category: Office}}, res.Records)
}

func TestClassifyTable_AddsUnknownGroupColumn(t *testing.T) {
	table := types.NewTable([]string{"Description"})
	table.Append("software")

	res, err := ClassifyTable(context.Background(), keywordClassifier(), table, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Description", GroupColumn, types.ColumnCategory}, res.Table.Columns)
	assert.Equal(t, []string{"software", types.UnknownGroup, Software}, res.Table.Rows[0])
}

func TestClassifyTable_NoTextColumn(t *testing.T) {
	table := types.NewTable([]string{"id", "amount"})
	_, err := ClassifyTable(context.Background(), keywordClassifier(), table, DefaultOptions())
	require.ErrorIs(t, err, ErrNoTextColumn)
}

func TestClassifyTable_Empty(t *testing.T) {
	table := types.NewTable([]string{"Description", "ministry"})
	res, err := ClassifyTable(context.Background(), keywordClassifier(), table, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Table.Len())
	assert.Empty(t, res.Records)
}

func TestClassifyTable_CancelledIgnoresPolicy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := funcClassifier(func(ctx context.Context, _ string) (string, error) {
		return "", ctx.Err()
	})
	_, err := ClassifyTable(ctx, c, sampleTable(), DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestClassifyTable_BatchWithFallback(t *testing.T) {
	batchCalls, singleCalls := 0, 0
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			batchCalls++
			if strings.Contains(prompt, "chairs") {
				return "not json at all", nil
			}
			return `[{"index": 0, "category": "SOFTWARE"}, {"index": 1, "category": "OFFICE"}]`, nil
		},
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			singleCalls++
			return "HARDWARE", nil
		},
	}

	opts := DefaultOptions()
	opts.BatchSize = 2
	res, err := ClassifyTable(context.Background(), NewWithClient(mock), sampleTable(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, batchCalls)
	assert.Equal(t, 2, singleCalls)
	got := make([]string, len(res.Records))
	for i, r := range res.Records {
		got[i] = r.Category
	}
	assert.Equal(t, []string{Software, Office, Hardware, Hardware}, got)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Classify
	cfg.Policy = config.PolicyStrict
	cfg.BatchSize = 20

	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, config.PolicyStrict, opts.Policy)
	assert.Equal(t, 20, opts.BatchSize)
	assert.Equal(t, []string{"Description", "title"}, opts.TextColumns)
}
