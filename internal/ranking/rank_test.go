package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/etender-index/internal/config"
	"github.com/jonathan/etender-index/internal/types"
)

func rec(group, category string) types.ClassifiedRecord {
	return types.ClassifiedRecord{Ministry: group, Category: category}
}

func TestAggregate_Example(t *testing.T) {
	rows := []types.ClassifiedRecord{
		rec("B", "OFFICE"),
		rec("A", "SOFTWARE"),
		rec("A", "OFFICE"),
	}

	got := Aggregate(rows, DefaultOptions())
	want := []types.RankingRow{
		{Ministry: "A", Total: 2, Digital: 1, Office: 1, DigitalShare: 0.5, PaperPenalty: 0.5, Score: 40},
		{Ministry: "B", Total: 1, Digital: 0, Office: 1, DigitalShare: 0, PaperPenalty: 1, Score: -20},
	}
	assert.Equal(t, want, got)
}

func TestAggregate_RoundsSharesBeforeScore(t *testing.T) {
	rows := []types.ClassifiedRecord{
		rec("A", "IT"), rec("A", "OTHER"), rec("A", "HARDWARE"),
		rec("B", "CLOUD"), rec("B", "CLOUD"), rec("B", "OFFICE"),
	}

	got := Aggregate(rows, DefaultOptions())
	require.Len(t, got, 2)

	assert.Equal(t, "B", got[0].Ministry)
	assert.Equal(t, 0.667, got[0].DigitalShare)
	assert.Equal(t, 0.333, got[0].PaperPenalty)
	// 66.7 - 6.66
	assert.Equal(t, 60.0, got[0].Score)

	assert.Equal(t, 0.333, got[1].DigitalShare)
	assert.Equal(t, 33.3, got[1].Score)
}

func TestAggregate_TiesOrderedByName(t *testing.T) {
	rows := []types.ClassifiedRecord{
		rec("Zeta", "OTHER"),
		rec("Mu", "HARDWARE"),
		rec("Omega", "SOFTWARE"),
		rec("Alpha", "OTHER"),
	}

	got := Aggregate(rows, DefaultOptions())
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Ministry
	}
	assert.Equal(t, []string{"Omega", "Alpha", "Mu", "Zeta"}, names)
}

func TestAggregate_RoundsHalfToEven(t *testing.T) {
	rows := []types.ClassifiedRecord{rec("A", "SOFTWARE")}
	for i := 0; i < 15; i++ {
		rows = append(rows, rec("A", "OTHER"))
	}

	got := Aggregate(rows, DefaultOptions())
	require.Len(t, got, 1)

	// 1/16 = 0.0625 rounds to 0.062, not 0.063
	assert.Equal(t, 0.062, got[0].DigitalShare)
	assert.Equal(t, 6.2, got[0].Score)
}

func TestAggregate_UnknownGroupAndCase(t *testing.T) {
	got := Aggregate([]types.ClassifiedRecord{rec("", "software"), rec("  ", "Office")}, DefaultOptions())
	require.Len(t, got, 1)

	assert.Equal(t, types.UnknownGroup, got[0].Ministry)
	assert.Equal(t, 2, got[0].Total)
	assert.Equal(t, 1, got[0].Digital)
	assert.Equal(t, 1, got[0].Office)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, DefaultOptions()))
}

func TestAggregate_CustomLabels(t *testing.T) {
	cfg := config.Default().Classify
	cfg.DigitalLabels = []string{"HARDWARE"}

	got := Aggregate([]types.ClassifiedRecord{rec("A", "HARDWARE"), rec("A", "SOFTWARE")}, OptionsFromConfig(cfg))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Digital)
	assert.Equal(t, 50.0, got[0].Score)
}

func TestTop(t *testing.T) {
	rows := make([]types.RankingRow, 12)
	assert.Len(t, Top(rows, 10), 10)
	assert.Len(t, Top(rows, 0), 12)
	assert.Len(t, Top(rows[:3], 10), 3)
}

func TestRecordsFromTable(t *testing.T) {
	table := types.NewTable([]string{"title", "buyer", types.ColumnCategory})
	table.Append("laptops", "Ministry X", "HARDWARE")
	table.Append("paper", "", "OFFICE")

	got, err := RecordsFromTable(table, []string{"ministry", "buyer"})
	require.NoError(t, err)
	assert.Equal(t, []types.ClassifiedRecord{
		rec("Ministry X", "HARDWARE"),
		rec(types.UnknownGroup, "OFFICE"),
	}, got)
}

func TestRecordsFromTable_MissingCategory(t *testing.T) {
	_, err := RecordsFromTable(types.NewTable([]string{"ministry"}), nil)
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, types.ColumnCategory, mc.Column)
}
