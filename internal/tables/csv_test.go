package tables

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/etender-index/internal/types"
)

func TestWrite_EmptyMasterHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "nested", "master.csv")

	require.NoError(t, Write(path, types.MasterTable(nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,title,date,amount,buyer\n", string(data))
}

func TestWriteRead_RoundTripPreservesQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	in := types.MasterTable([]types.NormalizedRecord{
		{ID: types.StrPtr("1"), Title: types.StrPtr("Laptops, 20 pcs"), Buyer: types.StrPtr("Ministry \"X\"")},
	})

	require.NoError(t, Write(path, in))
	out, err := Read(path)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ShortRowsAndBOM(t *testing.T) {
	tbl, err := Decode(strings.NewReader("\ufeffDescription,ministry\nservers\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "ministry"}, tbl.Columns)
	assert.Equal(t, [][]string{{"servers", ""}}, tbl.Rows)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestRankingTable(t *testing.T) {
	tbl := RankingTable([]types.RankingRow{
		{Ministry: "A", Total: 2, Digital: 1, Office: 1, DigitalShare: 0.5, PaperPenalty: 0.5, Score: 40},
	})
	assert.Equal(t, RankingColumns, tbl.Columns)
	assert.Equal(t, []string{"A", "2", "1", "1", "0.5", "0.5", "40"}, tbl.Rows[0])
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
