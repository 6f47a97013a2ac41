package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/etender-index/internal/tables"
)

const classifiedFixture = `Description,ministry,Category
laptops,Ministry A,IT
paper,Ministry A,OFFICE
pens,Ministry B,OFFICE
`

func TestAggregateCommand_InProcess(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "classified.csv")
	output := filepath.Join(tmpDir, "reports", "ranking.csv")
	require.NoError(t, os.WriteFile(input, []byte(classifiedFixture), 0644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"aggregate", "--input", input, "--out", output, "--top", "5"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Ministry A")
	assert.Contains(t, out, "Wrote 2 ranking rows")

	ranking, err := tables.Read(output)
	require.NoError(t, err)
	assert.Equal(t, 2, ranking.Len())
	assert.Equal(t, "Ministry A", ranking.Cell(0, 0))
	assert.Equal(t, "40", ranking.Cell(0, ranking.Index("Score")))
	assert.Equal(t, "-20", ranking.Cell(1, ranking.Index("Score")))
}

func TestAggregateCommand_MissingInput(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()

	cmd := exec.Command(binaryPath, "aggregate",
		"--input", filepath.Join(tmpDir, "missing.csv"),
		"--out", filepath.Join(tmpDir, "ranking.csv"))
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "aggregation failed")
}

func TestAggregateCommand_MissingCategoryColumn(t *testing.T) {
	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "classified.csv")
	require.NoError(t, os.WriteFile(input, []byte("Description,ministry\nx,A\n"), 0644))

	cmd := exec.Command(binaryPath, "aggregate", "--input", input, "--out", filepath.Join(tmpDir, "ranking.csv"))
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "Category")
}
