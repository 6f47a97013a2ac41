// Package tables reads and writes the pipeline's CSV artifacts.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/etender-index/internal/types"
)

// RankingColumns is the header of the ranking table.
var RankingColumns = []string{"ministry", "Total", "Digital", "Office", "DigitalShare", "PaperPenalty", "Score"}

// Write writes the table to path as CSV, creating parent directories. A table with
// no rows is written with its header only.
func Write(path string, t *types.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Encode(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes the table as CSV to w.
func Encode(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read loads a CSV file with a header row.
func Read(path string) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// Decode parses CSV with a header row. Rows may have fewer fields than the header.
func Decode(r io.Reader) (*types.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := types.NewTable(header)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Append(rec...)
	}
	return t, nil
}

// RankingTable converts ranking rows into a table with RankingColumns.
func RankingTable(rows []types.RankingRow) *types.Table {
	t := types.NewTable(RankingColumns)
	for _, r := range rows {
		t.Append(
			r.Ministry,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Digital),
			strconv.Itoa(r.Office),
			formatFloat(r.DigitalShare),
			formatFloat(r.PaperPenalty),
			formatFloat(r.Score),
		)
	}
	return t
}

// WriteRanking writes ranking rows to path.
func WriteRanking(path string, rows []types.RankingRow) error {
	return Write(path, RankingTable(rows))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
