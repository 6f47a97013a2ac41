package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/etender-index/internal/types"
)

type tally struct {
	group   string
	total   int
	digital int
	office  int
}

// Aggregate groups rows by organization and returns one RankingRow per group,
// sorted by Score descending. Groups with equal scores are ordered by name.
// Rows with an empty organization are grouped as types.UnknownGroup.
func Aggregate(rows []types.ClassifiedRecord, opts Options) []types.RankingRow {
	if opts.ShareDecimals <= 0 {
		opts.ShareDecimals = DefaultShareDecimals
	}
	if opts.ScoreDecimals <= 0 {
		opts.ScoreDecimals = DefaultScoreDecimals
	}
	if len(opts.DigitalLabels) == 0 {
		opts.DigitalLabels = DefaultDigitalLabels
	}
	if opts.OfficeLabel == "" {
		opts.OfficeLabel = DefaultOfficeLabel
	}
	digital := opts.digitalSet()
	office := strings.ToUpper(strings.TrimSpace(opts.OfficeLabel))

	index := make(map[string]int)
	var tallies []*tally
	for _, r := range rows {
		group := strings.TrimSpace(r.Ministry)
		if group == "" {
			group = types.UnknownGroup
		}
		i, ok := index[group]
		if !ok {
			i = len(tallies)
			index[group] = i
			tallies = append(tallies, &tally{group: group})
		}

		t := tallies[i]
		t.total++
		label := strings.ToUpper(strings.TrimSpace(r.Category))
		if _, ok := digital[label]; ok {
			t.digital++
		}
		if label == office {
			t.office++
		}
	}

	out := make([]types.RankingRow, 0, len(tallies))
	for _, t := range tallies {
		ds := share(t.digital, t.total, opts.ShareDecimals)
		pp := share(t.office, t.total, opts.ShareDecimals)
		out = append(out, types.RankingRow{
			Ministry:     t.group,
			Total:        t.total,
			Digital:      t.digital,
			Office:       t.office,
			DigitalShare: ds.InexactFloat64(),
			PaperPenalty: pp.InexactFloat64(),
			Score:        score(ds, pp, opts.ScoreDecimals).InexactFloat64(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Ministry < out[j].Ministry
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns at most n leading rows; n <= 0 returns all of them.
func Top(rows []types.RankingRow, n int) []types.RankingRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// RecordsFromTable reads classified rows back from a table carrying a Category
// column. The organization comes from the first present group column; a table with
// none groups everything as types.UnknownGroup.
func RecordsFromTable(table *types.Table, groupColumns []string) ([]types.ClassifiedRecord, error) {
	catIdx := table.Index(types.ColumnCategory)
	if catIdx < 0 {
		return nil, &MissingColumnError{Column: types.ColumnCategory}
	}
	groupIdx := table.FirstIndex(groupColumns...)

	out := make([]types.ClassifiedRecord, table.Len())
	for i := range out {
		group := types.UnknownGroup
		if groupIdx >= 0 {
			if g := strings.TrimSpace(table.Cell(i, groupIdx)); g != "" {
				group = g
			}
		}
		out[i] = types.ClassifiedRecord{Ministry: group, Category: table.Cell(i, catIdx)}
	}
	return out, nil
}
