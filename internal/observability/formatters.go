// Package observability provides formatted CLI output for pipeline results.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonathan/etender-index/internal/collect"
	"github.com/jonathan/etender-index/internal/db"
	"github.com/jonathan/etender-index/internal/normalize"
	"github.com/jonathan/etender-index/internal/types"
)

const (
	// boxWidth is the width of summary boxes
	boxWidth = 60
	// maxFailuresToShow caps the failed months listed in a summary
	maxFailuresToShow = 5
)

// Printer writes human-readable summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// newTable returns a rounded table writer mirrored to the printer output.
func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(p.out)
	return t
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRanking renders the leading rows of a ranking as a table. n <= 0 prints all.
func (p *Printer) PrintRanking(rows []types.RankingRow, n int) {
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}

	t := p.newTable()
	t.SetTitle(fmt.Sprintf("Top-%d", len(rows)))
	t.AppendHeader(table.Row{"#", "Ministry", "Total", "Digital", "Office", "DigitalShare", "PaperPenalty", "Score"})
	for i, r := range rows {
		t.AppendRow(table.Row{
			i + 1, r.Ministry, r.Total, r.Digital, r.Office,
			fmt.Sprintf("%.3f", r.DigitalShare),
			fmt.Sprintf("%.3f", r.PaperPenalty),
			fmt.Sprintf("%.1f", r.Score),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}

// PrintPeriodSummary outputs per-month record counts and stop reasons.
func (p *Printer) PrintPeriodSummary(summary *collect.PeriodSummary) {
	if summary == nil {
		return
	}

	t := p.newTable()
	t.AppendHeader(table.Row{"Month", "Pages", "Records", "Stop"})
	for _, m := range summary.Months {
		t.AppendRow(table.Row{m.Month, m.Pages, m.Records, m.StopReason})
	}
	t.AppendFooter(table.Row{"", "", summary.TotalRecords, ""})
	t.Render()

	if summary.FailedMonths == 0 {
		return
	}
	var sb strings.Builder
	shown := 0
	for _, m := range summary.Months {
		if m.Error == "" {
			continue
		}
		if shown == maxFailuresToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", summary.FailedMonths-shown))
			break
		}
		sb.WriteString(fmt.Sprintf("• %s: %s\n", m.Month, m.Error))
		shown++
	}
	p.printBox(fmt.Sprintf("%d month(s) stopped on error", summary.FailedMonths), sb.String())
}

// PrintMasterStats outputs the master table build counts.
func (p *Printer) PrintMasterStats(path string, stats normalize.Stats) {
	p.printBox("Master table", fmt.Sprintf(
		"Path:        %s\nInput:       %d\nRows:        %d\nDuplicates:  %d\n",
		path, stats.Input, stats.Output, stats.Duplicates,
	))
}

// PrintCategoryCounts outputs how many rows received each label.
func (p *Printer) PrintCategoryCounts(records []types.ClassifiedRecord, failures int) {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if _, ok := counts[r.Category]; !ok {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}

	t := p.newTable()
	t.AppendHeader(table.Row{"Category", "Rows"})
	for _, c := range order {
		t.AppendRow(table.Row{c, counts[c]})
	}
	t.AppendFooter(table.Row{"failures", failures})
	t.Render()
}

// PrintRuns renders recorded pipeline runs, newest first, with their step timings.
func (p *Printer) PrintRuns(runs []db.Run, steps map[uuid.UUID][]db.RunStep) {
	t := p.newTable()
	t.SetTitle("Pipeline runs")
	t.AppendHeader(table.Row{"Run", "Period", "Status", "Started", "Steps"})
	for _, r := range runs {
		var parts []string
		for _, s := range steps[r.ID] {
			part := s.Step + ":" + s.Status
			if s.Rows != nil {
				part += fmt.Sprintf("(%d)", *s.Rows)
			}
			parts = append(parts, part)
		}
		t.AppendRow(table.Row{
			r.ID.String()[:8],
			fmt.Sprintf("%d-%d", r.StartYear, r.EndYear),
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			strings.Join(parts, " "),
		})
	}
	t.Render()
}
