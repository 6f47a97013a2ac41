package fetch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/etender-index/internal/types"
)

// DefaultRowSelector selects listing rows in HTML mode.
const DefaultRowSelector = "table tbody tr"

// ParseHTMLTable scrapes listing rows from an HTML page. Each row with at least one
// <td> becomes a record keyed by the table's header cells (col_N when a header is
// missing). The first link in a row is stored under "url".
func ParseHTMLTable(html, rowSelector string) (Batch, error) {
	if strings.TrimSpace(rowSelector) == "" {
		rowSelector = DefaultRowSelector
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Batch{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	records := make([]types.TenderRecord, 0)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		headers := tableHeaders(row.Closest("table"))
		rec := types.TenderRecord{}
		cells.Each(func(i int, cell *goquery.Selection) {
			key := fmt.Sprintf("col_%d", i)
			if i < len(headers) && headers[i] != "" {
				key = headers[i]
			}
			rec[key] = cleanCellText(cell.Text())
		})

		if href, ok := row.Find("a[href]").First().Attr("href"); ok {
			if _, taken := rec["url"]; !taken {
				rec["url"] = strings.TrimSpace(href)
			}
		}
		records = append(records, rec)
	})

	raw, err := json.Marshal(records)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to encode scraped rows: %w", err)
	}
	return Batch{Records: records, Raw: raw}, nil
}

func tableHeaders(table *goquery.Selection) []string {
	var headers []string
	ths := table.Find("thead th")
	if ths.Length() == 0 {
		ths = table.Find("tr").First().Find("th")
	}
	ths.Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cleanCellText(th.Text()))
	})
	return headers
}

// cleanCellText collapses whitespace, including non-breaking spaces.
func cleanCellText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// snippet returns at most n bytes of body for diagnostics.
func snippet(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		s = s[:n]
	}
	return strings.TrimSpace(s)
}
