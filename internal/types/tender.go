// Package types provides type definitions for the tender records, tables and rankings
// passed between pipeline steps.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Column names of the master table, in output order.
const (
	ColumnID     = "id"
	ColumnTitle  = "title"
	ColumnDate   = "date"
	ColumnAmount = "amount"
	ColumnBuyer  = "buyer"
)

// ColumnCategory is appended to classified tables.
const ColumnCategory = "Category"

// UnknownGroup is the ranking group used when a row has no organization.
const UnknownGroup = "UNKNOWN"

// MasterColumns is the fixed header of the master table.
var MasterColumns = []string{ColumnID, ColumnTitle, ColumnDate, ColumnAmount, ColumnBuyer}

// TenderRecord is one raw record as decoded from the source. Its keys vary between
// source revisions, so it carries no schema.
type TenderRecord map[string]any

// NormalizedRecord holds the five fixed master fields. A nil field means the source
// record had no usable value for it.
type NormalizedRecord struct {
	ID     *string `json:"id"`
	Title  *string `json:"title"`
	Date   *string `json:"date"`
	Amount *string `json:"amount"`
	Buyer  *string `json:"buyer"`
}

// Values returns the fields in MasterColumns order; nil fields become "".
func (r NormalizedRecord) Values() []string {
	return []string{deref(r.ID), deref(r.Title), deref(r.Date), deref(r.Amount), deref(r.Buyer)}
}

// Key identifies the record for de-duplication: the id when present, otherwise the
// full tuple of values.
func (r NormalizedRecord) Key() string {
	if r.ID != nil {
		return "id:" + *r.ID
	}
	key := "row"
	for _, v := range r.Values() {
		key += "\x1f" + v
	}
	return key
}

// ClassifiedRecord is a labeled row reduced to what scoring needs.
type ClassifiedRecord struct {
	Ministry string `json:"ministry"`
	Text     string `json:"text,omitempty"`
	Category string `json:"category"`
}

// RankingRow is the per-organization digital-adoption result.
type RankingRow struct {
	Ministry     string  `json:"ministry"`
	Total        int     `json:"total"`
	Digital      int     `json:"digital"`
	Office       int     `json:"office"`
	DigitalShare float64 `json:"digital_share"`
	PaperPenalty float64 `json:"paper_penalty"`
	Score        float64 `json:"score"`
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
