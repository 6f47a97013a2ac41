package normalize

import (
	"github.com/jonathan/etender-index/internal/types"
)

// Normalizer maps raw records onto the five master fields.
type Normalizer struct {
	keys FieldKeys
}

// New creates a Normalizer. Empty key lists fall back to DefaultFieldKeys.
func New(keys FieldKeys) *Normalizer {
	return &Normalizer{keys: keys.merged()}
}

// Default returns a Normalizer using DefaultFieldKeys.
func Default() *Normalizer {
	return New(DefaultFieldKeys())
}

// Normalize extracts the master fields from raw. It never fails: a field with no
// usable source value is nil.
func (n *Normalizer) Normalize(raw types.TenderRecord) types.NormalizedRecord {
	var rec types.NormalizedRecord
	if raw == nil {
		return rec
	}

	if v, ok := firstPresent(raw, n.keys.ID); ok {
		rec.ID = types.StrPtr(scalarText(v))
	}
	if v, ok := firstPresent(raw, n.keys.Title); ok {
		rec.Title = types.StrPtr(scalarText(v))
	}
	if v, ok := firstPresent(raw, n.keys.Date); ok {
		rec.Date = types.StrPtr(normalizeDate(scalarText(v)))
	}
	if v, ok := firstPresent(raw, n.keys.Amount); ok {
		rec.Amount = types.StrPtr(normalizeAmount(v))
	}
	if v, ok := firstPresent(raw, n.keys.Buyer); ok {
		rec.Buyer = n.buyer(v)
	}
	return rec
}

// buyer unwraps a structured buyer to its name.
func (n *Normalizer) buyer(v any) *string {
	m, ok := v.(map[string]any)
	if !ok {
		return types.StrPtr(scalarText(v))
	}
	name, ok := firstPresent(m, n.keys.BuyerName)
	if !ok {
		return nil
	}
	return types.StrPtr(scalarText(name))
}

// Normalize maps raw with the default field keys.
func Normalize(raw types.TenderRecord) types.NormalizedRecord {
	return Default().Normalize(raw)
}

// Stats describes one master table build.
type Stats struct {
	Input      int
	Output     int
	Duplicates int
}

// BuildMasterTable normalizes records in order and drops duplicates. Records with an
// id are keyed by it; the rest by their full five-field tuple. The first occurrence
// wins. Empty input yields a table with the header only.
func (n *Normalizer) BuildMasterTable(records []types.TenderRecord) (*types.Table, Stats) {
	stats := Stats{Input: len(records)}
	seen := make(map[string]struct{}, len(records))
	out := make([]types.NormalizedRecord, 0, len(records))

	for _, raw := range records {
		rec := n.Normalize(raw)
		key := rec.Key()
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	stats.Output = len(out)
	return types.MasterTable(out), stats
}

// BuildMasterTable builds the master table with the default field keys.
func BuildMasterTable(records []types.TenderRecord) (*types.Table, Stats) {
	return Default().BuildMasterTable(records)
}
