// Package normalize maps raw tender records onto the fixed master schema and builds
// the master table.
package normalize

// FieldKeys lists, per output field, the source keys tried in order. The first key
// holding a usable value wins. The defaults are the union of the key names seen
// across source revisions; the upstream schema is unconfirmed, so every list is
// configurable.
type FieldKeys struct {
	ID     []string
	Title  []string
	Date   []string
	Amount []string
	Buyer  []string
	// BuyerName is tried inside a structured buyer value.
	BuyerName []string
}

// DefaultFieldKeys returns the built-in fallback chains.
func DefaultFieldKeys() FieldKeys {
	return FieldKeys{
		ID:        []string{"id", "tender_id", "tenderId", "tenderID", "number", "code", "Number"},
		Title:     []string{"title", "name", "subject", "description", "Description", "Subject"},
		Date:      []string{"date", "published_at", "publishDate", "publishedAt", "deadline", "end_date", "Deadline"},
		Amount:    []string{"amount", "value", "price", "estimatedValue", "budget", "Amount"},
		Buyer:     []string{"buyer", "procuringEntity", "organization", "ministry", "customer", "Organization"},
		BuyerName: []string{"name", "title", "legalName"},
	}
}

// merged fills empty lists in k from the defaults.
func (k FieldKeys) merged() FieldKeys {
	d := DefaultFieldKeys()
	pick := func(v, def []string) []string {
		if len(v) == 0 {
			return def
		}
		return v
	}
	return FieldKeys{
		ID:        pick(k.ID, d.ID),
		Title:     pick(k.Title, d.Title),
		Date:      pick(k.Date, d.Date),
		Amount:    pick(k.Amount, d.Amount),
		Buyer:     pick(k.Buyer, d.Buyer),
		BuyerName: pick(k.BuyerName, d.BuyerName),
	}
}
