package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jonathan/etender-index/internal/schemas"
	"github.com/jonathan/etender-index/internal/types"
)

// DefaultBatchKeys are tried in order when the response body is an object.
var DefaultBatchKeys = []string{"results", "items", "data", "content", "tenders"}

// Batch is the decoded record list of one page together with its raw JSON.
type Batch struct {
	Records []types.TenderRecord
	Raw     json.RawMessage
}

// Len returns the number of records.
func (b Batch) Len() int {
	return len(b.Records)
}

// ExtractBatch decodes a JSON page body. A top-level array is the batch itself;
// an object yields the first non-empty array under one of keys; anything else is
// an empty batch. Elements that are not objects make the body undecodable.
func ExtractBatch(body []byte, keys []string) (Batch, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Batch{}, fmt.Errorf("empty body")
	}
	if len(keys) == 0 {
		keys = DefaultBatchKeys
	}

	var raw json.RawMessage
	switch trimmed[0] {
	case '[':
		raw = trimmed
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Batch{}, fmt.Errorf("invalid JSON object: %w", err)
		}
		raw = pickBatch(obj, keys)
		if raw == nil {
			return Batch{Raw: json.RawMessage("[]")}, nil
		}
	default:
		if !json.Valid(trimmed) {
			return Batch{}, fmt.Errorf("body is not JSON")
		}
		return Batch{Raw: json.RawMessage("[]")}, nil
	}

	if err := schemas.ValidateBytes(schemas.PageBatch, raw); err != nil {
		return Batch{}, fmt.Errorf("unexpected batch structure: %w", err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Records: records, Raw: raw}, nil
}

// pickBatch returns the first key whose value is a non-empty JSON array.
func pickBatch(obj map[string]json.RawMessage, keys []string) json.RawMessage {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || v[0] != '[' {
			continue
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(v, &probe); err != nil || len(probe) == 0 {
			continue
		}
		return v
	}
	return nil
}

func decodeRecords(raw json.RawMessage) ([]types.TenderRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var records []types.TenderRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}
	return records, nil
}
