package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one JSON object of a server payload, keyed by field name
type Record map[string]json.RawMessage

// ErrMissingID is returned for a record without a usable identifier
var ErrMissingID = errors.New("record has no id")

// First returns the first of keys present in r with a non-null value.
// Older server versions use different casings for the same field.
func (r Record) First(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		return raw, true
	}
	return nil, false
}

// String decodes the first present key as a string. A missing key yields "".
// Numbers are accepted verbatim, e.g. a phone sent as 1155550000.
func (r Record) String(keys ...string) (string, error) {
	raw, ok := r.First(keys...)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if nerr := json.Unmarshal(raw, &n); nerr == nil {
			return n.String(), nil
		}
		return "", fmt.Errorf("field %s: %w", keys[0], err)
	}
	return s, nil
}

// ID decodes the record identifier, accepting a JSON string or number.
// Numbers are rendered canonically, so 7 and 7.0 both become "7".
func (r Record) ID() (string, error) {
	raw, ok := r.First("id", "Id", "ID", "_id")
	if !ok {
		return "", ErrMissingID
	}
	return NormalizeID(raw)
}

// NormalizeID converts a raw JSON id into its string form
func NormalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrMissingID
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid id: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", ErrMissingID
		}
		return s, nil
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return "", fmt.Errorf("invalid id %s", raw)
	}
	return d.String(), nil
}
