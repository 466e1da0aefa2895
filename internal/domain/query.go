package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Filter is one included facet of a compiled query.
type Filter struct {
	Key    FacetKey
	Values []string
}

// Filters is the ordered, normalized facet part of a query. It never
// contains a filter without values.
type Filters []Filter

// Query is the transmittable form of the applied facets and sort key.
// Facets combine with logical AND.
type Query struct {
	Filters Filters `json:"filters"`
	Sort    SortKey `json:"sort,omitempty"`
}

// Values returns the values of key, or nil when the key is absent.
func (q Query) Values(key FacetKey) []string {
	for _, f := range q.Filters {
		if f.Key == key {
			return f.Values
		}
	}
	return nil
}

// Value returns the first value of key, or "" when the key is absent.
func (q Query) Value(key FacetKey) string {
	if v := q.Values(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether the key is constrained.
func (q Query) Has(key FacetKey) bool {
	return len(q.Values(key)) > 0
}

// Unfiltered reports whether no facet is constrained.
func (q Query) Unfiltered() bool {
	return len(q.Filters) == 0
}

// Key returns a canonical string form. Value-equal queries share a key.
func (q Query) Key() string {
	b, _ := q.Filters.MarshalJSON()
	return string(b) + "|" + string(q.Sort)
}

func (q Query) String() string {
	b, _ := q.Filters.MarshalJSON()
	if q.Sort.IsSet() {
		return string(b) + " sort=" + string(q.Sort)
	}
	return string(b)
}

// MarshalJSON encodes the filters as an object in fixed key order.
// Sequences become arrays and scalars become strings; no filters gives {}.
func (fs Filters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range FacetKeys {
		var f *Filter
		for i := range fs {
			if fs[i].Key == key {
				f = &fs[i]
				break
			}
		}
		if f == nil || len(f.Values) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		name, _ := json.Marshal(string(key))
		buf.Write(name)
		buf.WriteByte(':')

		var val []byte
		var err error
		if key.IsMulti() {
			val, err = json.Marshal(f.Values)
		} else {
			val, err = json.Marshal(f.Values[0])
		}
		if err != nil {
			return nil, fmt.Errorf("encoding %s filter: %w", key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form produced by MarshalJSON. Unknown
// keys are rejected; empty values and duplicates are dropped.
func (fs *Filters) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding filters: %w", err)
	}

	values := make(map[FacetKey][]string, len(raw))
	for name, msg := range raw {
		key, err := ParseFacetKey(name)
		if err != nil {
			return err
		}
		vals, err := decodeFilterValue(msg)
		if err != nil {
			return fmt.Errorf("decoding %s filter: %w", key, err)
		}
		if !key.IsMulti() && len(vals) > 1 {
			return fmt.Errorf("decoding %s filter: expected a single value", key)
		}
		values[key] = vals
	}

	var out Filters
	for _, key := range FacetKeys {
		vals := normalizeValues(values[key], key.IsMulti())
		if len(vals) == 0 {
			continue
		}
		out = append(out, Filter{Key: key, Values: vals})
	}
	*fs = out
	return nil
}

// decodeFilterValue accepts null, a string, or an array of strings.
func decodeFilterValue(msg json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var arr []string
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func normalizeValues(in []string, multi bool) []string {
	var out []string
	for _, v := range in {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !multi {
			return []string{strings.TrimSpace(v)}
		}
		dup := false
		for _, seen := range out {
			if seen == v {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}
