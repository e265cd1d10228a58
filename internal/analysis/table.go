package analysis

import (
	"bytes"
	"encoding/json"
)

// FlatTable maps path keys to string values and remembers insertion order.
// Overwriting a key keeps its original position.
type FlatTable struct {
	keys []string
	vals map[string]string
}

// NewFlatTable returns an empty table.
func NewFlatTable() *FlatTable {
	return &FlatTable{vals: make(map[string]string)}
}

// Set stores value under key; last write wins.
func (t *FlatTable) Set(key, value string) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = value
}

// Get returns the value stored under key.
func (t *FlatTable) Get(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (t *FlatTable) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of entries.
func (t *FlatTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Map returns a copy of the entries as a plain map.
func (t *FlatTable) Map() map[string]string {
	out := make(map[string]string, t.Len())
	if t == nil {
		return out
	}
	for k, v := range t.vals {
		out[k] = v
	}
	return out
}

// merge copies src into t in src's order.
func (t *FlatTable) merge(src *FlatTable) {
	for _, k := range src.keys {
		t.Set(k, src.vals[k])
	}
}

// MarshalJSON encodes the table as a JSON object in insertion order.
func (t *FlatTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(t.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
