// Package resolve matches template fields to keys of a flattened analysis.
//
// The policy is a deliberate heuristic. For each field the first rule that
// succeeds wins:
//
//  1. exact: the table has a key identical to the field.
//  2. substring: the first key, in table order, whose lower-cased form
//     contains the lower-cased field.
//  3. none: the field stays unresolved and defaults to "".
//
// Ambiguous substring matches are settled by position only. Callers that need
// precision should let a person review the mapping before rendering.
package resolve

import (
	"strings"

	"github.com/starford/docfill/internal/analysis"
)

// Rule names the policy step that produced a match.
type Rule string

const (
	RuleExact     Rule = "exact"
	RuleSubstring Rule = "substring"
	RuleNone      Rule = "none"
)

// Entry is the resolution of a single field.
type Entry struct {
	Field string `json:"field"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
	Rule  Rule   `json:"rule"`
}

// Matched reports whether the field found a key.
func (e Entry) Matched() bool { return e.Rule != RuleNone }

// Mapping is the per-field outcome of Resolve, in field order.
type Mapping struct {
	entries []Entry
	byField map[string]int
}

// Resolve maps every field to at most one key of table. Duplicate fields are
// resolved once.
func Resolve(fields []string, table *analysis.FlatTable) *Mapping {
	m := &Mapping{byField: make(map[string]int, len(fields))}
	keys := table.Keys()
	lowered := make([]string, len(keys))
	for i, k := range keys {
		lowered[i] = strings.ToLower(k)
	}

	for _, f := range fields {
		if _, dup := m.byField[f]; dup {
			continue
		}
		m.byField[f] = len(m.entries)
		m.entries = append(m.entries, match(f, table, keys, lowered))
	}
	return m
}

func match(field string, table *analysis.FlatTable, keys, lowered []string) Entry {
	if field == "" {
		return Entry{Field: field, Rule: RuleNone}
	}
	if v, ok := table.Get(field); ok {
		return Entry{Field: field, Key: field, Value: v, Rule: RuleExact}
	}
	needle := strings.ToLower(field)
	for i, k := range lowered {
		if strings.Contains(k, needle) {
			v, _ := table.Get(keys[i])
			return Entry{Field: field, Key: keys[i], Value: v, Rule: RuleSubstring}
		}
	}
	return Entry{Field: field, Rule: RuleNone}
}

// Entries returns the resolutions in field order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Fields returns the resolved field names in order.
func (m *Mapping) Fields() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Field
	}
	return out
}

// Lookup returns the entry for field.
func (m *Mapping) Lookup(field string) (Entry, bool) {
	i, ok := m.byField[field]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Unresolved returns the fields that matched no key.
func (m *Mapping) Unresolved() []string {
	var out []string
	for _, e := range m.entries {
		if !e.Matched() {
			out = append(out, e.Field)
		}
	}
	return out
}

// Defaults returns the value to pre-fill for every field: the matched value,
// or "" when nothing matched.
func (m *Mapping) Defaults() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.Field] = e.Value
	}
	return out
}

// Apply returns Defaults with overrides laid on top. Overrides win even when
// they are empty strings; overrides for unknown fields are kept as well.
func (m *Mapping) Apply(overrides map[string]string) map[string]string {
	out := m.Defaults()
	for f, v := range overrides {
		out[f] = v
	}
	return out
}
