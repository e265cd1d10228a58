package placeholder

import (
	"sort"
	"strings"
)

// Render replaces every "[field]" in text with values[field]. Fields that are
// not keys of values are left untouched.
//
// Substitution is a single pass over text: a value that itself looks like a
// placeholder is emitted verbatim and never expanded.
func Render(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}

	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	pairs := make([]string, 0, 2*len(fields))
	for _, f := range fields {
		pairs = append(pairs, Token(f), values[f])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Unfilled returns the fields referenced in text that have no entry in values.
func Unfilled(text string, values map[string]string) []string {
	var out []string
	for _, f := range Scan(text) {
		if _, ok := values[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
