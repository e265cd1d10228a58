// Package placeholder finds and substitutes bracketed fields in template text.
//
// A field reference is the literal text "[" + name + "]". There is no escaping
// and no nesting: the first "]" after a "[" always closes the field.
package placeholder

import "strings"

const (
	Open  = '['
	Close = ']'
)

// Token returns the literal reference for field, e.g. "[NAME]".
func Token(field string) string {
	return string(Open) + field + string(Close)
}

// Scan returns the distinct field names referenced in text, in order of first
// appearance. Empty names ("[]") are skipped. An opening bracket without a
// closing one ends the scan.
func Scan(text string) []string {
	seen := make(map[string]struct{})
	var out []string

	for rest := text; ; {
		start := strings.IndexByte(rest, Open)
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], Close)
		if end < 0 {
			break
		}
		name := rest[start+1 : start+1+end]
		rest = rest[start+1+end+1:]

		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
