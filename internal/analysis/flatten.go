package analysis

import (
	"strconv"
	"strings"
)

// Sep joins path segments in flattened keys.
const Sep = "_"

// ListSep joins the elements of a string-only sequence.
const ListSep = ", "

// Flatten converts v into a FlatTable keyed by "_"-joined paths.
func Flatten(v Value) *FlatTable {
	return FlattenPrefix(v, "")
}

// FlattenPrefix flattens v with every key rooted at prefix.
//
//   - mapping: each member recurses at prefix_key (key alone at the root).
//   - sequence of strings only: one entry, elements joined with ", ".
//   - any other sequence: mapping elements recurse at prefix_index; every
//     other element is dropped.
//   - scalar: one entry at prefix.
//
// The absent Value yields an empty table.
func FlattenPrefix(v Value, prefix string) *FlatTable {
	out := NewFlatTable()
	flatten(out, v, prefix)
	return out
}

func flatten(out *FlatTable, v Value, prefix string) {
	switch v.kind {
	case Invalid:
		return
	case Mapping:
		for _, m := range v.members {
			child := NewFlatTable()
			flatten(child, m.Value, join(prefix, m.Key))
			out.merge(child)
		}
	case Sequence:
		if allStrings(v.items) {
			parts := make([]string, len(v.items))
			for i, it := range v.items {
				parts[i] = it.text
			}
			out.Set(prefix, strings.Join(parts, ListSep))
			return
		}
		for i, it := range v.items {
			// Scalars and nested sequences mixed in with records are
			// dropped rather than stringified.
			if it.kind != Mapping {
				continue
			}
			child := NewFlatTable()
			flatten(child, it, join(prefix, strconv.Itoa(i)))
			out.merge(child)
		}
	default:
		out.Set(prefix, v.Text())
	}
}

func allStrings(items []Value) bool {
	for _, it := range items {
		if it.kind != String {
			return false
		}
	}
	return true
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Sep + key
}
