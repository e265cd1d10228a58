// Package analysis models the structured data an extraction service returns
// for a source document and flattens it into a single-level lookup table.
package analysis

// Kind identifies the variant held by a Value.
type Kind int

const (
	// Invalid is the zero Kind: no analysis was supplied.
	Invalid Kind = iota
	Null
	String
	Number
	Bool
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Value is one node of an analysis result. Scalars keep their textual form;
// mappings keep their members in source order.
type Value struct {
	kind    Kind
	text    string
	members []Member
	items   []Value
}

// Member is one key/value pair of a mapping.
type Member struct {
	Key   string
	Value Value
}

func NullValue() Value             { return Value{kind: Null} }
func StringValue(s string) Value   { return Value{kind: String, text: s} }
func NumberValue(lit string) Value { return Value{kind: Number, text: lit} }

func BoolValue(b bool) Value {
	if b {
		return Value{kind: Bool, text: "true"}
	}
	return Value{kind: Bool, text: "false"}
}

// MappingValue builds a mapping; members keep the given order.
func MappingValue(members ...Member) Value {
	return Value{kind: Mapping, members: members}
}

// SequenceValue builds a sequence of items.
func SequenceValue(items ...Value) Value {
	return Value{kind: Sequence, items: items}
}

// M is shorthand for a Member.
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v carries no analysis at all.
func (v Value) IsAbsent() bool { return v.kind == Invalid }

// IsScalar reports whether v is a null, string, number or bool.
func (v Value) IsScalar() bool {
	switch v.kind {
	case Null, String, Number, Bool:
		return true
	}
	return false
}

// Text returns the string form of a scalar. Null renders as "".
// Containers render as "".
func (v Value) Text() string {
	if !v.IsScalar() {
		return ""
	}
	return v.text
}

func (v Value) Members() []Member { return v.members }
func (v Value) Items() []Value    { return v.items }

// Get returns the value of the first member named key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}
