package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "```"

// Parse decodes an analysis payload into a Value, keeping mapping order.
//
// Payloads that start with "{" or "[" are decoded as JSON; anything else is
// decoded as YAML. A Markdown code fence around the payload (as produced by
// most LLMs) is removed first. An empty payload yields the absent Value and
// no error.
func Parse(data []byte) (Value, error) {
	body := bytes.TrimSpace(stripFence(data))
	if len(body) == 0 {
		return Value{}, nil
	}
	if body[0] == '{' || body[0] == '[' {
		v, err := parseJSON(body)
		if err != nil {
			return Value{}, fmt.Errorf("analysis: parse json: %w", err)
		}
		return v, nil
	}
	v, err := parseYAML(body)
	if err != nil {
		return Value{}, fmt.Errorf("analysis: parse yaml: %w", err)
	}
	return v, nil
}

// stripFence returns the contents of the first ``` block in data, or data
// unchanged when there is none.
func stripFence(data []byte) []byte {
	start := bytes.Index(data, []byte(fence))
	if start < 0 {
		return data
	}
	rest := data[start+len(fence):]
	// Drop the info string ("json", "yaml", ...) on the opening line.
	if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return nil
	}
	if end := bytes.Index(rest, []byte(fence)); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func parseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T", kt)
				}
				child, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return MappingValue(members...), nil
		case '[':
			var items []Value
			for dec.More() {
				child, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return SequenceValue(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t.String()), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return NullValue(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %T", tok)
}

func parseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Value{}, nil
	}
	return fromNode(doc.Content[0]), nil
}

func fromNode(n *yaml.Node) Value {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias != nil {
			return fromNode(n.Alias)
		}
		return NullValue()
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			members = append(members, Member{
				Key:   n.Content[i].Value,
				Value: fromNode(n.Content[i+1]),
			})
		}
		return MappingValue(members...)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, fromNode(c))
		}
		return SequenceValue(items...)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return NullValue()
		case "!!int", "!!float":
			return NumberValue(n.Value)
		case "!!bool":
			if b, err := strconv.ParseBool(strings.ToLower(n.Value)); err == nil {
				return BoolValue(b)
			}
		}
		return StringValue(n.Value)
	}
	return NullValue()
}
