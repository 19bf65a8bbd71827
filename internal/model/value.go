package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is one entry of an event's open attribute map.
// Numbers keep their source text so they render exactly as the producer sent them.
// Objects nested inside attributes are kept as compact JSON text.
type Value struct {
	kind ValueKind
	text string
	b    bool
	list []string
}

func StringValue(s string) Value { return Value{kind: KindString, text: s} }

func NumberValue(n string) Value { return Value{kind: KindNumber, text: n} }

func IntValue(n int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func NullValue() Value { return Value{kind: KindNull} }

// ListValue copies items so later mutation by the caller is not observed.
func ListValue(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// List returns a copy of the elements of a list value, nil otherwise.
func (v Value) List() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Bool reports the boolean form of the value. Strings are parsed leniently.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.text))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// String renders the natural string form. Lists are comma joined, null is empty.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindNumber, KindObject:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindList {
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return v.text == o.text && v.b == o.b
}

// MarshalJSON writes the value back in its source shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber, KindObject:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := parseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func parseValue(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return NullValue(), nil
	}

	switch trimmed[0] {
	case 'n':
		return NullValue(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, fmt.Errorf("decode bool attribute: %w", err)
		}
		return BoolValue(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, fmt.Errorf("decode string attribute: %w", err)
		}
		return StringValue(s), nil
	case '[':
		return parseList(trimmed)
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return Value{}, fmt.Errorf("decode object attribute: %w", err)
		}
		return Value{kind: KindObject, text: buf.String()}, nil
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return Value{}, fmt.Errorf("decode number attribute: %w", err)
		}
		return NumberValue(n.String()), nil
	}
}

// parseList renders every element to its string form; nested nulls become empty strings.
func parseList(raw []byte) (Value, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return Value{}, fmt.Errorf("decode list attribute: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		elem, err := parseValue(item)
		if err != nil {
			return Value{}, err
		}
		out = append(out, elem.String())
	}
	return Value{kind: KindList, list: out}, nil
}
