package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Attributes is the open, insertion-ordered part of an event.
// The zero value is ready to use and every read is safe on missing keys.
type Attributes struct {
	keys   []string
	values map[string]Value
}

// NewAttributes builds attributes from alternating key/value pairs.
func NewAttributes(pairs ...any) Attributes {
	var a Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		a.Set(key, toValue(pairs[i+1]))
	}
	return a
}

func toValue(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case []string:
		return ListValue(t...)
	case nil:
		return NullValue()
	default:
		return StringValue(fmt.Sprint(t))
	}
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (a *Attributes) Set(key string, v Value) {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

// SetIfAbsent inserts only when the key is not present yet and reports whether it did.
func (a *Attributes) SetIfAbsent(key string, v Value) bool {
	if _, ok := a.values[key]; ok {
		return false
	}
	a.Set(key, v)
	return true
}

func (a Attributes) Get(key string) (Value, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether the key carries a non-empty value.
func (a Attributes) Has(key string) bool {
	return a.String(key) != ""
}

// String returns the rendered value or "" when the key is absent or null.
func (a Attributes) String(key string) string {
	v, ok := a.values[key]
	if !ok {
		return ""
	}
	return v.String()
}

// FirstString walks keys in order and returns the first non-blank rendered value.
func (a Attributes) FirstString(keys ...string) string {
	for _, k := range keys {
		if s := a.String(k); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (a Attributes) Keys() []string {
	cp := make([]string, len(a.keys))
	copy(cp, a.keys)
	return cp
}

func (a Attributes) Len() int { return len(a.keys) }

// Each visits entries in insertion order.
func (a Attributes) Each(fn func(key string, v Value)) {
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	var out Attributes
	a.Each(func(k string, v Value) { out.Set(k, v) })
	return out
}

// MarshalJSON keeps insertion order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := a.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. A repeated key keeps its first value.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Attributes{}
		return nil
	}
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := Attributes{}
	for _, f := range fields {
		v, err := parseValue(f.raw)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", f.key, err)
		}
		out.SetIfAbsent(f.key, v)
	}
	*a = out
	return nil
}

type rawField struct {
	key string
	raw json.RawMessage
}

// decodeObject splits a JSON object into its fields in source order.
func decodeObject(data []byte) ([]rawField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read object start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var fields []rawField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read value of %q: %w", key, err)
		}
		fields = append(fields, rawField{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read object end: %w", err)
	}
	return fields, nil
}
