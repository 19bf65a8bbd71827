package model

import (
	"bytes"
	"encoding/json"
)

// DispatchKind fixes the delivery mode of a dispatch at its call site.
type DispatchKind string

const (
	KindMessage DispatchKind = "message"
	KindStatus  DispatchKind = "status"
)

func (k DispatchKind) String() string { return string(k) }

// PayloadData is an insertion-ordered string map handed to the push gateway.
type PayloadData struct {
	keys   []string
	values map[string]string
}

func NewPayloadData() *PayloadData {
	return &PayloadData{values: make(map[string]string)}
}

// Set overwrites in place when the key exists, otherwise appends.
func (p *PayloadData) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *PayloadData) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *PayloadData) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *PayloadData) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *PayloadData) Keys() []string {
	cp := make([]string, len(p.keys))
	copy(cp, p.keys)
	return cp
}

func (p *PayloadData) Len() int { return len(p.keys) }

// Map returns a plain copy for transports that do not care about order.
func (p *PayloadData) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

func (p *PayloadData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
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

// DeliveryPayload is what one dispatch hands to the push gateway.
type DeliveryPayload struct {
	Kind     DispatchKind
	Data     *PayloadData
	DataOnly bool
	Silent   bool
}
