package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/iancoleman/orderedmap"
)

// Field is a single key/value pair of a Fields section.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered JSON object. Values are string, json.Number, bool, nil,
// []any or nested Fields. Key order survives a decode/encode round trip.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// String returns the value under key when it is a string.
func (f Fields) String(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Set replaces the value under key in place, or appends a new field.
func (f Fields) Set(key string, value any) Fields {
	for i := range f {
		if f[i].Key == key {
			f[i].Value = value
			return f
		}
	}
	return append(f, Field{Key: key, Value: value})
}

// Len returns the number of fields.
func (f Fields) Len() int { return len(f) }

// Keys lists the keys in order.
func (f Fields) Keys() []string {
	out := make([]string, 0, len(f))
	for _, field := range f {
		out = append(out, field.Key)
	}
	return out
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, 0, len(f))
	for _, field := range f {
		out = append(out, Field{Key: field.Key, Value: cloneValue(field.Value)})
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Fields:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// MarshalJSON writes the fields as a JSON object in slice order. HTML
// characters are written as is.
func (f Fields) MarshalJSON() ([]byte, error) {
	data, err := f.ordered().MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*f = nil
		return nil
	}
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = fromOrdered(om)
	return nil
}

func (f Fields) ordered() *orderedmap.OrderedMap {
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	for _, field := range f {
		om.Set(field.Key, toOrdered(field.Value))
	}
	return om
}

func toOrdered(v any) any {
	switch t := v.(type) {
	case Fields:
		return t.ordered()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toOrdered(item)
		}
		return out
	default:
		return v
	}
}

func fromOrdered(om *orderedmap.OrderedMap) Fields {
	out := make(Fields, 0, len(om.Keys()))
	for _, key := range om.Keys() {
		value, _ := om.Get(key)
		out = append(out, Field{Key: key, Value: fromOrderedValue(value)})
	}
	return out
}

// fromOrderedValue maps decoded values onto the Fields value set. Numbers
// come back as float64 and are stored as json.Number.
func fromOrderedValue(v any) any {
	switch t := v.(type) {
	case orderedmap.OrderedMap:
		return fromOrdered(&t)
	case *orderedmap.OrderedMap:
		return fromOrdered(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make(Fields, 0, len(keys))
		for _, key := range keys {
			out = append(out, Field{Key: key, Value: fromOrderedValue(t[key])})
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = fromOrderedValue(item)
		}
		return out
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return v
	}
}

func isZeroValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case Fields:
		return len(t) == 0
	default:
		return false
	}
}
