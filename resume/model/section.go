package model

import (
	"encoding/json"
	"reflect"
)

// section remembers a typed section as it was read. Keys without a typed
// field are written back untouched, and so are typed fields whose value did
// not change since decoding, including values the typed field could not hold.
type section struct {
	raw   Fields
	known Fields
}

// decodeSection fills typed from data. A key whose value does not fit its
// typed field leaves that field zero instead of failing the whole section.
func decodeSection(data []byte, typed any) (section, error) {
	var raw Fields
	if err := json.Unmarshal(data, &raw); err != nil {
		return section{}, err
	}
	if err := json.Unmarshal(data, typed); err != nil {
		for _, field := range raw {
			single, err := Fields{field}.MarshalJSON()
			if err != nil {
				continue
			}
			_ = json.Unmarshal(single, typed)
		}
	}
	known, err := typedFields(typed)
	if err != nil {
		return section{}, err
	}
	return section{raw: raw, known: known}, nil
}

// encode merges the current typed values into the section as read. A zero
// value is only written when its key already exists or is listed in always.
func (s section) encode(typed any, always ...string) ([]byte, error) {
	current, err := typedFields(typed)
	if err != nil {
		return nil, err
	}
	out := s.raw.Clone()
	for _, field := range current {
		if prev, ok := s.known.Get(field.Key); ok && reflect.DeepEqual(prev, field.Value) {
			if _, present := s.raw.Get(field.Key); present {
				continue
			}
		}
		if _, present := out.Get(field.Key); !present && isZeroValue(field.Value) && !contains(always, field.Key) {
			continue
		}
		out = out.Set(field.Key, field.Value)
	}
	if out == nil {
		out = Fields{}
	}
	return out.MarshalJSON()
}

func typedFields(typed any) (Fields, error) {
	data, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	var out Fields
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return out, nil
}

func contains(list []string, key string) bool {
	for _, item := range list {
		if item == key {
			return true
		}
	}
	return false
}
