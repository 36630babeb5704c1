// Package placeholder turns record sections into substitution tables.
package placeholder

import (
	"strconv"

	"resume-tailor/resume/model"
)

// Flatten expands every list-valued field into numbered keys
// "<key><sep><i>" (1-based) and drops the original key. Other values pass
// through unchanged. Only the top level is expanded; an empty list
// contributes no keys.
func Flatten(fields model.Fields, sep string) model.Fields {
	out := make(model.Fields, 0, len(fields))
	for _, field := range fields {
		switch items := field.Value.(type) {
		case []any:
			for i, item := range items {
				out = append(out, model.Field{Key: field.Key + sep + strconv.Itoa(i+1), Value: item})
			}
		case []string:
			for i, item := range items {
				out = append(out, model.Field{Key: field.Key + sep + strconv.Itoa(i+1), Value: item})
			}
		default:
			out = append(out, field)
		}
	}
	return out
}

// Braces wraps a key as "{key}".
func Braces(key string) string {
	return "{" + key + "}"
}

// MapKeys returns a copy of fields with every key except the exceptions
// replaced by wrap(key).
func MapKeys(fields model.Fields, wrap func(string) string, exceptions ...string) model.Fields {
	skip := make(map[string]struct{}, len(exceptions))
	for _, key := range exceptions {
		skip[key] = struct{}{}
	}
	out := make(model.Fields, 0, len(fields))
	for _, field := range fields {
		if _, ok := skip[field.Key]; ok {
			out = append(out, field)
			continue
		}
		out = append(out, model.Field{Key: wrap(field.Key), Value: field.Value})
	}
	return out
}

// Table keeps the string-valued entries of fields. Later duplicates win.
func Table(fields model.Fields) map[string]string {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		if s, ok := field.Value.(string); ok {
			out[field.Key] = s
		}
	}
	return out
}

// Build flattens a section and wraps its keys in braces, ready for the
// template filler.
func Build(section model.Fields, sep string) map[string]string {
	return Table(MapKeys(Flatten(section, sep), Braces))
}
