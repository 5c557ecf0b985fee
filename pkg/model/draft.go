package model

import (
	"fmt"
	"strings"
)

// Draft holds the values a user has entered into a mounted widget, keyed by
// field name. It lives only in memory and is seeded with an empty value for
// every field so a submission always carries the full field set.
type Draft struct {
	values map[string]any
}

// NewDraft seeds a draft with the zero value of every field in the definition.
func NewDraft(def FormDefinition) *Draft {
	values := make(map[string]any, len(def.Fields))
	for _, field := range def.Fields {
		values[field.Name] = ZeroValue(field.Kind)
	}
	return &Draft{values: values}
}

// ZeroValue returns the empty draft value for a field kind.
func ZeroValue(kind FieldKind) any {
	switch kind {
	case KindMultiSelect:
		return []string{}
	case KindCheckbox:
		return false
	default:
		return ""
	}
}

// Set writes a value, normalising it to the representation of the field kind.
// Unknown field names are rejected so drafts never grow beyond the definition.
func (d *Draft) Set(def FormDefinition, name string, value any) error {
	if d == nil {
		return fmt.Errorf("model: draft is nil")
	}
	field, ok := def.Field(name)
	if !ok {
		return fmt.Errorf("model: unknown field %q", name)
	}
	normalized, err := Normalize(field.Kind, value)
	if err != nil {
		return fmt.Errorf("model: field %q: %w", name, err)
	}
	if d.values == nil {
		d.values = make(map[string]any)
	}
	d.values[name] = normalized
	return nil
}

// Get returns the current value of a field.
func (d *Draft) Get(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	value, ok := d.values[name]
	return value, ok
}

// String returns the textual value of a field, or "" for non-text values.
func (d *Draft) String(name string) string {
	value, _ := d.Get(name)
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// Values returns a copy of the draft mapping.
func (d *Draft) Values() map[string]any {
	if d == nil {
		return nil
	}
	return CloneValues(d.values)
}

// Normalize coerces raw input into the draft representation of a kind:
// []string for multi-select, bool for checkbox, string otherwise.
func Normalize(kind FieldKind, value any) (any, error) {
	switch kind {
	case KindMultiSelect:
		switch v := value.(type) {
		case nil:
			return []string{}, nil
		case string:
			if strings.TrimSpace(v) == "" {
				return []string{}, nil
			}
			return []string{v}, nil
		case []string:
			return append([]string{}, v...), nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, fmt.Sprint(item))
			}
			return out, nil
		default:
			return nil, fmt.Errorf("expected list of values, got %T", value)
		}
	case KindCheckbox:
		switch v := value.(type) {
		case nil:
			return false, nil
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "on", "yes", "1":
				return true, nil
			case "", "false", "off", "no", "0":
				return false, nil
			}
			return nil, fmt.Errorf("expected boolean, got %q", v)
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
	default:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		case int, int64, float64, float32, int32:
			return fmt.Sprint(v), nil
		default:
			return nil, fmt.Errorf("expected text, got %T", value)
		}
	}
}

// CloneValues deep-copies a value map so callers cannot mutate the source.
func CloneValues(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case []string:
		return append([]string{}, typed...)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = cloneValue(v)
		}
		return clone
	case map[string]any:
		return CloneValues(typed)
	default:
		return typed
	}
}
