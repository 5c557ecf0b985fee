package model

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldKind is the closed set of input kinds a form definition can declare.
type FieldKind string

const (
	KindShortText    FieldKind = "short-text"
	KindEmail        FieldKind = "email"
	KindNumber       FieldKind = "number"
	KindLongText     FieldKind = "long-text"
	KindSingleSelect FieldKind = "single-select"
	KindMultiSelect  FieldKind = "multi-select"
	KindCheckbox     FieldKind = "checkbox"
	KindDate         FieldKind = "date"
	KindFile         FieldKind = "file"
)

// Kinds returns every supported field kind in declaration order.
func Kinds() []FieldKind {
	return []FieldKind{
		KindShortText,
		KindEmail,
		KindNumber,
		KindLongText,
		KindSingleSelect,
		KindMultiSelect,
		KindCheckbox,
		KindDate,
		KindFile,
	}
}

// Valid reports whether the kind belongs to the closed set.
func (k FieldKind) Valid() bool {
	for _, candidate := range Kinds() {
		if candidate == k {
			return true
		}
	}
	return false
}

// HasOptions reports whether the kind draws its values from an option set.
func (k FieldKind) HasOptions() bool {
	return k == KindSingleSelect || k == KindMultiSelect
}

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single constraint applied to a field. Numeric
// bounds and length limits encode their threshold in Params["value"]; pattern
// rules keep the expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Min returns a "min" rule for the supplied inclusive bound.
func Min(value float64) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMin, Params: map[string]string{"value": formatFloat(value)}}
}

// Max returns a "max" rule for the supplied inclusive bound.
func Max(value float64) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMax, Params: map[string]string{"value": formatFloat(value)}}
}

// MinLength returns a "minLength" rule counted in characters.
func MinLength(value int) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMinLength, Params: map[string]string{"value": strconv.Itoa(value)}}
}

// MaxLength returns a "maxLength" rule counted in characters.
func MaxLength(value int) ValidationRule {
	return ValidationRule{Kind: ValidationRuleMaxLength, Params: map[string]string{"value": strconv.Itoa(value)}}
}

// Pattern returns a "pattern" rule for the supplied regular expression.
func Pattern(expr string) ValidationRule {
	return ValidationRule{Kind: ValidationRulePattern, Params: map[string]string{"pattern": expr}}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Option is one allowed value of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayLabel falls back to the value when no label is configured.
func (o Option) DisplayLabel() string {
	if label := strings.TrimSpace(o.Label); label != "" {
		return label
	}
	return o.Value
}

// FieldDefinition models an individual input inside a form definition.
type FieldDefinition struct {
	Name        string           `json:"name" yaml:"name"`
	Label       string           `json:"label" yaml:"label"`
	Kind        FieldKind        `json:"kind" yaml:"kind"`
	Required    bool             `json:"required" yaml:"required"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Help        string           `json:"help,omitempty" yaml:"help,omitempty"`
	Options     []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
}

// DisplayLabel returns the label, or a title-cased form of the field name
// ("first_name" becomes "First Name") when the label is blank.
func (f FieldDefinition) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return HumanizeName(f.Name)
}

// HumanizeName turns a snake, kebab or dotted identifier into words.
func HumanizeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	if len(words) == 0 {
		return name
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Rule returns the first rule of the requested kind.
func (f FieldDefinition) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// HasOption reports whether value is a member of the field's option set.
func (f FieldDefinition) HasOption(value string) bool {
	for _, option := range f.Options {
		if option.Value == value {
			return true
		}
	}
	return false
}

// FormDefinition is the schema of one embeddable form. The widget treats a
// loaded definition as immutable; Clone hands out independent copies.
type FormDefinition struct {
	ID             string            `json:"id" yaml:"id"`
	Title          string            `json:"title" yaml:"title"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields         []FieldDefinition `json:"fields" yaml:"fields"`
	SubmitLabel    string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	SuccessMessage string            `json:"successMessage,omitempty" yaml:"successMessage,omitempty"`
	Published      bool              `json:"-" yaml:"published"`
}

// Field looks up a field by name.
func (d FormDefinition) Field(name string) (FieldDefinition, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// Clone returns a deep copy of the definition.
func (d FormDefinition) Clone() FormDefinition {
	out := d
	if d.Fields != nil {
		out.Fields = make([]FieldDefinition, len(d.Fields))
		for i, field := range d.Fields {
			out.Fields[i] = field.clone()
		}
	}
	return out
}

func (f FieldDefinition) clone() FieldDefinition {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	if f.Validations != nil {
		out.Validations = make([]ValidationRule, len(f.Validations))
		for i, rule := range f.Validations {
			out.Validations[i] = ValidationRule{Kind: rule.Kind, Params: cloneStringMap(rule.Params)}
		}
	}
	return out
}

func cloneStringMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

// Submission is a persisted, complete draft accepted by the API.
type Submission struct {
	ID         string         `json:"id"`
	FormID     string         `json:"formId"`
	Values     map[string]any `json:"values"`
	CreatedAt  time.Time      `json:"createdAt"`
	RemoteAddr string         `json:"-"`
}
