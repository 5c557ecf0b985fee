package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formembed/pkg/model"
)

const (
	RuleRequired  = "required"
	RuleEmail     = "email"
	RuleNumber    = "number"
	RuleMin       = model.ValidationRuleMin
	RuleMax       = model.ValidationRuleMax
	RuleMinLength = model.ValidationRuleMinLength
	RuleMaxLength = model.ValidationRuleMaxLength
	RulePattern   = model.ValidationRulePattern
	RuleOption    = "option"
	RuleDate      = "date"
	RuleType      = "type"
	RuleUnknown   = "unknown"

	dateLayout = "2006-01-02"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)

// Issue is one constraint violation. Field is empty for form-level issues.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result collects every violation found in a single pass.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether no issues were found.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// FieldErrors groups field-level messages by field name.
func (r Result) FieldErrors() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range r.Issues {
		if issue.Field == "" {
			continue
		}
		out[issue.Field] = append(out[issue.Field], issue.Message)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FormErrors returns the messages that are not tied to a field.
func (r Result) FormErrors() []string {
	var out []string
	for _, issue := range r.Issues {
		if issue.Field == "" {
			out = append(out, issue.Message)
		}
	}
	return out
}

// Err returns nil for a valid result and *Error otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Issues: append([]Issue(nil), r.Issues...)}
}

// Error is the error form of a failed Result.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation: no issues"
	}
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.Message)
	}
	return "validation: " + strings.Join(messages, "; ")
}

// FieldErrors mirrors Result.FieldErrors.
func (e *Error) FieldErrors() map[string][]string {
	if e == nil {
		return nil
	}
	return Result{Issues: e.Issues}.FieldErrors()
}

// Option tunes a Validate call.
type Option func(*options)

type options struct {
	rejectUnknown bool
}

// RejectUnknownFields reports values whose key is not a field of the
// definition. The API enables it; the widget never produces such keys.
func RejectUnknownFields() Option {
	return func(o *options) {
		o.rejectUnknown = true
	}
}

// Validate checks values against every field of the definition and returns
// all violations together, in field order.
func Validate(def model.FormDefinition, values map[string]any, opts ...Option) Result {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var result Result
	for _, field := range def.Fields {
		result.Issues = append(result.Issues, validateField(field, values[field.Name])...)
	}

	if cfg.rejectUnknown {
		var unknown []string
		for key := range values {
			if _, ok := def.Field(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			result.Issues = append(result.Issues, Issue{
				Rule:    RuleUnknown,
				Message: fmt.Sprintf("Unknown field %q", key),
			})
		}
	}
	return result
}

func validateField(field model.FieldDefinition, raw any) []Issue {
	label := field.DisplayLabel()
	value, err := model.Normalize(field.Kind, raw)
	if err != nil {
		return []Issue{{Field: field.Name, Rule: RuleType, Message: fmt.Sprintf("%s has an invalid value", label)}}
	}

	r := collectRules(field)
	issue := func(rule, format string, args ...any) Issue {
		return Issue{Field: field.Name, Rule: rule, Message: fmt.Sprintf(format, append([]any{label}, args...)...)}
	}

	switch field.Kind {
	case model.KindCheckbox:
		if r.required && !value.(bool) {
			return []Issue{issue(RuleRequired, "%s is required")}
		}
		return nil
	case model.KindMultiSelect:
		selected := value.([]string)
		if len(selected) == 0 {
			if r.required {
				return []Issue{issue(RuleRequired, "%s is required")}
			}
			return nil
		}
		for _, item := range selected {
			if !field.HasOption(item) {
				return []Issue{issue(RuleOption, "%s must be one of the available options")}
			}
		}
		return nil
	}

	text := value.(string)
	if strings.TrimSpace(text) == "" {
		if r.required {
			return []Issue{issue(RuleRequired, "%s is required")}
		}
		return nil
	}

	var issues []Issue
	switch field.Kind {
	case model.KindEmail:
		if !emailPattern.MatchString(strings.TrimSpace(text)) {
			issues = append(issues, issue(RuleEmail, "%s must be a valid email address"))
		}
	case model.KindNumber:
		number, ok := ParseDecimal(text)
		if !ok {
			return []Issue{issue(RuleNumber, "%s must be a number")}
		}
		if r.min != nil && number < *r.min {
			issues = append(issues, issue(RuleMin, "%s must be at least %s", formatNumber(*r.min)))
		}
		if r.max != nil && number > *r.max {
			issues = append(issues, issue(RuleMax, "%s must be at most %s", formatNumber(*r.max)))
		}
		return issues
	case model.KindSingleSelect:
		if !field.HasOption(text) {
			issues = append(issues, issue(RuleOption, "%s must be one of the available options"))
		}
		return issues
	case model.KindDate:
		if _, err := time.Parse(dateLayout, strings.TrimSpace(text)); err != nil {
			issues = append(issues, issue(RuleDate, "%s must be a valid date (YYYY-MM-DD)"))
		}
		return issues
	case model.KindFile:
		return nil
	}

	length := utf8.RuneCountInString(text)
	if r.minLen != nil && length < *r.minLen {
		issues = append(issues, issue(RuleMinLength, "%s must be at least %d characters", *r.minLen))
	}
	if r.maxLen != nil && length > *r.maxLen {
		issues = append(issues, issue(RuleMaxLength, "%s must be at most %d characters", *r.maxLen))
	}
	if r.pattern != nil && !r.pattern.MatchString(text) {
		issues = append(issues, issue(RulePattern, "%s is not in the expected format"))
	}
	return issues
}
