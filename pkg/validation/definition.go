package validation

import (
	"fmt"

	"github.com/goliatone/go-formembed/pkg/model"
)

// CheckDefinition reports structural problems in a form definition: empty or
// duplicate field names, unknown kinds, selects without options, inverted
// bounds and patterns that do not compile. Every problem is returned.
func CheckDefinition(def model.FormDefinition) []Issue {
	var issues []Issue
	add := func(field, rule, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	if def.ID == "" {
		add("", "id", "form id is required")
	}
	if len(def.Fields) == 0 {
		add("", "fields", "form %q declares no fields", def.ID)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for idx, field := range def.Fields {
		if field.Name == "" {
			add("", "name", "field #%d has no name", idx)
			continue
		}
		if _, dup := seen[field.Name]; dup {
			add(field.Name, "name", "field %q is declared more than once", field.Name)
		}
		seen[field.Name] = struct{}{}

		if !field.Kind.Valid() {
			add(field.Name, "kind", "field %q has unsupported kind %q", field.Name, field.Kind)
			continue
		}
		if field.Kind.HasOptions() && len(field.Options) == 0 {
			add(field.Name, "options", "field %q needs at least one option", field.Name)
		}

		for _, rule := range field.Validations {
			switch rule.Kind {
			case model.ValidationRuleMin, model.ValidationRuleMax:
				if _, ok := parseFloat(rule.Params["value"]); !ok {
					add(field.Name, rule.Kind, "field %q rule %s needs a numeric value", field.Name, rule.Kind)
				}
			case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
				if n, ok := parseInt(rule.Params["value"]); !ok || n < 0 {
					add(field.Name, rule.Kind, "field %q rule %s needs a non-negative integer", field.Name, rule.Kind)
				}
			case model.ValidationRulePattern:
				if _, err := compilePattern(rule.Params["pattern"]); err != nil {
					add(field.Name, rule.Kind, "field %q pattern does not compile: %v", field.Name, err)
				}
			default:
				add(field.Name, "rule", "field %q has unknown rule %q", field.Name, rule.Kind)
			}
		}

		r := collectRules(field)
		if r.min != nil && r.max != nil && *r.min > *r.max {
			add(field.Name, model.ValidationRuleMin, "field %q min exceeds max", field.Name)
		}
		if r.minLen != nil && r.maxLen != nil && *r.minLen > *r.maxLen {
			add(field.Name, model.ValidationRuleMinLength, "field %q minLength exceeds maxLength", field.Name)
		}
	}
	return issues
}
