package vanilla

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formembed/pkg/model"
)

// fieldContext flattens a field, its draft value and its errors into the
// map the field template consumes.
func fieldContext(field model.FieldDefinition, view model.View, instance string) map[string]any {
	id := controlID(view.FormID, instance, field.Name)
	errors := view.ErrorsFor(field.Name)

	helpID, errorID := "", ""
	if strings.TrimSpace(field.Help) != "" {
		helpID = id + "-help"
	}
	if len(errors) > 0 {
		errorID = id + "-error"
	}

	value := view.Values[field.Name]
	ctx := map[string]any{
		"id":           id,
		"name":         field.Name,
		"label":        field.DisplayLabel(),
		"kind":         string(field.Kind),
		"input_type":   inputType(field.Kind),
		"required":     field.Required,
		"placeholder":  field.Placeholder,
		"help":         field.Help,
		"help_id":      helpID,
		"error_id":     errorID,
		"described_by": joinIDs(helpID, errorID),
		"errors":       errors,
		"value":        textValue(value),
		"checked":      value == true,
	}

	for _, rule := range field.Validations {
		switch rule.Kind {
		case model.ValidationRuleMin:
			ctx["min"] = rule.Params["value"]
		case model.ValidationRuleMax:
			ctx["max"] = rule.Params["value"]
		case model.ValidationRuleMinLength:
			ctx["minlength"] = rule.Params["value"]
		case model.ValidationRuleMaxLength:
			ctx["maxlength"] = rule.Params["value"]
		case model.ValidationRulePattern:
			ctx["pattern"] = rule.Params["pattern"]
		}
	}

	if field.Kind.HasOptions() {
		selected := selectedSet(value)
		options := make([]map[string]any, 0, len(field.Options))
		for idx, option := range field.Options {
			options = append(options, map[string]any{
				"id":       controlID(view.FormID, instance, field.Name+"-"+strconv.Itoa(idx)),
				"value":    option.Value,
				"label":    option.DisplayLabel(),
				"selected": selected[option.Value],
			})
		}
		ctx["options"] = options
	}
	return ctx
}

func inputType(kind model.FieldKind) string {
	switch kind {
	case model.KindEmail:
		return "email"
	case model.KindNumber:
		return "number"
	case model.KindDate:
		return "date"
	case model.KindFile:
		return "file"
	default:
		return "text"
	}
}

func textValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func selectedSet(value any) map[string]bool {
	out := make(map[string]bool)
	switch v := value.(type) {
	case string:
		if v != "" {
			out[v] = true
		}
	case []string:
		for _, item := range v {
			out[item] = true
		}
	}
	return out
}
