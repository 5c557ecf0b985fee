package parser

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formembed/pkg/model"
)

const (
	extensionNamespace = "x-formembed"

	extID             = extensionNamespace + "-id"
	extSkip           = extensionNamespace + "-skip"
	extSubmitLabel    = extensionNamespace + "-submit-label"
	extSuccessMessage = extensionNamespace + "-success-message"
	extKind           = extensionNamespace + "-kind"
	extPlaceholder    = extensionNamespace + "-placeholder"
	extOptionLabels   = extensionNamespace + "-option-labels"

	longTextThreshold = 255
)

// convertField maps one property onto a field. Nested objects, arrays of
// free values and read-only properties have no form equivalent.
func convertField(name string, ref *openapi3.SchemaRef, required bool) (model.FieldDefinition, bool) {
	if ref == nil || ref.Value == nil {
		return model.FieldDefinition{}, false
	}
	src := ref.Value
	if src.ReadOnly {
		return model.FieldDefinition{}, false
	}
	ext := extractExtensions(src.Extensions)

	field := model.FieldDefinition{
		Name:        name,
		Label:       strings.TrimSpace(src.Title),
		Required:    required,
		Help:        strings.TrimSpace(src.Description),
		Placeholder: stringExt(ext, extPlaceholder),
	}

	kind, options, ok := inferKind(src)
	if override := model.FieldKind(stringExt(ext, extKind)); override != "" {
		if !override.Valid() {
			return model.FieldDefinition{}, false
		}
		kind, ok = override, true
	}
	if !ok {
		return model.FieldDefinition{}, false
	}
	field.Kind = kind

	if kind.HasOptions() {
		labels := optionLabels(ext)
		for _, value := range options {
			field.Options = append(field.Options, model.Option{Value: value, Label: labels[value]})
		}
	}
	field.Validations = rulesFor(kind, src)
	return field, true
}

func inferKind(src *openapi3.Schema) (model.FieldKind, []string, bool) {
	switch firstSchemaType(src.Type) {
	case "boolean":
		return model.KindCheckbox, nil, true
	case "integer", "number":
		return model.KindNumber, nil, true
	case "array":
		if src.Items == nil || src.Items.Value == nil || len(src.Items.Value.Enum) == 0 {
			return "", nil, false
		}
		return model.KindMultiSelect, enumValues(src.Items.Value.Enum), true
	case "string", "":
		if len(src.Enum) > 0 {
			return model.KindSingleSelect, enumValues(src.Enum), true
		}
		if firstSchemaType(src.Type) == "" && len(src.Properties) > 0 {
			return "", nil, false
		}
		switch src.Format {
		case "email", "idn-email":
			return model.KindEmail, nil, true
		case "date":
			return model.KindDate, nil, true
		case "binary", "byte":
			return model.KindFile, nil, true
		case "textarea":
			return model.KindLongText, nil, true
		}
		if src.MaxLength != nil && *src.MaxLength > longTextThreshold {
			return model.KindLongText, nil, true
		}
		return model.KindShortText, nil, true
	default:
		return "", nil, false
	}
}

func rulesFor(kind model.FieldKind, src *openapi3.Schema) []model.ValidationRule {
	var rules []model.ValidationRule
	switch kind {
	case model.KindNumber:
		if src.Min != nil {
			rules = append(rules, model.Min(*src.Min))
		}
		if src.Max != nil {
			rules = append(rules, model.Max(*src.Max))
		}
	case model.KindShortText, model.KindLongText, model.KindEmail:
		if src.MinLength > 0 {
			rules = append(rules, model.MinLength(int(src.MinLength)))
		}
		if src.MaxLength != nil {
			rules = append(rules, model.MaxLength(int(*src.MaxLength)))
		}
		if src.Pattern != "" {
			rules = append(rules, model.Pattern(src.Pattern))
		}
	}
	return rules
}

func enumValues(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		if value == nil {
			continue
		}
		s := fmt.Sprint(value)
		if !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		if strings.HasPrefix(key, extensionNamespace+"-") {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func stringExt(ext map[string]any, key string) string {
	value, ok := ext[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func optionLabels(ext map[string]any) map[string]string {
	raw, ok := ext[extOptionLabels].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if label, ok := value.(string); ok {
			out[key] = strings.TrimSpace(label)
		}
	}
	return out
}
