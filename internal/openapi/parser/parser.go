// Package parser turns the request bodies of OpenAPI operations into
// embeddable form definitions.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/validation"
)

// Options tune a Parser.
type Options struct {
	// ResolveReferences allows external $refs and validates the document.
	ResolveReferences bool
	// Publish marks every produced form as embeddable.
	Publish bool
	// Operations limits the import to these operation ids or form ids.
	Operations []string
}

// Skip records an operation that produced no form.
type Skip struct {
	Operation string
	Reason    string
}

// Result is the outcome of a Parse.
type Result struct {
	Forms   []model.FormDefinition
	Skipped []Skip
}

// Parser implements the import using kin-openapi.
type Parser struct {
	options Options
}

// New constructs a Parser with the given options.
func New(options Options) *Parser {
	return &Parser{options: options}
}

var formMethods = []string{"POST", "PUT", "PATCH"}

// Parse loads raw (JSON or YAML) and returns one form per POST, PUT or PATCH
// operation whose request body is an object, sorted by form id.
func (p *Parser) Parse(ctx context.Context, raw []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(raw) == 0 {
		return Result{}, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return Result{}, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return Result{}, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return Result{}, errors.New("openapi parser: document does not contain any paths")
	}

	wanted := make(map[string]struct{}, len(p.options.Operations))
	for _, name := range p.options.Operations {
		wanted[strings.TrimSpace(name)] = struct{}{}
	}

	var (
		result Result
		seen   = make(map[string]string)
	)
	paths := spec.Paths.InMatchingOrder()
	sort.Strings(paths)
	for _, path := range paths {
		item := spec.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range formMethods {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			operation := item.GetOperation(method)
			if operation == nil {
				continue
			}
			name := operationName(method, path, operation)
			def, reason := p.formFor(method, path, operation)
			if len(wanted) > 0 && !selected(wanted, name, def.ID) {
				continue
			}
			if reason == "" {
				if prev, dup := seen[def.ID]; dup {
					reason = fmt.Sprintf("form id %q already produced by %s", def.ID, prev)
				}
			}
			if reason != "" {
				result.Skipped = append(result.Skipped, Skip{Operation: name, Reason: reason})
				continue
			}
			seen[def.ID] = name
			result.Forms = append(result.Forms, def)
		}
	}

	sort.Slice(result.Forms, func(i, j int) bool { return result.Forms[i].ID < result.Forms[j].ID })
	return result, nil
}

func (p *Parser) formFor(method, path string, operation *openapi3.Operation) (model.FormDefinition, string) {
	ext := extractExtensions(operation.Extensions)
	if skip, _ := ext[extSkip].(bool); skip {
		return model.FormDefinition{}, "marked " + extSkip
	}

	id := stringExt(ext, extID)
	if id == "" {
		id = model.Slugify(operationName(method, path, operation))
	}
	if !model.ValidFormID(id) {
		return model.FormDefinition{}, fmt.Sprintf("cannot derive a valid form id from %q", id)
	}

	schema, reason := requestSchema(operation.RequestBody)
	if reason != "" {
		return model.FormDefinition{ID: id}, reason
	}

	title := strings.TrimSpace(operation.Summary)
	if title == "" {
		title = model.HumanizeName(id)
	}
	def := model.FormDefinition{
		ID:             id,
		Title:          title,
		Description:    strings.TrimSpace(operation.Description),
		SubmitLabel:    stringExt(ext, extSubmitLabel),
		SuccessMessage: stringExt(ext, extSuccessMessage),
		Published:      p.options.Publish,
	}

	var skipped []string
	for _, name := range propertyOrder(schema) {
		field, ok := convertField(name, schema.Properties[name], contains(schema.Required, name))
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		def.Fields = append(def.Fields, field)
	}
	if len(def.Fields) == 0 {
		if len(skipped) > 0 {
			return def, "no supported properties (skipped " + strings.Join(skipped, ", ") + ")"
		}
		return def, "request body declares no properties"
	}
	if issues := validation.CheckDefinition(def); len(issues) > 0 {
		return def, issues[0].Message
	}
	return def, ""
}

func requestSchema(body *openapi3.RequestBodyRef) (*openapi3.Schema, string) {
	if body == nil || body.Value == nil {
		return nil, "operation has no request body"
	}
	content := body.Value.Content
	var ref *openapi3.SchemaRef
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			ref = mt.Schema
			break
		}
	}
	if ref == nil {
		keys := make([]string, 0, len(content))
		for key := range content {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if mt := content[key]; mt != nil && mt.Schema != nil {
				ref = mt.Schema
				break
			}
		}
	}
	if ref == nil || ref.Value == nil {
		return nil, "request body has no resolvable schema"
	}
	schema := flattenAllOf(ref.Value)
	if firstSchemaType(schema.Type) != "object" && len(schema.Properties) == 0 {
		return nil, "request body is not an object"
	}
	return schema, ""
}

// flattenAllOf merges allOf members into one object schema.
func flattenAllOf(schema *openapi3.Schema) *openapi3.Schema {
	if len(schema.AllOf) == 0 {
		return schema
	}
	merged := *schema
	merged.Properties = make(openapi3.Schemas, len(schema.Properties))
	for name, prop := range schema.Properties {
		merged.Properties[name] = prop
	}
	merged.Required = append([]string(nil), schema.Required...)
	for _, ref := range schema.AllOf {
		if ref == nil || ref.Value == nil {
			continue
		}
		member := flattenAllOf(ref.Value)
		for name, prop := range member.Properties {
			if _, exists := merged.Properties[name]; !exists {
				merged.Properties[name] = prop
			}
		}
		for _, name := range member.Required {
			if !contains(merged.Required, name) {
				merged.Required = append(merged.Required, name)
			}
		}
	}
	return &merged
}

// propertyOrder lists required properties in declaration order of the
// required list, then the optional ones alphabetically.
func propertyOrder(schema *openapi3.Schema) []string {
	out := make([]string, 0, len(schema.Properties))
	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; ok && !contains(out, name) {
			out = append(out, name)
		}
	}
	optional := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		if !contains(out, name) {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	return append(out, optional...)
}

func operationName(method, path string, operation *openapi3.Operation) string {
	if operation.OperationID != "" {
		return operation.OperationID
	}
	return strings.ToLower(method) + " " + path
}

func selected(wanted map[string]struct{}, names ...string) bool {
	for _, name := range names {
		if _, ok := wanted[name]; ok && name != "" {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
