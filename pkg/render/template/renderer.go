package template

import (
	"io"
)

// TemplateRenderer executes named templates or inline template strings.
// Rendered output is returned and, when writers are supplied, copied to each.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data map[string]any) error
}
