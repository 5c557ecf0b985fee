package tui

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
)

// TextRenderer implements render.Renderer with a plain-text summary of a
// widget snapshot. The terminal host and the CLI print it.
type TextRenderer struct {
	strip *bluemonday.Policy
}

var _ render.Renderer = (*TextRenderer)(nil)

// NewTextRenderer returns a renderer that strips markup from definitions.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{strip: bluemonday.StrictPolicy()}
}

func (r *TextRenderer) Name() string {
	return "text"
}

func (r *TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render lists the title, every field with its current value and errors,
// and the state's message.
func (r *TextRenderer) Render(_ context.Context, view model.View, _ render.RenderOptions) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", view.State, view.FormID)

	if def := view.Definition; def != nil && view.State != model.StateLoading {
		if title := strings.TrimSpace(def.Title); title != "" {
			fmt.Fprintf(&b, "%s\n", title)
		}
		if description := r.plain(def.Description); description != "" {
			fmt.Fprintf(&b, "%s\n", description)
		}
		if view.State != model.StateSubmitted {
			for _, field := range def.Fields {
				marker := ""
				if field.Required {
					marker = " *"
				}
				fmt.Fprintf(&b, "  %s%s: %s\n", field.DisplayLabel(), marker, describeValue(field, view.Values[field.Name]))
				for _, message := range view.ErrorsFor(field.Name) {
					fmt.Fprintf(&b, "    ! %s\n", message)
				}
			}
		}
	}

	switch {
	case view.State == model.StateLoading:
		b.WriteString("Loading form...\n")
	case view.State == model.StateSubmitting:
		b.WriteString("Submitting...\n")
	case view.State == model.StateSubmitted:
		fmt.Fprintf(&b, "%s\n", view.Notice)
	case view.Error != "":
		fmt.Fprintf(&b, "! %s\n", view.Error)
		if view.Retryable {
			b.WriteString("  (retry available)\n")
		}
	}
	return []byte(b.String()), nil
}

func (r *TextRenderer) plain(markup string) string {
	if r.strip == nil {
		return strings.TrimSpace(markup)
	}
	return strings.TrimSpace(html.UnescapeString(r.strip.Sanitize(markup)))
}

func describeValue(field model.FieldDefinition, value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case []string:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, labelOrValue(field, item))
		}
		return strings.Join(labels, ", ")
	case string:
		if field.Kind.HasOptions() {
			return labelOrValue(field, v)
		}
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func labelOrValue(field model.FieldDefinition, value string) string {
	if label := labelFor(field, value); label != "" {
		return label
	}
	return value
}
