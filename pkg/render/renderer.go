package render

import (
	"context"

	"github.com/goliatone/go-formembed/pkg/model"
)

// Renderer turns a widget snapshot into a byte representation (an HTML
// fragment, a plain-text summary, ...). Renderers never mutate the view.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view model.View, options RenderOptions) ([]byte, error)
}
