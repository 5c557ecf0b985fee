// Package formembed embeds hosted forms into third-party pages: a widget
// state machine that loads a published form definition, validates a draft
// and submits it, plus renderers and hosts that put the widget on screen.
package formembed

import (
	"context"

	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/dom"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/renderers/tui"
	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
	"github.com/goliatone/go-formembed/pkg/widget"
)

// RenderOptions aliases render.RenderOptions for callers that only import
// the root package.
type RenderOptions = render.RenderOptions

// FormDefinition aliases model.FormDefinition.
type FormDefinition = model.FormDefinition

// View aliases model.View.
type View = model.View

// NewClient returns a client for the public forms API at baseURL.
func NewClient(baseURL string, options ...client.Option) (*client.Client, error) {
	return client.New(baseURL, options...)
}

// Mount creates a widget bound to api and attaches it to formID. When the
// attach fails the widget is still returned so callers can render its
// error view.
func Mount(ctx context.Context, api widget.API, formID string, options ...widget.Option) (*widget.Widget, error) {
	w := widget.New(api, options...)
	if err := w.Attach(ctx, formID); err != nil {
		return w, err
	}
	return w, nil
}

// NewRegistry returns a registry holding the built-in HTML and text
// renderers.
func NewRegistry(options ...vanilla.Option) (*render.Registry, error) {
	html, err := vanilla.New(options...)
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	if err := registry.Register(tui.NewTextRenderer()); err != nil {
		return nil, err
	}
	return registry, nil
}

// MountPage parses an HTML page, upgrades every <clientt-form> element on it
// and waits for their first load to settle.
func MountPage(ctx context.Context, page string, cfg dom.WidgetConfig) (*dom.Document, error) {
	doc, err := dom.ParseString(page, dom.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}
	if err := dom.DefineWidget(ctx, doc, cfg); err != nil {
		return nil, err
	}
	doc.WaitAll()
	return doc, nil
}
