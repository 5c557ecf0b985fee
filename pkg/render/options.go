package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions carry per-host data that renderers use without touching the
// widget state.
type RenderOptions struct {
	// Theme is the resolved go-theme selection. Its CSSVars are emitted as
	// custom properties on a host-side wrapper, never on the widget element.
	Theme *theme.RendererConfig
	// AssetBase prefixes the embed script and stylesheet URLs.
	AssetBase string
	// APIBase is written to the element so the browser loader knows where
	// the public forms API lives. Empty means same origin.
	APIBase string
	// Standalone wraps the fragment with the stylesheet link and loader
	// script so it can be served as a complete snippet.
	Standalone bool
	// InstanceID keeps control ids unique when one form is rendered more
	// than once on a page.
	InstanceID string
}
