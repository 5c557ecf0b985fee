package formembed

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formembed/pkg/dom"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/testsupport"
	"github.com/goliatone/go-formembed/pkg/widget"
)

func TestEmbedAssetsFSServesLoaderAndStylesheet(t *testing.T) {
	script, err := fs.ReadFile(EmbedAssetsFS(), "clientt-forms.js")
	if err != nil {
		t.Fatalf("expected loader script to be readable: %v", err)
	}
	if !strings.Contains(string(script), "customElements.define") {
		t.Fatalf("expected loader to register the custom element")
	}
	if _, err := fs.ReadFile(EmbedAssetsFS(), "clientt-forms.css"); err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
}

func TestEmbeddedTemplatesIncludeWidget(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "widget.tmpl"); err != nil {
		t.Fatalf("expected widget template: %v", err)
	}
}

func TestMountLoadsDefinition(t *testing.T) {
	api := testsupport.NewFakeAPI(testsupport.ContactForm())
	w, err := Mount(context.Background(), api, testsupport.ContactFormID)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	w.Wait()
	if w.State() != model.StateReady {
		t.Fatalf("expected ready, got %s", w.State())
	}
}

func TestMountWithoutFormIDKeepsErrorView(t *testing.T) {
	api := testsupport.NewFakeAPI(testsupport.ContactForm())
	w, err := Mount(context.Background(), api, "  ")
	if !errors.Is(err, widget.ErrMissingFormID) {
		t.Fatalf("expected ErrMissingFormID, got %v", err)
	}
	if w == nil {
		t.Fatalf("expected the widget to be returned with its error view")
	}
	view := w.View()
	if view.State != model.StateError || view.Error != widget.MessageMissingFormID {
		t.Fatalf("expected missing form id view, got %s %q", view.State, view.Error)
	}
}

func TestRegistryRendersBothFormats(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def := testsupport.ContactForm()
	view := View{FormID: def.ID, State: model.StateReady, Definition: &def, Values: map[string]any{"name": "Ada"}}

	html, contentType, err := registry.Render(context.Background(), "vanilla", view, RenderOptions{})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/html") || !strings.Contains(string(html), `value="Ada"`) {
		t.Fatalf("unexpected html %s %q", contentType, html)
	}

	text, _, err := registry.Render(context.Background(), "text", view, RenderOptions{})
	if err != nil {
		t.Fatalf("render text: %v", err)
	}
	if !strings.Contains(string(text), "Name *: Ada") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestMountPageUpgradesElements(t *testing.T) {
	api := testsupport.NewFakeAPI(testsupport.ContactForm())
	doc, err := MountPage(context.Background(), `<html><body><clientt-form form-id="f1"></clientt-form></body></html>`, dom.WidgetConfig{API: api})
	if err != nil {
		t.Fatalf("mount page: %v", err)
	}
	if got := len(doc.Widgets()); got != 1 {
		t.Fatalf("expected one widget, got %d", got)
	}
	if !strings.Contains(doc.String(), `data-clientt-state="ready"`) {
		t.Fatalf("expected ready markup, got %s", doc.String())
	}
}
