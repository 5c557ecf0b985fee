package pongo_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formembed/pkg/render/template/pongo"
	"github.com/goliatone/go-formembed/pkg/testsupport"
)

func newEngine(t *testing.T, opts ...pongo.Option) *pongo.Engine {
	t.Helper()

	files := fstest.MapFS{
		"hello.tmpl":      {Data: []byte(`Hello {{ name }}!`)},
		"use-global.tmpl": {Data: []byte(`env={{ settings.env }}`)},
		"escape.tmpl":     {Data: []byte(`<p>{{ body }}</p><p>{{ trusted|safe }}</p>`)},
		"use-filter.tmpl": {Data: []byte(`{{ name|shout_test }}`)},
		"trim.tmpl":       {Data: []byte(`[{{ value|trim }}]`)},
	}
	engine, err := pongo.New(append([]pongo.Option{pongo.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplateWritesToOutputs(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	if result != "Hello Ada!" || written != result {
		t.Fatalf("unexpected output result=%q written=%q", result, written)
	}
}

func TestEngineGlobalContext(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobalData(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))

	got, err := engine.RenderTemplate("use-global.tmpl", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=staging" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineAutoescapes(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("escape", map[string]any{
		"body":    `<script>alert(1)</script>`,
		"trusted": `<strong>ok</strong>`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("expected escaped body, got %q", got)
	}
	if !strings.Contains(got, "<strong>ok</strong>") {
		t.Fatalf("expected trusted fragment untouched, got %q", got)
	}
}

func TestEngineRegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout_test", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout_test", func(input any, _ any) (any, error) { return input, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineRenderString(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("trim", map[string]any{"value": "  padded  "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "[padded]" {
		t.Fatalf("unexpected trim output %q", got)
	}

	inline, err := engine.RenderString(`{{ a }}-{{ b }}`, map[string]any{"a": 1, "b": "two"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if inline != "1-two" {
		t.Fatalf("unexpected inline output %q", inline)
	}
}

func TestEngineRequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without templates")
	}
}

func TestEngineRejectsNonMapData(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("hello", struct{ Name string }{"Ada"}); err == nil {
		t.Fatalf("expected error for struct data")
	}
}
