package theme_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formembed/pkg/theme"
)

func TestCatalogMergesVariantTokens(t *testing.T) {
	catalog := theme.NewCatalog()
	err := catalog.Register(&gotheme.Manifest{
		Name:   "acme",
		Tokens: map[string]string{"primary-color": "#123456", "radius": "2px"},
		Assets: gotheme.Assets{Prefix: "/assets/themes/acme", Files: map[string]string{"stylesheet": "theme.css"}},
		Variants: map[string]gotheme.Variant{
			"warm": {Tokens: map[string]string{"primary-color": "#FF5722"}},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg, err := catalog.RendererConfig("acme", "warm")
	if err != nil {
		t.Fatalf("renderer config: %v", err)
	}

	want := map[string]string{
		"--clientt-primary-color": "#FF5722",
		"--clientt-radius":        "2px",
	}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected asset url %q", got)
	}
	if cfg.Theme != "acme" || cfg.Variant != "warm" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
}

func TestCatalogDefaults(t *testing.T) {
	catalog := theme.NewCatalog()

	cfg, err := catalog.RendererConfig("", "")
	if err != nil {
		t.Fatalf("renderer config: %v", err)
	}
	if cfg.Theme != theme.DefaultName {
		t.Fatalf("expected default theme, got %q", cfg.Theme)
	}
	for _, token := range theme.Tokens() {
		if _, ok := cfg.CSSVars[theme.PropertyPrefix+token]; !ok {
			t.Fatalf("default theme missing %s", token)
		}
	}

	if _, err := catalog.Select("nope", ""); !errors.Is(err, theme.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := catalog.Select(theme.DefaultName, "neon"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestCSSVarsDropsUnsafeValues(t *testing.T) {
	got := theme.CSSVars(map[string]string{
		"primary-color": "#FF5722",
		"background":    "red; } body { display:none",
		"--custom":      "4px",
	})
	want := map[string]string{
		"--clientt-primary-color": "#FF5722",
		"--custom":                "4px",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if style := theme.StyleAttr(got); style != "--clientt-primary-color: #FF5722; --custom: 4px" {
		t.Fatalf("unexpected style attr %q", style)
	}
}

func TestLoadFSRegistersManifests(t *testing.T) {
	files := fstest.MapFS{
		"acme.yaml": {Data: []byte("name: acme\ntokens:\n  primary-color: \"#FF5722\"\nvariants:\n  dark:\n    tokens:\n      background: \"#000\"\n")},
		"notes.txt": {Data: []byte("ignored")},
	}
	catalog := theme.NewCatalog()

	loaded, err := catalog.LoadFS(files)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"acme"}, loaded); diff != "" {
		t.Fatalf("loaded mismatch (-want +got):\n%s", diff)
	}

	cfg, err := catalog.RendererConfig("acme", "dark")
	if err != nil {
		t.Fatalf("renderer config: %v", err)
	}
	if cfg.CSSVars["--clientt-background"] != "#000" || cfg.CSSVars["--clientt-primary-color"] != "#FF5722" {
		t.Fatalf("unexpected vars %v", cfg.CSSVars)
	}
}
