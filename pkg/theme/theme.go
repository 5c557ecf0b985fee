// Package theme turns go-theme manifests into the documented --clientt-*
// custom properties. Hosts place the resulting declarations on an element
// that wraps the widget, so host CSS keeps the last word.
package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// PropertyPrefix namespaces every theming custom property.
const PropertyPrefix = "--clientt-"

// Documented tokens. Each maps to PropertyPrefix + token.
const (
	TokenPrimaryColor = "primary-color"
	TokenTextColor    = "text-color"
	TokenBackground   = "background"
	TokenBorderColor  = "border-color"
	TokenErrorColor   = "error-color"
	TokenSuccessColor = "success-color"
	TokenFontFamily   = "font-family"
	TokenRadius       = "radius"
	TokenSpacing      = "spacing"
)

// DefaultName is the built-in theme registered by NewCatalog.
const DefaultName = "clientt"

var ErrUnknownTheme = errors.New("theme: unknown theme")

// Tokens lists the documented tokens in a stable order.
func Tokens() []string {
	return []string{
		TokenPrimaryColor, TokenTextColor, TokenBackground, TokenBorderColor,
		TokenErrorColor, TokenSuccessColor, TokenFontFamily, TokenRadius, TokenSpacing,
	}
}

// Default returns the built-in manifest. Its values match the fallbacks in
// the widget stylesheet; the "dark" variant flips the palette.
func Default() *gotheme.Manifest {
	return &gotheme.Manifest{
		Name:    DefaultName,
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenPrimaryColor: "#2563eb",
			TokenTextColor:    "#1f2937",
			TokenBackground:   "#ffffff",
			TokenBorderColor:  "#d1d5db",
			TokenErrorColor:   "#b91c1c",
			TokenSuccessColor: "#15803d",
			TokenFontFamily:   "inherit",
			TokenRadius:       "6px",
			TokenSpacing:      "1rem",
		},
		Variants: map[string]gotheme.Variant{
			"dark": {
				Tokens: map[string]string{
					TokenTextColor:   "#f9fafb",
					TokenBackground:  "#111827",
					TokenBorderColor: "#374151",
				},
			},
		},
	}
}

// Catalog holds manifests by name and implements go-theme's selector
// contract.
type Catalog struct {
	mu             sync.RWMutex
	manifests      map[string]*gotheme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ gotheme.ThemeSelector = (*Catalog)(nil)

// NewCatalog returns a catalog seeded with Default.
func NewCatalog() *Catalog {
	c := &Catalog{
		manifests:    make(map[string]*gotheme.Manifest),
		defaultTheme: DefaultName,
	}
	c.manifests[DefaultName] = Default()
	return c
}

// SetDefaults changes the theme and variant used when a request names none.
func (c *Catalog) SetDefaults(name, variant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		c.defaultTheme = name
	}
	c.defaultVariant = strings.TrimSpace(variant)
}

// Register adds or replaces a manifest.
func (c *Catalog) Register(manifest *gotheme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("theme: manifest name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifests[manifest.Name] = manifest
	return nil
}

// Names lists registered themes.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.manifests))
	for name := range c.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a theme and variant, applying defaults for blank values.
// An unknown variant is an error; an empty one selects the base tokens.
func (c *Catalog) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if name == "" {
		name = c.defaultTheme
		if variant == "" {
			variant = c.defaultVariant
		}
	}
	manifest, ok := c.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme: %q has no variant %q", name, variant)
		}
	}
	return &gotheme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig selects a theme and converts it for renderers.
func (c *Catalog) RendererConfig(name, variant string) (*gotheme.RendererConfig, error) {
	selection, err := c.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return ConfigFor(selection), nil
}

// ConfigFor merges base and variant tokens, templates and assets and derives
// the --clientt-* declarations from the merged tokens.
func ConfigFor(selection *gotheme.Selection) *gotheme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	tokens := mergeMaps(manifest.Tokens, nil)
	partials := mergeMaps(manifest.Templates, nil)
	files := mergeMaps(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if hasVariant {
		tokens = mergeMaps(tokens, variant.Tokens)
		partials = mergeMaps(partials, variant.Templates)
		files = mergeMaps(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	return &gotheme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  CSSVars(tokens),
		AssetURL: assetResolver(prefix, files),
	}
}

// CSSVars converts token names into custom property declarations. Tokens
// already starting with "--" are kept as is; values that could break out of
// a declaration are dropped.
func CSSVars(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" || !safeValue(value) {
			continue
		}
		if !strings.HasPrefix(key, "--") {
			key = PropertyPrefix + key
		}
		out[key] = value
	}
	return out
}

// StyleAttr renders declarations as a deterministic style attribute value.
func StyleAttr(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}

func safeValue(value string) bool {
	return !strings.ContainsAny(value, ";{}<>\"\\")
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(key string) string {
		if key == "" {
			return ""
		}
		file, ok := files[key]
		if !ok {
			file = key
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return prefix + "/" + strings.TrimLeft(file, "/")
	}
}

func mergeMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}
