package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	rendertemplate "github.com/goliatone/go-formembed/pkg/render/template"
	"github.com/goliatone/go-formembed/pkg/render/template/pongo"
	"github.com/goliatone/go-formembed/pkg/theme"
)

const (
	// Name identifies the renderer in a render.Registry.
	Name = "vanilla"

	templateWidget = "widget"
	templateEmbed  = "embed"

	defaultSubmitLabel = "Submit"
	defaultRetryLabel  = "Try again"
	loadingText        = "Loading form…"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	policy           *bluemonday.Policy
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithDescriptionPolicy replaces the sanitizer applied to form descriptions.
func WithDescriptionPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// Renderer produces the HTML that lives inside a <clientt-form> element.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	policy    *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy == nil {
		cfg.policy = DescriptionPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, policy: cfg.policy}, nil
}

// DescriptionPolicy allows the inline markup form authors use in
// descriptions and strips everything else.
func DescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "strong", "em")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the widget for its current state. With Standalone set the
// result is a full snippet: a theme wrapper, the custom element and the
// loader script.
func (r *Renderer) Render(_ context.Context, view model.View, options render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	content, err := r.templates.RenderTemplate(partialName(options, templateWidget), r.widgetContext(view, options))
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render widget: %w", err)
	}
	if !options.Standalone {
		return []byte(content), nil
	}

	result, err := r.templates.RenderTemplate(partialName(options, templateEmbed), embedContext(view, options, content))
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render embed: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) widgetContext(view model.View, options render.RenderOptions) map[string]any {
	ctx := map[string]any{
		"state":        string(view.State),
		"form_id":      view.FormID,
		"error":        view.Error,
		"notice":       view.Notice,
		"retryable":    view.Retryable,
		"busy":         view.Busy(),
		"loading_text": loadingText,
		"retry_label":  defaultRetryLabel,
		"submit_label": defaultSubmitLabel,
		"error_id":     controlID(view.FormID, options.InstanceID, "error"),
	}

	def := view.Definition
	if def == nil {
		return ctx
	}
	ctx["title"] = def.Title
	ctx["description"] = r.policy.Sanitize(def.Description)
	if label := strings.TrimSpace(def.SubmitLabel); label != "" {
		ctx["submit_label"] = label
	}

	fields := make([]map[string]any, 0, len(def.Fields))
	for _, field := range def.Fields {
		fields = append(fields, fieldContext(field, view, options.InstanceID))
	}
	ctx["fields"] = fields
	return ctx
}

func embedContext(view model.View, options render.RenderOptions, content string) map[string]any {
	base := strings.TrimRight(options.AssetBase, "/")
	ctx := map[string]any{
		"tag":           TagName,
		"form_id":       view.FormID,
		"api_base":      options.APIBase,
		"content":       content,
		"script_url":    base + "/" + ScriptName,
		"theme_class":   string(ClassTheme),
		"theme_style":   "",
		"theme_name":    "",
		"theme_variant": "",
	}
	if cfg := options.Theme; cfg != nil {
		ctx["theme_style"] = theme.StyleAttr(cfg.CSSVars)
		ctx["theme_name"] = cfg.Theme
		ctx["theme_variant"] = cfg.Variant
		if cfg.AssetURL != nil {
			if url := cfg.AssetURL(ScriptName); url != "" && url != ScriptName {
				ctx["script_url"] = url
			}
		}
	}
	return ctx
}

// partialName lets a theme swap the widget or embed template for its own.
func partialName(options render.RenderOptions, name string) string {
	if options.Theme != nil {
		if override := strings.TrimSpace(options.Theme.Partials[name]); override != "" {
			return override
		}
	}
	return name
}
