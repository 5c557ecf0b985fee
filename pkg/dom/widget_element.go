package dom

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
	"github.com/goliatone/go-formembed/pkg/widget"
)

// WidgetConfig wires <clientt-form> elements to the forms API.
type WidgetConfig struct {
	API      widget.API
	Renderer render.Renderer
	Options  render.RenderOptions
	Logger   *zap.Logger
	// WidgetOptions are passed to every widget.New call.
	WidgetOptions []widget.Option
}

// DefineWidget registers the form widget under vanilla.TagName. It is the
// equivalent of a host page including the loader script.
func DefineWidget(ctx context.Context, doc *Document, cfg WidgetConfig) error {
	if cfg.Renderer == nil {
		renderer, err := vanilla.New()
		if err != nil {
			return err
		}
		cfg.Renderer = renderer
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var (
		mu      sync.Mutex
		counter int
	)
	return doc.Define(ctx, vanilla.TagName, func(doc *Document, el *Element) CustomElement {
		mu.Lock()
		counter++
		instance := strconv.Itoa(counter)
		mu.Unlock()
		return newWidgetElement(doc, el, cfg, instance)
	})
}

// WidgetElement is the behaviour behind one <clientt-form>. It owns its
// widget and re-renders its subtree on every state change.
type WidgetElement struct {
	doc      *Document
	el       *Element
	cfg      WidgetConfig
	instance string
	widget   *widget.Widget
}

func newWidgetElement(doc *Document, el *Element, cfg WidgetConfig, instance string) *WidgetElement {
	we := &WidgetElement{doc: doc, el: el, cfg: cfg, instance: instance}
	opts := append([]widget.Option{
		widget.WithLogger(cfg.Logger),
		widget.WithObserver(we.paint),
	}, cfg.WidgetOptions...)
	we.widget = widget.New(cfg.API, opts...)
	return we
}

// Connected registers the shared stylesheet and attaches the widget to the
// element's form-id.
func (w *WidgetElement) Connected(ctx context.Context) {
	w.doc.EnsureStylesheet(vanilla.StylesheetID, vanilla.Stylesheet())
	formID, _ := w.el.Attr(vanilla.FormIDAttr)
	if err := w.widget.Attach(ctx, formID); err != nil {
		w.cfg.Logger.Debug("widget attach failed", zap.String("form_id", formID), zap.Error(err))
	}
}

// Disconnected detaches the widget; late responses are dropped.
func (w *WidgetElement) Disconnected() {
	w.widget.Detach()
}

// Element returns the host element.
func (w *WidgetElement) Element() *Element { return w.el }

// Widget exposes the underlying state machine.
func (w *WidgetElement) Widget() *widget.Widget { return w.widget }

// View returns the current snapshot.
func (w *WidgetElement) View() model.View { return w.widget.View() }

// Input records a user edit.
func (w *WidgetElement) Input(name string, value any) error {
	return w.widget.SetValue(name, value)
}

// Submit triggers the form's submit action.
func (w *WidgetElement) Submit(ctx context.Context) error {
	return w.widget.Submit(ctx)
}

// Retry re-fetches the definition after a retryable load error.
func (w *WidgetElement) Retry(ctx context.Context) error {
	return w.widget.Retry(ctx)
}

// Wait blocks until in-flight requests have settled.
func (w *WidgetElement) Wait() { w.widget.Wait() }

func (w *WidgetElement) paint(view model.View) {
	opts := w.cfg.Options
	opts.Standalone = false
	opts.InstanceID = w.instance

	out, err := w.cfg.Renderer.Render(context.Background(), view, opts)
	if err != nil {
		w.cfg.Logger.Warn("widget render failed", zap.String("form_id", view.FormID), zap.Error(err))
		return
	}
	if err := w.doc.replaceChildren(w.el, w, string(out)); err != nil {
		w.cfg.Logger.Warn("widget paint failed", zap.String("form_id", view.FormID), zap.Error(err))
	}
}

// Widgets lists the widget instances mounted in the page, in document order.
func (d *Document) Widgets() []*WidgetElement {
	var out []*WidgetElement
	for _, el := range d.ElementsByTag(vanilla.TagName) {
		if instance, ok := d.Instance(el); ok {
			if we, ok := instance.(*WidgetElement); ok {
				out = append(out, we)
			}
		}
	}
	return out
}

// WaitAll blocks until every mounted widget has settled.
func (d *Document) WaitAll() {
	for _, we := range d.Widgets() {
		we.Wait()
	}
}

// replaceChildren swaps el's subtree only while owner is still the element's
// live instance, so paints racing a removal are dropped.
func (d *Document) replaceChildren(el *Element, owner CustomElement, markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.instances[el.node] != owner {
		return nil
	}
	for c := el.node.FirstChild; c != nil; {
		next := c.NextSibling
		el.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		el.node.AppendChild(n)
	}
	return nil
}

var _ CustomElement = (*WidgetElement)(nil)
