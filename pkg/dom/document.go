package dom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrAlreadyDefined = errors.New("dom: element already defined")
	ErrInvalidTagName = errors.New("dom: custom element names must contain a hyphen")
	ErrForeignElement = errors.New("dom: element belongs to another document")
)

// CustomElement receives lifecycle callbacks for one element instance.
// Callbacks run without the document lock held, so implementations may call
// back into the document.
type CustomElement interface {
	Connected(ctx context.Context)
	Disconnected()
}

// Factory creates the behaviour behind a newly upgraded element.
type Factory func(doc *Document, el *Element) CustomElement

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Document is a host page. All tree access is serialised by one mutex.
type Document struct {
	mu          sync.Mutex
	root        *html.Node
	definitions map[string]Factory
	instances   map[*html.Node]CustomElement
	logger      *zap.Logger
}

// Element is a handle on a node owned by a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Parse reads a host page.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	doc := &Document{
		root:        root,
		definitions: make(map[string]Factory),
		instances:   make(map[*html.Node]CustomElement),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(doc)
		}
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), opts...)
}

// Define registers a custom element and upgrades every matching element
// already connected to the page.
func (d *Document) Define(ctx context.Context, tag string, factory Factory) error {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if !strings.Contains(tag, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidTagName, tag)
	}
	if factory == nil {
		return errors.New("dom: factory is required")
	}

	d.mu.Lock()
	if _, ok := d.definitions[tag]; ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyDefined, tag)
	}
	d.definitions[tag] = factory
	d.mu.Unlock()

	d.Upgrade(ctx)
	return nil
}

// Defined reports whether tag has a registered factory.
func (d *Document) Defined(tag string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.definitions[strings.ToLower(tag)]
	return ok
}

// Upgrade connects every defined element in the page that has no instance
// yet and returns how many were upgraded.
func (d *Document) Upgrade(ctx context.Context) int {
	d.mu.Lock()
	pending := d.upgradeLocked(d.root)
	d.mu.Unlock()

	for _, instance := range pending {
		instance.Connected(ctx)
	}
	return len(pending)
}

// CreateElement builds a detached element. It is connected by AppendChild.
func (d *Document) CreateElement(tag string, attrs map[string]string) *Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	node := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	keys := sortedKeys(attrs)
	for _, key := range keys {
		node.Attr = append(node.Attr, html.Attribute{Key: key, Val: attrs[key]})
	}
	return &Element{doc: d, node: node}
}

// AppendChild attaches child (and its subtree) under parent. When parent is
// part of the page, defined elements in the subtree are connected.
func (d *Document) AppendChild(ctx context.Context, parent, child *Element) error {
	if parent == nil || child == nil {
		return errors.New("dom: parent and child are required")
	}
	if parent.doc != d || child.doc != d {
		return ErrForeignElement
	}

	d.mu.Lock()
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	parent.node.AppendChild(child.node)
	var pending []CustomElement
	if d.connectedLocked(parent.node) {
		pending = d.upgradeLocked(child.node)
	}
	d.mu.Unlock()

	for _, instance := range pending {
		instance.Connected(ctx)
	}
	return nil
}

// Remove detaches el from the page, disconnecting every custom element in
// its subtree.
func (d *Document) Remove(el *Element) error {
	if el == nil {
		return nil
	}
	if el.doc != d {
		return ErrForeignElement
	}

	d.mu.Lock()
	var gone []CustomElement
	walk(el.node, func(n *html.Node) {
		if instance, ok := d.instances[n]; ok {
			gone = append(gone, instance)
			delete(d.instances, n)
		}
	})
	if el.node.Parent != nil {
		el.node.Parent.RemoveChild(el.node)
	}
	d.mu.Unlock()

	for _, instance := range gone {
		instance.Disconnected()
	}
	return nil
}

// Instance returns the behaviour bound to an upgraded element.
func (d *Document) Instance(el *Element) (CustomElement, bool) {
	if el == nil {
		return nil, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	instance, ok := d.instances[el.node]
	return instance, ok
}

// Head returns the document head.
func (d *Document) Head() *Element {
	return d.firstByAtom(atom.Head)
}

// Body returns the document body.
func (d *Document) Body() *Element {
	return d.firstByAtom(atom.Body)
}

// ElementByID finds the first element with the given id.
func (d *Document) ElementByID(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	node := find(d.root, func(n *html.Node) bool {
		value, ok := attr(n, "id")
		return ok && value == id
	})
	if node == nil {
		return nil
	}
	return &Element{doc: d, node: node}
}

// ElementsByTag lists connected elements with the given tag name.
func (d *Document) ElementsByTag(tag string) []*Element {
	tag = strings.ToLower(tag)
	return d.filter(d.root, func(n *html.Node) bool { return n.Data == tag })
}

// ElementsWithAttr lists connected elements that carry attribute name.
func (d *Document) ElementsWithAttr(name string) []*Element {
	return d.filter(d.root, func(n *html.Node) bool {
		_, ok := attr(n, name)
		return ok
	})
}

// Render serialises the page.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String serialises the page, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.node, name)
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Text returns the concatenated text content of the subtree.
func (e *Element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var b strings.Builder
	walk(e.node, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

// InnerHTML serialises the element's children.
func (e *Element) InnerHTML() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// SetInnerHTML replaces the element's children with parsed markup. Custom
// elements inside the markup are not upgraded; call Upgrade for that.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// Query lists descendants carrying attribute name, optionally with value.
func (e *Element) Query(name string, value ...string) []*Element {
	return e.doc.filter(e.node, func(n *html.Node) bool {
		if n == e.node {
			return false
		}
		got, ok := attr(n, name)
		if !ok {
			return false
		}
		return len(value) == 0 || got == value[0]
	})
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return nil
	}
	return &Element{doc: e.doc, node: e.node.Parent}
}

func (d *Document) upgradeLocked(root *html.Node) []CustomElement {
	var pending []CustomElement
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if _, done := d.instances[n]; done {
			return
		}
		factory, ok := d.definitions[n.Data]
		if !ok {
			return
		}
		instance := factory(d, &Element{doc: d, node: n})
		if instance == nil {
			return
		}
		d.instances[n] = instance
		pending = append(pending, instance)
	})
	if len(pending) > 0 {
		d.logger.Debug("custom elements upgraded", zap.Int("count", len(pending)))
	}
	return pending
}

func (d *Document) connectedLocked(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

func (d *Document) firstByAtom(a atom.Atom) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	node := find(d.root, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a })
	if node == nil {
		return nil
	}
	return &Element{doc: d, node: node}
}

func (d *Document) filter(root *html.Node, match func(*html.Node) bool) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Element
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, &Element{doc: d, node: n})
		}
	})
	return out
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func parseFragment(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}
