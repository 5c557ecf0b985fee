package dom

import (
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EnsureStylesheet inserts <style id="id"> into <head> unless an element
// with that id already exists. The first registration wins; later calls
// never modify or remove it. Reports whether a style element was added.
func (d *Document) EnsureStylesheet(id, stylesheet string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing := find(d.root, func(n *html.Node) bool {
		value, ok := attr(n, "id")
		return ok && value == id
	})
	if existing != nil {
		return false
	}

	head := find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		head = d.root
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: stylesheet})
	head.AppendChild(style)
	d.logger.Debug("stylesheet registered", zap.String("id", id))
	return true
}

// ComputedCustomProperty resolves a custom property (for example
// "--clientt-primary-color") on el the way a browser would: the cascaded
// value on the element itself, otherwise the value inherited from the
// nearest ancestor that has one.
//
// Selectors are matched with cascadia, so combinators, attribute selectors
// and pseudo-classes such as :root take part in the cascade.
func (d *Document) ComputedCustomProperty(el *Element, name string) (string, bool) {
	if el == nil || el.doc != d {
		return "", false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rules := d.styleRulesLocked()
	for n := el.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if value, ok := cascaded(n, name, rules); ok {
			return value, true
		}
	}
	return "", false
}

type styleRule struct {
	selectors    []cascadia.Sel
	declarations []*css.Declaration
	order        int
}

type candidate struct {
	value       string
	important   bool
	inline      bool
	specificity cascadia.Specificity
	order       int
}

func (c candidate) beats(other candidate) bool {
	if c.important != other.important {
		return c.important
	}
	if c.inline != other.inline {
		return c.inline
	}
	if c.specificity != other.specificity {
		return other.specificity.Less(c.specificity)
	}
	return c.order > other.order
}

func (d *Document) styleRulesLocked() []styleRule {
	var rules []styleRule
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Style {
			return
		}
		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			}
		}
		sheet, err := parser.Parse(text.String())
		if err != nil {
			d.logger.Debug("skipping unparsable stylesheet", zap.Error(err))
			return
		}
		for _, rule := range sheet.Rules {
			if rule.Kind != css.QualifiedRule {
				continue
			}
			selectors := compileSelectors(rule.Selectors)
			if len(selectors) == 0 {
				d.logger.Debug("skipping rule without supported selectors", zap.Strings("selectors", rule.Selectors))
				continue
			}
			rules = append(rules, styleRule{
				selectors:    selectors,
				declarations: rule.Declarations,
				order:        len(rules),
			})
		}
	})
	return rules
}

// compileSelectors keeps the selectors cascadia understands; a browser
// likewise drops selectors it cannot parse.
func compileSelectors(raw []string) []cascadia.Sel {
	out := make([]cascadia.Sel, 0, len(raw))
	for _, selector := range raw {
		sel, err := cascadia.Parse(strings.TrimSpace(selector))
		if err != nil {
			continue
		}
		out = append(out, sel)
	}
	return out
}

func cascaded(n *html.Node, name string, rules []styleRule) (string, bool) {
	var best candidate
	found := false
	consider := func(c candidate) {
		if !found || c.beats(best) {
			best = c
			found = true
		}
	}

	for _, rule := range rules {
		specificity, ok := matchAny(n, rule.selectors)
		if !ok {
			continue
		}
		for _, decl := range rule.declarations {
			if decl.Property == name {
				consider(candidate{value: strings.TrimSpace(decl.Value), important: decl.Important, specificity: specificity, order: rule.order})
			}
		}
	}

	if inline, ok := attr(n, "style"); ok && strings.TrimSpace(inline) != "" {
		if decls, err := parser.ParseDeclarations(inline); err == nil {
			for i, decl := range decls {
				if decl.Property == name {
					consider(candidate{value: strings.TrimSpace(decl.Value), important: decl.Important, inline: true, order: i})
				}
			}
		}
	}
	return best.value, found
}

// matchAny returns the highest specificity among selectors matching n.
func matchAny(n *html.Node, selectors []cascadia.Sel) (cascadia.Specificity, bool) {
	var best cascadia.Specificity
	matched := false
	for _, sel := range selectors {
		if !sel.Match(n) {
			continue
		}
		if spec := sel.Specificity(); !matched || best.Less(spec) {
			best = spec
		}
		matched = true
	}
	return best, matched
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
