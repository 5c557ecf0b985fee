// Package dom is a server-side host page for embeddable form widgets.
//
// A Document wraps a parsed HTML page and plays the part of the browser:
// custom elements are registered with Define, upgraded when they are
// connected to the tree and torn down when removed. Shared page resources
// (the widget stylesheet) are registered once per document, and custom
// properties can be resolved the way a browser's computed style would.
package dom
