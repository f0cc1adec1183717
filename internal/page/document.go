// Package page models one loaded page: its elements, their visibility and injected assets.
package page

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an addressable node of the page.
type Element struct {
	ID      string `json:"id"`
	Tag     string `json:"tag"`
	Visible bool   `json:"visible"`
}

// Document is an in-memory page. It is safe for concurrent use.
type Document struct {
	mu       sync.RWMutex
	path     string
	elements map[string]*Element
	order    []string
	styles   map[string]string
	scripts  map[string]string
	markup   []string
}

// New creates an empty document for the page at urlPath.
func New(urlPath string) *Document {
	return &Document{
		path:     Clean(urlPath),
		elements: make(map[string]*Element),
		styles:   make(map[string]string),
		scripts:  make(map[string]string),
	}
}

// Clean normalizes a page path to an absolute slash path.
func Clean(urlPath string) string {
	if urlPath == "" {
		return "/"
	}
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	return path.Clean(urlPath)
}

// Depth counts the directories between the site root and the page: /index.html is 0, /jobs/view.html is 1.
func Depth(urlPath string) int {
	dir := path.Dir(Clean(urlPath))
	if dir == "/" {
		return 0
	}
	return strings.Count(strings.Trim(dir, "/"), "/") + 1
}

// Path returns the page path.
func (d *Document) Path() string { return d.path }

// InjectMarkup parses an HTML fragment and registers every element carrying an id.
// Elements with a hidden attribute or an inline display:none start invisible.
func (d *Document) InjectMarkup(markup string) error {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return fmt.Errorf("failed to parse markup: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range nodes {
		d.register(n)
	}
	d.markup = append(d.markup, markup)
	return nil
}

func (d *Document) register(n *html.Node) {
	if n.Type == html.ElementNode {
		if id := attr(n, "id"); id != "" {
			if _, exists := d.elements[id]; !exists {
				d.order = append(d.order, id)
			}
			d.elements[id] = &Element{ID: id, Tag: n.Data, Visible: !hiddenByAttr(n)}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.register(c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hiddenByAttr(n *html.Node) bool {
	if hasAttr(n, "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none")
}

// InjectStyle adds a stylesheet under its reference.
func (d *Document) InjectStyle(ref, css string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.styles[ref] = css
}

// InjectScript adds a script under its reference.
func (d *Document) InjectScript(ref, js string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[ref] = js
}

// HasStyle reports whether a stylesheet with this reference is present.
func (d *Document) HasStyle(ref string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.styles[ref]
	return ok
}

// HasScript reports whether a script with this reference is present.
func (d *Document) HasScript(ref string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.scripts[ref]
	return ok
}

// HasElement reports whether an element with this id is present.
func (d *Document) HasElement(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.elements[id]
	return ok
}

// SetVisible shows or hides an element. Unknown ids are ignored.
func (d *Document) SetVisible(id string, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elements[id]; ok {
		el.Visible = visible
	}
}

// Visible reports whether the element exists and is shown.
func (d *Document) Visible(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[id]
	return ok && el.Visible
}

// Snapshot is a read-only copy of the document state.
type Snapshot struct {
	Path     string    `json:"path"`
	Elements []Element `json:"elements"`
	Styles   []string  `json:"styles"`
	Scripts  []string  `json:"scripts"`
}

// Snapshot copies the current document state.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{Path: d.path}
	for _, id := range d.order {
		s.Elements = append(s.Elements, *d.elements[id])
	}
	for ref := range d.styles {
		s.Styles = append(s.Styles, ref)
	}
	for ref := range d.scripts {
		s.Scripts = append(s.Scripts, ref)
	}
	sort.Strings(s.Styles)
	sort.Strings(s.Scripts)
	return s
}
