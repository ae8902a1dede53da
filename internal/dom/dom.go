// Package dom provides the small set of HTML fragment operations the
// binding and row layers need: parsing and rendering fragments, attribute
// and class manipulation, inclusive traversal, and a deliberately tiny
// selector matcher covering only the forms the binder derives
// (#id, .class, [attr=value], and bare tag names).
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup in a body context and returns the first
// element node. Surrounding whitespace text nodes are skipped.
func ParseFragment(markup string) (*html.Node, error) {
	nodes, err := parseAll(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("dom: fragment has no element node")
}

// ParseFragments parses markup and returns every top-level element node.
func ParseFragments(markup string) ([]*html.Node, error) {
	nodes, err := parseAll(markup)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out, nil
}

func parseAll(markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return nodes, nil
}

// Render serializes a node back to HTML.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

// NewElement constructs a detached element node.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText constructs a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or a fallback when absent.
func AttrOr(n *html.Node, name, fallback string) string {
	if v, ok := Attr(n, name); ok {
		return v
	}
	return fallback
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the class attribute contains the given class.
func HasClass(n *html.Node, class string) bool {
	raw, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(raw) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class if it is not already present.
func AddClass(n *html.Node, class string) {
	if class == "" || HasClass(n, class) {
		return
	}
	raw := AttrOr(n, "class", "")
	if raw == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", raw+" "+class)
}

// RemoveClass strips a class, dropping the attribute when it empties out.
func RemoveClass(n *html.Node, class string) {
	raw, ok := Attr(n, "class")
	if !ok {
		return
	}
	var kept []string
	for _, c := range strings.Fields(raw) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// ToggleClass adds or removes a class based on the on flag.
func ToggleClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
		return
	}
	RemoveClass(n, class)
}

// Walk visits root and every descendant element node in document order.
func Walk(root *html.Node, visit func(*html.Node)) {
	if root == nil {
		return
	}
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)
}

// FindAll returns root and every descendant element matching the predicate.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
		}
	})
	return out
}

// FindByAttr returns every element in the subtree carrying the named attribute.
func FindByAttr(root *html.Node, name string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool {
		_, ok := Attr(n, name)
		return ok
	})
}

// First returns the first element in the subtree matching the selector, or nil.
func First(root *html.Node, selector string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) {
		if found == nil && Matches(n, selector) {
			found = n
		}
	})
	return found
}

// Select returns every element in the subtree matching the selector.
func Select(root *html.Node, selector string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool { return Matches(n, selector) })
}

// Matches evaluates the selector-lite grammar against a single element:
// "#id", ".class", "[attr]", "[attr=value]", or a bare tag name.
func Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "":
		return false
	case strings.HasPrefix(selector, "#"):
		id, _ := Attr(n, "id")
		return id != "" && id == selector[1:]
	case strings.HasPrefix(selector, "."):
		return HasClass(n, selector[1:])
	case strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]"):
		body := selector[1 : len(selector)-1]
		name, want, hasValue := strings.Cut(body, "=")
		got, ok := Attr(n, strings.TrimSpace(name))
		if !ok {
			return false
		}
		if !hasValue {
			return true
		}
		return got == strings.Trim(strings.TrimSpace(want), `"'`)
	default:
		return strings.EqualFold(n.Data, selector)
	}
}

// Closest walks from start up to boundary (inclusive on both ends) and
// returns the first element matching the selector, or nil.
func Closest(start, boundary *html.Node, selector string) *html.Node {
	for n := start; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && Matches(n, selector) {
			return n
		}
		if n == boundary {
			break
		}
	}
	return nil
}

// Contains reports whether node sits inside root's subtree (inclusive).
func Contains(root, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Detach removes a node from its parent. Detaching a parentless node is a no-op.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Empty removes every child of n.
func Empty(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Text concatenates the text content of the subtree.
func Text(n *html.Node) string {
	var buf strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	if n != nil {
		traverse(n)
	}
	return buf.String()
}

// SetText replaces n's children with a single text node.
func SetText(n *html.Node, text string) {
	Empty(n)
	n.AppendChild(NewText(text))
}
