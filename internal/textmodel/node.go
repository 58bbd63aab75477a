package textmodel

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind classifies a node of the text model.
type Kind int

const (
	// OtherNode covers documents, comments and doctypes. Only their children count.
	OtherNode Kind = iota
	// TextNode carries a run of text in Data.
	TextNode
	// ElementNode is a tag; Data is the tag name.
	ElementNode
)

// Node is the minimal view of a rendered tree the text walk needs.
// Implementations must be comparable: two values refer to the same node only if
// they are equal with ==.
type Node interface {
	Kind() Kind
	Data() string
	Attr(key string) (string, bool)
	Parent() Node
	Children() []Node
}

// htmlNode adapts an x/net/html node. It is a value type wrapping the pointer, so
// equality follows node identity.
type htmlNode struct {
	n *html.Node
}

// FromHTML wraps an html node. It returns nil for a nil node.
func FromHTML(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return htmlNode{n: n}
}

// HTML unwraps a node created by FromHTML.
func HTML(n Node) (*html.Node, bool) {
	h, ok := n.(htmlNode)
	if !ok {
		return nil, false
	}
	return h.n, true
}

func (h htmlNode) Kind() Kind {
	switch h.n.Type {
	case html.TextNode:
		return TextNode
	case html.ElementNode:
		return ElementNode
	default:
		return OtherNode
	}
}

func (h htmlNode) Data() string {
	return h.n.Data
}

func (h htmlNode) Attr(key string) (string, bool) {
	for _, a := range h.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (h htmlNode) Parent() Node {
	if h.n.Parent == nil {
		return nil
	}
	return htmlNode{n: h.n.Parent}
}

func (h htmlNode) Children() []Node {
	var children []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, htmlNode{n: c})
	}
	return children
}

// TextContent concatenates every text node below n in document order.
func TextContent(n Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	Walk(n, func(c Node) bool {
		if c.Kind() == TextNode {
			sb.WriteString(c.Data())
		}
		return true
	})
	return sb.String()
}

// Walk visits n and its descendants in document order. Returning false from fn
// stops the walk.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// ClosestAttr returns the nearest node, starting at n and moving up through its
// ancestors, that carries the attribute key.
func ClosestAttr(n Node, key string) (Node, string, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Kind() != ElementNode {
			continue
		}
		if v, ok := cur.Attr(key); ok {
			return cur, v, true
		}
	}
	return nil, "", false
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
	}
	return false
}

// FindByAttrs returns the first element below root (inclusive) whose attributes
// match every key/value pair in attrs.
func FindByAttrs(root Node, attrs map[string]string) (Node, bool) {
	if root == nil {
		return nil, false
	}
	var found Node
	Walk(root, func(n Node) bool {
		if n.Kind() != ElementNode {
			return true
		}
		for k, want := range attrs {
			if got, ok := n.Attr(k); !ok || got != want {
				return true
			}
		}
		found = n
		return false
	})
	return found, found != nil
}
