package textmodel

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed rendering that can be queried with CSS selectors.
type Document struct {
	doc *goquery.Document
}

// ParseError wraps a failure to read markup.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse reads HTML markup into a Document.
func Parse(markup string) (*Document, error) {
	return ParseReader(strings.NewReader(markup))
}

// ParseReader reads HTML from r into a Document.
func ParseReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}
	return &Document{doc: doc}, nil
}

// NewDocument wraps an already built html tree.
func NewDocument(root *html.Node) *Document {
	return &Document{doc: goquery.NewDocumentFromNode(root)}
}

// Root returns the document node.
func (d *Document) Root() Node {
	if len(d.doc.Nodes) == 0 {
		return nil
	}
	return FromHTML(d.doc.Nodes[0])
}

// Find returns every node matching selector in document order.
func (d *Document) Find(selector string) []Node {
	var nodes []Node
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, FromHTML(s.Get(0)))
	})
	return nodes
}

// First returns the first node matching selector.
func (d *Document) First(selector string) (Node, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return FromHTML(sel.Get(0)), true
}

// Text returns the concatenated text of the first node matching selector.
func (d *Document) Text(selector string) string {
	return d.doc.Find(selector).First().Text()
}
