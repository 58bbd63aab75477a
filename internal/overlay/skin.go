package overlay

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/segment"
)

// Attribute names shared by the renderer, the interaction controller and the
// connector geometry.
const (
	AttrAnnotationID = "data-annotation-id"
	AttrAnchor       = "data-anchor"
	AttrSectionKey   = "data-section-key"
	AttrAction       = "data-action"

	AnchorText   = "text"
	AnchorMargin = "margin"

	ActionDelete = "delete"
)

// Options control how a mark is decorated.
type Options struct {
	// ShowStyles toggles the emphasis display. Hidden marks keep their anchors.
	ShowStyles bool
	// Hovered adds the hover ring.
	Hovered bool
}

// Skin renders one segment. Plain segments become text nodes; annotated segments
// become a <mark> tagged as the text anchor of their annotation.
func Skin(seg segment.Segment, style annotation.Style, color annotation.Color, opts Options) *html.Node {
	text := &html.Node{Type: html.TextNode, Data: seg.Text}
	if !seg.Annotated() {
		return text
	}

	id := seg.AnnotationID.String()
	classes := []string{"annotation-mark", "cursor-pointer"}
	attrs := []html.Attribute{
		{Key: AttrAnnotationID, Val: id},
		{Key: AttrAnchor, Val: AnchorText},
	}

	if opts.ShowStyles {
		spec := StyleFor(style)
		cspec := ColorFor(color)
		classes = append(classes, spec.Classes...)
		classes = append(classes, colorClasses(style, cspec)...)
		attrs = append(attrs,
			html.Attribute{Key: "data-style", Val: string(style)},
			html.Attribute{Key: "data-color", Val: string(color)},
		)
		if spec.Rough != nil {
			attrs = append(attrs, roughAttrs(spec.Rough, cspec.Stroke)...)
		}
	} else {
		classes = append(classes, "annotation-plain")
	}
	if opts.Hovered {
		classes = append(classes, hoverRing...)
	}

	attrs = append(attrs, html.Attribute{Key: "class", Val: strings.Join(classes, " ")})

	mark := newElement(atom.Mark, attrs...)
	mark.AppendChild(text)
	return mark
}

func roughAttrs(r *RoughEffect, stroke string) []html.Attribute {
	attrs := []html.Attribute{
		{Key: "data-rough", Val: r.Kind},
		{Key: "data-rough-color", Val: stroke},
		{Key: "data-rough-stroke-width", Val: strconv.FormatFloat(r.StrokeWidth, 'f', -1, 64)},
		{Key: "data-rough-padding", Val: strconv.Itoa(r.Padding)},
		{Key: "data-rough-iterations", Val: strconv.Itoa(r.Iterations)},
	}
	if r.Brackets != "" {
		attrs = append(attrs, html.Attribute{Key: "data-rough-brackets", Val: r.Brackets})
	}
	return attrs
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// NewElement builds an element node for tag with the given attributes.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// Attr is shorthand for building an html attribute.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Text builds a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// RenderString serialises n as HTML.
func RenderString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return buf.String(), nil
}
