// Package geometry computes the connector drawn between a margin note and the text
// it annotates.
package geometry

import (
	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/overlay"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// Point is a position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a layout box in viewport coordinates, as returned by getBoundingClientRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterY returns the vertical centre.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// CenterX returns the horizontal centre.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// Empty reports whether the rect has no area, as for elements that are not laid out.
func (r Rect) Empty() bool {
	return r.Width <= 0 && r.Height <= 0
}

// Line is a connector segment relative to the container's top-left corner.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Connect runs from the right edge and vertical centre of the margin anchor to the
// left edge and vertical centre of the text anchor.
func Connect(container, margin, text Rect) Line {
	return Line{
		X1: margin.Right() - container.Left(),
		Y1: margin.CenterY() - container.Top(),
		X2: text.Left() - container.Left(),
		Y2: text.CenterY() - container.Top(),
	}
}

// Layout measures rendered nodes. It reports false for nodes that are not laid out.
type Layout interface {
	Bounds(n textmodel.Node) (Rect, bool)
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func(n textmodel.Node) (Rect, bool)

// Bounds calls f.
func (f LayoutFunc) Bounds(n textmodel.Node) (Rect, bool) {
	return f(n)
}

// FindAnchor locates the element tagged as the kind ("margin" or "text") anchor of
// the annotation id below root.
func FindAnchor(root textmodel.Node, id uuid.UUID, kind string) (textmodel.Node, bool) {
	if root == nil || id == uuid.Nil {
		return nil, false
	}
	return textmodel.FindByAttrs(root, map[string]string{
		overlay.AttrAnnotationID: id.String(),
		overlay.AttrAnchor:       kind,
	})
}

// Compute returns the connector for the hovered annotation id. It reports false, and
// nothing should be drawn, when the id is cleared, either anchor is missing (section
// collapsed, annotation deleted while hovered) or cannot be measured.
func Compute(root textmodel.Node, layout Layout, id uuid.UUID) (Line, bool) {
	if root == nil || layout == nil || id == uuid.Nil {
		return Line{}, false
	}

	marginNode, ok := FindAnchor(root, id, overlay.AnchorMargin)
	if !ok {
		return Line{}, false
	}
	textNode, ok := FindAnchor(root, id, overlay.AnchorText)
	if !ok {
		return Line{}, false
	}

	container, ok := layout.Bounds(root)
	if !ok {
		return Line{}, false
	}
	margin, ok := layout.Bounds(marginNode)
	if !ok || margin.Empty() {
		return Line{}, false
	}
	text, ok := layout.Bounds(textNode)
	if !ok || text.Empty() {
		return Line{}, false
	}

	return Connect(container, margin, text), true
}
