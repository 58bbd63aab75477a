// Package overlay turns segments into decorated, clickable HTML fragments.
package overlay

import (
	"github.com/jonathan/story-annotations/internal/annotation"
)

// RoughEffect describes a hand-drawn sketch drawn over a mark by the client-side
// rough annotation layer. CSS-only styles have no effect.
type RoughEffect struct {
	Kind        string
	StrokeWidth float64
	Padding     int
	Iterations  int
	Brackets    string
}

// StyleSpec is the rendering recipe for one annotation style.
type StyleSpec struct {
	Label   string
	Classes []string
	Rough   *RoughEffect
}

// ColorSpec maps a palette color to its classes and sketch stroke.
type ColorSpec struct {
	Label      string
	Background string
	Text       string
	Border     string
	Stroke     string
}

var styleTable = map[annotation.Style]StyleSpec{
	annotation.StyleHighlight: {
		Label:   "Highlight",
		Classes: []string{"annotation-highlight", "rounded-sm", "px-0.5"},
	},
	annotation.StyleUnderline: {
		Label:   "Underline",
		Classes: []string{"annotation-underline", "underline", "decoration-2", "underline-offset-4"},
	},
	annotation.StyleBox: {
		Label:   "Box",
		Classes: []string{"annotation-box"},
		Rough:   &RoughEffect{Kind: "box", StrokeWidth: 1.5, Padding: 2, Iterations: 2},
	},
	annotation.StyleCircle: {
		Label:   "Circle",
		Classes: []string{"annotation-circle"},
		Rough:   &RoughEffect{Kind: "circle", StrokeWidth: 1.5, Padding: 6, Iterations: 2},
	},
	annotation.StyleStrikeThrough: {
		Label:   "Strike",
		Classes: []string{"annotation-strike"},
		Rough:   &RoughEffect{Kind: "strike-through", StrokeWidth: 1.5, Padding: 0, Iterations: 1},
	},
	annotation.StyleBracket: {
		Label:   "Bracket",
		Classes: []string{"annotation-bracket"},
		Rough:   &RoughEffect{Kind: "bracket", StrokeWidth: 2, Padding: 4, Iterations: 1, Brackets: "left,right"},
	},
	annotation.StyleAside: {
		Label:   "Aside",
		Classes: []string{"annotation-aside"},
	},
}

var colorTable = map[annotation.Color]ColorSpec{
	annotation.ColorYellow: {Label: "Yellow", Background: "bg-yellow-200/60", Text: "text-yellow-900", Border: "border-yellow-400", Stroke: "#eab308"},
	annotation.ColorGreen:  {Label: "Green", Background: "bg-green-200/60", Text: "text-green-900", Border: "border-green-400", Stroke: "#22c55e"},
	annotation.ColorBlue:   {Label: "Blue", Background: "bg-blue-200/60", Text: "text-blue-900", Border: "border-blue-400", Stroke: "#3b82f6"},
	annotation.ColorPurple: {Label: "Purple", Background: "bg-purple-200/60", Text: "text-purple-900", Border: "border-purple-400", Stroke: "#a855f7"},
	annotation.ColorRose:   {Label: "Rose", Background: "bg-rose-200/60", Text: "text-rose-900", Border: "border-rose-400", Stroke: "#f43f5e"},
	annotation.ColorOrange: {Label: "Orange", Background: "bg-orange-200/60", Text: "text-orange-900", Border: "border-orange-400", Stroke: "#f97316"},
	annotation.ColorGray:   {Label: "Gray", Background: "bg-gray-200/60", Text: "text-gray-900", Border: "border-gray-400", Stroke: "#6b7280"},
}

// hoverRing is added to a mark whose annotation is hovered in the text or margin.
var hoverRing = []string{"ring-2", "ring-offset-1", "ring-slate-400"}

// StyleFor returns the recipe for style, falling back to highlight for unknown values.
func StyleFor(style annotation.Style) StyleSpec {
	if spec, ok := styleTable[style]; ok {
		return spec
	}
	return styleTable[annotation.StyleHighlight]
}

// ColorFor returns the palette entry for color, falling back to the default color.
func ColorFor(color annotation.Color) ColorSpec {
	if spec, ok := colorTable[color]; ok {
		return spec
	}
	return colorTable[annotation.DefaultColor]
}

// colorClasses picks the classes a style uses from its color: highlights fill the
// background, sketched styles only tint the text, underlines color the decoration.
func colorClasses(style annotation.Style, c ColorSpec) []string {
	switch style {
	case annotation.StyleHighlight:
		return []string{c.Background, c.Text}
	case annotation.StyleUnderline:
		return []string{c.Border, "decoration-current", c.Text}
	default:
		return []string{c.Text}
	}
}

// HoverClasses returns the hover ring classes, for margin items that mirror a mark's
// hover state.
func HoverClasses() []string {
	return append([]string(nil), hoverRing...)
}
