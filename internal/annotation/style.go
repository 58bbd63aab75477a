package annotation

// Style is the visual treatment of an annotation.
type Style string

// Styles
const (
	StyleHighlight     Style = "highlight"
	StyleUnderline     Style = "underline"
	StyleBox           Style = "box"
	StyleCircle        Style = "circle"
	StyleStrikeThrough Style = "strike-through"
	StyleBracket       Style = "bracket"
	StyleAside         Style = "aside"
)

// MarkStyles lists the styles offered by the selection style picker, in picker order.
var MarkStyles = []Style{
	StyleHighlight,
	StyleUnderline,
	StyleBox,
	StyleCircle,
	StyleStrikeThrough,
	StyleBracket,
}

// Valid reports whether s is a known style.
func (s Style) Valid() bool {
	if s == StyleAside {
		return true
	}
	for _, m := range MarkStyles {
		if s == m {
			return true
		}
	}
	return false
}

// Color is one of the fixed palette values.
type Color string

// Palette colors
const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorRose   Color = "rose"
	ColorOrange Color = "orange"
	ColorGray   Color = "gray"
)

// DefaultColor is used when a create request does not name a color.
const DefaultColor = ColorYellow

// Palette lists the colors in picker order.
var Palette = []Color{
	ColorYellow,
	ColorGreen,
	ColorBlue,
	ColorPurple,
	ColorRose,
	ColorOrange,
	ColorGray,
}

// Valid reports whether c is a palette color.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}
