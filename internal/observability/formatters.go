// Package observability provides formatted output for the CLI's inspection commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/segment"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the segment and render commands
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer. Verbose
// printers list every item instead of the first few.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func (p *Printer) limit(n int) int {
	if p.verbose || n <= maxItemsToShow {
		return n
	}
	return maxItemsToShow
}

// PrintSegments outputs the segmentation of one section: every mark with its range
// and style, followed by the annotations dropped as overlaps.
func (p *Printer) PrintSegments(sectionKey, text string, segments []segment.Segment, anns []annotation.Annotation) {
	var sb strings.Builder

	marks := 0
	for _, seg := range segments {
		if seg.Annotated() {
			marks++
		}
	}
	sb.WriteString(fmt.Sprintf("Length:   %d\n", textmodel.Len(text)))
	sb.WriteString(fmt.Sprintf("Segments: %d (%d marked)\n", len(segments), marks))

	if marks > 0 {
		sb.WriteString("\n")
		shown := 0
		for _, seg := range segments {
			if !seg.Annotated() {
				continue
			}
			if shown == p.limit(marks) {
				break
			}
			shown++
			style := "?"
			if a, ok := annotation.Find(anns, *seg.AnnotationID); ok {
				style = string(a.Style) + "/" + string(a.Color)
			}
			sb.WriteString(fmt.Sprintf("  [%d,%d) %s %q\n", seg.Start, seg.End, style, seg.Text))
		}
		if shown < marks {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", marks-shown))
		}
	}

	if dropped := segment.Dropped(text, anns); len(dropped) > 0 {
		sb.WriteString("\nDropped (overlapping):\n")
		for _, id := range dropped {
			sb.WriteString(fmt.Sprintf("  • %s\n", shortID(id)))
		}
	}

	p.printBox(fmt.Sprintf("SECTION %s", strings.ToUpper(sectionKey)), strings.TrimRight(sb.String(), "\n"))
}

// PrintMargin outputs the notes and asides of a section in margin order.
func (p *Printer) PrintMargin(sectionKey string, anns []annotation.Annotation) {
	items := annotation.ForSection(anns, sectionKey)
	var margin []annotation.Annotation
	for _, a := range items {
		if a.InMargin() {
			margin = append(margin, a)
		}
	}
	if len(margin) == 0 {
		return
	}
	annotation.SortForMargin(margin)

	var sb strings.Builder
	for i := 0; i < p.limit(len(margin)); i++ {
		a := margin[i]
		if a.IsAside() {
			sb.WriteString(fmt.Sprintf("• (aside) %s\n", a.NoteText()))
			continue
		}
		sb.WriteString(fmt.Sprintf("• %q: %s\n", a.AnnotatedText, a.NoteText()))
	}
	if n := len(margin) - p.limit(len(margin)); n > 0 {
		sb.WriteString(fmt.Sprintf("... and %d more notes", n))
	}

	p.printBox(fmt.Sprintf("MARGIN %s", strings.ToUpper(sectionKey)), strings.TrimRight(sb.String(), "\n"))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
