// Package segment splits section text into plain and annotated runs for rendering.
package segment

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// Segment is a contiguous run of section text. AnnotationID is nil for plain text.
type Segment struct {
	Text         string     `json:"text"`
	Start        int        `json:"start"`
	End          int        `json:"end"`
	AnnotationID *uuid.UUID `json:"annotation_id,omitempty"`
}

// Annotated reports whether the segment is bound to an annotation.
func (s Segment) Annotated() bool {
	return s.AnnotationID != nil
}

// Split produces the ordered, gapless, non-overlapping segments covering text.
// anns must already be filtered to one owner and section. Asides never touch the
// text layer. Offsets are clamped to the text, so a stale annotation degrades to a
// shorter or missing mark. An annotation starting inside an earlier mark is dropped
// (first claimed wins).
func Split(text string, anns []annotation.Annotation) []Segment {
	segments, _ := Partition(text, anns)
	return segments
}

// Dropped returns the ids of anchored annotations that Split does not render: those
// overlapping an earlier mark and those whose clamped range is empty.
func Dropped(text string, anns []annotation.Annotation) []uuid.UUID {
	_, dropped := Partition(text, anns)
	return dropped
}

// Partition returns the result of Split together with the ids Dropped reports, in
// one pass.
func Partition(text string, anns []annotation.Annotation) ([]Segment, []uuid.UUID) {
	length := textmodel.Len(text)
	if length == 0 {
		return []Segment{{Text: "", Start: 0, End: 0}}, anchoredIDs(anns)
	}

	marks := make([]annotation.Annotation, 0, len(anns))
	for _, a := range anns {
		if a.IsAside() {
			continue
		}
		marks = append(marks, a)
	}
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].StartOffset < marks[j].StartOffset
	})

	var segments []Segment
	var dropped []uuid.UUID
	cursor := 0

	for i := range marks {
		m := &marks[i]
		start := textmodel.Clamp(m.StartOffset, length)
		end := textmodel.Clamp(m.EndOffset, length)

		if start < cursor || end <= start {
			dropped = append(dropped, m.ID)
			continue
		}

		if start > cursor {
			segments = append(segments, plain(text, cursor, start))
		}

		id := m.ID
		segments = append(segments, Segment{
			Text:         textmodel.Slice(text, start, end),
			Start:        start,
			End:          end,
			AnnotationID: &id,
		})
		cursor = end
	}

	if cursor < length {
		segments = append(segments, plain(text, cursor, length))
	}

	return segments, dropped
}

func plain(text string, start, end int) Segment {
	return Segment{Text: textmodel.Slice(text, start, end), Start: start, End: end}
}

func anchoredIDs(anns []annotation.Annotation) []uuid.UUID {
	var ids []uuid.UUID
	for _, a := range anns {
		if !a.IsAside() {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Join concatenates the segment texts.
func Join(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// IDs returns the annotation ids bound to segments, in text order.
func IDs(segments []Segment) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range segments {
		if s.AnnotationID != nil {
			ids = append(ids, *s.AnnotationID)
		}
	}
	return ids
}
