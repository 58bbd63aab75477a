// Package annotation defines the annotation record shared by stories and derivations.
package annotation

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// OwnerType identifies which document family owns an annotation.
type OwnerType string

// Owner types
const (
	OwnerStory      OwnerType = "story"
	OwnerDerivation OwnerType = "derivation"
)

// Valid reports whether t is a known owner type.
func (t OwnerType) Valid() bool {
	return t == OwnerStory || t == OwnerDerivation
}

// ParseOwnerType accepts both the singular type name and the plural route segment.
func ParseOwnerType(s string) (OwnerType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "story", "stories":
		return OwnerStory, true
	case "derivation", "derivations":
		return OwnerDerivation, true
	}
	return "", false
}

// Collection returns the plural route segment for the owner type.
func (t OwnerType) Collection() string {
	switch t {
	case OwnerStory:
		return "stories"
	case OwnerDerivation:
		return "derivations"
	}
	return ""
}

// AsideOffset is the sentinel start and end offset of a margin-only aside.
const AsideOffset = -1

// Annotation is a mark, note or aside attached to one section of an owner's text.
type Annotation struct {
	ID            uuid.UUID `json:"id"`
	OwnerType     OwnerType `json:"owner_type"`
	OwnerID       uuid.UUID `json:"owner_id"`
	SectionKey    string    `json:"section_key"`
	StartOffset   int       `json:"start_offset"`
	EndOffset     int       `json:"end_offset"`
	AnnotatedText string    `json:"annotated_text"`
	Style         Style     `json:"style"`
	Color         Color     `json:"color"`
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Sentinel reports whether the offsets are the (-1, -1) aside pair.
func (a *Annotation) Sentinel() bool {
	return a.StartOffset == AsideOffset && a.EndOffset == AsideOffset
}

// IsAside reports whether the annotation lives only in the margin.
func (a *Annotation) IsAside() bool {
	return a.Style == StyleAside || a.Sentinel()
}

// Anchored reports whether the annotation marks a range of text.
func (a *Annotation) Anchored() bool {
	return !a.IsAside()
}

// HasNote reports whether a non-empty note is attached.
func (a *Annotation) HasNote() bool {
	return a.Note != nil && strings.TrimSpace(*a.Note) != ""
}

// InMargin reports whether the annotation is shown in the margin column.
func (a *Annotation) InMargin() bool {
	return a.HasNote() || a.Style == StyleAside
}

// NoteText returns the note or an empty string.
func (a *Annotation) NoteText() string {
	if a.Note == nil {
		return ""
	}
	return *a.Note
}

// ForSection returns the annotations belonging to sectionKey, preserving order.
func ForSection(list []Annotation, sectionKey string) []Annotation {
	var out []Annotation
	for _, a := range list {
		if a.SectionKey == sectionKey {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the annotation with the given id.
func Find(list []Annotation, id uuid.UUID) (*Annotation, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}

// SortForMargin orders annotations the way the margin column lists them: anchored
// annotations by start offset, then asides by creation time.
func SortForMargin(list []Annotation) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := &list[i], &list[j]
		if a.IsAside() != b.IsAside() {
			return !a.IsAside()
		}
		if a.IsAside() {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.StartOffset < b.StartOffset
	})
}

// NormalizeSectionKey turns a section heading such as "Situation & Task" into the
// stable key used on records ("situation-task").
func NormalizeSectionKey(heading string) string {
	return slug.Make(strings.TrimSpace(heading))
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
