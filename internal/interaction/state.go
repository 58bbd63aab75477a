// Package interaction coordinates annotation popovers, hover and mutations for one
// document owner.
package interaction

import (
	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/geometry"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// State is the popover state of a document view. Exactly one holds at a time.
type State int

const (
	// Idle means no popover is open.
	Idle State = iota
	// SelectionActive means the style picker is anchored above an uncommitted selection.
	SelectionActive
	// EditActive means an existing annotation is open for edit or removal.
	EditActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectionActive:
		return "selection"
	case EditActive:
		return "edit"
	}
	return "unknown"
}

// Selection is the live window selection.
type Selection interface {
	// Range returns the current range, or false when nothing is selected.
	Range() (textmodel.Range, bool)
	// Bounds returns the bounding rectangle of the selection.
	Bounds() geometry.Rect
	// Clear removes the selection from the window.
	Clear()
}

// SelectionPopover is the style picker anchored above a captured selection.
type SelectionPopover struct {
	Anchor     geometry.Point
	SectionKey string
	Container  textmodel.Node
	Range      textmodel.Range
	Offsets    textmodel.Offsets
	Text       string
}

// EditPopover is the editor opened on an existing annotation, pre-filled with its
// current style, color and note.
type EditPopover struct {
	AnnotationID  uuid.UUID
	Anchor        geometry.Point
	AnnotatedText string
	Aside         bool
	Draft         EditDraft
}

// EditDraft holds the values the edit popover will save.
type EditDraft struct {
	Style annotation.Style
	Color annotation.Color
	Note  *string
}

// Snapshot is a read-only copy of the controller state for renderers and tests.
type Snapshot struct {
	State     State
	Selection *SelectionPopover
	Edit      *EditPopover
	HoveredID uuid.UUID
}
