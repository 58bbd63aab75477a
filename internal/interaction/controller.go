package interaction

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/geometry"
	"github.com/jonathan/story-annotations/internal/overlay"
	"github.com/jonathan/story-annotations/internal/owner"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// Config configures a Controller.
type Config struct {
	// Layout measures clicked marks to anchor the edit popover. Optional.
	Layout geometry.Layout
	Logger *zap.Logger
}

// Controller is the state machine of one document owner's view. It never talks to
// storage directly: every write goes through the owner's Mutations.
type Controller struct {
	mu          sync.Mutex
	mutations   *owner.Mutations
	annotations []annotation.Annotation
	layout      geometry.Layout
	logger      *zap.Logger

	state     State
	selection *SelectionPopover
	edit      *EditPopover
	hovered   uuid.UUID
}

// New creates a controller bound to one owner's mutations. The owner's annotation
// list seeds the view.
func New(m *owner.Mutations, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	o := m.Owner()
	return &Controller{
		mutations:   m,
		annotations: append([]annotation.Annotation(nil), o.Annotations...),
		layout:      cfg.Layout,
		logger: logger.Named("interaction").With(
			zap.String("owner_type", string(o.Type)),
			zap.Stringer("owner_id", o.ID),
		),
	}
}

// MouseUp captures a finished selection and clears it from the window. Collapsed
// selections, selections outside a section container, selections spanning two
// sections, and selections overlapping an existing mark are ignored.
func (c *Controller) MouseUp(sel Selection) bool {
	if sel == nil {
		return false
	}
	r, ok := sel.Range()
	if !ok || r.Collapsed() {
		return false
	}

	container, key, ok := textmodel.ClosestAttr(r.StartContainer, overlay.AttrSectionKey)
	if !ok || !textmodel.Contains(container, r.EndContainer) {
		c.logger.Debug("selection outside a section container")
		return false
	}
	offsets, ok := textmodel.Translate(container, r)
	if !ok {
		return false
	}

	sectionText := textmodel.TextContent(container)
	bounds := sel.Bounds()

	if c.overlapsMark(key, offsets, textmodel.Len(sectionText)) {
		return false
	}

	c.mu.Lock()
	c.edit = nil
	c.selection = &SelectionPopover{
		Anchor:     geometry.Point{X: bounds.CenterX(), Y: bounds.Top()},
		SectionKey: key,
		Container:  container,
		Range:      r,
		Offsets:    offsets,
		Text:       textmodel.Slice(sectionText, offsets.Start, offsets.End),
	}
	c.state = SelectionActive
	c.mu.Unlock()

	sel.Clear()
	return true
}

// overlapsMark reports whether offsets intersect a rendered mark of the section.
// Ranges are clamped to length and half-open, so touching marks do not overlap.
func (c *Controller) overlapsMark(sectionKey string, offsets textmodel.Offsets, length int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range annotation.ForSection(c.annotations, sectionKey) {
		if a.IsAside() {
			continue
		}
		start := textmodel.Clamp(a.StartOffset, length)
		end := textmodel.Clamp(a.EndOffset, length)
		if start >= end {
			continue
		}
		if offsets.Start < end && start < offsets.End {
			c.logger.Debug("selection overlaps an existing mark",
				zap.String("section_key", sectionKey),
				zap.Int("start", offsets.Start),
				zap.Int("end", offsets.End),
				zap.Stringer("mark_id", a.ID),
			)
			return true
		}
	}
	return false
}

// ChooseStyle commits the captured selection with the picked style and color. It
// reports whether a create call was issued.
func (c *Controller) ChooseStyle(style annotation.Style, color annotation.Color) bool {
	c.mu.Lock()
	if c.state != SelectionActive || c.selection == nil {
		c.mu.Unlock()
		return false
	}
	popover := c.selection
	c.resetLocked()
	c.mu.Unlock()

	if style == annotation.StyleAside || !style.Valid() {
		c.logger.Debug("ignoring style for selection", zap.String("style", string(style)))
		return false
	}

	offsets, ok := textmodel.Translate(popover.Container, popover.Range)
	if !ok {
		return false
	}
	sectionText := textmodel.TextContent(popover.Container)

	if c.overlapsMark(popover.SectionKey, offsets, textmodel.Len(sectionText)) {
		return false
	}

	input := annotation.CreateInput{
		SectionKey:    popover.SectionKey,
		StartOffset:   offsets.Start,
		EndOffset:     offsets.End,
		AnnotatedText: textmodel.Slice(sectionText, offsets.Start, offsets.End),
		Style:         style,
	}
	if color != "" {
		input.Color = &color
	}
	c.mutations.Create(input)
	return true
}

// Dismiss discards the style picker without persisting.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == SelectionActive {
		c.resetLocked()
	}
}

// KeyDown handles keyboard shortcuts. Escape closes whichever popover is open.
func (c *Controller) KeyDown(key string) {
	if key != "Escape" {
		return
	}
	switch c.State() {
	case SelectionActive:
		c.Dismiss()
	case EditActive:
		c.Close()
	}
}

// Click opens the edit popover for a rendered mark, anchored below it. Unknown ids
// are ignored.
func (c *Controller) Click(id uuid.UUID, anchor geometry.Rect) bool {
	c.mu.Lock()
	a, ok := annotation.Find(c.annotations, id)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("click on unknown annotation", zap.Stringer("id", id))
		return false
	}

	var note *string
	if a.Note != nil {
		n := *a.Note
		note = &n
	}
	c.selection = nil
	c.edit = &EditPopover{
		AnnotationID:  a.ID,
		Anchor:        geometry.Point{X: anchor.CenterX(), Y: anchor.Bottom()},
		AnnotatedText: a.AnnotatedText,
		Aside:         a.IsAside(),
		Draft:         EditDraft{Style: a.Style, Color: a.Color, Note: note},
	}
	c.state = EditActive
	c.mu.Unlock()
	return true
}

// ClickNode opens the edit popover for a clicked mark element, measuring it with the
// configured layout. Without a measurement the popover is not opened.
func (c *Controller) ClickNode(id uuid.UUID, target textmodel.Node) bool {
	if c.layout == nil {
		return c.Click(id, geometry.Rect{})
	}
	rect, ok := c.layout.Bounds(target)
	if !ok {
		return false
	}
	return c.Click(id, rect)
}

// Save writes the draft of the open edit popover.
func (c *Controller) Save(draft EditDraft) bool {
	c.mu.Lock()
	if c.state != EditActive || c.edit == nil {
		c.mu.Unlock()
		return false
	}
	id := c.edit.AnnotationID
	c.resetLocked()
	c.mu.Unlock()

	input := annotation.UpdateInput{Note: draft.Note}
	if draft.Style != "" {
		style := draft.Style
		input.Style = &style
	}
	if draft.Color != "" {
		color := draft.Color
		input.Color = &color
	}
	c.mutations.Update(id, input)
	return true
}

// Remove deletes the annotation open in the edit popover.
func (c *Controller) Remove() bool {
	c.mu.Lock()
	if c.state != EditActive || c.edit == nil {
		c.mu.Unlock()
		return false
	}
	id, aside := c.edit.AnnotationID, c.edit.Aside
	c.resetLocked()
	if c.hovered == id {
		c.hovered = uuid.Nil
	}
	c.mu.Unlock()

	if aside {
		c.mutations.DeleteAside(id)
	} else {
		c.mutations.Delete(id)
	}
	return true
}

// Close discards the edit popover without a mutation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == EditActive {
		c.resetLocked()
	}
}

// AddAside creates a margin-only note in a section. Blank notes are ignored.
func (c *Controller) AddAside(sectionKey, note string) bool {
	note = strings.TrimSpace(note)
	if note == "" || sectionKey == "" {
		return false
	}
	c.mutations.Create(annotation.CreateInput{
		SectionKey:  sectionKey,
		StartOffset: annotation.AsideOffset,
		EndOffset:   annotation.AsideOffset,
		Style:       annotation.StyleAside,
		Note:        &note,
	})
	return true
}

// DeleteInline removes an annotation from its inline delete control.
func (c *Controller) DeleteInline(id uuid.UUID) {
	c.forget(id)
	c.mutations.Delete(id)
}

// DeleteAside removes an annotation from the margin column.
func (c *Controller) DeleteAside(id uuid.UUID) {
	c.forget(id)
	c.mutations.DeleteAside(id)
}

// forget clears hover and edit state referencing id.
func (c *Controller) forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == id {
		c.hovered = uuid.Nil
	}
	if c.edit != nil && c.edit.AnnotationID == id {
		c.resetLocked()
	}
}

// HoverEnter marks id as hovered, from either its text mark or its margin note.
func (c *Controller) HoverEnter(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hovered = id
}

// HoverLeave clears the hover state if it still refers to id.
func (c *Controller) HoverLeave(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == id {
		c.hovered = uuid.Nil
	}
}

// Hovered returns the hovered annotation id, or uuid.Nil.
func (c *Controller) Hovered() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// Connector computes the line between the hovered annotation's margin note and mark
// from the current layout.
func (c *Controller) Connector(root textmodel.Node, layout geometry.Layout) (geometry.Line, bool) {
	return geometry.Compute(root, layout, c.Hovered())
}

// SetAnnotations replaces the view's annotation list after a refetch. Hover and edit
// state pointing at annotations that no longer exist is cleared.
func (c *Controller) SetAnnotations(list []annotation.Annotation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.annotations = append([]annotation.Annotation(nil), list...)
	if c.hovered != uuid.Nil {
		if _, ok := annotation.Find(c.annotations, c.hovered); !ok {
			c.hovered = uuid.Nil
		}
	}
	if c.edit != nil {
		if _, ok := annotation.Find(c.annotations, c.edit.AnnotationID); !ok {
			c.resetLocked()
		}
	}
}

// Refresh refetches the owner's annotations and reconciles the view with them.
func (c *Controller) Refresh(ctx context.Context) error {
	list, err := c.mutations.Refresh(ctx)
	if err != nil {
		c.logger.Warn("refresh failed", zap.Error(err))
		return fmt.Errorf("failed to refresh annotations: %w", err)
	}
	c.SetAnnotations(list)
	return nil
}

// Annotations returns a copy of the current list.
func (c *Controller) Annotations() []annotation.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]annotation.Annotation(nil), c.annotations...)
}

// State returns the current popover state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, HoveredID: c.hovered}
	if c.selection != nil {
		sel := *c.selection
		snap.Selection = &sel
	}
	if c.edit != nil {
		edit := *c.edit
		snap.Edit = &edit
	}
	return snap
}

// Handlers wires the render surface's events to the controller.
func (c *Controller) Handlers() overlay.Handlers {
	return overlay.Handlers{
		OnClick:      func(id uuid.UUID, target textmodel.Node) { c.ClickNode(id, target) },
		OnHoverEnter: c.HoverEnter,
		OnHoverLeave: c.HoverLeave,
		OnDelete:     c.DeleteInline,
	}
}

func (c *Controller) resetLocked() {
	c.state = Idle
	c.selection = nil
	c.edit = nil
}
