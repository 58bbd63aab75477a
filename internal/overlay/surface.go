package overlay

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/segment"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// Handlers receive the events the surface routes from its marks.
// Any handler may be nil.
type Handlers struct {
	OnClick      func(id uuid.UUID, target textmodel.Node)
	OnHoverEnter func(id uuid.UUID)
	OnHoverLeave func(id uuid.UUID)
	OnDelete     func(id uuid.UUID)
}

// EventType names a DOM event the surface understands.
type EventType string

// Event types
const (
	EventClick      EventType = "click"
	EventMouseEnter EventType = "mouseenter"
	EventMouseLeave EventType = "mouseleave"
)

// Event is a DOM event delivered to the surface, targeting a rendered node.
type Event struct {
	Type   EventType
	Target textmodel.Node
}

// Surface renders one section of text with its annotations.
type Surface struct {
	Text        string
	Annotations []annotation.Annotation
	SectionKey  string
	ShowStyles  bool
	HoveredID   uuid.UUID
	Handlers    Handlers
	Logger      *zap.Logger
}

// Render builds the section container. The container holds exactly the section
// text, so selections inside it translate to offsets into Text.
func (s *Surface) Render() *html.Node {
	logger := s.logger()
	anns := annotation.ForSection(s.Annotations, s.SectionKey)

	byID := make(map[uuid.UUID]*annotation.Annotation, len(anns))
	for i := range anns {
		byID[anns[i].ID] = &anns[i]
	}

	container := newElement(atom.Div,
		Attr(AttrSectionKey, s.SectionKey),
		Attr("class", "annotated-section whitespace-pre-wrap"),
	)

	segments, dropped := segment.Partition(s.Text, anns)
	for _, seg := range segments {
		if !seg.Annotated() {
			if seg.Text != "" {
				container.AppendChild(Skin(seg, "", "", Options{}))
			}
			continue
		}
		a := byID[*seg.AnnotationID]
		container.AppendChild(Skin(seg, a.Style, a.Color, Options{
			ShowStyles: s.ShowStyles,
			Hovered:    s.HoveredID != uuid.Nil && a.ID == s.HoveredID,
		}))
		container.AppendChild(deleteControl(a.ID))
	}

	if len(dropped) > 0 {
		logger.Debug("annotations not rendered",
			zap.String("section_key", s.SectionKey),
			zap.Int("count", len(dropped)),
			zap.Stringers("ids", dropped),
		)
	}

	return container
}

// deleteControl is the inline remove button next to a mark. It carries no text so
// the container's text content stays equal to the section text.
func deleteControl(id uuid.UUID) *html.Node {
	return newElement(atom.Button,
		Attr("type", "button"),
		Attr(AttrAction, ActionDelete),
		Attr(AttrAnnotationID, id.String()),
		Attr("aria-label", "Remove annotation"),
		Attr("class", "annotation-delete"),
	)
}

// Dispatch routes an event to the handler of the annotation owning its target.
// It reports whether a handler ran.
func (s *Surface) Dispatch(ev Event) bool {
	if ev.Target == nil {
		return false
	}
	node, raw, ok := textmodel.ClosestAttr(ev.Target, AttrAnnotationID)
	if !ok {
		return false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger().Debug("ignoring event with malformed annotation id", zap.String("id", raw))
		return false
	}

	h := s.Handlers
	switch ev.Type {
	case EventClick:
		if action, ok := node.Attr(AttrAction); ok && action == ActionDelete {
			if h.OnDelete == nil {
				return false
			}
			h.OnDelete(id)
			return true
		}
		if h.OnClick == nil {
			return false
		}
		h.OnClick(id, node)
		return true
	case EventMouseEnter:
		if h.OnHoverEnter == nil {
			return false
		}
		h.OnHoverEnter(id)
		return true
	case EventMouseLeave:
		if h.OnHoverLeave == nil {
			return false
		}
		h.OnHoverLeave(id)
		return true
	}
	return false
}

func (s *Surface) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
