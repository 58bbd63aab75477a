package document

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/story-annotations/internal/events"
	"github.com/jonathan/story-annotations/internal/interaction"
	"github.com/jonathan/story-annotations/internal/overlay"
	"github.com/jonathan/story-annotations/internal/owner"
	"github.com/jonathan/story-annotations/internal/textmodel"
)

// View keeps the emphasis toggle across renders and routes article events to an
// interaction controller.
type View struct {
	owner  owner.Owner
	ctrl   *interaction.Controller
	title  string
	logger *zap.Logger

	mu         sync.Mutex
	showStyles bool
}

// NewView creates a view for the owner bound to ctrl. Emphasis starts shown.
func NewView(o owner.Owner, ctrl *interaction.Controller, title string, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{owner: o, ctrl: ctrl, title: title, logger: logger, showStyles: true}
}

// ShowStyles reports whether marks are decorated.
func (v *View) ShowStyles() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.showStyles
}

// ToggleStyles flips the emphasis display and returns the new value.
func (v *View) ToggleStyles() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showStyles = !v.showStyles
	return v.showStyles
}

// Handlers returns the controller-backed handlers of the article.
func (v *View) Handlers() Handlers {
	h := Handlers{
		OnToggleStyles: func() { v.ToggleStyles() },
	}
	if v.ctrl != nil {
		h.Handlers = v.ctrl.Handlers()
		h.OnDeleteAside = v.ctrl.DeleteAside
		h.OnAddAside = func(key, note string) { v.ctrl.AddAside(key, note) }
	}
	return h
}

// Render builds the article from the controller's current annotations and hover.
func (v *View) Render(child func(*Frame) *html.Node) *html.Node {
	opts := Options{
		Title:      v.title,
		ShowStyles: v.ShowStyles(),
		Handlers:   v.Handlers(),
		Logger:     v.logger,
	}
	if v.ctrl != nil {
		opts.Annotations = v.ctrl.Annotations()
		opts.HoveredID = v.ctrl.Hovered()
	}
	return Article(v.owner, opts, child)
}

// Dispatch routes an event targeting a node of a rendered article. Text marks and
// margin notes both carry the annotation id, so hover on either highlights the pair.
// It reports whether a handler ran.
func (v *View) Dispatch(ev overlay.Event) bool {
	if ev.Target == nil {
		return false
	}
	h := v.Handlers()

	if ev.Type == overlay.EventClick {
		if _, action, ok := textmodel.ClosestAttr(ev.Target, overlay.AttrAction); ok && action == ActionToggleStyles {
			h.OnToggleStyles()
			return true
		}
	}

	node, raw, ok := textmodel.ClosestAttr(ev.Target, overlay.AttrAnnotationID)
	if !ok {
		return false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		v.logger.Debug("ignoring event with malformed annotation id", zap.String("id", raw))
		return false
	}
	anchor, _ := node.Attr(overlay.AttrAnchor)

	switch ev.Type {
	case overlay.EventClick:
		if _, action, ok := textmodel.ClosestAttr(ev.Target, overlay.AttrAction); ok && action == overlay.ActionDelete {
			if anchor == overlay.AnchorMargin {
				return call(h.OnDeleteAside, id)
			}
			return call(h.OnDelete, id)
		}
		if h.OnClick == nil {
			return false
		}
		h.OnClick(id, node)
		return true
	case overlay.EventMouseEnter:
		return call(h.OnHoverEnter, id)
	case overlay.EventMouseLeave:
		return call(h.OnHoverLeave, id)
	}
	return false
}

// SubmitAside handles the add-aside form of a section.
func (v *View) SubmitAside(sectionKey, note string) {
	if h := v.Handlers(); h.OnAddAside != nil {
		h.OnAddAside(sectionKey, note)
	}
}

// Apply reconciles the controller with a pushed change event of this view's owner.
// It reports whether the annotation list changed.
func (v *View) Apply(ev events.Event) bool {
	if v.ctrl == nil || ev.OwnerType != v.owner.Type || ev.OwnerID != v.owner.ID {
		return false
	}
	list := v.ctrl.Annotations()
	switch ev.Type {
	case events.TypeCreated, events.TypeUpdated:
		if ev.Annotation == nil {
			return false
		}
		replaced := false
		for i := range list {
			if list[i].ID == ev.Annotation.ID {
				list[i] = *ev.Annotation
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, *ev.Annotation)
		}
	case events.TypeDeleted:
		kept := list[:0]
		for _, a := range list {
			if a.ID != ev.AnnotationID {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(list) {
			return false
		}
		list = kept
	default:
		return false
	}
	v.ctrl.SetAnnotations(list)
	v.logger.Debug("applied change event", zap.String("type", ev.Type), zap.Stringer("annotation_id", ev.AnnotationID))
	return true
}

func call(fn func(uuid.UUID), id uuid.UUID) bool {
	if fn == nil {
		return false
	}
	fn(id)
	return true
}
