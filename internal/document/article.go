// Package document wraps annotated sections in the article chrome: the margin
// column, the add-aside form and the emphasis toggle.
package document

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/overlay"
	"github.com/jonathan/story-annotations/internal/owner"
)

// Actions carried by chrome controls in data-action.
const (
	ActionAddAside     = "add-aside"
	ActionToggleStyles = "toggle-styles"

	// AttrAsideSection names the section an add-aside form writes to.
	AttrAsideSection = "data-aside-section"
)

// Handlers are the callbacks a rendered article routes to. Any may be nil.
type Handlers struct {
	overlay.Handlers
	OnDeleteAside  func(id uuid.UUID)
	OnAddAside     func(sectionKey, note string)
	OnToggleStyles func()
}

// Options configure one render of an article.
type Options struct {
	Title       string
	Annotations []annotation.Annotation
	ShowStyles  bool
	HoveredID   uuid.UUID
	Handlers    Handlers
	Logger      *zap.Logger
}

// MarginItem is one entry of a section's margin column.
type MarginItem struct {
	ID            uuid.UUID
	SectionKey    string
	Note          string
	AnnotatedText string
	Style         annotation.Style
	Color         annotation.Color
	Aside         bool
	Hovered       bool
}

// Frame is what the child render callback receives.
type Frame struct {
	Owner       owner.Owner
	Annotations []annotation.Annotation
	ShowStyles  bool
	HoveredID   uuid.UUID
	Handlers    Handlers

	logger   *zap.Logger
	sections []string
}

// Article renders <article> for owner around the content produced by child.
func Article(o owner.Owner, opts Options, child func(*Frame) *html.Node) *html.Node {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	anns := opts.Annotations
	if anns == nil {
		anns = o.Annotations
	}

	frame := &Frame{
		Owner:       o,
		Annotations: anns,
		ShowStyles:  opts.ShowStyles,
		HoveredID:   opts.HoveredID,
		Handlers:    opts.Handlers,
		logger:      logger,
	}

	article := overlay.NewElement("article",
		overlay.Attr("data-owner-type", string(o.Type)),
		overlay.Attr("data-owner-id", o.ID.String()),
		overlay.Attr("class", "annotated-document"),
	)

	header := overlay.NewElement("header", overlay.Attr("class", "document-toolbar"))
	if opts.Title != "" {
		h := overlay.NewElement("h1")
		h.AppendChild(overlay.Text(opts.Title))
		header.AppendChild(h)
	}
	header.AppendChild(toggleControl(opts.ShowStyles))
	article.AppendChild(header)

	if child != nil {
		if body := child(frame); body != nil {
			article.AppendChild(body)
		}
	}

	logger.Debug("rendered article",
		zap.String("owner_type", string(o.Type)),
		zap.Stringer("owner_id", o.ID),
		zap.Strings("sections", frame.sections),
		zap.Int("annotations", len(anns)),
	)
	return article
}

func toggleControl(show bool) *html.Node {
	label, pressed := "Show emphasis", "false"
	if show {
		label, pressed = "Hide emphasis", "true"
	}
	btn := overlay.NewElement("button",
		overlay.Attr("type", "button"),
		overlay.Attr(overlay.AttrAction, ActionToggleStyles),
		overlay.Attr("aria-pressed", pressed),
	)
	btn.AppendChild(overlay.Text(label))
	return btn
}

// Section renders an annotated section next to its margin column.
func (f *Frame) Section(key, heading, text string) *html.Node {
	f.sections = append(f.sections, key)

	row := overlay.NewElement("section", overlay.Attr("class", "annotation-row grid grid-cols-[1fr_16rem] gap-6"))
	body := overlay.NewElement("div", overlay.Attr("class", "annotation-body"))
	if heading != "" {
		h := overlay.NewElement("h2")
		h.AppendChild(overlay.Text(heading))
		body.AppendChild(h)
	}

	surface := &overlay.Surface{
		Text:        text,
		Annotations: f.Annotations,
		SectionKey:  key,
		ShowStyles:  f.ShowStyles,
		HoveredID:   f.HoveredID,
		Handlers:    f.Handlers.Handlers,
		Logger:      f.logger,
	}
	body.AppendChild(surface.Render())
	row.AppendChild(body)
	row.AppendChild(f.MarginColumn(key))
	return row
}

// CollapsedSection renders only the heading of a section. Its marks and margin notes
// are absent, so hover on them draws no connector.
func (f *Frame) CollapsedSection(key, heading string) *html.Node {
	row := overlay.NewElement("section",
		overlay.Attr("class", "annotation-row collapsed"),
		overlay.Attr("data-collapsed", key),
	)
	h := overlay.NewElement("h2")
	h.AppendChild(overlay.Text(heading))
	row.AppendChild(h)
	return row
}

// Margin lists the margin-eligible annotations of a section: anchored annotations
// with a note, in text order, then asides.
func (f *Frame) Margin(key string) []MarginItem {
	anns := annotation.ForSection(f.Annotations, key)
	annotation.SortForMargin(anns)

	var items []MarginItem
	for _, a := range anns {
		if !a.InMargin() {
			continue
		}
		items = append(items, MarginItem{
			ID:            a.ID,
			SectionKey:    a.SectionKey,
			Note:          a.NoteText(),
			AnnotatedText: a.AnnotatedText,
			Style:         a.Style,
			Color:         a.Color,
			Aside:         a.IsAside(),
			Hovered:       f.HoveredID != uuid.Nil && a.ID == f.HoveredID,
		})
	}
	return items
}

// MarginColumn renders the margin items of a section and its add-aside form.
func (f *Frame) MarginColumn(key string) *html.Node {
	col := overlay.NewElement("aside", overlay.Attr("class", "margin-column"))
	list := overlay.NewElement("ul", overlay.Attr("class", "margin-notes space-y-2"))
	for _, item := range f.Margin(key) {
		list.AppendChild(marginNote(item))
	}
	col.AppendChild(list)
	col.AppendChild(addAsideForm(key))
	return col
}

func marginNote(item MarginItem) *html.Node {
	classes := []string{"margin-note", "border-l-2", "pl-2", overlay.ColorFor(item.Color).Border}
	if item.Aside {
		classes = append(classes, "margin-aside")
	}
	if item.Hovered {
		classes = append(classes, overlay.HoverClasses()...)
	}

	li := overlay.NewElement("li",
		overlay.Attr(overlay.AttrAnnotationID, item.ID.String()),
		overlay.Attr(overlay.AttrAnchor, overlay.AnchorMargin),
		overlay.Attr("data-style", string(item.Style)),
		overlay.Attr("class", strings.Join(classes, " ")),
	)
	if !item.Aside && item.AnnotatedText != "" {
		q := overlay.NewElement("blockquote", overlay.Attr("class", "margin-quote truncate"))
		q.AppendChild(overlay.Text(item.AnnotatedText))
		li.AppendChild(q)
	}
	if item.Note != "" {
		p := overlay.NewElement("p", overlay.Attr("class", "margin-note-text"))
		p.AppendChild(overlay.Text(item.Note))
		li.AppendChild(p)
	}
	li.AppendChild(overlay.NewElement("button",
		overlay.Attr("type", "button"),
		overlay.Attr(overlay.AttrAction, overlay.ActionDelete),
		overlay.Attr("aria-label", "Delete note"),
	))
	return li
}

func addAsideForm(key string) *html.Node {
	form := overlay.NewElement("form",
		overlay.Attr(overlay.AttrAction, ActionAddAside),
		overlay.Attr(AttrAsideSection, key),
		overlay.Attr("class", "add-aside"),
	)
	form.AppendChild(overlay.NewElement("textarea",
		overlay.Attr("name", "note"),
		overlay.Attr("rows", "2"),
		overlay.Attr("placeholder", "Add an aside"),
	))
	btn := overlay.NewElement("button", overlay.Attr("type", "submit"))
	btn.AppendChild(overlay.Text("Add"))
	form.AppendChild(btn)
	return form
}
