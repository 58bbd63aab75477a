package document

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/overlay"
	"github.com/jonathan/story-annotations/internal/owner"
	"github.com/jonathan/story-annotations/internal/schemas"
)

// FileSection is one section of an annotated document file.
type FileSection struct {
	Key       string `json:"key"`
	Heading   string `json:"heading,omitempty"`
	Text      string `json:"text"`
	Collapsed bool   `json:"collapsed,omitempty"`
}

// File is an owner's section texts and annotations as read by the CLI.
type File struct {
	OwnerType   annotation.OwnerType    `json:"owner_type"`
	OwnerID     uuid.UUID               `json:"owner_id"`
	Title       string                  `json:"title,omitempty"`
	Sections    []FileSection           `json:"sections"`
	Annotations []annotation.Annotation `json:"annotations,omitempty"`
}

// ParseFile validates data against the annotations schema and decodes it. Records
// that omit their owner inherit the file's owner; records of another owner are an
// error.
func ParseFile(data []byte) (*File, error) {
	if err := schemas.ValidateDocument(data); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	for i := range f.Annotations {
		a := &f.Annotations[i]
		if a.OwnerType == "" {
			a.OwnerType = f.OwnerType
		}
		if a.OwnerID == uuid.Nil {
			a.OwnerID = f.OwnerID
		}
		if a.OwnerType != f.OwnerType || a.OwnerID != f.OwnerID {
			return nil, fmt.Errorf("annotation %s belongs to %s %s, not %s %s", a.ID, a.OwnerType, a.OwnerID, f.OwnerType, f.OwnerID)
		}
		if a.Color == "" {
			a.Color = annotation.DefaultColor
		}
	}
	return &f, nil
}

// LoadFile reads and parses an annotated document file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return ParseFile(data)
}

// Owner returns the file's owner with its annotations.
func (f *File) Owner() owner.Owner {
	return owner.Owner{Type: f.OwnerType, ID: f.OwnerID, Annotations: f.Annotations}
}

// Section returns the section with key.
func (f *File) Section(key string) (FileSection, bool) {
	for _, s := range f.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return FileSection{}, false
}

// Body is the child render callback laying out every section of the file.
func (f *File) Body(frame *Frame) *html.Node {
	body := overlay.NewElement("div", overlay.Attr("class", "document-body"))
	for _, s := range f.Sections {
		if s.Collapsed {
			body.AppendChild(frame.CollapsedSection(s.Key, s.Heading))
			continue
		}
		body.AppendChild(frame.Section(s.Key, s.Heading, s.Text))
	}
	return body
}
