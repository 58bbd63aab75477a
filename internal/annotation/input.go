package annotation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// CreateInput is the payload of a create call.
type CreateInput struct {
	SectionKey    string  `json:"section_key" validate:"required,max=128"`
	StartOffset   int     `json:"start_offset" validate:"min=-1"`
	EndOffset     int     `json:"end_offset" validate:"min=-1"`
	AnnotatedText string  `json:"annotated_text" validate:"max=20000"`
	Style         Style   `json:"style" validate:"required,annotation_style"`
	Color         *Color  `json:"color,omitempty" validate:"omitempty,annotation_color"`
	Note          *string `json:"note,omitempty" validate:"omitempty,max=20000"`
}

// UpdateInput is the payload of an update call. Nil fields are left unchanged.
type UpdateInput struct {
	Note  *string `json:"note,omitempty" validate:"omitempty,max=20000"`
	Style *Style  `json:"style,omitempty" validate:"omitempty,annotation_style"`
	Color *Color  `json:"color,omitempty" validate:"omitempty,annotation_color"`
}

// Empty reports whether the update changes nothing.
func (u *UpdateInput) Empty() bool {
	return u.Note == nil && u.Style == nil && u.Color == nil
}

// ValidationError lists every problem found in an input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("annotation_style", func(fl validator.FieldLevel) bool {
		return Style(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("annotation_color", func(fl validator.FieldLevel) bool {
		return Color(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the field rules and the offset/style pairing rules.
func (in *CreateInput) Validate() error {
	if err := structErrors(validate.Struct(in)); err != nil {
		return err
	}

	sentinel := in.StartOffset == AsideOffset && in.EndOffset == AsideOffset
	switch {
	case in.Style == StyleAside && !sentinel:
		return &ValidationError{Field: "style", Message: "aside requires offsets (-1, -1)"}
	case in.Style != StyleAside && sentinel:
		return &ValidationError{Field: "style", Message: "offsets (-1, -1) are reserved for asides"}
	case !sentinel && (in.StartOffset < 0 || in.EndOffset < 0):
		return &ValidationError{Field: "start_offset", Message: "offsets must be non-negative"}
	case !sentinel && in.EndOffset <= in.StartOffset:
		return &ValidationError{Field: "end_offset", Message: "end_offset must be greater than start_offset"}
	}
	return nil
}

// Validate checks the update fields. Turning a mark into an aside (or back) is not
// an update: the offsets would no longer match the style.
func (in *UpdateInput) Validate() error {
	if err := structErrors(validate.Struct(in)); err != nil {
		return err
	}
	return nil
}

// ValidateFor checks that the update keeps a consistent style for the existing record.
func (in *UpdateInput) ValidateFor(existing *Annotation) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.Style == nil {
		return nil
	}
	if (*in.Style == StyleAside) != existing.Sentinel() {
		return &ValidationError{Field: "style", Message: "cannot convert between aside and anchored annotation"}
	}
	return nil
}

// Apply copies the set fields of in onto a.
func (in *UpdateInput) Apply(a *Annotation) {
	if in.Note != nil {
		if strings.TrimSpace(*in.Note) == "" {
			a.Note = nil
		} else {
			note := *in.Note
			a.Note = &note
		}
	}
	if in.Style != nil {
		a.Style = *in.Style
	}
	if in.Color != nil {
		a.Color = *in.Color
	}
}

// ColorOrDefault returns the requested color or DefaultColor.
func (in *CreateInput) ColorOrDefault() Color {
	if in.Color == nil || *in.Color == "" {
		return DefaultColor
	}
	return *in.Color
}

// structErrors flattens validator errors into ValidationErrors combined with multierr.
func structErrors(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var combined error
	for _, fe := range fieldErrs {
		combined = multierr.Append(combined, &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on '%s'", fe.Tag()),
		})
	}
	return combined
}
