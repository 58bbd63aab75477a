package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/annotation"
)

// ErrNotFound indicates the annotation does not exist for the owner
type ErrNotFound struct {
	OwnerType    annotation.OwnerType
	OwnerID      uuid.UUID
	AnnotationID uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("annotation not found: %s on %s %s", e.AnnotationID, e.OwnerType, e.OwnerID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStore wraps a storage failure
type ErrStore struct {
	Message string
	Cause   error
}

func (e *ErrStore) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ErrStore) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *ErrNotFound
	var validation *ErrValidation
	var inputErr *annotation.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &inputErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
