package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/events"
)

const maxBodyBytes = 1 << 20

type ownerHandler func(w http.ResponseWriter, r *http.Request, ownerType annotation.OwnerType, ownerID uuid.UUID)

// ownerScoped parses the owner id from the path and binds the route's owner type.
func (s *Server) ownerScoped(ownerType annotation.OwnerType, h ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid "+string(ownerType)+" ID")
			return
		}
		h(w, r, ownerType, ownerID)
	}
}

func annotationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("annotation_id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "annotation_id", Message: "invalid annotation ID"}
	}
	return id, nil
}

// decodeJSON reads a size-limited JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "request body is required"}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// handleListAnnotations returns every annotation of an owner
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request, ownerType annotation.OwnerType, ownerID uuid.UUID) {
	anns, err := s.store.ListAnnotations(r.Context(), ownerType, ownerID)
	if err != nil {
		s.errorFrom(w, &ErrStore{Message: "failed to list annotations", Cause: err})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"annotations": anns,
		"total":       len(anns),
	})
}

// handleCreateAnnotation creates a mark or aside for an owner
func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request, ownerType annotation.OwnerType, ownerID uuid.UUID) {
	var input annotation.CreateInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.errorFrom(w, err)
		return
	}
	if err := input.Validate(); err != nil {
		s.errorFrom(w, err)
		return
	}

	created, err := s.store.CreateAnnotation(r.Context(), ownerType, ownerID, &input)
	if err != nil {
		s.errorFrom(w, &ErrStore{Message: "failed to create annotation", Cause: err})
		return
	}

	s.logger.Debug("annotation created",
		zap.String("owner_type", string(ownerType)),
		zap.Stringer("owner_id", ownerID),
		zap.Stringer("id", created.ID),
		zap.String("style", string(created.Style)),
	)
	s.hub.Publish(events.Event{Type: events.TypeCreated, OwnerType: ownerType, OwnerID: ownerID, AnnotationID: created.ID, Annotation: created})
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleUpdateAnnotation changes the note, style or color of an annotation
func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request, ownerType annotation.OwnerType, ownerID uuid.UUID) {
	id, err := annotationID(r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	var input annotation.UpdateInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.errorFrom(w, err)
		return
	}

	existing, err := s.store.GetAnnotation(r.Context(), ownerType, ownerID, id)
	if err != nil {
		s.errorFrom(w, &ErrStore{Message: "failed to load annotation", Cause: err})
		return
	}
	if existing == nil {
		s.errorFrom(w, &ErrNotFound{OwnerType: ownerType, OwnerID: ownerID, AnnotationID: id})
		return
	}
	if err := input.ValidateFor(existing); err != nil {
		s.errorFrom(w, err)
		return
	}
	if input.Empty() {
		s.jsonResponse(w, http.StatusOK, existing)
		return
	}

	updated, err := s.store.UpdateAnnotation(r.Context(), ownerType, ownerID, id, &input)
	if err != nil {
		s.errorFrom(w, &ErrStore{Message: "failed to update annotation", Cause: err})
		return
	}
	if updated == nil {
		s.errorFrom(w, &ErrNotFound{OwnerType: ownerType, OwnerID: ownerID, AnnotationID: id})
		return
	}

	s.hub.Publish(events.Event{Type: events.TypeUpdated, OwnerType: ownerType, OwnerID: ownerID, AnnotationID: id, Annotation: updated})
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteAnnotation removes an annotation. Deleting a missing annotation
// succeeds so retries are safe.
func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request, ownerType annotation.OwnerType, ownerID uuid.UUID) {
	id, err := annotationID(r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	deleted, err := s.store.DeleteAnnotation(r.Context(), ownerType, ownerID, id)
	if err != nil {
		s.errorFrom(w, &ErrStore{Message: "failed to delete annotation", Cause: err})
		return
	}
	if deleted {
		s.hub.Publish(events.Event{Type: events.TypeDeleted, OwnerType: ownerType, OwnerID: ownerID, AnnotationID: id})
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubscribe upgrades to the owner's websocket change feed
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ownerType, ok := annotation.ParseOwnerType(r.PathValue("owner_type"))
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid owner type")
		return
	}
	ownerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+string(ownerType)+" ID")
		return
	}
	events.ServeWs(s.hub, w, r, ownerType, ownerID)
}
