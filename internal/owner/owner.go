// Package owner resolves a document owner to the persistence operations of its
// family, so interaction logic never branches on story versus derivation.
package owner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
)

// Owner is the document an annotation set belongs to.
type Owner struct {
	Type        annotation.OwnerType
	ID          uuid.UUID
	Annotations []annotation.Annotation
}

// Story builds a story owner.
func Story(id uuid.UUID, anns []annotation.Annotation) Owner {
	return Owner{Type: annotation.OwnerStory, ID: id, Annotations: anns}
}

// Derivation builds a derivation owner.
func Derivation(id uuid.UUID, anns []annotation.Annotation) Owner {
	return Owner{Type: annotation.OwnerDerivation, ID: id, Annotations: anns}
}

// Operations is one family of owner-scoped remote operations. Update and Delete are
// idempotent on the annotation id.
type Operations interface {
	ListAnnotations(ctx context.Context, ownerID uuid.UUID) ([]annotation.Annotation, error)
	CreateAnnotation(ctx context.Context, ownerID uuid.UUID, input *annotation.CreateInput) (*annotation.Annotation, error)
	UpdateAnnotation(ctx context.Context, ownerID, annotationID uuid.UUID, input *annotation.UpdateInput) (*annotation.Annotation, error)
	DeleteAnnotation(ctx context.Context, ownerID, annotationID uuid.UUID) error
}

// MutationError reports a failed fire-and-forget call.
type MutationError struct {
	Op           string
	OwnerType    annotation.OwnerType
	OwnerID      uuid.UUID
	AnnotationID uuid.UUID
	Cause        error
}

func (e *MutationError) Error() string {
	if e.AnnotationID != uuid.Nil {
		return fmt.Sprintf("%s annotation %s on %s %s: %v", e.Op, e.AnnotationID, e.OwnerType, e.OwnerID, e.Cause)
	}
	return fmt.Sprintf("%s annotation on %s %s: %v", e.Op, e.OwnerType, e.OwnerID, e.Cause)
}

func (e *MutationError) Unwrap() error {
	return e.Cause
}

// Config configures a Router.
type Config struct {
	// Timeout bounds each remote call. Zero means 15 seconds.
	Timeout time.Duration
	// OnError is called for every failed mutation. Optional.
	OnError func(err *MutationError)
	// OnDone is called after every successful mutation, for example to refetch.
	OnDone func(owner annotation.OwnerType, ownerID uuid.UUID)
	Logger *zap.Logger
}

const defaultTimeout = 15 * time.Second

// Router holds the two operation families.
type Router struct {
	story      Operations
	derivation Operations
	cfg        Config
	logger     *zap.Logger
	inflight   sync.WaitGroup
}

// NewRouter creates a router over the story and derivation families.
func NewRouter(story, derivation Operations, cfg Config) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		story:      story,
		derivation: derivation,
		cfg:        cfg,
		logger:     logger.Named("owner"),
	}
}

// Operations returns the family for an owner type.
func (r *Router) Operations(t annotation.OwnerType) (Operations, error) {
	var ops Operations
	switch t {
	case annotation.OwnerStory:
		ops = r.story
	case annotation.OwnerDerivation:
		ops = r.derivation
	default:
		return nil, fmt.Errorf("unknown owner type %q", t)
	}
	if ops == nil {
		return nil, fmt.Errorf("no operations for owner type %q", t)
	}
	return ops, nil
}

// Resolve binds the owner to its family. This is the only place the owner type is
// inspected. An unknown owner type resolves to a mutation set whose calls fail
// through OnError.
func (r *Router) Resolve(o Owner) *Mutations {
	ops, err := r.Operations(o.Type)
	return &Mutations{router: r, owner: o, ops: ops, resolveErr: err}
}

// List fetches the owner's annotations synchronously. This is the read path that
// seeds and refreshes a document view.
func (r *Router) List(ctx context.Context, o Owner) ([]annotation.Annotation, error) {
	ops, err := r.Operations(o.Type)
	if err != nil {
		return nil, err
	}
	return ops.ListAnnotations(ctx, o.ID)
}

// Wait blocks until every dispatched mutation has finished.
func (r *Router) Wait() {
	r.inflight.Wait()
}

// Mutations are the owner-scoped calls available to the interaction controller.
// Calls return immediately; the request runs on its own goroutine and is never
// cancelled by local state changes.
type Mutations struct {
	router     *Router
	owner      Owner
	ops        Operations
	resolveErr error
}

// Owner returns the owner the mutations are bound to.
func (m *Mutations) Owner() Owner {
	return m.owner
}

// Refresh fetches the owner's current annotation list.
func (m *Mutations) Refresh(ctx context.Context) ([]annotation.Annotation, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.ops.ListAnnotations(ctx, m.owner.ID)
}

// Create persists a new annotation.
func (m *Mutations) Create(input annotation.CreateInput) {
	m.dispatch("create", uuid.Nil, func(ctx context.Context) error {
		_, err := m.ops.CreateAnnotation(ctx, m.owner.ID, &input)
		return err
	})
}

// Update changes the note, style or color of an annotation.
func (m *Mutations) Update(annotationID uuid.UUID, input annotation.UpdateInput) {
	m.dispatch("update", annotationID, func(ctx context.Context) error {
		_, err := m.ops.UpdateAnnotation(ctx, m.owner.ID, annotationID, &input)
		return err
	})
}

// Delete removes an anchored annotation.
func (m *Mutations) Delete(annotationID uuid.UUID) {
	m.dispatch("delete", annotationID, func(ctx context.Context) error {
		return m.ops.DeleteAnnotation(ctx, m.owner.ID, annotationID)
	})
}

// DeleteAside removes a margin aside.
func (m *Mutations) DeleteAside(annotationID uuid.UUID) {
	m.dispatch("delete-aside", annotationID, func(ctx context.Context) error {
		return m.ops.DeleteAnnotation(ctx, m.owner.ID, annotationID)
	})
}

func (m *Mutations) dispatch(op string, annotationID uuid.UUID, call func(ctx context.Context) error) {
	r := m.router
	fail := func(err error) {
		merr := &MutationError{
			Op:           op,
			OwnerType:    m.owner.Type,
			OwnerID:      m.owner.ID,
			AnnotationID: annotationID,
			Cause:        err,
		}
		r.logger.Warn("annotation mutation failed",
			zap.String("op", op),
			zap.String("owner_type", string(m.owner.Type)),
			zap.Stringer("owner_id", m.owner.ID),
			zap.Error(err),
		)
		if r.cfg.OnError != nil {
			r.cfg.OnError(merr)
		}
	}

	if m.resolveErr != nil {
		fail(m.resolveErr)
		return
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
		defer cancel()

		start := time.Now()
		if err := call(ctx); err != nil {
			fail(err)
			return
		}
		r.logger.Debug("annotation mutation completed",
			zap.String("op", op),
			zap.String("owner_type", string(m.owner.Type)),
			zap.Stringer("owner_id", m.owner.ID),
			zap.Duration("elapsed", time.Since(start)),
		)
		if r.cfg.OnDone != nil {
			r.cfg.OnDone(m.owner.Type, m.owner.ID)
		}
	}()
}
