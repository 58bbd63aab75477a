package owner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/story-annotations/internal/annotation"
)

type call struct {
	Op           string
	OwnerID      uuid.UUID
	AnnotationID uuid.UUID
	Create       *annotation.CreateInput
	Update       *annotation.UpdateInput
}

type fakeOps struct {
	mu    sync.Mutex
	calls []call
	err   error
	gate  chan struct{}
}

func (f *fakeOps) record(c call) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeOps) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeOps) ListAnnotations(_ context.Context, ownerID uuid.UUID) ([]annotation.Annotation, error) {
	return []annotation.Annotation{{ID: uuid.New(), OwnerID: ownerID}}, f.err
}

func (f *fakeOps) CreateAnnotation(_ context.Context, ownerID uuid.UUID, input *annotation.CreateInput) (*annotation.Annotation, error) {
	return nil, f.record(call{Op: "create", OwnerID: ownerID, Create: input})
}

func (f *fakeOps) UpdateAnnotation(_ context.Context, ownerID, annotationID uuid.UUID, input *annotation.UpdateInput) (*annotation.Annotation, error) {
	return nil, f.record(call{Op: "update", OwnerID: ownerID, AnnotationID: annotationID, Update: input})
}

func (f *fakeOps) DeleteAnnotation(_ context.Context, ownerID, annotationID uuid.UUID) error {
	return f.record(call{Op: "delete", OwnerID: ownerID, AnnotationID: annotationID})
}

func TestResolve_RoutesByOwnerType(t *testing.T) {
	story, derivation := &fakeOps{}, &fakeOps{}
	r := NewRouter(story, derivation, Config{Logger: zaptest.NewLogger(t)})

	storyID, derivationID := uuid.New(), uuid.New()
	annID := uuid.New()

	sm := r.Resolve(Story(storyID, nil))
	sm.Create(annotation.CreateInput{SectionKey: "situation", StartOffset: 0, EndOffset: 4, Style: annotation.StyleBox})
	sm.Delete(annID)

	dm := r.Resolve(Derivation(derivationID, nil))
	note := "tighten"
	dm.Update(annID, annotation.UpdateInput{Note: &note})
	dm.DeleteAside(annID)

	r.Wait()

	storyCalls := story.Calls()
	require.Len(t, storyCalls, 2)
	for _, c := range storyCalls {
		assert.Equal(t, storyID, c.OwnerID)
	}

	derivationCalls := derivation.Calls()
	require.Len(t, derivationCalls, 2)
	for _, c := range derivationCalls {
		assert.Equal(t, derivationID, c.OwnerID)
		assert.Equal(t, annID, c.AnnotationID)
	}
	assert.Equal(t, sm.Owner().ID, storyID)
}

func TestMutations_FireAndForget(t *testing.T) {
	story := &fakeOps{gate: make(chan struct{})}
	r := NewRouter(story, &fakeOps{}, Config{})

	done := make(chan struct{})
	go func() {
		r.Resolve(Story(uuid.New(), nil)).Delete(uuid.New())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Delete blocked on the remote call")
	}

	assert.Empty(t, story.Calls())
	close(story.gate)
	r.Wait()
	assert.Len(t, story.Calls(), 1)
}

func TestMutations_FailureReported(t *testing.T) {
	boom := errors.New("connection refused")
	story := &fakeOps{err: boom}

	var mu sync.Mutex
	var reported []*MutationError
	var completed int
	r := NewRouter(story, &fakeOps{}, Config{
		OnError: func(err *MutationError) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
		OnDone: func(annotation.OwnerType, uuid.UUID) {
			mu.Lock()
			completed++
			mu.Unlock()
		},
	})

	annID := uuid.New()
	r.Resolve(Story(uuid.New(), nil)).Delete(annID)
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1)
	assert.Equal(t, "delete", reported[0].Op)
	assert.Equal(t, annID, reported[0].AnnotationID)
	assert.ErrorIs(t, reported[0], boom)
	assert.Contains(t, reported[0].Error(), "connection refused")
	assert.Zero(t, completed)
}

func TestMutations_OnDone(t *testing.T) {
	var got uuid.UUID
	var mu sync.Mutex
	r := NewRouter(&fakeOps{}, &fakeOps{}, Config{
		OnDone: func(_ annotation.OwnerType, id uuid.UUID) {
			mu.Lock()
			got = id
			mu.Unlock()
		},
	})
	id := uuid.New()
	r.Resolve(Derivation(id, nil)).Create(annotation.CreateInput{SectionKey: "content", StartOffset: -1, EndOffset: -1, Style: annotation.StyleAside})
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, id, got)
}

func TestResolve_UnknownOwnerType(t *testing.T) {
	var reported *MutationError
	r := NewRouter(&fakeOps{}, &fakeOps{}, Config{
		OnError: func(err *MutationError) { reported = err },
	})

	r.Resolve(Owner{Type: "packet", ID: uuid.New()}).Delete(uuid.New())
	r.Wait()

	require.NotNil(t, reported)
	assert.Contains(t, reported.Error(), "unknown owner type")

	_, err := r.List(context.Background(), Owner{Type: "packet"})
	assert.Error(t, err)
}

func TestResolve_MissingFamily(t *testing.T) {
	var reported *MutationError
	derivations := &fakeOps{}
	r := NewRouter(nil, derivations, Config{
		OnError: func(err *MutationError) { reported = err },
	})

	m := r.Resolve(Story(uuid.New(), nil))
	assert.NotPanics(t, func() {
		m.Create(annotation.CreateInput{SectionKey: "situation", StartOffset: 0, EndOffset: 4, Style: annotation.StyleHighlight})
		r.Wait()
	})

	require.NotNil(t, reported)
	assert.Equal(t, "create", reported.Op)
	assert.Contains(t, reported.Error(), "no operations for owner type")
	assert.Empty(t, derivations.Calls())

	_, err := m.Refresh(context.Background())
	assert.Error(t, err)
	_, err = r.Operations(annotation.OwnerStory)
	assert.Error(t, err)
}

func TestRouter_List(t *testing.T) {
	r := NewRouter(&fakeOps{}, &fakeOps{}, Config{})
	id := uuid.New()
	anns, err := r.List(context.Background(), Story(id, nil))
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, id, anns[0].OwnerID)
}
