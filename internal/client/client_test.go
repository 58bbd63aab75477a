package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/events"
	"github.com/jonathan/story-annotations/internal/owner"
)

type request struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeService records requests and answers like the annotation service
type fakeService struct {
	mu       sync.Mutex
	requests []request
	status   int
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := request{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "annotation not found"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"annotations": nil, "total": 0})
	case http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(annotation.Annotation{ID: uuid.New(), Style: annotation.Style(req.Body["style"].(string))})
	case http.MethodPatch:
		_ = json.NewEncoder(w).Encode(annotation.Annotation{ID: uuid.New(), Color: annotation.Color(req.Body["color"].(string))})
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeService) Requests() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.requests...)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("http://localhost:8080", annotation.OwnerType("packet"), Options{})
	assert.Error(t, err)

	_, err = New("localhost", annotation.OwnerStory, Options{})
	assert.Error(t, err)
}

func TestClient_FamilyRoutes(t *testing.T) {
	svc := &fakeService{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	ctx := context.Background()
	ownerID := uuid.New()
	annID := uuid.New()

	story, err := New(ts.URL+"/", annotation.OwnerStory, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	derivation, err := New(ts.URL, annotation.OwnerDerivation, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	list, err := story.ListAnnotations(ctx, ownerID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := derivation.CreateAnnotation(ctx, ownerID, &annotation.CreateInput{
		SectionKey: "content", StartOffset: -1, EndOffset: -1, Style: annotation.StyleAside, Note: annotation.StringPtr("Ask about rollout timeline"),
	})
	require.NoError(t, err)
	assert.Equal(t, annotation.StyleAside, created.Style)

	green := annotation.ColorGreen
	updated, err := story.UpdateAnnotation(ctx, ownerID, annID, &annotation.UpdateInput{Color: &green})
	require.NoError(t, err)
	assert.Equal(t, annotation.ColorGreen, updated.Color)

	require.NoError(t, derivation.DeleteAnnotation(ctx, ownerID, annID))

	reqs := svc.Requests()
	require.Len(t, reqs, 4)
	base := "/" + ownerID.String() + "/annotations"
	assert.Equal(t, request{Method: "GET", Path: "/stories" + base}, reqs[0])
	assert.Equal(t, "/derivations"+base, reqs[1].Path)
	assert.Equal(t, "aside", reqs[1].Body["style"])
	assert.EqualValues(t, -1, reqs[1].Body["start_offset"])
	assert.Equal(t, "Ask about rollout timeline", reqs[1].Body["note"])
	assert.Equal(t, "/stories"+base+"/"+annID.String(), reqs[2].Path)
	assert.Equal(t, map[string]any{"color": "green"}, reqs[2].Body)
	assert.Equal(t, request{Method: "DELETE", Path: "/derivations" + base + "/" + annID.String()}, reqs[3])
}

func TestClient_Errors(t *testing.T) {
	svc := &fakeService{status: http.StatusNotFound}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	c, err := New(ts.URL, annotation.OwnerStory, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, c.DeleteAnnotation(ctx, uuid.New(), uuid.New()), "deleting a missing annotation succeeds")

	_, err = c.UpdateAnnotation(ctx, uuid.New(), uuid.New(), &annotation.UpdateInput{Note: annotation.StringPtr("x")})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "annotation not found", apiErr.Message)

	svc.status = http.StatusInternalServerError
	err = c.DeleteAnnotation(ctx, uuid.New(), uuid.New())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestNewRouter_FailuresReachOnError(t *testing.T) {
	ts := httptest.NewServer(&fakeService{status: http.StatusInternalServerError})
	defer ts.Close()

	var mu sync.Mutex
	var failures []*owner.MutationError
	router, err := NewRouter(ts.URL, Options{}, owner.Config{
		Logger: zaptest.NewLogger(t),
		OnError: func(err *owner.MutationError) {
			mu.Lock()
			defer mu.Unlock()
			failures = append(failures, err)
		},
	})
	require.NoError(t, err)

	m := router.Resolve(owner.Derivation(uuid.New(), nil))
	m.Create(annotation.CreateInput{SectionKey: "content", StartOffset: 0, EndOffset: 3, Style: annotation.StyleBox})
	router.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.Equal(t, "create", failures[0].Op)
	assert.Equal(t, annotation.OwnerDerivation, failures[0].OwnerType)
}

func TestWatchURL(t *testing.T) {
	c, err := New("https://notes.example.com", annotation.OwnerDerivation, Options{})
	require.NoError(t, err)
	id := uuid.MustParse("6f1c1f0e-8d7a-4b8e-9b8a-3f1f2c4d5e6f")
	assert.Equal(t, "wss://notes.example.com/ws/derivation/"+id.String(), c.WatchURL(id))
}

func TestWatch(t *testing.T) {
	hub := events.NewHub(zaptest.NewLogger(t))
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		_ = hub.Run(hubCtx)
		close(hubDone)
	}()
	defer func() {
		stopHub()
		<-hubDone
	}()

	storyID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{owner_type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		events.ServeWs(hub, w, r, annotation.OwnerStory, uuid.MustParse(r.PathValue("id")))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := New(ts.URL, annotation.OwnerStory, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	received := make(chan events.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- c.Watch(ctx, storyID, func(ev events.Event) { received <- ev })
	}()

	next := func() events.Event {
		select {
		case ev := <-received:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return events.Event{}
		}
	}

	require.Equal(t, events.TypeSubscribed, next().Type)

	annID := uuid.New()
	hub.Publish(events.Event{Type: events.TypeDeleted, OwnerType: annotation.OwnerStory, OwnerID: storyID, AnnotationID: annID})
	ev := next()
	assert.Equal(t, events.TypeDeleted, ev.Type)
	assert.Equal(t, annID, ev.AnnotationID)

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
