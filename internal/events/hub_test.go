package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/story-annotations/internal/annotation"
)

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "failed to read event")
	require.NoError(t, json.Unmarshal(p, &ev))
	return ev
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerType, _ := annotation.ParseOwnerType(r.URL.Query().Get("type"))
		ownerID := uuid.MustParse(r.URL.Query().Get("id"))
		ServeWs(hub, w, r, ownerType, ownerID)
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-stopped
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func subscribe(t *testing.T, url string, ownerType annotation.OwnerType, ownerID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"/?type="+string(ownerType)+"&id="+ownerID.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ev := readEvent(t, conn)
	require.Equal(t, TypeSubscribed, ev.Type)
	require.Equal(t, ownerID, ev.OwnerID)
	return conn
}

func TestHub_BroadcastsToOwnerRoom(t *testing.T) {
	hub, url := startHub(t)
	storyID := uuid.New()

	conn1 := subscribe(t, url, annotation.OwnerStory, storyID)
	conn2 := subscribe(t, url, annotation.OwnerStory, storyID)
	other := subscribe(t, url, annotation.OwnerDerivation, storyID)

	a := &annotation.Annotation{ID: uuid.New(), OwnerType: annotation.OwnerStory, OwnerID: storyID, SectionKey: "result", Style: annotation.StyleBox}
	hub.Publish(Event{Type: TypeCreated, OwnerType: annotation.OwnerStory, OwnerID: storyID, AnnotationID: a.ID, Annotation: a})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		ev := readEvent(t, conn)
		assert.Equal(t, TypeCreated, ev.Type)
		assert.Equal(t, a.ID, ev.AnnotationID)
		require.NotNil(t, ev.Annotation)
		assert.Equal(t, "result", ev.Annotation.SectionKey)
		assert.False(t, ev.At.IsZero())
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "derivation room must not receive story events")
}

func TestHub_UnsubscribeOnClose(t *testing.T) {
	hub, url := startHub(t)
	id := uuid.New()

	conn := subscribe(t, url, annotation.OwnerDerivation, id)
	stay := subscribe(t, url, annotation.OwnerDerivation, id)
	require.NoError(t, conn.Close())

	hub.Publish(Event{Type: TypeDeleted, OwnerType: annotation.OwnerDerivation, OwnerID: id, AnnotationID: uuid.New()})
	ev := readEvent(t, stay)
	assert.Equal(t, TypeDeleted, ev.Type)
}

func TestHub_PublishAfterStop(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Type: TypeUpdated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}

func TestRoom(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "story:6ba7b810-9dad-11d1-80b4-00c04fd430c8", Room(annotation.OwnerStory, id))
}
