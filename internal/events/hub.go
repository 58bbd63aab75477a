// Package events pushes annotation changes to open document views over websockets,
// one room per owner.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
)

// Event types
const (
	TypeSubscribed = "subscribed"
	TypeCreated    = "created"
	TypeUpdated    = "updated"
	TypeDeleted    = "deleted"
)

// Event describes a change to one owner's annotation set.
type Event struct {
	Type         string                 `json:"type"`
	OwnerType    annotation.OwnerType   `json:"owner_type"`
	OwnerID      uuid.UUID              `json:"owner_id"`
	AnnotationID uuid.UUID              `json:"annotation_id,omitempty"`
	Annotation   *annotation.Annotation `json:"annotation,omitempty"`
	At           time.Time              `json:"at"`
}

// Room returns the room key of an owner.
func Room(ownerType annotation.OwnerType, ownerID uuid.UUID) string {
	return string(ownerType) + ":" + ownerID.String()
}

// Hub fans events out to the clients subscribed to each owner.
type Hub struct {
	rooms      map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("events"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every
// client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for room, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			h.logger.Info("event hub stopped")
			return nil

		case c := <-h.register:
			if h.rooms[c.room] == nil {
				h.rooms[c.room] = make(map[*Client]bool)
			}
			h.rooms[c.room][c] = true
			h.logger.Debug("client subscribed", zap.String("room", c.room), zap.Int("clients", len(h.rooms[c.room])))
			h.deliver(c, Event{Type: TypeSubscribed, OwnerType: c.ownerType, OwnerID: c.ownerID, At: time.Now().UTC()})

		case c := <-h.unregister:
			h.remove(c)

		case ev := <-h.broadcast:
			room := Room(ev.OwnerType, ev.OwnerID)
			for c := range h.rooms[room] {
				h.deliver(c, ev)
			}
		}
	}
}

// deliver queues ev for one client. A client whose buffer is full is dropped.
func (h *Hub) deliver(c *Client, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("client send buffer full, dropping client", zap.String("room", c.room))
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.room]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
	h.logger.Debug("client unsubscribed", zap.String("room", c.room))
}

// Publish queues an event for the owner's room. It never blocks; when the queue is
// full the event is dropped and views reconcile on their next refetch.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		h.logger.Warn("event queue full, dropping event",
			zap.String("type", ev.Type),
			zap.String("room", Room(ev.OwnerType, ev.OwnerID)),
		)
	}
}
