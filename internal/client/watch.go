package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/events"
)

// WatchURL returns the websocket URL of an owner's change feed.
func (c *Client) WatchURL(ownerID uuid.UUID) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/") + "/ws/" + string(c.ownerType) + "/" + ownerID.String()
}

// Watch subscribes to an owner's change feed and calls fn for every event until
// ctx is cancelled or the connection drops. Cancellation is not an error.
func (c *Client) Watch(ctx context.Context, ownerID uuid.UUID, fn func(events.Event)) error {
	target := c.WatchURL(ownerID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return &Error{Method: "GET", URL: target, Message: "websocket dial failed", Cause: err}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	c.logger.Debug("watching change feed", zap.String("url", target))
	for {
		var ev events.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read change feed: %w", err)
		}
		fn(ev)
	}
}
