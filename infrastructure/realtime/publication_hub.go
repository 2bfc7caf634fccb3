package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"crosspost/domain/model"

	"github.com/gin-gonic/gin"
)

// Hub fans publication events out to the SSE streams of their owner
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.PublicationEvent]struct{}
}

func NewPublicationHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.PublicationEvent]struct{})}
}

// Serve streams events of the authenticated user (user_id set by middleware)
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.subscribe(userID)
	defer h.unsubscribe(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publication_status\ndata: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) subscribe(userID string) chan model.PublicationEvent {
	ch := make(chan model.PublicationEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.PublicationEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(userID string, ch chan model.PublicationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// Notify delivers the event to every stream of the user without blocking; slow streams drop events
func (h *Hub) Notify(_ context.Context, event model.PublicationEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}
