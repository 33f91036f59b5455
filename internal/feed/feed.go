// Package feed provides the change feed: a push channel delivering
// create/update/delete notifications for a collection to live subscribers.
package feed

import (
	"sync"

	"github.com/Voxel07/inventory/internal/logging"
)

// EventType is the kind of mutation an event describes.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Collection names events can be published under.
const (
	CollectionItems = "items"
	CollectionStock = "stock"
)

// Event is a single change notification.
type Event struct {
	Collection string      `json:"collection"`
	Type       EventType   `json:"type"`
	ID         string      `json:"id"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Handler receives events for a subscription. Handlers are invoked
// sequentially per Publish call; a slow handler delays delivery to
// later subscribers of the same event.
type Handler func(Event)

// Hub fans out change events to subscribers. The zero value is not
// usable; create one with NewHub.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler // collection -> subscription id -> handler
	closed bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]Handler),
	}
}

// Subscribe registers a handler for all events of a collection and
// returns an unsubscribe function. Unsubscribing more than once is a
// no-op. Failing to unsubscribe leaks the handler and keeps delivering
// events to a consumer that no longer wants them.
func (h *Hub) Subscribe(collection string, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]Handler)
	}
	id := h.nextID
	h.nextID++
	h.subs[collection][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collection], id)
		})
	}
}

// Publish delivers an event to every subscriber of its collection.
// Publishing on a closed hub is dropped.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		logging.Warn("event dropped on closed feed", map[string]interface{}{
			"collection": event.Collection,
			"type":       string(event.Type),
		})
		return
	}
	handlers := make([]Handler, 0, len(h.subs[event.Collection]))
	for _, handler := range h.subs[event.Collection] {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Close marks the hub closed and drops all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[string]map[int]Handler)
}
