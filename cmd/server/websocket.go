// WebSocket push of the change feed to browser clients.
package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/logging"
	"github.com/Voxel07/inventory/internal/uuid"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The UI is served from the same host.
		return true
	},
}

// WSClient represents a WebSocket client connection.
type WSClient struct {
	id            string
	conn          *websocket.Conn
	send          chan []byte
	hub           *WSHub
	mu            sync.RWMutex
	subscriptions map[string]bool // collection -> subscribed
}

// subscribed reports whether the client wants events for a collection.
// A client with no explicit subscriptions receives everything.
func (c *WSClient) subscribed(collection string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[collection]
}

// WSHub maintains active client connections and forwards change-feed
// events to them.
type WSHub struct {
	clients    map[string]*WSClient
	register   chan *WSClient
	unregister chan *WSClient
	events     chan feed.Event
	done       chan struct{}
}

// WSEnvelope wraps all pushed messages.
type WSEnvelope struct {
	Type      string     `json:"type"`
	Event     feed.Event `json:"event"`
	Timestamp int64      `json:"timestamp"`
}

// NewWSHub creates a hub and subscribes it to both collections of the
// change feed. Stop unsubscribes and disconnects all clients.
func NewWSHub(f *feed.Hub) (*WSHub, func()) {
	hub := &WSHub{
		clients:    make(map[string]*WSClient),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		events:     make(chan feed.Event, 256),
		done:       make(chan struct{}),
	}

	forward := func(ev feed.Event) {
		select {
		case hub.events <- ev:
		default:
			logging.Warn("websocket event buffer full, event dropped", map[string]interface{}{
				"collection": ev.Collection,
			})
		}
	}
	unsubItems := f.Subscribe(feed.CollectionItems, forward)
	unsubStock := f.Subscribe(feed.CollectionStock, forward)

	go hub.run()

	stop := func() {
		unsubItems()
		unsubStock()
		close(hub.done)
	}
	return hub, stop
}

// run manages client connections and event delivery.
func (h *WSHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			logging.Info("websocket client connected", map[string]interface{}{
				"client_id": client.id, "total": len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			logging.Info("websocket client disconnected", map[string]interface{}{
				"client_id": client.id, "total": len(h.clients),
			})

		case ev := <-h.events:
			message, err := json.Marshal(WSEnvelope{
				Type:      ev.Collection + "." + string(ev.Type),
				Event:     ev,
				Timestamp: time.Now().Unix(),
			})
			if err != nil {
				logging.Error("failed to marshal websocket event", err)
				continue
			}
			for _, client := range h.clients {
				if !client.subscribed(ev.Collection) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client send buffer is full, drop the connection
					close(client.send)
					delete(h.clients, client.id)
				}
			}

		case <-h.done:
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[string]*WSClient)
			return
		}
	}
}

// readPump consumes subscribe/unsubscribe commands from the connection.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket read error", map[string]interface{}{"error": err.Error()})
			}
			break
		}

		var msg struct {
			Action      string   `json:"action"`
			Collections []string `json:"collections"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			c.mu.Lock()
			for _, col := range msg.Collections {
				c.subscriptions[col] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, col := range msg.Collections {
				delete(c.subscriptions, col)
			}
			c.mu.Unlock()
		}
	}
}

// writePump pumps messages to the WebSocket connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleWebSocket upgrades connections and registers them with the hub.
func HandleWebSocket(hub *WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error("failed to upgrade websocket", err)
			return
		}

		client := &WSClient{
			id:            uuid.New(),
			conn:          conn,
			send:          make(chan []byte, 256),
			hub:           hub,
			subscriptions: make(map[string]bool),
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
