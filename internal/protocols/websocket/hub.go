// Package websocket - live comment event fan-out. Clients subscribe to a
// per-content room and receive comment create/update/delete and like events
// as they happen; all writes still go through the REST surface.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"manganime/pkg/logger"
	"manganime/pkg/models"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxRoomSize     = 1000
	cleanupInterval = 5 * time.Minute
)

// Event is one wire frame pushed to subscribers.
type Event struct {
	Type      string      `json:"type"` // "comment_posted", "comment_updated", "comment_deleted"
	Room      string      `json:"room"`
	Payload   interface{} `json:"payload,omitempty"`
	CommentID string      `json:"comment_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub manages all content rooms and their subscribers.
type Hub struct {
	roomsMu sync.RWMutex
	rooms   map[string]*room // contentType:contentID -> room
	stop    chan struct{}
	wg      sync.WaitGroup
}

type room struct {
	key        string
	clientsMu  sync.RWMutex
	clients    map[*client]bool
	broadcast  chan *Event
	register   chan *client
	unregister chan *client
	stopped    bool
	stop       chan struct{}
}

type client struct {
	room *room
	conn *websocket.Conn
	send chan *Event
}

// NewHub creates the event hub and starts its room janitor.
func NewHub() *Hub {
	hub := &Hub{
		rooms: make(map[string]*room),
		stop:  make(chan struct{}),
	}
	hub.wg.Add(1)
	go hub.cleanupRooms()
	return hub
}

func roomKey(contentType, contentID string) string {
	return contentType + ":" + contentID
}

// cleanupRooms periodically removes rooms left without subscribers.
func (h *Hub) cleanupRooms() {
	defer h.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.roomsMu.Lock()
			for key, r := range h.rooms {
				r.clientsMu.RLock()
				empty := len(r.clients) == 0
				r.clientsMu.RUnlock()
				if empty {
					close(r.stop)
					delete(h.rooms, key)
					logger.WebSocket(key, "room_closed", "")
				}
			}
			h.roomsMu.Unlock()
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) getOrCreateRoom(key string) *room {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	if r, exists := h.rooms[key]; exists {
		return r
	}
	r := &room{
		key:        key,
		clients:    make(map[*client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		stop:       make(chan struct{}),
	}
	h.rooms[key] = r
	go r.run()
	logger.WebSocket(key, "room_opened", "")
	return r
}

// publish fans an event out to a room's subscribers; a room nobody watches
// drops the event.
func (h *Hub) publish(key string, event *Event) {
	h.roomsMu.RLock()
	r, exists := h.rooms[key]
	h.roomsMu.RUnlock()
	if !exists {
		return
	}
	select {
	case r.broadcast <- event:
	default:
		logger.Warnf("event backlog full for room %s, dropping %s", key, event.Type)
	}
}

// CommentPosted implements core.CommentEvents
func (h *Hub) CommentPosted(contentType, contentID string, view *models.CommentView) {
	key := roomKey(contentType, contentID)
	h.publish(key, &Event{Type: "comment_posted", Room: key, Payload: view, Timestamp: time.Now()})
}

// CommentUpdated implements core.CommentEvents
func (h *Hub) CommentUpdated(contentType, contentID string, view *models.CommentView) {
	key := roomKey(contentType, contentID)
	h.publish(key, &Event{Type: "comment_updated", Room: key, Payload: view, Timestamp: time.Now()})
}

// CommentDeleted implements core.CommentEvents
func (h *Hub) CommentDeleted(contentType, contentID, commentID string) {
	key := roomKey(contentType, contentID)
	h.publish(key, &Event{Type: "comment_deleted", Room: key, CommentID: commentID, Timestamp: time.Now()})
}

func (r *room) run() {
	for {
		select {
		case c := <-r.register:
			r.handleRegister(c)
		case c := <-r.unregister:
			r.handleUnregister(c)
		case event := <-r.broadcast:
			r.fanOut(event)
		case <-r.stop:
			r.handleStop()
			return
		}
	}
}

func (r *room) handleRegister(c *client) {
	if r.stopped {
		return
	}
	r.clientsMu.Lock()
	if len(r.clients) >= maxRoomSize {
		r.clientsMu.Unlock()
		logger.Warnf("room %s full, rejecting subscriber", r.key)
		c.conn.Close()
		return
	}
	r.clients[c] = true
	r.clientsMu.Unlock()
	logger.WebSocket(r.key, "subscribe", "")
}

func (r *room) handleUnregister(c *client) {
	if r.stopped {
		return
	}
	r.clientsMu.Lock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	r.clientsMu.Unlock()
	logger.WebSocket(r.key, "unsubscribe", "")
}

func (r *room) fanOut(event *Event) {
	if r.stopped {
		return
	}
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()

	for c := range r.clients {
		select {
		case c.send <- event:
		default:
			// Slow subscriber: drop it rather than stall the room.
			go r.enqueueUnregister(c)
		}
	}
}

// enqueueUnregister hands a client to the room loop. Once the room has
// stopped nobody services the channel, so the send must not block; stopped
// rooms have already closed every client.
func (r *room) enqueueUnregister(c *client) {
	select {
	case r.unregister <- c:
	case <-r.stop:
	}
}

func (r *room) handleStop() {
	r.stopped = true
	r.clientsMu.Lock()
	for c := range r.clients {
		close(c.send)
		c.conn.Close()
	}
	r.clients = nil
	r.clientsMu.Unlock()
}

// Subscribe attaches a connection to a content room and pumps events until
// the peer goes away.
func (h *Hub) Subscribe(conn *websocket.Conn, contentType, contentID string) {
	r := h.getOrCreateRoom(roomKey(contentType, contentID))
	c := &client{room: r, conn: conn, send: make(chan *Event, 64)}
	select {
	case r.register <- c:
	case <-r.stop:
		conn.Close()
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// readPump drains the connection. Subscribers never send application frames;
// reading keeps pong handling alive and detects the close.
func (c *client) readPump() {
	defer func() {
		c.room.enqueueUnregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("websocket read error: %v", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Errorf("failed to marshal event: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.room.stop:
			return
		}
	}
}

// RoomSubscriberCount reports live subscribers for a room.
func (h *Hub) RoomSubscriberCount(contentType, contentID string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	if r, exists := h.rooms[roomKey(contentType, contentID)]; exists {
		r.clientsMu.RLock()
		defer r.clientsMu.RUnlock()
		return len(r.clients)
	}
	return 0
}

// Stop gracefully shuts the hub down.
func (h *Hub) Stop() {
	close(h.stop)
	h.roomsMu.Lock()
	for _, r := range h.rooms {
		close(r.stop)
	}
	h.roomsMu.Unlock()
	h.wg.Wait()
	logger.Info("websocket hub stopped")
}
