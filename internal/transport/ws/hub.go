package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections and the rooms they belong to
type Hub struct {
	conns map[string]*Connection            // connID -> conn
	rooms map[string]map[string]*Connection // room -> connID -> conn

	mu sync.RWMutex

	broadcast chan *BroadcastMessage
	done      chan struct{}
	closeOnce sync.Once
}

// Connection represents a WebSocket connection. A connection is in at most one room.
type Connection struct {
	ID   string
	Room string
	Send chan []byte
	Hub  *Hub

	closed bool
}

// BroadcastMessage is a queued delivery. Deliveries are processed in order.
type BroadcastMessage struct {
	Room       string
	ToConn     string // non-empty means one connection only
	Message    *Message
	Disconnect bool // close every connection in Room
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		broadcast: make(chan *BroadcastMessage, 256),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case msg := <-h.broadcast:
			if msg.Disconnect {
				h.disconnectRoom(msg.Room)
				continue
			}
			h.deliver(msg)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", msg.Message.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.ToConn != "" {
		if conn, ok := h.conns[msg.ToConn]; ok {
			trySend(conn, data)
		}
		return
	}
	for _, conn := range h.rooms[msg.Room] {
		trySend(conn, data)
	}
}

// trySend drops the message if the connection's buffer is full
func trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
	}
}

func (h *Hub) disconnectRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.rooms[room] {
		h.closeLocked(conn)
	}
	delete(h.rooms, room)
	log.Printf("Room %s disconnected", room)
}

// Register adds a connection that is not yet in any room
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID] = conn
}

// Unregister removes a connection and closes its send channel
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked(conn)
}

func (h *Hub) closeLocked(conn *Connection) {
	if existing, ok := h.conns[conn.ID]; ok && existing == conn {
		delete(h.conns, conn.ID)
	}
	h.leaveLocked(conn)
	if !conn.closed {
		conn.closed = true
		close(conn.Send)
	}
}

// JoinRoom moves a connection into room and returns the room it left
func (h *Hub) JoinRoom(connID, room string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return ""
	}
	prev := conn.Room
	h.leaveLocked(conn)

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Connection)
	}
	h.rooms[room][connID] = conn
	conn.Room = room
	return prev
}

// LeaveRoom removes a connection from its room
func (h *Hub) LeaveRoom(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[connID]; ok {
		h.leaveLocked(conn)
	}
}

func (h *Hub) leaveLocked(conn *Connection) {
	if conn.Room == "" {
		return
	}
	if members, ok := h.rooms[conn.Room]; ok {
		delete(members, conn.ID)
		if len(members) == 0 {
			delete(h.rooms, conn.Room)
		}
	}
	conn.Room = ""
}

// RoomSize returns the number of connections in room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom sends a message to every connection in room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(room string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{Room: room, Message: newMessage(msgType, payload)})
}

// SendToConnection sends a message to one connection (implements service.Broadcaster)
func (h *Hub) SendToConnection(connID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{ToConn: connID, Message: newMessage(msgType, payload)})
}

// DisconnectRoom closes every connection in room once queued messages are out (implements service.Broadcaster)
func (h *Hub) DisconnectRoom(room string) {
	h.enqueue(&BroadcastMessage{Room: room, Disconnect: true})
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Close stops the delivery loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func newMessage(msgType string, payload interface{}) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode %s payload: %v", msgType, err)
		data = []byte("null")
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}
}
