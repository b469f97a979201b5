package ws

import (
	"context"
	"duelquiz/internal/service"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 4096
	dispatchTimeout = 10 * time.Second
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	slots    *service.SlotManager
	rounds   *service.RoundCoordinator
	upgrader websocket.Upgrader
	verbose  bool
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, slots *service.SlotManager, rounds *service.RoundCoordinator, allowedOrigin string, verbose bool) *Handler {
	return &Handler{
		hub:    hub,
		slots:  slots,
		rounds: rounds,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		verbose: verbose,
	}
}

// ServeWS handles GET /v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:   "c_" + uuid.New().String()[:8],
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}

	h.hub.Register(conn)

	if h.verbose {
		log.Printf("Connection %s opened from %s", conn.ID, r.RemoteAddr)
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.slots.DetachConnection(conn.ID)
		h.hub.Unregister(conn)
		wsConn.Close()
		if h.verbose {
			log.Printf("Connection %s closed", conn.ID)
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, errMalformedMessage)
			continue
		}
		if h.verbose {
			log.Printf("Connection %s sent %s", conn.ID, msg.Type)
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err = h.dispatch(ctx, conn, &msg)
		cancel()
		if err != nil {
			h.sendError(conn, err)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
