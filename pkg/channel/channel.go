// Package channel implements the bidirectional Client Channel (spec.md §5,
// §6): one process-wide websocket hub, keeping a set of observers per
// session, that fans out outbound log/screenshot/status/error events to
// every observer of the event's session and routes
// inbound task/stop/confirmation messages to the orchestrator.
package channel

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/entrhq/pilot/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1MB, generous for a JSON control message
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler is called for each inbound client message. The orchestrator
// registers one of these per message type via Hub's On* setters.
type Handler func(msg *types.ClientMessage)

// Hub owns every connected client and every session's set of observers. A
// client observes exactly one session at a time (set by its first "task" or
// implied by the sessionId on "stop"/"confirmation" messages).
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]bool

	onTask         Handler
	onStop         Handler
	onConfirmation Handler
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*client]bool)}
}

// OnTask registers the handler invoked for inbound "task" messages.
func (h *Hub) OnTask(fn Handler) { h.onTask = fn }

// OnStop registers the handler invoked for inbound "stop" messages.
func (h *Hub) OnStop(fn Handler) { h.onStop = fn }

// OnConfirmation registers the handler invoked for inbound "confirmation" messages.
func (h *Hub) OnConfirmation(fn Handler) { h.onConfirmation = fn }

// ServeWS upgrades the connection and starts its read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast implements spec.md §5's best-effort fan-out: every observer of
// sessionID gets event, and a slow or dead client is dropped rather than
// blocking the sender.
func (h *Hub) Broadcast(sessionID string, event *types.ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	observers := h.sessions[sessionID]
	h.mu.RUnlock()

	for c := range observers {
		select {
		case c.send <- payload:
		default:
			h.drop(sessionID, c)
		}
	}
}

func (h *Hub) subscribe(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.sessionID != "" && c.sessionID != sessionID {
		delete(h.sessions[c.sessionID], c)
	}
	c.sessionID = sessionID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*client]bool)
	}
	h.sessions[sessionID][c] = true
}

func (h *Hub) drop(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if observers, ok := h.sessions[sessionID]; ok {
		if _, present := observers[c]; present {
			delete(observers, c)
			close(c.send)
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if observers, ok := h.sessions[c.sessionID]; ok {
		if _, present := observers[c]; present {
			delete(observers, c)
			close(c.send)
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg types.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		sessionID := msg.Data.SessionID
		if msg.Type == types.ClientMessageTask && sessionID == "" {
			sessionID = uuid.NewString()
			msg.Data.SessionID = sessionID
		}
		if sessionID != "" {
			h.subscribe(sessionID, c)
		}

		h.dispatch(&msg)
	}
}

func (h *Hub) dispatch(msg *types.ClientMessage) {
	switch msg.Type {
	case types.ClientMessageTask:
		if h.onTask != nil {
			h.onTask(msg)
		}
	case types.ClientMessageStop:
		if h.onStop != nil {
			h.onStop(msg)
		}
	case types.ClientMessageConfirmation:
		if h.onConfirmation != nil {
			h.onConfirmation(msg)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
