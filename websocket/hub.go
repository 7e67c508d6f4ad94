package websocket

import (
	"sync"
	"time"

	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeWait bounds a single write so one stalled client cannot hold up the hub.
const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Key struct {
	Role models.Role
	ID   uuid.UUID
}

type Client struct {
	Key  Key
	Conn Conn
}

// Event is pushed to a single connected account.
type Event struct {
	To      Key         `json:"-"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[Key]map[Conn]struct{}
	register   chan *Client
	unregister chan *Client
	Push       chan Event
	quit       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Key]map[Conn]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Push:       make(chan Event, 256),
		quit:       make(chan struct{}),
	}
}

// Default is the process-wide hub started by main.
var Default = NewHub()

func RunHub() { Default.Run() }

func (h *Hub) Run() {
	log := logger.Module("socket")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Key] == nil {
				h.clients[client.Key] = make(map[Conn]struct{})
			}
			h.clients[client.Key][client.Conn] = struct{}{}
			h.mu.Unlock()
			metrics.SocketClients.Inc()
			log.Debug("client registered", zap.String("role", string(client.Key.Role)), zap.String("id", client.Key.ID.String()))

		case client := <-h.unregister:
			h.remove(client.Key, client.Conn)

		case ev := <-h.Push:
			h.deliver(ev)

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) remove(key Key, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[key]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, key)
	}
	metrics.SocketClients.Dec()
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.clients[ev.To]))
	for conn := range h.clients[ev.To] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		err := conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteJSON(ev)
		}
		if err != nil {
			logger.Module("socket").Warn("dropping client after write error", zap.String("id", ev.To.ID.String()), zap.Error(err))
			_ = conn.Close()
			h.remove(ev.To, conn)
		}
	}
}

// Online reports whether the account has at least one open socket.
func (h *Hub) Online(key Key) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key]) > 0
}

// Send queues an event without blocking; it is dropped if the hub is saturated.
func (h *Hub) Send(role models.Role, id uuid.UUID, eventType string, payload interface{}) {
	ev := Event{To: Key{Role: role, ID: id}, Type: eventType, Payload: payload}
	select {
	case h.Push <- ev:
	default:
		logger.Module("socket").Warn("push buffer full, dropping event", zap.String("type", eventType))
	}
}

// Join registers a client. It reports false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case <-h.quit:
		return false
	default:
	}
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Leave unregisters a client; after Stop it returns without waiting.
func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}
