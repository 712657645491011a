package inspect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strandui/strand/pkg/engine"
)

const (
	writeTimeout = 5 * time.Second

	// clientBuffer bounds each client's outbound queue. A client that
	// cannot keep up loses messages rather than stalling the engine.
	clientBuffer = 64
)

// envelope is the wire format for inspector events.
type envelope struct {
	Type string `json:"type"`
	Time string `json:"time"`
	Data any    `json:"data"`
}

// Hub fans engine lifecycle records out to connected websocket clients.
// It implements engine.Observer; register it on the runtime with
// engine.WithObserver.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *slog.Logger

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The inspector is a local debug surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ObserveTx implements engine.Observer.
func (h *Hub) ObserveTx(rec engine.TxRecord) {
	h.broadcast("tx", map[string]any{
		"event":     string(rec.Event),
		"origin":    rec.Origin,
		"noop":      rec.Noop,
		"added":     stringKeys(rec.Added),
		"updated":   stringKeys(rec.Updated),
		"removed":   stringKeys(rec.Removed),
		"refreshed": rec.Refreshed,
		"elapsedUs": rec.Duration.Microseconds(),
	})
}

// ObserveRender implements engine.Observer.
func (h *Hub) ObserveRender(rec engine.RenderRecord) {
	h.broadcast("render", map[string]any{
		"component": rec.Component,
		"id":        rec.ID,
		"skipped":   rec.Skipped,
	})
}

// ObserveFailure implements engine.Observer.
func (h *Hub) ObserveFailure(component string, err error) {
	h.broadcast("failure", map[string]any{
		"component": component,
		"error":     err.Error(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(kind string, data any) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	msg, err := json.Marshal(envelope{
		Type: kind,
		Time: time.Now().UTC().Format(time.RFC3339Nano),
		Data: data,
	})
	if err != nil {
		h.mu.Unlock()
		h.log.Error("inspector marshal failed", "type", kind, "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client: drop the message, keep the engine moving.
		}
	}
	h.mu.Unlock()
}

// ServeWS upgrades the request and streams records until the client
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("inspector upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("inspector client connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readLoop discards inbound messages; its job is detecting disconnect.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.log.Debug("inspector client read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

func stringKeys(keys []any) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprint(k))
	}
	return out
}
