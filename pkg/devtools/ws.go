package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Event is one store event as streamed to WebSocket clients.
type Event struct {
	Type string    `json:"type"`
	Atom string    `json:"atom"`
	ID   uint64    `json:"id"`
	Time time.Time `json:"time"`

	// Hit is set for "get" events.
	Hit bool `json:"hit,omitempty"`

	// Duration is set for "compute" and "settle" events, in
	// nanoseconds.
	Duration time.Duration `json:"duration,omitempty"`

	// Count carries the dependent count for "invalidate" and the
	// subscriber count for "notify".
	Count int `json:"count,omitempty"`

	// Superseded is set for discarded "settle" events.
	Superseded bool `json:"superseded,omitempty"`

	Error string `json:"error,omitempty"`
}

// eventObserver feeds store activity into the hub. Get events are not
// streamed: on a hot store they drown everything else out.
type eventObserver struct {
	hub *hub
}

func (o *eventObserver) OnGet(jotai.AnyAtom, bool) {}

func (o *eventObserver) OnCompute(a jotai.AnyAtom, d time.Duration, err error) {
	e := Event{Type: "compute", Atom: a.Label(), ID: a.ID(), Time: time.Now(), Duration: d}
	if err != nil {
		e.Error = err.Error()
	}
	o.hub.broadcast(e)
}

func (o *eventObserver) OnSet(a jotai.AnyAtom) {
	o.hub.broadcast(Event{Type: "set", Atom: a.Label(), ID: a.ID(), Time: time.Now()})
}

func (o *eventObserver) OnInvalidate(a jotai.AnyAtom, dependents int) {
	o.hub.broadcast(Event{Type: "invalidate", Atom: a.Label(), ID: a.ID(), Time: time.Now(), Count: dependents})
}

func (o *eventObserver) OnNotify(a jotai.AnyAtom, subscribers int) {
	o.hub.broadcast(Event{Type: "notify", Atom: a.Label(), ID: a.ID(), Time: time.Now(), Count: subscribers})
}

func (o *eventObserver) OnSettle(a jotai.AnyAtom, d time.Duration, superseded bool, err error) {
	e := Event{Type: "settle", Atom: a.Label(), ID: a.ID(), Time: time.Now(), Duration: d, Superseded: superseded}
	if err != nil {
		e.Error = err.Error()
	}
	o.hub.broadcast(e)
}

var _ jotai.Observer = (*eventObserver)(nil)

type hubConfig struct {
	log         *slog.Logger
	checkOrigin func(r *http.Request) bool
	limiter     *rate.Limiter
	sendBuffer  int
}

// hub fans events out to connected WebSocket clients.
type hub struct {
	config   hubConfig
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func newHub(config hubConfig) *hub {
	return &hub{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.config.log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.config.log.Debug("devtools client connected", "remote", conn.RemoteAddr())
	go c.writeLoop()
	go h.readLoop(c)
}

// readLoop drains incoming messages so control frames are processed,
// and detaches the client when the connection drops.
func (h *hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if ok {
		c.close()
		h.config.log.Debug("devtools client disconnected", "remote", c.conn.RemoteAddr())
	}
}

// broadcast sends e to every connected client. Events beyond the rate
// limit are dropped wholesale; slow clients lose their oldest buffered
// event instead of blocking the store.
func (h *hub) broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.clients) == 0 {
		return
	}
	if !h.config.limiter.Allow() {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		h.config.log.Debug("event marshal failed", "error", err)
		return
	}
	for c := range h.clients {
		c.enqueue(msg)
	}
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// client is one WebSocket connection with a buffered outgoing queue.
type client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// enqueue queues msg for delivery, dropping the oldest queued event if
// the buffer is full.
func (c *client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
