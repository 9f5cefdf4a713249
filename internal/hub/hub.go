package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/router"
)

// Hub tracks overlay connections. Safe for concurrent use.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader
	metrics  *metrics.Relay
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	acks chan struct{}
}

type client struct {
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time

	writeMu sync.Mutex

	// Guarded by Hub.mu.
	lastPing time.Time
}

// New creates a Hub.
func New(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &metrics.Relay{}
	}

	return &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 45 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		metrics: cfg.Metrics,
		logger:  logger.With("component", "hub"),
		now:     time.Now,
		clients: make(map[*client]struct{}),
		acks:    make(chan struct{}, 1),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Credentials.Verify(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="overlay"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	now := h.now()
	c := &client{
		id:          uuid.NewString(),
		conn:        conn,
		remoteAddr:  r.RemoteAddr,
		connectedAt: now,
		lastPing:    now,
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	if err := h.sendEvent(c, model.NewEvent(model.TypeConnection, Welcome, now)); err != nil {
		h.drop(c, err)
		return
	}

	h.readLoop(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.ClientsConnected.Add(1)
	h.logger.Info("client connected", "client", c.id, "remote", c.remoteAddr, "clients", len(h.clients))
	return true
}

// unregister removes c and reports whether it was still registered.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	h.metrics.ClientsConnected.Add(-1)
	return true
}

// drop closes c after a failure.
func (h *Hub) drop(c *client, err error) {
	if h.unregister(c) {
		h.metrics.ClientsDropped.Add(1)
		h.logger.Warn("dropping client", "client", c.id, "error", err)
	}
	c.conn.Close()
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		if h.unregister(c) {
			h.logger.Info("client disconnected", "client", c.id, "clients", h.Clients())
		}
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", "client", c.id, "error", err)
			}
			return
		}

		in, err := router.Parse(data, h.now())
		if err != nil {
			h.logger.Debug("ignoring malformed client message", "client", c.id, "error", err)
			continue
		}

		switch in.Kind {
		case router.KindPing:
			h.handlePing(c)
		case router.KindAcknowledged:
			h.handleAcknowledgment(c)
		}
	}
}

func (h *Hub) handlePing(c *client) {
	now := h.now()
	h.mu.Lock()
	c.lastPing = now
	h.mu.Unlock()

	if err := h.sendEvent(c, model.NewEvent(model.TypePong, PongData, now)); err != nil {
		h.drop(c, err)
		return
	}
	h.metrics.PingsAnswered.Add(1)
}

func (h *Hub) handleAcknowledgment(c *client) {
	h.metrics.Acknowledged.Add(1)
	select {
	case h.acks <- struct{}{}:
		h.logger.Debug("event acknowledged", "client", c.id)
	default:
		// An acknowledgment is already pending.
	}
}

// Acknowledgments signals each display acknowledgment. Acknowledgments
// arriving while one is pending are coalesced.
func (h *Hub) Acknowledgments() <-chan struct{} {
	return h.acks
}

// DrainAcknowledgments discards a pending acknowledgment. Returns true if
// one was pending.
func (h *Hub) DrainAcknowledgments() bool {
	select {
	case <-h.acks:
		return true
	default:
		return false
	}
}

// Broadcast sends ev to every client and returns how many received it.
// Clients whose write fails are dropped.
func (h *Hub) Broadcast(ev model.Event) (int, error) {
	data, err := ev.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", ev.Type, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrClosed
	}
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := h.write(c, data); err != nil {
			h.drop(c, err)
			continue
		}
		sent++
	}

	h.metrics.EventsBroadcast.Add(1)
	h.logger.Debug("event broadcast", "type", ev.Type, "clients", sent)
	return sent, nil
}

func (h *Hub) sendEvent(c *client, ev model.Event) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return h.write(c, data)
}

func (h *Hub) write(c *client, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if h.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ClientInfo lists connected clients.
func (h *Hub) ClientInfo() []ClientInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ClientInfo, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, ClientInfo{
			ID:          c.id,
			RemoteAddr:  c.remoteAddr,
			ConnectedAt: c.connectedAt,
			LastPing:    c.lastPing,
		})
	}
	return out
}

// CleanupStale closes clients whose last ping is older than MaxSilence at
// now. Returns the number closed.
func (h *Hub) CleanupStale(now time.Time) int {
	h.mu.Lock()
	var stale []*client
	for c := range h.clients {
		if silence := now.Sub(c.lastPing); silence > h.cfg.MaxSilence {
			h.logger.Info("closing stale client",
				"client", c.id,
				"connected_for", now.Sub(c.connectedAt),
				"silence", silence,
			)
			stale = append(stale, c)
			delete(h.clients, c)
			h.metrics.ClientsConnected.Add(-1)
			h.metrics.ClientsDropped.Add(1)
		}
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	for _, c := range stale {
		c.conn.Close()
	}
	if len(stale) > 0 {
		h.logger.Info("cleaned up stale clients", "closed", len(stale), "clients", remaining)
	}
	return len(stale)
}

// Run reaps stale clients every CleanupInterval until ctx is done, then
// closes the hub.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Close()
			return nil
		case <-ticker.C:
			h.CleanupStale(h.now())
		}
	}
}

// Close disconnects every client. Later upgrades are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.metrics.ClientsConnected.Add(-int64(len(clients)))
	h.mu.Unlock()

	for c := range clients {
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	}
}
