package ws

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrTooManyConnections is returned by Hub.Add when the connection limit has
// been reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

// Hub tracks live connections so they can be listed and shut down together.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*connection]bool
	maxConns int
}

// NewHub creates a hub. maxConns <= 0 means unlimited.
func NewHub(maxConns int) *Hub {
	return &Hub{
		conns:    make(map[*connection]bool),
		maxConns: maxConns,
	}
}

func (h *Hub) add(c *connection) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxConns > 0 && len(h.conns) >= h.maxConns {
		return ErrTooManyConnections
	}
	h.conns[c] = true
	return nil
}

// remove forgets c and tears it down.
func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

func (h *Hub) snapshot() []*connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*connection, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Instances reports every live guide's current state, ordered by id.
// Connections that close while being queried are left out.
func (h *Hub) Instances(ctx context.Context) []InstanceInfo {
	var out []InstanceInfo
	for _, c := range h.snapshot() {
		st, err := c.state(ctx)
		if err != nil {
			continue
		}
		out = append(out, InstanceInfo{ID: c.ID(), StatePayload: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CloseAll tears down every connection.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.remove(c)
	}
}
