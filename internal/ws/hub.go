package ws

import (
	"context"
	"sync"

	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Hub tracks connected sockets and broadcasts every message event to all of
// them. A client whose send buffer is full is dropped instead of waited on.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
	gauge   prometheus.Gauge
}

func NewHub(logger *zap.Logger, gauge prometheus.Gauge) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
		gauge:   gauge,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
	h.logger.Debug("ws client registered", zap.String("client_id", c.id), zap.String("user_id", c.userID))
}

// Unregister removes c and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
}

func (h *Hub) Broadcast(payload []byte) {
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow ws client", zap.String("client_id", c.id), zap.String("user_id", c.userID))
		h.Unregister(c)
	}
}

// Publish implements events.Publisher.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	b, err := events.Encode(e)
	if err != nil {
		return err
	}
	h.Broadcast(b)
	return nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.setGauge(0)
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}
