package api

import (
	"context"
	"encoding/json"
	"sync"

	models "TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	"TickerWatch/internal/service/metrics"
	xlogger "TickerWatch/pkg/logger"
)

const clientBuffer = 32

// Hub fans alert records out to connected stream clients. Slow clients are
// dropped rather than allowed to block delivery.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *xlogger.Logger
}

type client struct {
	send chan []byte
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

var _ domrepo.AlertSink = (*Hub)(nil)

func NewHub(logger *xlogger.Logger) *Hub {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Record broadcasts rec to every client.
func (h *Hub) Record(_ context.Context, rec models.AlertRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("stream client too slow, dropping")
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register() *client {
	c := &client{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StreamClients.Set(float64(n))
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StreamClients.Set(float64(n))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	metrics.StreamClients.Set(0)
}
