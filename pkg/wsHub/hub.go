package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
	"github.com/google/uuid"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub keeps one live WebSocket connection per user.
type ConnectionHub struct {
	clients map[uuid.UUID]*Conn
	l       logger.Logger
	mu      sync.Mutex
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[uuid.UUID]*Conn),
		l:       l,
	}
}

// Add registers a connection. An existing connection of the same user is closed.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	existing, replaced := h.clients[newConn.entityID]
	h.clients[newConn.entityID] = newConn
	h.mu.Unlock()

	if replaced {
		ctx := wrap.WithAction(wrap.WithUserID(context.Background(), existing.entityID.String()), "add_ws_connection")
		h.l.Warn(ctx, "replacing existing connection")
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx, "failed to close existing conn", "err", err.Error())
		}
		return nil
	}

	metrics.WebSocketConnectionsGauge.Inc()
	return nil
}

// Remove drops conn if it is still the registered connection of its user.
func (h *ConnectionHub) Remove(conn *Conn) {
	h.mu.Lock()
	current, ok := h.clients[conn.entityID]
	if ok && current == conn {
		delete(h.clients, conn.entityID)
	}
	h.mu.Unlock()

	if ok && current == conn {
		metrics.WebSocketConnectionsGauge.Dec()
	}
	_ = conn.Close()
}

// SendTo sends msg to one user, ErrConnIsNotFound when they are offline.
func (h *ConnectionHub) SendTo(id uuid.UUID, msg any) error {
	conn, err := h.GetConn(id)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}

// Close closes every websocket connection.
func (h *ConnectionHub) Close() {
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		h.Remove(conn)
	}

	h.l.Info(wrap.WithAction(context.Background(), "hub_close"), "all websocket connections closed gracefully", "count", len(clients))
}

func (h *ConnectionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ConnectionHub) GetConn(id uuid.UUID) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[id]
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return conn, nil
}
