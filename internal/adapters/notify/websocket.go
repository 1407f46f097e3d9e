package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fixkg/backend/internal/ports"
	"golang.org/x/net/websocket"
)

const defaultWriteTimeout = 5 * time.Second

// Peer is one live push connection.
type Peer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	encoder *json.Encoder
}

func (p *Peer) write(ctx context.Context, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = p.conn.SetWriteDeadline(deadline)
	return p.encoder.Encode(payload)
}

// Hub keeps at most one live connection per user id.
type Hub struct {
	mu    sync.Mutex
	peers map[string]*Peer
}

func NewHub() *Hub {
	return &Hub{peers: make(map[string]*Peer)}
}

// Register makes conn the user's push connection and closes the one it replaces.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Peer {
	peer := &Peer{conn: conn, encoder: json.NewEncoder(conn)}
	h.mu.Lock()
	previous := h.peers[userID]
	h.peers[userID] = peer
	h.mu.Unlock()

	if previous != nil {
		_ = previous.conn.Close()
	}
	logHub("register", "success", "user_id", userID, "replaced", previous != nil)
	return peer
}

// Unregister removes peer only if it is still the user's current connection.
func (h *Hub) Unregister(userID string, peer *Peer) {
	h.mu.Lock()
	current, ok := h.peers[userID]
	if ok && current == peer {
		delete(h.peers, userID)
	}
	h.mu.Unlock()
	if ok && current == peer {
		logHub("unregister", "success", "user_id", userID)
	}
}

func (h *Hub) Connected(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.peers[userID]
	return ok
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Push writes payload as one JSON frame. A peer that fails a write is dropped.
func (h *Hub) Push(ctx context.Context, recipient string, payload any) (bool, error) {
	h.mu.Lock()
	peer, ok := h.peers[recipient]
	h.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := peer.write(ctx, payload); err != nil {
		h.Unregister(recipient, peer)
		_ = peer.conn.Close()
		return false, fmt.Errorf("push to %s: %w", recipient, err)
	}
	return true, nil
}

// Close drops every connection; used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[string]*Peer)
	h.mu.Unlock()
	for _, peer := range peers {
		_ = peer.conn.Close()
	}
}

// Message is the frame pushed to a client.
type Message struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// PushStrategy delivers notifications over the live connection registry.
type PushStrategy struct {
	registry ports.ConnectionRegistry
}

func NewPushStrategy(registry ports.ConnectionRegistry) *PushStrategy {
	return &PushStrategy{registry: registry}
}

func (s *PushStrategy) Name() string { return "websocket" }

func (s *PushStrategy) Notify(ctx context.Context, recipient, subject, message string) (bool, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return false, nil
	}
	return s.registry.Push(ctx, recipient, Message{Subject: subject, Message: message})
}

func logHub(operation, outcome string, attrs ...any) {
	base := []any{
		"service", serviceName,
		"module", "notify",
		"layer", "adapter",
		"operation", operation,
		"outcome", outcome,
	}
	slog.Default().Info("websocket hub", append(base, attrs...)...)
}
