package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub tracks open connections per user and fans messages out to them.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint64]map[*Client]struct{}
	logger *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		byUser:     make(map[uint64]map[*Client]struct{}),
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run owns registration until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.byUser {
				for c := range set {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.byUser[c.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.byUser[c.UserID] = set
			}
			set[c] = struct{}{}
			n := len(set)
			h.mu.Unlock()
			h.logger.Debug("websocket connected", zap.Uint64("userID", c.UserID), zap.Int("connections", n))
		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()
			h.logger.Debug("websocket disconnected", zap.Uint64("userID", c.UserID))
		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, set := range h.byUser {
				for c := range set {
					if !c.enqueue(msg) {
						h.drop(c)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop closes the client's queue once. Callers hold mu.
func (h *Hub) drop(c *Client) {
	set := h.byUser[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.byUser, c.UserID)
	}
}

func encode(payload interface{}, messageType string) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

// SendMessageToUser delivers to every open connection of userID. Slow clients drop the message.
// It returns the number of connections the message was queued on.
func (h *Hub) SendMessageToUser(userID uint64, payload interface{}, messageType string) (int, error) {
	messageBytes, err := encode(payload, messageType)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.byUser[userID] {
		if c.enqueue(messageBytes) {
			delivered++
			continue
		}
		h.logger.Warn("websocket send buffer full, message dropped", zap.Uint64("userID", userID))
	}
	return delivered, nil
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(payload interface{}, messageType string) error {
	messageBytes, err := encode(payload, messageType)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- messageBytes:
	default:
		h.logger.Warn("websocket broadcast queue full, message dropped", zap.String("type", messageType))
	}
	return nil
}

func (h *Hub) IsOnline(userID uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}
