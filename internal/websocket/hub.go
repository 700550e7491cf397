package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ml-segregation-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Hub fans pipeline events out to every connected reviewer session. The
// feed is broadcast-only: there is a single analyst, possibly with
// several tabs or devices open.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance relay
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis relay if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Hub", "Reviewer client registered", map[string]interface{}{"client": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Hub", "Reviewer client unregistered", map[string]interface{}{"client": client.Id})
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast pushes a feed message to every connected client and relays it
// to sibling instances through Redis.
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Hub", "Failed to serialize feed message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.broadcastLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{"message": json.RawMessage(data)})
		h.rdb.Publish(context.Background(), "pipeline_feed", payload)
	}
}

func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"client": client.Id})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// subscribeToRedis relays feed messages published by other instances to
// this instance's local clients.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "pipeline_feed")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.broadcastLocal(payload.Message)
	}
}
