package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"legal-assist-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "stream_events"

// Hub fans assembler updates out to the clients watching a conversation.
// Keyed by conversation id: several tabs may watch the same thread. Redis
// pub/sub relays updates across instances when more than one is running.
type Hub struct {
	// conversation id -> connected clients
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	// Marks our own relays so the subscriber does not re-deliver them.
	instanceId string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ConversationId] = append(h.clients[client.ConversationId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conversation_id": client.ConversationId})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ConversationId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ConversationId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ConversationId]) == 0 {
					delete(h.clients, client.ConversationId)
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToConversation delivers one update payload to every local client of a
// conversation and relays it to other instances over Redis.
func (h *Hub) SendToConversation(conversationId uuid.UUID, payload []byte) {
	h.sendLocal(conversationId, payload)

	if h.rdb != nil {
		relay, _ := json.Marshal(map[string]interface{}{
			"origin":          h.instanceId,
			"conversation_id": conversationId.String(),
			"payload":         json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), clusterChannel, relay)
	}
}

func (h *Hub) sendLocal(conversationId uuid.UUID, payload []byte) {
	h.mu.RLock()
	clients, found := h.clients[conversationId]
	h.mu.RUnlock()

	if !found {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer: let the unregister path close the channel.
			h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{
				"conversation_id": conversationId,
			})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var relay struct {
			Origin         string          `json:"origin"`
			ConversationId string          `json:"conversation_id"`
			Payload        json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		if relay.Origin == h.instanceId {
			continue
		}

		id, err := uuid.Parse(relay.ConversationId)
		if err != nil {
			continue
		}

		h.sendLocal(id, relay.Payload)
	}
}
