package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches one websocket connection to a conversation's live stream.
func ServeWs(hub *Hub, c *websocket.Conn, conversationId uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, ConversationId: conversationId, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // runs in the handler goroutine
}
