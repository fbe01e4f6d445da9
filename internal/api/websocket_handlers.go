// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CatalogWebSocket streams catalog lifecycle events to the client
func (h *Handler) CatalogWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := newWebSocketClient(conn, TopicCatalog)
	if !h.websocket.Register(client) {
		client.Close()
		return
	}

	go h.handleWebSocketWrites(client)

	client.SendMessage(map[string]interface{}{
		"type":      "connected",
		"client_id": client.id,
		"status":    h.catalog.Status(),
		"timestamp": time.Now().Format(time.RFC3339),
	})

	h.handleWebSocketReads(client)
}

// handleWebSocketReads blocks until the client goes away, then unregisters it
func (h *Handler) handleWebSocketReads(client *WebSocketClient) {
	defer h.websocket.Unregister(client)

	timeout := h.websocket.pingTimeout
	client.conn.SetReadDeadline(time.Now().Add(timeout))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !client.IsClosed() {
				h.logger.Warn("WebSocket read error", map[string]interface{}{
					"client_id": client.id,
					"error":     err.Error(),
				})
			}
			return
		}

		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(timeout))

		var message map[string]interface{}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			client.SendError("invalid JSON message")
			continue
		}
		h.handleMessage(client, message)
	}
}

// handleWebSocketWrites drains the send queue and keeps the connection alive with pings
func (h *Handler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(h.websocket.pingTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return

		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		}
	}
}

// handleMessage answers client requests: "ping" and "status"
func (h *Handler) handleMessage(client *WebSocketClient, message map[string]interface{}) {
	msgType, _ := message["type"].(string)

	switch msgType {
	case "ping":
		client.SendMessage(map[string]interface{}{
			"type":      "pong",
			"timestamp": time.Now().Unix(),
		})
	case "status":
		client.SendMessage(map[string]interface{}{
			"type":      "status",
			"status":    h.catalog.Status(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	default:
		client.SendError("unknown message type: " + msgType)
	}
}
