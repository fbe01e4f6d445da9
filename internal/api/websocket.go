// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

// TopicCatalog carries catalog lifecycle events
const TopicCatalog = "catalog"

const (
	defaultPingTimeout = 60 * time.Second
	writeWait          = 10 * time.Second
	sendQueueSize      = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnection is the part of *websocket.Conn the hub uses
type WebSocketConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// WebSocketClient is one connected subscriber
type WebSocketClient struct {
	id        string
	conn      WebSocketConnection
	topic     string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	lastPing  atomic.Int64
	createdAt time.Time
}

func newWebSocketClient(conn WebSocketConnection, topic string) *WebSocketClient {
	client := &WebSocketClient{
		id:        uuid.NewString(),
		conn:      conn,
		topic:     topic,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// ID returns the client id
func (client *WebSocketClient) ID() string {
	return client.id
}

// Close closes the connection once; the write loop exits on done
func (client *WebSocketClient) Close() {
	client.closeOnce.Do(func() {
		close(client.done)
		if client.conn != nil {
			client.conn.Close()
		}
	})
}

// IsClosed reports whether Close was called
func (client *WebSocketClient) IsClosed() bool {
	select {
	case <-client.done:
		return true
	default:
		return false
	}
}

// UpdatePing records client activity
func (client *WebSocketClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// LastPing returns the time of the last client activity
func (client *WebSocketClient) LastPing() time.Time {
	return time.Unix(0, client.lastPing.Load())
}

// IsExpired reports whether the client has been silent longer than timeout
func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(client.LastPing()) > timeout
}

// SendMessage queues a JSON message without blocking; a full queue drops it
func (client *WebSocketClient) SendMessage(message map[string]interface{}) error {
	if client.IsClosed() {
		return nil
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case client.send <- msgBytes:
	default:
		utils.GetLogger().Warn("WebSocket send queue full, message dropped", map[string]interface{}{
			"client_id": client.id,
		})
	}
	return nil
}

// SendError queues an error message
func (client *WebSocketClient) SendError(errorMsg string) {
	client.SendMessage(map[string]interface{}{
		"type":      "error",
		"error":     errorMsg,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type topicMessage struct {
	topic   string
	payload []byte
}

// WebSocketManager owns the connected clients. Clients join synchronously through Register;
// removals and broadcasts go through Run's loop.
type WebSocketManager struct {
	connections map[string]map[string]*WebSocketClient // topic -> client id -> client
	closed      bool
	mutex       sync.RWMutex

	broadcast  chan topicMessage
	unregister chan *WebSocketClient
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
	running    atomic.Bool

	pingTimeout     time.Duration
	cleanupInterval time.Duration
	dropped         atomic.Int64
	metrics         *utils.MetricsCollector
	logger          *utils.Logger
}

// NewWebSocketManager creates a hub; call Run to start it and Shutdown to stop it
func NewWebSocketManager(pingTimeout time.Duration, metrics *utils.MetricsCollector) *WebSocketManager {
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	return &WebSocketManager{
		connections:     make(map[string]map[string]*WebSocketClient),
		broadcast:       make(chan topicMessage, 256),
		unregister:      make(chan *WebSocketClient, 256),
		quit:            make(chan struct{}),
		stopped:         make(chan struct{}),
		pingTimeout:     pingTimeout,
		cleanupInterval: pingTimeout / 2,
		metrics:         metrics,
		logger:          utils.GetLogger(),
	}
}

// Run processes unregistrations and broadcasts until Shutdown
func (manager *WebSocketManager) Run() {
	if !manager.running.CompareAndSwap(false, true) {
		return
	}
	defer close(manager.stopped)

	cleanupTicker := time.NewTicker(manager.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-manager.unregister:
			manager.unregisterClient(client)

		case <-cleanupTicker.C:
			manager.cleanupExpiredConnections()

		case message := <-manager.broadcast:
			manager.broadcastMessage(message)

		case <-manager.quit:
			manager.shutdown()
			return
		}
	}
}

// Shutdown closes every client and stops Run, waiting for it when it was started
func (manager *WebSocketManager) Shutdown() {
	manager.stopOnce.Do(func() {
		close(manager.quit)
	})
	if manager.running.Load() {
		<-manager.stopped
	}
}

// Register adds a client to the hub before returning, so it receives every broadcast
// queued afterwards; false once the hub is shut down
func (manager *WebSocketManager) Register(client *WebSocketClient) bool {
	if client == nil {
		return false
	}
	select {
	case <-manager.quit:
		return false
	default:
	}

	manager.mutex.Lock()
	if manager.closed {
		manager.mutex.Unlock()
		return false
	}
	if manager.connections[client.topic] == nil {
		manager.connections[client.topic] = make(map[string]*WebSocketClient)
	}
	manager.connections[client.topic][client.id] = client
	manager.mutex.Unlock()

	client.UpdatePing()
	manager.updateGauge()

	manager.logger.Info("WebSocket client connected", map[string]interface{}{
		"client_id": client.id,
		"topic":     client.topic,
	})
	return true
}

// Unregister removes a client and closes it
func (manager *WebSocketManager) Unregister(client *WebSocketClient) {
	select {
	case manager.unregister <- client:
	case <-manager.quit:
		client.Close()
	}
}

// Broadcast queues payload for every client of topic without blocking
func (manager *WebSocketManager) Broadcast(topic string, payload []byte) {
	select {
	case manager.broadcast <- topicMessage{topic: topic, payload: payload}:
	default:
		manager.dropped.Add(1)
		manager.logger.Warn("WebSocket broadcast queue full, message dropped", map[string]interface{}{
			"topic": topic,
		})
	}
}

// OnCatalogEvent forwards catalog lifecycle events to the catalog topic
func (manager *WebSocketManager) OnCatalogEvent(event models.CatalogEvent) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":      event.Type,
		"status":    event.Status,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		manager.logger.Error("Failed to encode catalog event", map[string]interface{}{"error": err.Error()})
		return
	}
	manager.Broadcast(TopicCatalog, payload)
}

func (manager *WebSocketManager) unregisterClient(client *WebSocketClient) {
	if client == nil {
		return
	}

	manager.mutex.Lock()
	manager.removeLocked(client)
	manager.mutex.Unlock()

	client.Close()
	manager.updateGauge()

	manager.logger.Info("WebSocket client disconnected", map[string]interface{}{
		"client_id": client.id,
		"topic":     client.topic,
	})
}

// removeLocked drops client from the topic map; callers hold mutex
func (manager *WebSocketManager) removeLocked(client *WebSocketClient) {
	connections, exists := manager.connections[client.topic]
	if !exists {
		return
	}
	delete(connections, client.id)
	if len(connections) == 0 {
		delete(manager.connections, client.topic)
	}
}

func (manager *WebSocketManager) cleanupExpiredConnections() {
	manager.mutex.Lock()
	var expired []*WebSocketClient
	for _, connections := range manager.connections {
		for _, client := range connections {
			if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
				expired = append(expired, client)
			}
		}
	}
	for _, client := range expired {
		manager.removeLocked(client)
	}
	manager.mutex.Unlock()

	for _, client := range expired {
		client.Close()
	}
	if len(expired) > 0 {
		manager.updateGauge()
	}
}

// broadcastMessage delivers to every open client of the topic; a client whose queue is full is dropped
func (manager *WebSocketManager) broadcastMessage(message topicMessage) {
	manager.mutex.RLock()
	clients := make([]*WebSocketClient, 0, len(manager.connections[message.topic]))
	for _, client := range manager.connections[message.topic] {
		clients = append(clients, client)
	}
	manager.mutex.RUnlock()

	var slow []*WebSocketClient
	for _, client := range clients {
		if client.IsClosed() {
			continue
		}
		select {
		case client.send <- message.payload:
		default:
			slow = append(slow, client)
		}
	}

	for _, client := range slow {
		manager.logger.Warn("WebSocket client too slow, disconnecting", map[string]interface{}{
			"client_id": client.id,
		})
		manager.unregisterClient(client)
	}
}

func (manager *WebSocketManager) shutdown() {
	manager.mutex.Lock()
	manager.closed = true
	var clients []*WebSocketClient
	for _, connections := range manager.connections {
		for _, client := range connections {
			clients = append(clients, client)
		}
	}
	manager.connections = make(map[string]map[string]*WebSocketClient)
	manager.mutex.Unlock()

	for _, client := range clients {
		client.Close()
	}
	manager.updateGauge()

	manager.logger.Info("WebSocket manager stopped", map[string]interface{}{
		"closed_clients": len(clients),
	})
}

func (manager *WebSocketManager) updateGauge() {
	if manager.metrics == nil {
		return
	}
	manager.metrics.SetGauge("websocket_connections", int64(manager.ClientCount()))
}

// ClientCount returns the number of registered clients
func (manager *WebSocketManager) ClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	total := 0
	for _, connections := range manager.connections {
		total += len(connections)
	}
	return total
}

// GetStatus reports connected clients per topic
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	topics := make(map[string]interface{})
	totalConnections := 0

	for topic, connections := range manager.connections {
		clients := make([]interface{}, 0, len(connections))
		for _, client := range connections {
			if client.IsClosed() {
				continue
			}
			clients = append(clients, map[string]interface{}{
				"client_id":    client.id,
				"connected_at": client.createdAt.Format(time.RFC3339),
				"last_ping":    client.LastPing().Format(time.RFC3339),
			})
		}

		topics[topic] = map[string]interface{}{
			"client_count": len(clients),
			"clients":      clients,
		}
		totalConnections += len(clients)
	}

	return map[string]interface{}{
		"total_topics":      len(manager.connections),
		"total_connections": totalConnections,
		"dropped_messages":  manager.dropped.Load(),
		"topics":            topics,
	}
}
