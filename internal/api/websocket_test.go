package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/services"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error) {}

func receive(t *testing.T, client *WebSocketClient) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-client.send:
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &decoded))
		return decoded
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestWebSocketManager_BroadcastsCatalogEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	manager := NewWebSocketManager(time.Minute, utils.NewMetricsCollector())
	go manager.Run()

	client := newWebSocketClient(newFakeConn(), TopicCatalog)
	require.True(t, manager.Register(client))
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	manager.OnCatalogEvent(models.CatalogEvent{
		Type:      services.EventCatalogReady,
		Status:    models.CatalogStatus{State: models.CatalogReady, ItemCount: 3},
		Timestamp: time.Now(),
	})

	msg := receive(t, client)
	assert.Equal(t, services.EventCatalogReady, msg["type"])
	status := msg["status"].(map[string]interface{})
	assert.Equal(t, "ready", status["state"])

	manager.Shutdown()
	assert.True(t, client.IsClosed())
	assert.Equal(t, 0, manager.ClientCount())
	assert.False(t, manager.Register(newWebSocketClient(newFakeConn(), TopicCatalog)))
}

func TestWebSocketManager_RegisterBeforeQueuedBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	manager := NewWebSocketManager(time.Minute, utils.NewMetricsCollector())

	client := newWebSocketClient(newFakeConn(), TopicCatalog)
	require.True(t, manager.Register(client))
	assert.Equal(t, 1, manager.ClientCount())

	// queued before the hub loop runs; the client is already registered
	manager.OnCatalogEvent(models.CatalogEvent{
		Type:      services.EventCatalogLoading,
		Status:    models.CatalogStatus{State: models.CatalogLoading, Loading: true},
		Timestamp: time.Now(),
	})

	go manager.Run()

	msg := receive(t, client)
	assert.Equal(t, services.EventCatalogLoading, msg["type"])

	manager.Shutdown()
	assert.True(t, client.IsClosed())
	assert.False(t, manager.Register(newWebSocketClient(newFakeConn(), TopicCatalog)))
}

func TestWebSocketManager_DropsSlowClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	manager := NewWebSocketManager(time.Minute, nil)
	go manager.Run()
	defer manager.Shutdown()

	slow := newWebSocketClient(newFakeConn(), TopicCatalog)
	require.True(t, manager.Register(slow))
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendQueueSize; i++ {
		slow.send <- []byte(`{}`)
	}
	manager.Broadcast(TopicCatalog, []byte(`{"type":"catalog.ready"}`))

	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, slow.IsClosed())
}

func TestWebSocketManager_ShutdownWithoutRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	manager := NewWebSocketManager(0, nil)
	manager.Shutdown()
	manager.Shutdown()

	client := newWebSocketClient(newFakeConn(), TopicCatalog)
	assert.False(t, manager.Register(client))
}

func TestWebSocketManager_GetStatus(t *testing.T) {
	manager := NewWebSocketManager(time.Minute, nil)
	go manager.Run()
	defer manager.Shutdown()

	client := newWebSocketClient(newFakeConn(), TopicCatalog)
	require.True(t, manager.Register(client))
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	status := manager.GetStatus()
	assert.Equal(t, 1, status["total_connections"])
	topics := status["topics"].(map[string]interface{})
	assert.Contains(t, topics, TopicCatalog)
}

func TestWebSocketClient_Expiry(t *testing.T) {
	client := newWebSocketClient(newFakeConn(), TopicCatalog)
	assert.False(t, client.IsExpired(time.Minute))
	assert.True(t, client.IsExpired(0))

	client.lastPing.Store(time.Now().Add(-2 * time.Minute).UnixNano())
	assert.True(t, client.IsExpired(time.Minute))
}

func TestCatalogWebSocket_StreamsLifecycle(t *testing.T) {
	metrics := utils.NewAPIMetricsWith(utils.NewMetricsCollector())
	catalog := services.NewCatalogService(services.CatalogOptions{
		Fetcher: &stubFetcher{data: []byte(upstreamPayload)},
		Policy:  config.PolicyStrict,
		Metrics: metrics,
	})
	manager := NewWebSocketManager(time.Minute, metrics.Collector())
	catalog.Subscribe(manager)
	go manager.Run()
	defer manager.Shutdown()

	handler := NewHandler(HandlerDeps{
		Catalog:   catalog,
		Items:     services.NewItemService(catalog, models.DefaultFilterDomain(), 0, metrics),
		Metrics:   metrics,
		WebSocket: manager,
	})
	server := httptest.NewServer(NewRouter(handler, RouterOptions{}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/catalog"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readType := func() string {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg["type"].(string)
	}

	assert.Equal(t, "connected", readType())
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = catalog.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, services.EventCatalogLoading, readType())
	assert.Equal(t, services.EventCatalogReady, readType())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readType())

	conn.Close()
	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
