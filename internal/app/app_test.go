package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/api"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/di"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

const upstreamItems = `{"Zephyr": {"type": "weapon", "weaponType": "bow", "rarity": "mythic"}}`

func testConfig(url string) *config.AppConfig {
	cfg := config.Defaults()
	cfg.UpstreamURL = url
	cfg.UpstreamTimeout = 2 * time.Second
	return cfg
}

func TestInitServices_RegistersContainer(t *testing.T) {
	di.GetContainer().Clear()
	defer di.GetContainer().Clear()

	application, err := InitServices(testConfig("http://127.0.0.1:1/items"))
	require.NoError(t, err)
	defer application.Shutdown()

	container := di.GetContainer()
	for _, name := range []string{"config", "metrics", "cache", "upstream", "catalog", "items", "websocket"} {
		assert.True(t, container.Has(name), name)
	}
	assert.Same(t, application.Catalog, container.Get("catalog"))

	config.SetCurrentConfig(application.Config)
	router, err := api.SetupRouter()
	require.NoError(t, err)
	assert.NotNil(t, router)
}

func TestInitServices_RejectsInvalidConfig(t *testing.T) {
	_, err := InitServices(nil)
	assert.Error(t, err)

	cfg := testConfig("http://example.invalid")
	cfg.FetchPolicy = "sometimes"
	_, err = InitServices(cfg)
	assert.Error(t, err)
}

func TestStart_LoadsCatalog(t *testing.T) {
	upstreamServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamItems))
	}))
	defer upstreamServer.Close()

	di.GetContainer().Clear()
	defer di.GetContainer().Clear()

	application, err := InitServices(testConfig(upstreamServer.URL))
	require.NoError(t, err)
	defer application.Shutdown()

	select {
	case <-application.Start(context.Background()):
	case <-time.After(5 * time.Second):
		t.Fatal("initial load did not finish")
	}

	status := application.Catalog.Status()
	assert.Equal(t, models.CatalogReady, status.State)
	assert.Equal(t, 1, status.ItemCount)
	assert.False(t, status.Degraded)
}

func TestStart_ResilientFallback(t *testing.T) {
	upstreamServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstreamServer.Close()

	di.GetContainer().Clear()
	defer di.GetContainer().Clear()

	application, err := InitServices(testConfig(upstreamServer.URL))
	require.NoError(t, err)
	defer application.Shutdown()

	<-application.Start(context.Background())

	status := application.Catalog.Status()
	assert.Equal(t, models.CatalogReady, status.State)
	assert.True(t, status.Degraded)
	assert.NotEmpty(t, status.Warning)
}
