// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/api"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/di"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/services"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/storage"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/upstream"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

const metricsReportInterval = 5 * time.Minute

// App groups the long-lived services of the server
type App struct {
	Config    *config.AppConfig
	Cache     *storage.PayloadCache
	Upstream  *upstream.Client
	Catalog   *services.CatalogService
	Items     *services.ItemService
	Metrics   *utils.APIMetrics
	WebSocket *api.WebSocketManager

	cancel context.CancelFunc
}

// InitServices builds every service in dependency order and registers it in the DI container
func InitServices(cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	container := di.GetContainer()
	logger := utils.GetLogger()

	metrics := utils.NewAPIMetrics()
	cache := storage.NewPayloadCache(0, cfg.CacheTTL)

	client := upstream.NewClient(cfg.UpstreamURL,
		upstream.WithUserAgent(cfg.UpstreamUserAgent),
		upstream.WithTimeout(cfg.UpstreamTimeout),
	)

	catalog := services.NewCatalogService(services.CatalogOptions{
		Fetcher:      client,
		Cache:        cache,
		Policy:       cfg.FetchPolicy,
		FallbackFile: cfg.FallbackFile,
		Metrics:      metrics,
	})

	items := services.NewItemService(catalog, cfg.FilterDomain, cfg.PageSize, metrics)

	wsManager := api.NewWebSocketManager(0, metrics.Collector())
	catalog.Subscribe(wsManager)

	container.Register("config", cfg)
	container.Register("metrics", metrics)
	container.Register("cache", cache)
	container.Register("upstream", client)
	container.Register("catalog", catalog)
	container.Register("items", items)
	container.Register("websocket", wsManager)

	logger.Info("Services initialized", map[string]interface{}{
		"upstream": client.URL(),
		"policy":   string(cfg.FetchPolicy),
		"services": len(container.GetNames()),
	})

	return &App{
		Config:    cfg,
		Cache:     cache,
		Upstream:  client,
		Catalog:   catalog,
		Items:     items,
		Metrics:   metrics,
		WebSocket: wsManager,
	}, nil
}

// Start runs the websocket hub and metrics reporting, then loads the catalog in the background.
// The returned channel is closed once the initial load has finished.
func (a *App) Start(ctx context.Context) <-chan struct{} {
	ctx, a.cancel = context.WithCancel(ctx)

	go a.WebSocket.Run()
	a.Metrics.StartMetricsCollection(ctx, metricsReportInterval)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		a.LoadCatalog(ctx)
	}()
	return loaded
}

// LoadCatalog performs one catalog load and logs its outcome
func (a *App) LoadCatalog(ctx context.Context) {
	logger := utils.GetLogger()

	status, err := a.Catalog.Load(ctx)
	if err == nil {
		return
	}

	if status.Degraded {
		logger.Warn("Initial catalog load degraded", map[string]interface{}{
			"error":   err.Error(),
			"warning": status.Warning,
		})
		return
	}
	logger.Error("Initial catalog load failed", map[string]interface{}{
		"error": err.Error(),
		"stack": upstream.StackTrace(err),
	})
}

// Shutdown stops background work and disconnects websocket clients
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.WebSocket.Shutdown()
	a.Catalog.Unsubscribe(a.WebSocket)
}
