// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/di"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/services"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/storage"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

// facadePath answers with its own CORS headers
const facadePath = "/api/items"

// RouterOptions tunes route-level behaviour
type RouterOptions struct {
	// ReloadPerMinute limits POST /api/catalog/reload per client IP; <= 0 disables the limit
	ReloadPerMinute int
}

// SetupRouter builds the router from the services registered in the DI container
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	catalogService, err := di.Resolve[*services.CatalogService](container, "catalog")
	if err != nil {
		return nil, err
	}

	itemService, err := di.Resolve[*services.ItemService](container, "items")
	if err != nil {
		return nil, err
	}

	metrics, err := di.Resolve[*utils.APIMetrics](container, "metrics")
	if err != nil {
		return nil, err
	}

	wsManager, err := di.Resolve[*WebSocketManager](container, "websocket")
	if err != nil {
		return nil, err
	}

	cache, _ := container.Get("cache").(*storage.PayloadCache)

	handler := NewHandler(HandlerDeps{
		Catalog:   catalogService,
		Items:     itemService,
		Metrics:   metrics,
		Cache:     cache,
		WebSocket: wsManager,
		DebugMode: cfg.DebugMode,
	})

	return NewRouter(handler, RouterOptions{ReloadPerMinute: cfg.ReloadPerMinute}), nil
}

// NewRouter registers every route of handler
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware(handler.metrics))
	r.Use(corsMiddleware())

	// Facade: every method reaches the handler, which answers 405 itself
	r.Any(facadePath, handler.ItemsFacade)

	r.GET("/ws/catalog", handler.CatalogWebSocket)

	api := r.Group("/api")
	{
		itemsGroup := api.Group("/items")
		{
			itemsGroup.POST("/search", handler.SearchItems)
			itemsGroup.GET("/:name", handler.GetItem)
		}

		api.GET("/facets", handler.GetFacets)
		api.GET("/filters/default", handler.GetDefaultFilters)

		catalogGroup := api.Group("/catalog")
		{
			catalogGroup.GET("/status", handler.GetCatalogStatus)
			catalogGroup.POST("/reload",
				RateLimitByIP(NewRateLimiter(), opts.ReloadPerMinute, time.Minute),
				handler.ReloadCatalog)
			catalogGroup.POST("/warning/dismiss", handler.DismissWarning)
		}

		api.GET("/metrics", handler.GetMetrics)
		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	return r
}

// corsMiddleware implements cross-origin resource sharing for the query API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == facadePath {
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
