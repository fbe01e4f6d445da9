// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/services"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/storage"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/upstream"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

// Handler serves the facade and the query API
type Handler struct {
	catalog   *services.CatalogService
	items     *services.ItemService
	metrics   *utils.APIMetrics
	cache     *storage.PayloadCache
	websocket *WebSocketManager
	Response  *ResponseHelper
	debug     bool
	logger    *utils.Logger
}

// HandlerDeps are the services a Handler needs; Cache is optional
type HandlerDeps struct {
	Catalog   *services.CatalogService
	Items     *services.ItemService
	Metrics   *utils.APIMetrics
	Cache     *storage.PayloadCache
	WebSocket *WebSocketManager
	DebugMode bool
}

// NewHandler creates a handler over deps
func NewHandler(deps HandlerDeps) *Handler {
	if deps.Metrics == nil {
		deps.Metrics = utils.NewAPIMetrics()
	}
	if deps.WebSocket == nil {
		deps.WebSocket = NewWebSocketManager(0, deps.Metrics.Collector())
	}
	return &Handler{
		catalog:   deps.Catalog,
		items:     deps.Items,
		metrics:   deps.Metrics,
		cache:     deps.Cache,
		websocket: deps.WebSocket,
		Response:  NewResponseHelper(deps.DebugMode),
		debug:     deps.DebugMode,
		logger:    utils.GetLogger(),
	}
}

// ItemsFacade relays the upstream item database verbatim with permissive CORS
func (h *Handler) ItemsFacade(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")

	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	data, err := h.catalog.FetchRaw(c.Request.Context())
	if err != nil {
		h.logger.Error("Facade fetch failed", map[string]interface{}{
			"error":      err.Error(),
			"request_id": c.GetString(requestIDKey),
		})

		body := gin.H{"error": "Failed to fetch items"}
		if h.debug {
			body["details"] = err.Error()
			if stack := upstream.StackTrace(err); stack != "" {
				body["stack"] = stack
			}
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// SearchItems runs a filter/sort/page query over the current snapshot
func (h *Handler) SearchItems(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorInvalidQuery, "Invalid search request", err.Error())
		return
	}

	req, err := h.items.DecodeSearchRequest(body)
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorInvalidQuery, "Invalid search request", err.Error())
		return
	}

	result, err := h.items.Search(c.Request.Context(), req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// GetItem returns one item with its derived attributes
func (h *Handler) GetItem(c *gin.Context) {
	detail, err := h.items.GetItem(c.Param("name"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, detail)
}

// GetFacets returns the filter facets of the current snapshot
func (h *Handler) GetFacets(c *gin.Context) {
	facets, err := h.items.Facets()
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, facets)
}

// GetDefaultFilters returns the "no constraint" filter state and its numeric domains
func (h *Handler) GetDefaultFilters(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"filters": h.items.DefaultFilters(),
		"domain":  h.items.Domain(),
	})
}

// GetCatalogStatus reports the fetch lifecycle
func (h *Handler) GetCatalogStatus(c *gin.Context) {
	h.Response.Success(c, h.catalog.Status())
}

// ReloadCatalog refetches the catalog; a degraded reload still answers 200 with the warning
func (h *Handler) ReloadCatalog(c *gin.Context) {
	// concurrent callers share one load, so one client going away must not cancel it for the rest
	ctx := context.WithoutCancel(c.Request.Context())

	status, err := h.catalog.Load(ctx)
	if err != nil && status.State == models.CatalogFailed {
		h.Response.FromError(c, err)
		return
	}

	message := "Catalog reloaded"
	if status.Degraded {
		message = status.Warning
	}
	h.Response.Success(c, status, message)
}

// DismissWarning hides the degradation warning until the next load
func (h *Handler) DismissWarning(c *gin.Context) {
	h.Response.Success(c, h.catalog.DismissWarning())
}

// GetMetrics returns the metrics snapshot
func (h *Handler) GetMetrics(c *gin.Context) {
	data := gin.H{
		"metrics": h.metrics.Collector().GetMetrics(),
		"catalog": h.catalog.Status(),
	}
	if h.cache != nil {
		data["cache"] = h.cache.Stats()
	}
	h.Response.Success(c, data)
}

// GetWebSocketStatus reports connected websocket clients
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := h.websocket.GetStatus()
	status["ping_timeout_seconds"] = int(h.websocket.pingTimeout.Seconds())
	status["timestamp"] = time.Now().Format(time.RFC3339)

	h.Response.Success(c, status)
}
