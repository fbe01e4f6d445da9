// internal/api/error_codes.go
package api

// API error codes
const (
	// generic
	ErrorBadRequest       = "BAD_REQUEST"
	ErrorNotFound         = "NOT_FOUND"
	ErrorInternalError    = "INTERNAL_ERROR"
	ErrorMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorRateLimited      = "RATE_LIMIT_EXCEEDED"

	// catalog
	ErrorItemNotFound       = "ITEM_NOT_FOUND"
	ErrorInvalidQuery       = "INVALID_QUERY"
	ErrorCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrorUpstreamFailed     = "UPSTREAM_ERROR"
)
