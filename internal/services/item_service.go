// internal/services/item_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/ifallious/Wynncraft-Item-Viewer/internal/errors"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/query"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

// MaxPageSize caps the limit of a single search request
const MaxPageSize = 500

// SearchRequest is one query over the current catalog; nil Filters means the defaults
type SearchRequest struct {
	Filters *models.FilterState `json:"filters"`
	Sort    query.SortSpec      `json:"sort"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
}

// searchRequestBody holds filters undecoded so they can be laid over the defaults
type searchRequestBody struct {
	Filters json.RawMessage `json:"filters"`
	Sort    query.SortSpec  `json:"sort"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// SearchResult is a page of matching items from one snapshot version
type SearchResult struct {
	query.Page
	Version uint64 `json:"version"`
}

// ItemDetail is an item together with its derived, display-ready attributes
type ItemDetail struct {
	Item            models.Item             `json:"item"`
	Category        string                  `json:"category"`
	SubType         string                  `json:"subType"`
	Rarity          string                  `json:"rarity"`
	PowderSlots     string                  `json:"powderSlots"`
	DamageElements  []string                `json:"damageElements"`
	Identifications []models.NormalizedStat `json:"identifications"`
}

// ItemService answers queries over the catalog held by a CatalogService
type ItemService struct {
	catalog  *CatalogService
	engine   *query.Engine
	pageSize int
	metrics  *utils.APIMetrics

	facetsMu      sync.Mutex
	facets        *models.Facets
	facetsVersion uint64
}

// NewItemService creates the query service; pageSize <= 0 means query.DefaultPageSize
func NewItemService(catalog *CatalogService, domain models.FilterDomain, pageSize int, metrics *utils.APIMetrics) *ItemService {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	if metrics == nil {
		metrics = utils.NewAPIMetrics()
	}
	return &ItemService{
		catalog:  catalog,
		engine:   query.NewEngine(domain),
		pageSize: pageSize,
		metrics:  metrics,
	}
}

// Domain returns the numeric filter domains
func (s *ItemService) Domain() models.FilterDomain {
	return s.engine.Domain
}

// DefaultFilters returns the "no constraint" filter state
func (s *ItemService) DefaultFilters() models.FilterState {
	return models.DefaultFilterState(s.engine.Domain)
}

// DecodeSearchRequest parses a JSON search body. Filter fields missing from the body keep
// their default values; an empty body is the default request.
func (s *ItemService) DecodeSearchRequest(body []byte) (SearchRequest, error) {
	var req SearchRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	var raw searchRequestBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, apperrors.NewValidationError("invalid search request", err)
	}
	req.Sort = raw.Sort
	req.Offset = raw.Offset
	req.Limit = raw.Limit

	if len(raw.Filters) == 0 || bytes.Equal(bytes.TrimSpace(raw.Filters), []byte("null")) {
		return req, nil
	}

	filters := s.DefaultFilters()
	if err := json.Unmarshal(raw.Filters, &filters); err != nil {
		return req, apperrors.NewValidationError("invalid filters", err)
	}
	req.Filters = &filters
	return req, nil
}

// Search filters, sorts and pages the current snapshot
func (s *ItemService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	filters := s.DefaultFilters()
	if req.Filters != nil {
		filters = *req.Filters
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if !req.Sort.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown sort field %q", req.Sort.By), nil)
	}
	if req.Offset < 0 {
		return nil, apperrors.NewValidationError("offset must not be negative", nil)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, MaxPageSize)

	start := time.Now()
	matched := s.engine.Filter(snapshot.Items, filters)
	sorted := query.Sort(matched, req.Sort)
	s.metrics.RecordQuery(len(snapshot.Items), len(matched), time.Since(start))

	return &SearchResult{
		Page:    query.Paginate(sorted, req.Offset, limit),
		Version: snapshot.Version,
	}, nil
}

// GetItem returns one item by display name
func (s *ItemService) GetItem(name string) (*ItemDetail, error) {
	snapshot, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	it, ok := snapshot.Lookup(name)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("item %q not found", name), nil)
	}

	elements := it.DamageElements()
	if elements == nil {
		elements = []string{}
	}

	return &ItemDetail{
		Item:            *it,
		Category:        it.Category(),
		SubType:         it.SubType(),
		Rarity:          it.RarityOrUnknown(),
		PowderSlots:     it.PowderSlotKey(),
		DamageElements:  elements,
		Identifications: it.NormalizedIdentifications(),
	}, nil
}

// Facets returns the filter facets of the current snapshot, computed once per version
func (s *ItemService) Facets() (*models.Facets, error) {
	snapshot, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	s.facetsMu.Lock()
	defer s.facetsMu.Unlock()

	if s.facets == nil || s.facetsVersion != snapshot.Version {
		facets := query.ExtractFacets(snapshot.Items)
		facets.Version = snapshot.Version
		s.facets = &facets
		s.facetsVersion = snapshot.Version
	}

	result := *s.facets
	return &result, nil
}
