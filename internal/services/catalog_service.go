// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	apperrors "github.com/ifallious/Wynncraft-Item-Viewer/internal/errors"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/services/fallback"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/storage"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/upstream"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

// Catalog event types published to subscribers
const (
	EventCatalogLoading          = "catalog.loading"
	EventCatalogReady            = "catalog.ready"
	EventCatalogDegraded         = "catalog.degraded"
	EventCatalogFailed           = "catalog.failed"
	EventCatalogWarningDismissed = "catalog.warning_dismissed"
)

const rawPayloadKey = "upstream:items"

// CatalogSubscriber receives catalog lifecycle events
type CatalogSubscriber interface {
	OnCatalogEvent(event models.CatalogEvent)
}

// CatalogOptions configures a CatalogService
type CatalogOptions struct {
	Fetcher      upstream.Fetcher
	Cache        *storage.PayloadCache
	Policy       config.FetchPolicy
	FallbackFile string
	Metrics      *utils.APIMetrics
}

// CatalogService is the item store: it owns the fetched collection and its fetch lifecycle.
// The collection is an immutable snapshot swapped as a whole.
type CatalogService struct {
	fetcher      upstream.Fetcher
	cache        *storage.PayloadCache
	policy       config.FetchPolicy
	fallbackFile string
	metrics      *utils.APIMetrics
	logger       *utils.Logger
	now          func() time.Time

	mu               sync.RWMutex
	state            models.CatalogState
	catalog          *models.Catalog
	lastErr          error
	warning          string
	warningDismissed bool
	version          uint64

	group singleflight.Group

	subMu       sync.RWMutex
	subscribers []CatalogSubscriber
}

// NewCatalogService creates an idle store; call Load to fetch
func NewCatalogService(opts CatalogOptions) *CatalogService {
	if opts.Cache == nil {
		opts.Cache = storage.NewPayloadCache(0, 0)
	}
	if opts.Policy == "" {
		opts.Policy = config.PolicyResilient
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewAPIMetrics()
	}

	return &CatalogService{
		fetcher:      opts.Fetcher,
		cache:        opts.Cache,
		policy:       opts.Policy,
		fallbackFile: opts.FallbackFile,
		metrics:      opts.Metrics,
		logger:       utils.GetLogger(),
		now:          time.Now,
		state:        models.CatalogIdle,
	}
}

// Load fetches the collection and replaces the snapshot. Concurrent calls share one fetch.
// The returned error is the fetch failure, also when the fallback dataset was substituted.
func (s *CatalogService) Load(ctx context.Context) (models.CatalogStatus, error) {
	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return s.Status(), err
}

func (s *CatalogService) load(ctx context.Context) error {
	s.mu.Lock()
	s.state = models.CatalogLoading
	s.mu.Unlock()
	s.publish(EventCatalogLoading)

	items, raw, err := s.fetchItems(ctx)
	if err == nil {
		s.cache.Put(rawPayloadKey, raw)
		s.install(items, models.SourceUpstream, nil)
		s.logger.Info("Catalog loaded", map[string]interface{}{
			"items":   len(items),
			"version": s.Version(),
		})
		s.publish(EventCatalogReady)
		return nil
	}

	s.metrics.RecordError(string(apperrors.TypeOf(err)), "catalog")
	s.logger.Error("Catalog fetch failed", map[string]interface{}{
		"error":  err.Error(),
		"policy": string(s.policy),
	})

	if s.policy == config.PolicyResilient {
		fallbackItems, ferr := s.fallbackItems()
		if ferr == nil {
			s.install(fallbackItems, models.SourceFallback, err)
			s.logger.Warn("Serving fallback catalog", map[string]interface{}{
				"items": len(fallbackItems),
			})
			s.publish(EventCatalogDegraded)
			return err
		}
		s.logger.Error("Fallback catalog unusable", map[string]interface{}{"error": ferr.Error()})
	}

	s.mu.Lock()
	s.state = models.CatalogFailed
	s.catalog = nil
	s.lastErr = err
	s.warning = ""
	s.mu.Unlock()
	s.publish(EventCatalogFailed)
	return err
}

// fetchItems downloads and decodes the upstream collection
func (s *CatalogService) fetchItems(ctx context.Context) ([]models.Item, []byte, error) {
	if s.fetcher == nil {
		return nil, nil, apperrors.NewUpstreamTransportError("no upstream configured", nil)
	}

	start := s.now()
	raw, err := s.fetcher.Fetch(ctx)
	s.metrics.RecordUpstreamFetch(err == nil, len(raw), time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	items, err := models.DecodeCatalogBytes(raw)
	if err != nil {
		return nil, nil, apperrors.NewUpstreamDecodeError("upstream payload is not an item collection", err)
	}
	return items, raw, nil
}

// fallbackItems decodes FALLBACK_FILE when set, otherwise the embedded sample set
func (s *CatalogService) fallbackItems() ([]models.Item, error) {
	data := fallback.Items
	if s.fallbackFile != "" {
		fileData, err := s.cache.ReadFile(s.fallbackFile)
		if err != nil {
			return nil, err
		}
		data = fileData
	}
	return models.DecodeCatalogBytes(data)
}

// install swaps in a new ready snapshot; cause is the fetch error behind a fallback snapshot
func (s *CatalogService) install(items []models.Item, source models.CatalogSource, cause error) {
	s.mu.Lock()
	s.version++
	s.catalog = models.NewCatalog(items, s.version, source, s.now())
	s.state = models.CatalogReady
	s.lastErr = cause
	s.warning = ""
	s.warningDismissed = false
	if cause != nil {
		s.warning = fmt.Sprintf("Live item data is unavailable (%s); showing sample data.", userMessage(cause))
	}
	s.mu.Unlock()

	s.metrics.RecordCatalogLoad(string(source), len(items))
}

// FetchRaw returns the upstream payload verbatim, from cache while fresh
func (s *CatalogService) FetchRaw(ctx context.Context) ([]byte, error) {
	if data, ok := s.cache.Get(rawPayloadKey); ok {
		return data, nil
	}

	// the fetch is shared, so one caller going away must not fail the others
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("raw", func() (interface{}, error) {
		if s.fetcher == nil {
			return nil, apperrors.NewUpstreamTransportError("no upstream configured", nil)
		}
		start := s.now()
		data, err := s.fetcher.Fetch(fetchCtx)
		s.metrics.RecordUpstreamFetch(err == nil, len(data), time.Since(start))
		if err != nil {
			return nil, err
		}
		s.cache.Put(rawPayloadKey, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Snapshot returns the current collection, or an unavailable error when none is being served
func (s *CatalogService) Snapshot() (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.catalog == nil || s.state == models.CatalogFailed {
		msg := "item catalog is not loaded yet"
		if s.lastErr != nil {
			msg = "item catalog is unavailable: " + userMessage(s.lastErr)
		}
		return nil, apperrors.NewUnavailableError(msg, s.lastErr)
	}
	return s.catalog, nil
}

// Status reports the lifecycle state
func (s *CatalogService) Status() models.CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *CatalogService) statusLocked() models.CatalogStatus {
	status := models.CatalogStatus{
		State:            s.state,
		Loading:          s.state == models.CatalogLoading,
		Warning:          s.warning,
		WarningDismissed: s.warningDismissed,
		ItemCount:        s.catalog.Len(),
		Version:          s.version,
	}
	if s.state == models.CatalogFailed && s.lastErr != nil {
		status.Error = userMessage(s.lastErr)
	}
	if s.catalog != nil {
		status.Source = s.catalog.Source
		status.Degraded = s.catalog.Source == models.SourceFallback
		loadedAt := s.catalog.LoadedAt
		status.LoadedAt = &loadedAt
	}
	return status
}

// Version is the version of the current snapshot, 0 before the first load
func (s *CatalogService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// DismissWarning hides the degradation warning until the next load
func (s *CatalogService) DismissWarning() models.CatalogStatus {
	s.mu.Lock()
	changed := s.warning != "" && !s.warningDismissed
	if changed {
		s.warningDismissed = true
	}
	s.mu.Unlock()

	if changed {
		s.publish(EventCatalogWarningDismissed)
	}
	return s.Status()
}

// Subscribe registers a lifecycle event receiver
func (s *CatalogService) Subscribe(subscriber CatalogSubscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, subscriber)
}

// Unsubscribe removes a receiver registered with Subscribe
func (s *CatalogService) Unsubscribe(subscriber CatalogSubscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subscribers {
		if sub == subscriber {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			break
		}
	}
}

// publish notifies subscribers synchronously; they must not block
func (s *CatalogService) publish(eventType string) {
	event := models.CatalogEvent{
		Type:      eventType,
		Status:    s.Status(),
		Timestamp: s.now(),
	}

	s.subMu.RLock()
	subscribers := make([]CatalogSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.subMu.RUnlock()

	for _, subscriber := range subscribers {
		subscriber.OnCatalogEvent(event)
	}
}

// userMessage is the part of err that is safe to show to an end user
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "unexpected error"
}
