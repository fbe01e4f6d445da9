// internal/utils/metrics.go
package utils

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector keeps named counters, gauges and histograms in memory
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

// HistogramSnapshot is a point-in-time copy of a Histogram
type HistogramSnapshot struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum"`
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
}

// MetricsSnapshot is what the metrics endpoint serves
type MetricsSnapshot struct {
	Counters   map[string]int64             `json:"counters"`
	Gauges     map[string]int64             `json:"gauges"`
	Histograms map[string]HistogramSnapshot `json:"histograms"`
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// slot returns the value cell for name, creating it under the write lock on first use
func (m *MetricsCollector) slot(table map[string]*int64, name string) *int64 {
	m.mu.RLock()
	v, exists := table[name]
	m.mu.RUnlock()
	if exists {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, exists = table[name]; !exists {
		v = new(int64)
		table[name] = v
	}
	return v
}

// IncrementCounter adds one to a counter
func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.slot(m.counters, name), 1)
}

// AddCounter adds value to a counter
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.slot(m.counters, name), value)
}

// SetGauge sets a gauge
func (m *MetricsCollector) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.slot(m.gauges, name), value)
}

// IncGauge increments a gauge
func (m *MetricsCollector) IncGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), 1)
}

// DecGauge decrements a gauge
func (m *MetricsCollector) DecGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), -1)
}

// GetGauge returns a gauge value, 0 when unknown
func (m *MetricsCollector) GetGauge(name string) int64 {
	m.mu.RLock()
	v, exists := m.gauges[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(v)
}

// GetCounterValue returns a counter value, 0 when unknown
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	v, exists := m.counters[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(v)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		histogram, exists = m.histograms[name]
		if !exists {
			histogram = &Histogram{min: value, max: value}
			m.histograms[name] = histogram
		}
		m.mu.Unlock()
	}

	histogram.mu.Lock()
	defer histogram.mu.Unlock()

	histogram.count++
	histogram.sum += value
	histogram.min = min(histogram.min, value)
	histogram.max = max(histogram.max, value)
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Counters:   make(map[string]int64, len(m.counters)),
		Gauges:     make(map[string]int64, len(m.gauges)),
		Histograms: make(map[string]HistogramSnapshot, len(m.histograms)),
	}

	for name, v := range m.counters {
		snapshot.Counters[name] = atomic.LoadInt64(v)
	}
	for name, v := range m.gauges {
		snapshot.Gauges[name] = atomic.LoadInt64(v)
	}
	for name, histogram := range m.histograms {
		histogram.mu.Lock()
		snapshot.Histograms[name] = HistogramSnapshot{
			Count: histogram.count,
			Sum:   histogram.sum,
			Min:   histogram.min,
			Max:   histogram.max,
		}
		histogram.mu.Unlock()
	}

	return snapshot
}

// APIMetrics records the service's domain metrics on a collector
type APIMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewAPIMetrics creates API metrics on the global collector
func NewAPIMetrics() *APIMetrics {
	return NewAPIMetricsWith(GetMetricsCollector())
}

// NewAPIMetricsWith creates API metrics on a specific collector
func NewAPIMetricsWith(collector *MetricsCollector) *APIMetrics {
	return &APIMetrics{
		metrics: collector,
		logger:  GetLogger(),
	}
}

// Collector returns the underlying collector
func (am *APIMetrics) Collector() *MetricsCollector {
	return am.metrics
}

// RecordAPIRequest records one handled HTTP request
func (am *APIMetrics) RecordAPIRequest(endpoint, method string, statusCode int, duration time.Duration) {
	am.metrics.IncrementCounter("api_requests_total")
	am.metrics.IncrementCounter("api_requests_" + method + "_" + endpoint)
	am.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())
	am.metrics.IncrementCounter("api_responses_" + strconv.Itoa(statusCode/100) + "xx")

	am.logger.Debug("API request completed", map[string]interface{}{
		"endpoint": endpoint,
		"method":   method,
		"status":   statusCode,
		"duration": duration.Milliseconds(),
	})
}

// RecordUpstreamFetch records one request to the item API
func (am *APIMetrics) RecordUpstreamFetch(ok bool, bytes int, duration time.Duration) {
	am.metrics.IncrementCounter("upstream_fetches_total")
	if ok {
		am.metrics.AddCounter("upstream_bytes_total", int64(bytes))
	} else {
		am.metrics.IncrementCounter("upstream_fetch_failures")
	}
	am.metrics.RecordHistogram("upstream_fetch_time_ms", duration.Milliseconds())
}

// RecordCatalogLoad records a finished catalog load and the resulting item count
func (am *APIMetrics) RecordCatalogLoad(source string, items int) {
	am.metrics.IncrementCounter("catalog_loads_" + source)
	am.metrics.SetGauge("catalog_items", int64(items))
}

// RecordQuery records one query evaluation
func (am *APIMetrics) RecordQuery(scanned, matched int, duration time.Duration) {
	am.metrics.IncrementCounter("queries_total")
	am.metrics.AddCounter("query_items_scanned", int64(scanned))
	am.metrics.RecordHistogram("query_matches", int64(matched))
	am.metrics.RecordHistogram("query_time_us", duration.Microseconds())
}

// RecordError records an error by type and component
func (am *APIMetrics) RecordError(errorType, component string) {
	am.metrics.IncrementCounter("errors_total")
	am.metrics.IncrementCounter("errors_" + errorType)
	am.metrics.IncrementCounter("errors_" + component)

	am.logger.Warn("Error recorded", map[string]interface{}{
		"type":      errorType,
		"component": component,
	})
}

// StartMetricsCollection logs a metrics summary every interval until ctx is done
func (am *APIMetrics) StartMetricsCollection(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snapshot := am.metrics.GetMetrics()
				am.logger.Info("Periodic metrics report", map[string]interface{}{
					"requests": snapshot.Counters["api_requests_total"],
					"queries":  snapshot.Counters["queries_total"],
					"items":    snapshot.Gauges["catalog_items"],
				})
			}
		}
	}()
}
