// internal/models/catalog.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// CatalogState is the fetch lifecycle state of the item store
type CatalogState string

const (
	CatalogIdle    CatalogState = "idle"
	CatalogLoading CatalogState = "loading"
	CatalogReady   CatalogState = "ready"
	CatalogFailed  CatalogState = "failed"
)

// CatalogSource tells where the held collection came from
type CatalogSource string

const (
	SourceNone     CatalogSource = ""
	SourceUpstream CatalogSource = "upstream"
	SourceFallback CatalogSource = "fallback"
)

// Catalog is an immutable snapshot of the item collection.
// A new snapshot replaces the old one as a whole; it is never edited in place.
type Catalog struct {
	Items    []Item
	Version  uint64
	Source   CatalogSource
	LoadedAt time.Time

	index map[string]int
}

// NewCatalog builds a snapshot over items, which must not be modified afterwards
func NewCatalog(items []Item, version uint64, source CatalogSource, loadedAt time.Time) *Catalog {
	index := make(map[string]int, len(items))
	for i := range items {
		index[items[i].DisplayName] = i
	}
	return &Catalog{
		Items:    items,
		Version:  version,
		Source:   source,
		LoadedAt: loadedAt,
		index:    index,
	}
}

// Len returns the number of items
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Lookup finds an item by display name
func (c *Catalog) Lookup(name string) (*Item, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return &c.Items[i], true
}

// CatalogStatus is the externally visible state of the item store
type CatalogStatus struct {
	State            CatalogState  `json:"state"`
	Loading          bool          `json:"loading"`
	Error            string        `json:"error,omitempty"`
	Warning          string        `json:"warning,omitempty"`
	WarningDismissed bool          `json:"warningDismissed"`
	Degraded         bool          `json:"degraded"`
	Source           CatalogSource `json:"source,omitempty"`
	ItemCount        int           `json:"itemCount"`
	Version          uint64        `json:"version"`
	LoadedAt         *time.Time    `json:"loadedAt,omitempty"`
}

// CatalogEvent is published on every lifecycle transition
type CatalogEvent struct {
	Type      string        `json:"type"`
	Status    CatalogStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// DecodeCatalog reads the upstream JSON object (display name -> item) and returns the
// items in document order. A repeated key keeps its first position and its last value.
func DecodeCatalog(r io.Reader) ([]Item, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	items := make([]Item, 0, 1024)
	positions := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read item key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var item Item
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode item %q: %w", name, err)
		}
		item.DisplayName = name

		if pos, seen := positions[name]; seen {
			items[pos] = item
			continue
		}
		positions[name] = len(items)
		items = append(items, item)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read catalog end: %w", err)
	}

	return items, nil
}

// DecodeCatalogBytes is DecodeCatalog over an in-memory payload
func DecodeCatalogBytes(data []byte) ([]Item, error) {
	return DecodeCatalog(bytes.NewReader(data))
}
