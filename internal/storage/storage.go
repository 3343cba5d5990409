// Package storage abstracts the key-value state store the browser version
// kept in window.localStorage. Values are opaque strings; stores layer JSON
// on top where they need it.
package storage

import (
	"context"
	"encoding/json"
)

// Keys of the durable schema. Renaming one breaks state written by earlier
// versions, so new keys are added, never changed.
const (
	KeyItemTypes   = "bb_itemTypes"
	KeyFabrics     = "bb_fabrics"
	KeySeries      = "bb_series"
	KeySales       = "bb_sales"
	KeyLegacySales = "sales"
	KeyEventName   = "bb_event_name"
	KeyEventStart  = "bb_event_start"
	KeyOrderLines  = "bb_rows"
)

// Backend is the persistence surface. Load reports ok=false when the key has
// never been written. Writes are last-writer-wins; there is no locking or
// versioning across processes.
type Backend interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by backends that can observe writes made by other
// processes sharing the same store. Notification is advisory and best-effort,
// like the browser storage event it replaces.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}

// LoadJSON decodes the JSON stored under key into dest. A missing key, a
// backend error, and a malformed payload all leave dest untouched and return
// false; corrupted state degrades to defaults instead of surfacing.
func LoadJSON(ctx context.Context, b Backend, key string, dest any) bool {
	raw, ok, err := b.Load(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

// SaveJSON encodes value and stores it under key.
func SaveJSON(ctx context.Context, b Backend, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Save(ctx, key, string(payload))
}
