// Package catalog owns the vendor's configurable vocabulary: item types with
// default prices, fabric patterns, and the series names that group fabrics.
package catalog

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/storage"
	"boothbabe/backend/internal/xid"
)

// Store is an in-memory catalog persisted synchronously on every mutation.
// A series is a plain name; fabrics embed their series name, so a series can
// exist with no fabrics but a fabric can never point at a deleted series.
type Store struct {
	mu        sync.RWMutex
	backend   storage.Backend
	itemTypes []domain.ItemType
	fabrics   []domain.Fabric
	series    []string
	subs      []func()
}

func New(ctx context.Context, backend storage.Backend) *Store {
	s := &Store{backend: backend}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	s.itemTypes = nil
	if raw, ok, err := s.backend.Load(ctx, storage.KeyItemTypes); err == nil && ok {
		s.itemTypes = decodeItemTypes(raw)
	}
	if s.itemTypes == nil {
		s.itemTypes = seedItemTypes()
	}
	if !storage.LoadJSON(ctx, s.backend, storage.KeyFabrics, &s.fabrics) {
		s.fabrics = seedFabrics()
	}
	if !storage.LoadJSON(ctx, s.backend, storage.KeySeries, &s.series) {
		s.series = []string{"Core", "Holiday", "Limited", domain.MiscSeries}
	}

	// State written before item types carried ids has none; backfill so
	// every entity is addressable. Adopted legacy names (see
	// decodeItemTypes) ride along in the same write.
	backfilled := false
	for i := range s.itemTypes {
		if s.itemTypes[i].ID == "" {
			s.itemTypes[i].ID = xid.New()
			backfilled = true
		}
	}
	if backfilled {
		s.persist(ctx)
	}
}

// storedItemType reads both the current shape and the one the browser
// version wrote, which named the field "type" instead of "name".
type storedItemType struct {
	domain.ItemType
	LegacyName string `json:"type"`
}

// decodeItemTypes returns nil when the payload is malformed; the caller
// falls back to the seed catalog.
func decodeItemTypes(raw string) []domain.ItemType {
	var stored []storedItemType
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil
	}
	itemTypes := make([]domain.ItemType, 0, len(stored))
	for _, st := range stored {
		it := st.ItemType
		if it.Name == "" {
			it.Name = st.LegacyName
		}
		itemTypes = append(itemTypes, it)
	}
	return itemTypes
}

func seedItemTypes() []domain.ItemType {
	starter := []struct {
		name  string
		price int64
	}{
		{"Buttons", 2},
		{"Pouches", 10},
		{"Hat", 15},
		{"Wristlet", 10},
		{"Keychain", 5},
		{"Scrunchie", 5},
		{"Dreamcatcher", 7},
	}
	itemTypes := make([]domain.ItemType, 0, len(starter))
	for _, it := range starter {
		itemTypes = append(itemTypes, domain.ItemType{
			ID:               xid.New(),
			Name:             it.name,
			DefaultUnitPrice: decimal.NewFromInt(it.price),
		})
	}
	return itemTypes
}

func seedFabrics() []domain.Fabric {
	return []domain.Fabric{
		{ID: xid.New(), Series: "Core", Pattern: "Pokemon"},
		{ID: xid.New(), Series: "Core", Pattern: "Sailor Moon"},
		{ID: xid.New(), Series: domain.MiscSeries, Pattern: "Space"},
	}
}

func (s *Store) persist(ctx context.Context) {
	if err := storage.SaveJSON(ctx, s.backend, storage.KeyItemTypes, s.itemTypes); err != nil {
		log.Printf("[catalog] WARN: failed to persist item types: %v", err)
	}
	if err := storage.SaveJSON(ctx, s.backend, storage.KeyFabrics, s.fabrics); err != nil {
		log.Printf("[catalog] WARN: failed to persist fabrics: %v", err)
	}
	if err := storage.SaveJSON(ctx, s.backend, storage.KeySeries, s.series); err != nil {
		log.Printf("[catalog] WARN: failed to persist series: %v", err)
	}
}

// Subscribe registers fn to run after every catalog mutation. Callbacks run
// synchronously on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Reload replaces in-memory state with whatever storage currently holds.
// Used when another process wrote the shared backend.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	s.itemTypes = nil
	s.fabrics = nil
	s.series = nil
	s.load(ctx)
	s.mu.Unlock()
	s.notify()
}

// AddItemType appends a new item type. Empty names, duplicate names
// (case-insensitive), and negative prices are rejected as silent no-ops.
func (s *Store) AddItemType(ctx context.Context, name string, defaultPrice decimal.Decimal, notes string) bool {
	name = strings.TrimSpace(name)
	if name == "" || defaultPrice.IsNegative() {
		return false
	}

	s.mu.Lock()
	if s.findItemType(name) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.itemTypes = append(s.itemTypes, domain.ItemType{
		ID:               xid.New(),
		Name:             name,
		DefaultUnitPrice: defaultPrice,
		Notes:            notes,
	})
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// UpdateItemType renames an item type or changes its price or notes. A
// rename that would collide with another type's name is rejected.
func (s *Store) UpdateItemType(ctx context.Context, name string, req domain.ItemTypeUpdateRequest) bool {
	s.mu.Lock()
	idx := s.findItemType(name)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	updated := s.itemTypes[idx]
	if req.Name != nil {
		next := strings.TrimSpace(*req.Name)
		if next == "" {
			s.mu.Unlock()
			return false
		}
		if other := s.findItemType(next); other >= 0 && other != idx {
			s.mu.Unlock()
			return false
		}
		updated.Name = next
	}
	if req.DefaultUnitPrice != nil {
		if req.DefaultUnitPrice.IsNegative() {
			s.mu.Unlock()
			return false
		}
		updated.DefaultUnitPrice = *req.DefaultUnitPrice
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}

	s.itemTypes[idx] = updated
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// RemoveItemType removes by case-insensitive name. Absent names are no-ops.
func (s *Store) RemoveItemType(ctx context.Context, name string) {
	s.mu.Lock()
	idx := s.findItemType(name)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.itemTypes = slices.Delete(s.itemTypes, idx, idx+1)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
}

// AddFabric appends a fabric, normalizing an empty series to the sentinel
// group and creating the series name if it is new. Duplicate
// (series, pattern) pairs are silent no-ops.
func (s *Store) AddFabric(ctx context.Context, series string, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	series = strings.TrimSpace(series)
	if series == "" {
		series = domain.MiscSeries
	}

	s.mu.Lock()
	series = s.ensureSeries(series)
	for _, f := range s.fabrics {
		if strings.EqualFold(f.Series, series) && strings.EqualFold(f.Pattern, pattern) {
			s.mu.Unlock()
			return false
		}
	}
	s.fabrics = append(s.fabrics, domain.Fabric{ID: xid.New(), Series: series, Pattern: pattern})
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// RemoveFabric removes by id. Absent ids are no-ops.
func (s *Store) RemoveFabric(ctx context.Context, id string) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.fabrics, func(f domain.Fabric) bool { return f.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.fabrics = slices.Delete(s.fabrics, idx, idx+1)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
}

// RenameSeries moves every fabric in oldName to newName. When the rename
// makes two fabrics collide on (series, pattern), the first one wins and the
// rest are dropped. A rename that only changes casing fixes the spelling in
// place.
func (s *Store) RenameSeries(ctx context.Context, oldName string, newName string) bool {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" || oldName == newName {
		return false
	}

	s.mu.Lock()
	if !s.seriesKnown(oldName) {
		s.mu.Unlock()
		return false
	}

	canonical := newName
	caseOnly := strings.EqualFold(oldName, newName)
	if caseOnly {
		for i, name := range s.series {
			if strings.EqualFold(name, oldName) {
				s.series[i] = newName
			}
		}
	} else {
		// Adopt the existing spelling when newName matches a known series
		// case-insensitively, so fabrics never split across two casings.
		canonical = s.ensureSeries(newName)
	}

	next := make([]domain.Fabric, 0, len(s.fabrics))
	for _, f := range s.fabrics {
		if strings.EqualFold(f.Series, oldName) {
			f.Series = canonical
		}
		dup := slices.ContainsFunc(next, func(seen domain.Fabric) bool {
			return strings.EqualFold(seen.Series, f.Series) && strings.EqualFold(seen.Pattern, f.Pattern)
		})
		if !dup {
			next = append(next, f)
		}
	}
	s.fabrics = next

	if !caseOnly {
		s.series = slices.DeleteFunc(s.series, func(name string) bool {
			return strings.EqualFold(name, oldName)
		})
	}
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// DeleteSeries removes the series and every fabric in it.
func (s *Store) DeleteSeries(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	s.mu.Lock()
	if !s.seriesKnown(name) {
		s.mu.Unlock()
		return
	}
	s.series = slices.DeleteFunc(s.series, func(existing string) bool {
		return strings.EqualFold(existing, name)
	})
	s.fabrics = slices.DeleteFunc(s.fabrics, func(f domain.Fabric) bool {
		return strings.EqualFold(f.Series, name)
	})
	s.persist(ctx)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) ItemTypes() []domain.ItemType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.itemTypes)
}

func (s *Store) Fabrics() []domain.Fabric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.fabrics)
}

func (s *Store) Series() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.series)
}

// FindItemType returns the item type with the given case-insensitive name.
func (s *Store) FindItemType(name string) (domain.ItemType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.findItemType(name)
	if idx < 0 {
		return domain.ItemType{}, false
	}
	return s.itemTypes[idx], true
}

// FabricsBySeries groups fabrics by series, sorted alphabetically by series
// then pattern. Recomputed on every call; the catalog is small.
func (s *Store) FabricsBySeries() []domain.SeriesGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*domain.SeriesGroup)
	order := make([]string, 0, 8)
	for _, f := range s.fabrics {
		key := strings.ToLower(f.Series)
		group, ok := byName[key]
		if !ok {
			group = &domain.SeriesGroup{Series: f.Series}
			byName[key] = group
			order = append(order, key)
		}
		group.Fabrics = append(group.Fabrics, f)
	}

	groups := make([]domain.SeriesGroup, 0, len(order))
	for _, key := range order {
		group := *byName[key]
		slices.SortFunc(group.Fabrics, func(a, b domain.Fabric) int {
			return compareFold(a.Pattern, b.Pattern)
		})
		groups = append(groups, group)
	}
	slices.SortFunc(groups, func(a, b domain.SeriesGroup) int {
		return compareFold(a.Series, b.Series)
	})
	return groups
}

// FabricOptions flattens the catalog into sorted labelled options for
// selection UIs.
func (s *Store) FabricOptions() []domain.FabricOption {
	s.mu.RLock()
	defer s.mu.RUnlock()

	options := make([]domain.FabricOption, 0, len(s.fabrics))
	for _, f := range s.fabrics {
		series := f.Series
		if series == "" {
			series = domain.MiscSeries
		}
		options = append(options, domain.FabricOption{
			ID:      f.ID,
			Series:  series,
			Pattern: f.Pattern,
			Label:   series + " — " + f.Pattern,
		})
	}
	slices.SortFunc(options, func(a, b domain.FabricOption) int {
		if c := compareFold(a.Series, b.Series); c != 0 {
			return c
		}
		return compareFold(a.Pattern, b.Pattern)
	})
	return options
}

// callers hold s.mu
func (s *Store) findItemType(name string) int {
	name = strings.TrimSpace(name)
	return slices.IndexFunc(s.itemTypes, func(it domain.ItemType) bool {
		return strings.EqualFold(it.Name, name)
	})
}

func (s *Store) seriesKnown(name string) bool {
	return slices.ContainsFunc(s.series, func(existing string) bool {
		return strings.EqualFold(existing, name)
	})
}

func (s *Store) ensureSeries(name string) string {
	for _, existing := range s.series {
		if strings.EqualFold(existing, name) {
			return existing
		}
	}
	s.series = append(s.series, name)
	return name
}

func compareFold(a string, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
