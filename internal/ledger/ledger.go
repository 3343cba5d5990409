// Package ledger owns the durable list of completed sales and the optional
// active event used to scope reporting.
package ledger

import (
	"context"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/storage"
)

// Store is an append-oriented sale ledger persisted synchronously on every
// mutation. Records are immutable once appended; the only destructive
// operation is Clear, which exists for resets and is not part of the normal
// flow.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	sales   []domain.SaleRecord
	event   domain.EventTag
	subs    []func()
}

func New(ctx context.Context, backend storage.Backend) *Store {
	s := &Store{backend: backend}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	var sales []domain.SaleRecord
	if storage.LoadJSON(ctx, s.backend, storage.KeySales, &sales) {
		s.sales = dedupeByID(sales)
	} else {
		s.sales = s.migrateLegacy(ctx)
	}

	s.event = domain.EventTag{}
	if name, ok, err := s.backend.Load(ctx, storage.KeyEventName); err == nil && ok {
		s.event.Name = name
	}
	if raw, ok, err := s.backend.Load(ctx, storage.KeyEventStart); err == nil && ok {
		if ms, parseErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); parseErr == nil {
			s.event.StartedAt = ms
		}
	}
}

// migrateLegacy performs the one-time key rename from the pre-prefix era.
// The legacy key is left in place; deleting it buys nothing and keeping it
// is the safer failure mode.
func (s *Store) migrateLegacy(ctx context.Context) []domain.SaleRecord {
	var legacy []domain.SaleRecord
	if !storage.LoadJSON(ctx, s.backend, storage.KeyLegacySales, &legacy) || len(legacy) == 0 {
		return []domain.SaleRecord{}
	}
	migrated := dedupeByID(legacy)
	if err := storage.SaveJSON(ctx, s.backend, storage.KeySales, migrated); err != nil {
		log.Printf("[ledger] WARN: failed to write migrated sales: %v", err)
	}
	log.Printf("[ledger] migrated %d sales from legacy key", len(migrated))
	return migrated
}

func dedupeByID(sales []domain.SaleRecord) []domain.SaleRecord {
	seen := make(map[string]struct{}, len(sales))
	out := make([]domain.SaleRecord, 0, len(sales))
	for _, sale := range sales {
		if sale.ID == "" {
			continue
		}
		if _, dup := seen[sale.ID]; dup {
			continue
		}
		seen[sale.ID] = struct{}{}
		out = append(out, sale)
	}
	return out
}

func (s *Store) persistSales(ctx context.Context) {
	if err := storage.SaveJSON(ctx, s.backend, storage.KeySales, s.sales); err != nil {
		log.Printf("[ledger] WARN: failed to persist sales: %v", err)
	}
}

// Event name and start live under separate keys, the name as a raw string
// and the start as a decimal unix-millisecond string.
func (s *Store) persistEvent(ctx context.Context) {
	if s.event.Active() {
		if err := s.backend.Save(ctx, storage.KeyEventName, s.event.Name); err != nil {
			log.Printf("[ledger] WARN: failed to persist event name: %v", err)
		}
		if err := s.backend.Save(ctx, storage.KeyEventStart, strconv.FormatInt(s.event.StartedAt, 10)); err != nil {
			log.Printf("[ledger] WARN: failed to persist event start: %v", err)
		}
		return
	}
	if err := s.backend.Delete(ctx, storage.KeyEventName); err != nil {
		log.Printf("[ledger] WARN: failed to clear event name: %v", err)
	}
	if err := s.backend.Delete(ctx, storage.KeyEventStart); err != nil {
		log.Printf("[ledger] WARN: failed to clear event start: %v", err)
	}
}

// Subscribe registers fn to run after every ledger mutation, outside the
// store lock.
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
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	s.load(ctx)
	s.mu.Unlock()
	s.notify()
}

// Append stores a completed sale. If an event is active, the record is
// stamped with its name before it lands. Appending an id already present in
// the ledger is a no-op: the existing record stays, the duplicate is
// dropped.
func (s *Store) Append(ctx context.Context, sale domain.SaleRecord) bool {
	if sale.ID == "" {
		return false
	}

	s.mu.Lock()
	for _, existing := range s.sales {
		if existing.ID == sale.ID {
			s.mu.Unlock()
			return false
		}
	}
	if s.event.Active() {
		sale.EventTag = s.event.Name
	}
	s.sales = append(s.sales, sale)
	s.persistSales(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// Clear empties the ledger. Destructive; kept off the normal UI path.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.sales = []domain.SaleRecord{}
	s.persistSales(ctx)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) Sales() []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sales)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// StartEvent activates an event, overwriting any event already running.
// Confirmation before overwrite is a UI concern, not enforced here. An empty
// or whitespace name is a no-op.
func (s *Store) StartEvent(ctx context.Context, name string, now time.Time) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	s.event = domain.EventTag{Name: name, StartedAt: now.UnixMilli()}
	s.persistEvent(ctx)
	s.mu.Unlock()

	s.notify()
	return true
}

// EndEvent clears the active event. Sales recorded while it ran keep their
// stamped tag permanently.
func (s *Store) EndEvent(ctx context.Context) {
	s.mu.Lock()
	s.event = domain.EventTag{}
	s.persistEvent(ctx)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) Event() domain.EventTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.event
}

// FilterByRange returns the sales the given range covers at time now.
// RangeCurrentEvent yields nothing when no event is active.
func (s *Store) FilterByRange(rng domain.Range, now time.Time) []domain.SaleRecord {
	s.mu.RLock()
	sales := slices.Clone(s.sales)
	event := s.event
	s.mu.RUnlock()

	return FilterByRange(sales, rng, now, event)
}
