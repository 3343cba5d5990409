// Package order holds the transient current-order buffer. Lines live here
// only between "add to list" and checkout, but the buffer is persisted so a
// restart mid-order loses nothing.
package order

import (
	"context"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/storage"
)

type Buffer struct {
	mu      sync.RWMutex
	backend storage.Backend
	lines   []domain.OrderLine
	subs    []func()
}

func New(ctx context.Context, backend storage.Backend) *Buffer {
	b := &Buffer{backend: backend}
	if !storage.LoadJSON(ctx, backend, storage.KeyOrderLines, &b.lines) {
		b.lines = []domain.OrderLine{}
	}
	return b
}

func (b *Buffer) persist(ctx context.Context) {
	if err := storage.SaveJSON(ctx, b.backend, storage.KeyOrderLines, b.lines); err != nil {
		log.Printf("[order] WARN: failed to persist order lines: %v", err)
	}
}

func (b *Buffer) Subscribe(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Buffer) notify() {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Reload re-reads the buffer from the backend, replacing in-memory state.
// Called when a shared backend reports the key changed elsewhere.
func (b *Buffer) Reload(ctx context.Context) {
	var lines []domain.OrderLine
	if !storage.LoadJSON(ctx, b.backend, storage.KeyOrderLines, &lines) {
		lines = []domain.OrderLine{}
	}

	b.mu.Lock()
	b.lines = lines
	b.mu.Unlock()

	b.notify()
}

// Add appends a line. Lines without an item type or pattern, and lines with
// a negative price or quantity, are rejected as no-ops.
func (b *Buffer) Add(ctx context.Context, line domain.OrderLine) (domain.OrderLine, bool) {
	line.ItemType = strings.TrimSpace(line.ItemType)
	line.Pattern = strings.TrimSpace(line.Pattern)
	line.Notes = strings.TrimSpace(line.Notes)
	if line.ItemType == "" || line.Pattern == "" {
		return domain.OrderLine{}, false
	}
	if line.Quantity < 0 || line.UnitPrice.IsNegative() {
		return domain.OrderLine{}, false
	}
	if strings.TrimSpace(line.Series) == "" {
		line.Series = domain.MiscSeries
	}

	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.persist(ctx)
	b.mu.Unlock()

	b.notify()
	return line, true
}

// Remove deletes a line by id. Absent ids are no-ops.
func (b *Buffer) Remove(ctx context.Context, id string) {
	b.mu.Lock()
	idx := slices.IndexFunc(b.lines, func(l domain.OrderLine) bool { return l.ID == id })
	if idx < 0 {
		b.mu.Unlock()
		return
	}
	b.lines = slices.Delete(b.lines, idx, idx+1)
	b.persist(ctx)
	b.mu.Unlock()

	b.notify()
}

// Clear drops every line.
func (b *Buffer) Clear(ctx context.Context) {
	b.mu.Lock()
	b.lines = []domain.OrderLine{}
	b.persist(ctx)
	b.mu.Unlock()

	b.notify()
}

func (b *Buffer) Lines() []domain.OrderLine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.lines)
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Subtotal is the sum of price times quantity over all lines.
func (b *Buffer) Subtotal() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subtotal := decimal.Zero
	for _, line := range b.lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}
