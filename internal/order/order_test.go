package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/storage/memory"
)

func testLine(id string, price int64, qty int) domain.OrderLine {
	return domain.OrderLine{
		ID:        id,
		ItemType:  "Pouches",
		Series:    "Core",
		Pattern:   "Pokemon",
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  qty,
	}
}

func TestAddValidation(t *testing.T) {
	b := New(context.Background(), memory.New())
	ctx := context.Background()

	if _, ok := b.Add(ctx, domain.OrderLine{ID: "x", Pattern: "Pokemon", Quantity: 1}); ok {
		t.Fatalf("line without an item type should be rejected")
	}
	if _, ok := b.Add(ctx, domain.OrderLine{ID: "x", ItemType: "Pouches", Quantity: 1}); ok {
		t.Fatalf("line without a pattern should be rejected")
	}
	bad := testLine("x", 10, -1)
	if _, ok := b.Add(ctx, bad); ok {
		t.Fatalf("negative quantity should be rejected")
	}
	bad = testLine("x", 10, 1)
	bad.UnitPrice = decimal.NewFromInt(-5)
	if _, ok := b.Add(ctx, bad); ok {
		t.Fatalf("negative price should be rejected")
	}
	if b.Len() != 0 {
		t.Fatalf("rejected lines must not land in the buffer")
	}
}

func TestAddDefaultsBlankSeries(t *testing.T) {
	b := New(context.Background(), memory.New())

	line := testLine("x", 10, 1)
	line.Series = "  "
	added, ok := b.Add(context.Background(), line)
	if !ok {
		t.Fatalf("line with blank series should be accepted")
	}
	if added.Series != domain.MiscSeries {
		t.Fatalf("blank series should default to %q, got %q", domain.MiscSeries, added.Series)
	}
}

func TestRemoveAndClear(t *testing.T) {
	b := New(context.Background(), memory.New())
	ctx := context.Background()

	b.Add(ctx, testLine("a", 10, 1))
	b.Add(ctx, testLine("b", 5, 2))

	b.Remove(ctx, "missing")
	if b.Len() != 2 {
		t.Fatalf("removing an unknown id should be a no-op")
	}

	b.Remove(ctx, "a")
	lines := b.Lines()
	if len(lines) != 1 || lines[0].ID != "b" {
		t.Fatalf("unexpected lines after remove: %+v", lines)
	}

	b.Clear(ctx)
	if b.Len() != 0 {
		t.Fatalf("clear should empty the buffer")
	}
}

func TestSubtotal(t *testing.T) {
	b := New(context.Background(), memory.New())
	ctx := context.Background()

	b.Add(ctx, testLine("a", 10, 2))
	b.Add(ctx, testLine("b", 5, 3))

	want := decimal.NewFromInt(35)
	if got := b.Subtotal(); !got.Equal(want) {
		t.Fatalf("subtotal = %s, want %s", got, want)
	}
}

func TestBufferSurvivesRestart(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	first := New(ctx, backend)
	first.Add(ctx, testLine("a", 10, 1))

	second := New(ctx, backend)
	if second.Len() != 1 {
		t.Fatalf("buffer should reload persisted lines, got %d", second.Len())
	}
}
