package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boothbabe/backend/internal/domain"
)

func recordAt(id string, at time.Time, total decimal.Decimal, lines ...domain.SaleLine) domain.SaleRecord {
	return domain.SaleRecord{
		ID:          id,
		CreatedAtMS: at.UnixMilli(),
		Total:       total,
		LineItems:   lines,
	}
}

func line(itemType, series, pattern string, qty int) domain.SaleLine {
	return domain.SaleLine{ItemType: itemType, Series: series, Pattern: pattern, Quantity: qty}
}

func TestFilterByRangeToday(t *testing.T) {
	now := time.Date(2026, time.September, 1, 14, 0, 0, 0, time.Local)
	sales := []domain.SaleRecord{
		recordAt("midnight", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.Local), decimal.Zero),
		recordAt("yesterday", time.Date(2026, time.August, 31, 23, 59, 0, 0, time.Local), decimal.Zero),
		recordAt("now", now, decimal.Zero),
	}

	got := FilterByRange(sales, domain.RangeToday, now, domain.EventTag{})

	require.Len(t, got, 2)
	assert.Equal(t, "midnight", got[0].ID)
	assert.Equal(t, "now", got[1].ID)
}

func TestFilterByRangeLast7Days(t *testing.T) {
	now := time.Date(2026, time.September, 1, 14, 0, 0, 0, time.UTC)
	sales := []domain.SaleRecord{
		recordAt("fresh", now.Add(-3*24*time.Hour), decimal.Zero),
		recordAt("boundary", now.Add(-7*24*time.Hour), decimal.Zero),
		recordAt("stale", now.Add(-10*24*time.Hour), decimal.Zero),
	}

	got := FilterByRange(sales, domain.RangeLast7Days, now, domain.EventTag{})

	require.Len(t, got, 2)
	assert.Equal(t, "fresh", got[0].ID)
	assert.Equal(t, "boundary", got[1].ID)
}

func TestFilterByRangeCurrentEvent(t *testing.T) {
	now := time.Date(2026, time.September, 1, 14, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	sales := []domain.SaleRecord{
		recordAt("before", start.Add(-time.Minute), decimal.Zero),
		recordAt("during", start.Add(time.Minute), decimal.Zero),
	}

	active := domain.EventTag{Name: "Comic Con", StartedAt: start.UnixMilli()}
	got := FilterByRange(sales, domain.RangeCurrentEvent, now, active)
	require.Len(t, got, 1)
	assert.Equal(t, "during", got[0].ID)

	// No active event means the range covers nothing, not everything.
	got = FilterByRange(sales, domain.RangeCurrentEvent, now, domain.EventTag{})
	assert.Empty(t, got)
}

func TestFilterByRangeAll(t *testing.T) {
	now := time.Now()
	sales := []domain.SaleRecord{
		recordAt("a", now.Add(-100*24*time.Hour), decimal.Zero),
		recordAt("b", now, decimal.Zero),
	}

	got := FilterByRange(sales, domain.RangeAll, now, domain.EventTag{})
	assert.Len(t, got, 2)
}

func TestComputeKPIs(t *testing.T) {
	sales := []domain.SaleRecord{
		recordAt("a", time.Now(), decimal.RequireFromString("12.50"),
			line("Pouches", "Core", "Pokemon", 1),
			line("Buttons", "Core", "Pokemon", 2),
		),
		recordAt("b", time.Now(), decimal.RequireFromString("7.50"),
			line("Keychain", "Miscellaneous", "Space", 1),
		),
	}

	kpis := ComputeKPIs(sales)

	assert.Equal(t, 2, kpis.OrderCount)
	assert.Equal(t, 4, kpis.ItemsSold)
	assert.True(t, kpis.GrossRevenue.Equal(decimal.RequireFromString("20.00")), "gross was %s", kpis.GrossRevenue)
	assert.True(t, kpis.AverageOrderValue.Equal(decimal.RequireFromString("10.00")), "aov was %s", kpis.AverageOrderValue)
}

func TestComputeKPIsEmpty(t *testing.T) {
	kpis := ComputeKPIs(nil)

	assert.Zero(t, kpis.OrderCount)
	assert.Zero(t, kpis.ItemsSold)
	assert.True(t, kpis.GrossRevenue.IsZero())
	assert.True(t, kpis.AverageOrderValue.IsZero())
}

func TestTopByKeyTieKeepsFirstSeenOrder(t *testing.T) {
	sales := []domain.SaleRecord{
		recordAt("a", time.Now(), decimal.Zero,
			line("Buttons", "Core", "A", 2),
			line("Buttons", "Core", "B", 3),
		),
		recordAt("b", time.Now(), decimal.Zero,
			line("Buttons", "Core", "A", 1),
			line("Buttons", "Core", "C", 1),
		),
	}

	got := TopByKey(sales, domain.GroupByPattern, 3)

	require.Len(t, got, 3)
	// A and B both total 3; A was seen first and stays ahead.
	assert.Equal(t, domain.Tally{Key: "A", Quantity: 3}, got[0])
	assert.Equal(t, domain.Tally{Key: "B", Quantity: 3}, got[1])
	assert.Equal(t, domain.Tally{Key: "C", Quantity: 1}, got[2])
}

func TestTopByKeyGroupsAndTruncates(t *testing.T) {
	sales := []domain.SaleRecord{
		recordAt("a", time.Now(), decimal.Zero,
			line("Buttons", "Core", "A", 1),
			line("Pouches", "Holiday", "B", 5),
			line("Hat", "", "C", 2),
		),
	}

	bySeries := TopByKey(sales, domain.GroupBySeries, 2)
	require.Len(t, bySeries, 2)
	assert.Equal(t, "Holiday", bySeries[0].Key)

	// Missing series values collapse into the placeholder bucket.
	all := TopByKey(sales, domain.GroupBySeries, -1)
	require.Len(t, all, 3)
	assert.Equal(t, "—", all[2].Key)

	byItem := TopByKey(sales, domain.GroupByItemType, 1)
	require.Len(t, byItem, 1)
	assert.Equal(t, domain.Tally{Key: "Pouches", Quantity: 5}, byItem[0])
}

func TestRecentNewestFirst(t *testing.T) {
	now := time.Now()
	sales := []domain.SaleRecord{
		recordAt("old", now.Add(-2*time.Hour), decimal.Zero),
		recordAt("tie-1", now, decimal.Zero),
		recordAt("tie-2", now, decimal.Zero),
		recordAt("ancient", now.Add(-48*time.Hour), decimal.Zero),
	}

	got := Recent(sales, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "tie-1", got[0].ID)
	assert.Equal(t, "tie-2", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}
