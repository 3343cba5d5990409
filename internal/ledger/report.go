package ledger

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
)

// FilterByRange selects the records the range covers at time now. "Today"
// means the same calendar date as now in now's location, not a rolling 24h
// window.
func FilterByRange(sales []domain.SaleRecord, rng domain.Range, now time.Time, event domain.EventTag) []domain.SaleRecord {
	switch rng {
	case domain.RangeToday:
		return filter(sales, func(r domain.SaleRecord) bool {
			return sameCalendarDay(r.CreatedAt().In(now.Location()), now)
		})
	case domain.RangeLast7Days:
		cutoff := now.UnixMilli() - 7*24*time.Hour.Milliseconds()
		return filter(sales, func(r domain.SaleRecord) bool {
			return r.CreatedAtMS >= cutoff
		})
	case domain.RangeCurrentEvent:
		if !event.Active() {
			return []domain.SaleRecord{}
		}
		return filter(sales, func(r domain.SaleRecord) bool {
			return r.CreatedAtMS >= event.StartedAt
		})
	default:
		return slices.Clone(sales)
	}
}

func filter(sales []domain.SaleRecord, keep func(domain.SaleRecord) bool) []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0, len(sales))
	for _, r := range sales {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func sameCalendarDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ComputeKPIs derives the aggregate figures for a set of records. Average
// order value is rounded to cents and zero when there are no orders.
func ComputeKPIs(sales []domain.SaleRecord) domain.KPIs {
	kpis := domain.KPIs{OrderCount: len(sales)}
	for _, sale := range sales {
		kpis.GrossRevenue = kpis.GrossRevenue.Add(sale.Total)
		for _, line := range sale.LineItems {
			kpis.ItemsSold += line.Quantity
		}
	}
	if kpis.OrderCount > 0 {
		kpis.AverageOrderValue = kpis.GrossRevenue.
			Div(decimal.NewFromInt(int64(kpis.OrderCount))).
			Round(2)
	}
	return kpis
}

// TopByKey tallies summed quantity per distinct value of key across all line
// items and returns the top n. Ties keep first-encountered order.
func TopByKey(sales []domain.SaleRecord, key domain.GroupKey, n int) []domain.Tally {
	totals := make(map[string]int)
	order := make([]string, 0, 16)
	for _, sale := range sales {
		for _, line := range sale.LineItems {
			k := groupValue(line, key)
			if _, seen := totals[k]; !seen {
				order = append(order, k)
			}
			totals[k] += line.Quantity
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})
	if n >= 0 && len(order) > n {
		order = order[:n]
	}

	tallies := make([]domain.Tally, 0, len(order))
	for _, k := range order {
		tallies = append(tallies, domain.Tally{Key: k, Quantity: totals[k]})
	}
	return tallies
}

func groupValue(line domain.SaleLine, key domain.GroupKey) string {
	var v string
	switch key {
	case domain.GroupBySeries:
		v = line.Series
	case domain.GroupByItemType:
		v = line.ItemType
	default:
		v = line.Pattern
	}
	if v == "" {
		return "—"
	}
	return v
}

// Recent returns the n newest records, newest first. Records sharing a
// timestamp keep their ledger order.
func Recent(sales []domain.SaleRecord, n int) []domain.SaleRecord {
	out := slices.Clone(sales)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAtMS > out[j].CreatedAtMS
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
