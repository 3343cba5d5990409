// Package service ties the catalog, order buffer, and ledger together for
// the two flows that cross store boundaries: ringing up a line and checking
// out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/catalog"
	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/ledger"
	"boothbabe/backend/internal/metrics"
	"boothbabe/backend/internal/order"
	"boothbabe/backend/internal/sheets"
	"boothbabe/backend/internal/xid"
)

var (
	ErrEmptyOrder      = errors.New("no items in the order")
	ErrUnknownItemType = errors.New("unknown item type")
	ErrInvalidLine     = errors.New("invalid order line")
)

type Service struct {
	catalog *catalog.Store
	ledger  *ledger.Store
	orders  *order.Buffer
	sheets  *sheets.Client
	metrics *metrics.Metrics

	now func() time.Time
}

func New(cat *catalog.Store, led *ledger.Store, orders *order.Buffer, sync *sheets.Client, m *metrics.Metrics) *Service {
	return &Service{
		catalog: cat,
		ledger:  led,
		orders:  orders,
		sheets:  sync,
		metrics: m,
		now:     time.Now,
	}
}

// AddLine resolves an order-entry request against the catalog and appends it
// to the current order. When no price override is given, the item type's
// default unit price applies.
func (s *Service) AddLine(ctx context.Context, req domain.OrderLineRequest) (domain.OrderLine, error) {
	itemType, ok := s.catalog.FindItemType(req.ItemType)
	if !ok {
		return domain.OrderLine{}, ErrUnknownItemType
	}

	price := itemType.DefaultUnitPrice
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	}

	line, ok := s.orders.Add(ctx, domain.OrderLine{
		ID:        xid.New(),
		ItemType:  itemType.Name,
		Series:    req.Series,
		Pattern:   req.Pattern,
		UnitPrice: price,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if !ok {
		return domain.OrderLine{}, ErrInvalidLine
	}
	return line, nil
}

// Checkout converts the current order into an immutable sale record, appends
// it to the ledger, clears the buffer, and then mirrors the record to the
// spreadsheet. The local append always completes before the sync is
// attempted, and a failed sync only changes the operator-facing message.
func (s *Service) Checkout(ctx context.Context) (domain.CheckoutResult, error) {
	lines := s.orders.Lines()
	if len(lines) == 0 {
		return domain.CheckoutResult{}, ErrEmptyOrder
	}

	now := s.now()
	subtotal := s.orders.Subtotal()

	items := make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.SaleLine{
			ItemType:  line.ItemType,
			Series:    line.Series,
			Pattern:   line.Pattern,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	sale := domain.SaleRecord{
		ID:           xid.New(),
		OrderNumber:  OrderNumber(now, s.ledger.Len()+1),
		CreatedAtMS:  now.UnixMilli(),
		CreatedAtISO: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		LineItems:    items,
		Subtotal:     subtotal,
		Tax:          decimal.Zero,
		Total:        subtotal,
	}
	if event := s.ledger.Event(); event.Active() {
		sale.EventTag = event.Name
	}

	s.ledger.Append(ctx, sale)
	s.metrics.SalesRecorded.Inc()
	s.orders.Clear(ctx)

	result := domain.CheckoutResult{
		Sale:    sale,
		Message: fmt.Sprintf("Sale recorded: %s", sale.OrderNumber),
	}
	if !s.sheets.Enabled() {
		return result, nil
	}

	s.metrics.SyncAttempts.Inc()
	acked, err := s.sheets.Send(ctx, sale)
	switch {
	case err != nil:
		s.metrics.SyncFailures.Inc()
		log.Printf("[service] WARN: sheets sync failed for %s: %v", sale.OrderNumber, err)
		result.Message = "Sale recorded locally. Sync failed (network error)."
	case !acked:
		s.metrics.SyncFailures.Inc()
		result.Message = "Sale recorded locally. Sync might have failed."
	default:
		result.Synced = true
		result.Message = fmt.Sprintf("Sale recorded & sync sent: %s", sale.OrderNumber)
	}
	return result, nil
}

// Snapshot builds the reporting view for one range.
func (s *Service) Snapshot(rng domain.Range) domain.Snapshot {
	scoped := s.ledger.FilterByRange(rng, s.now())

	snapshot := domain.Snapshot{
		Range:       rng,
		KPIs:        ledger.ComputeKPIs(scoped),
		TopPatterns: ledger.TopByKey(scoped, domain.GroupByPattern, 3),
		Recent:      ledger.Recent(scoped, 5),
	}
	if event := s.ledger.Event(); rng == domain.RangeCurrentEvent && event.Active() {
		snapshot.EventName = event.Name
	}
	return snapshot
}

// OrderNumber renders the printed order number: BB-{date}-{sequence}. The
// sequence is the ledger length plus one, zero-padded to three digits. It is
// NOT globally unique: it repeats after a ledger clear and across devices.
// Downstream spreadsheets key on this format, so it stays as is.
func OrderNumber(at time.Time, sequence int) string {
	return fmt.Sprintf("BB-%s-%03d", at.Format("20060102"), sequence)
}
