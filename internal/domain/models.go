package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted state written by earlier versions stores prices and totals
	// as plain JSON numbers; keep writing them that way.
	decimal.MarshalJSONWithoutQuotes = true
}

// MiscSeries is the sentinel series fabrics fall into when no series name
// is supplied.
const MiscSeries = "Miscellaneous"

type ItemType struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	DefaultUnitPrice decimal.Decimal `json:"defaultPrice"`
	Notes            string          `json:"notes"`
}

type Fabric struct {
	ID      string `json:"id"`
	Series  string `json:"series"`
	Pattern string `json:"pattern"`
}

// FabricOption is a flattened fabric entry for selection UIs.
type FabricOption struct {
	ID      string `json:"id"`
	Series  string `json:"series"`
	Pattern string `json:"pattern"`
	Label   string `json:"label"`
}

// SeriesGroup is one series with its fabrics, sorted by pattern.
type SeriesGroup struct {
	Series  string   `json:"series"`
	Fabrics []Fabric `json:"fabrics"`
}

// OrderLine is one row of the transient current-order buffer. It survives
// process restarts but never outlives checkout or an explicit clear.
type OrderLine struct {
	ID        string          `json:"id"`
	ItemType  string          `json:"productType"`
	Series    string          `json:"series"`
	Pattern   string          `json:"pattern"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	Notes     string          `json:"notes"`
}

type OrderLineRequest struct {
	ItemType  string           `json:"productType"`
	Series    string           `json:"series"`
	Pattern   string           `json:"pattern"`
	UnitPrice *decimal.Decimal `json:"price,omitempty"`
	Quantity  int              `json:"qty"`
	Notes     string           `json:"notes"`
}

// SaleLine is one immutable line of a recorded sale.
type SaleLine struct {
	ItemType  string          `json:"name"`
	Series    string          `json:"series"`
	Pattern   string          `json:"pattern"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
}

// SaleRecord is a completed sale. Records are append-only: nothing in the
// normal flow edits or deletes one after it lands in the ledger.
type SaleRecord struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	CreatedAtMS  int64           `json:"timestamp"`
	CreatedAtISO string          `json:"timestampIso"`
	LineItems    []SaleLine      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	EventTag     string          `json:"event,omitempty"`
}

func (r SaleRecord) CreatedAt() time.Time {
	return time.UnixMilli(r.CreatedAtMS)
}

// EventTag is the process-wide active event. A zero Name means no event is
// active.
type EventTag struct {
	Name      string `json:"name"`
	StartedAt int64  `json:"startedAt"`
}

func (e EventTag) Active() bool {
	return e.Name != ""
}

// Range selects the slice of the ledger a report covers.
type Range string

const (
	RangeToday        Range = "today"
	RangeLast7Days    Range = "7d"
	RangeCurrentEvent Range = "event"
	RangeAll          Range = "all"
)

// KPIs are the aggregate figures derived from a set of sale records.
type KPIs struct {
	OrderCount        int             `json:"orders"`
	GrossRevenue      decimal.Decimal `json:"gross"`
	ItemsSold         int             `json:"items"`
	AverageOrderValue decimal.Decimal `json:"aov"`
}

// Tally is one entry of a top-N grouping.
type Tally struct {
	Key      string `json:"key"`
	Quantity int    `json:"qty"`
}

// GroupKey names the sale-line field a top-N tally groups by.
type GroupKey string

const (
	GroupByPattern  GroupKey = "pattern"
	GroupBySeries   GroupKey = "series"
	GroupByItemType GroupKey = "itemType"
)

// Snapshot is the reporting view for one range.
type Snapshot struct {
	Range       Range        `json:"range"`
	EventName   string       `json:"eventName,omitempty"`
	KPIs        KPIs         `json:"kpis"`
	TopPatterns []Tally      `json:"topPatterns"`
	Recent      []SaleRecord `json:"recent"`
}

type CheckoutResult struct {
	Sale    SaleRecord `json:"sale"`
	Synced  bool       `json:"synced"`
	Message string     `json:"message"`
}

type EventStartRequest struct {
	Name string `json:"name"`
}

type ItemTypeCreateRequest struct {
	Name             string          `json:"name"`
	DefaultUnitPrice decimal.Decimal `json:"defaultPrice"`
	Notes            string          `json:"notes"`
}

type ItemTypeUpdateRequest struct {
	Name             *string          `json:"name,omitempty"`
	DefaultUnitPrice *decimal.Decimal `json:"defaultPrice,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

type FabricCreateRequest struct {
	Series  string `json:"series"`
	Pattern string `json:"pattern"`
}

type SeriesRenameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}
