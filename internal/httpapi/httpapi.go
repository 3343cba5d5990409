// Package httpapi exposes the catalog, order entry, and reporting flows over
// HTTP for the booth UI.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"boothbabe/backend/internal/catalog"
	"boothbabe/backend/internal/domain"
	"boothbabe/backend/internal/ledger"
	"boothbabe/backend/internal/order"
	"boothbabe/backend/internal/service"
)

type API struct {
	service       *service.Service
	catalog       *catalog.Store
	ledger        *ledger.Store
	orders        *order.Buffer
	metricsHandle http.Handler
	allowedOrigin string
}

func New(svc *service.Service, cat *catalog.Store, led *ledger.Store, orders *order.Buffer, metricsHandler http.Handler, allowedOrigin string) *API {
	return &API{
		service:       svc,
		catalog:       cat,
		ledger:        led,
		orders:        orders,
		metricsHandle: metricsHandler,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.Handle("/metrics", a.metricsHandle)

	mux.HandleFunc("/api/catalog/item-types", a.handleItemTypes)
	mux.HandleFunc("/api/catalog/item-types/", a.handleItemTypeActions)
	mux.HandleFunc("/api/catalog/fabrics", a.handleFabrics)
	mux.HandleFunc("/api/catalog/fabrics/", a.handleFabricActions)
	mux.HandleFunc("/api/catalog/fabric-options", a.handleFabricOptions)
	mux.HandleFunc("/api/catalog/series", a.handleSeries)
	mux.HandleFunc("/api/catalog/series/rename", a.handleSeriesRename)
	mux.HandleFunc("/api/catalog/series/", a.handleSeriesActions)

	mux.HandleFunc("/api/order/lines", a.handleOrderLines)
	mux.HandleFunc("/api/order/lines/", a.handleOrderLineActions)
	mux.HandleFunc("/api/order/checkout", a.handleCheckout)

	mux.HandleFunc("/api/sales", a.handleSales)
	mux.HandleFunc("/api/sales/snapshot", a.handleSnapshot)
	mux.HandleFunc("/api/event", a.handleEvent)
	mux.HandleFunc("/api/event/start", a.handleEventStart)
	mux.HandleFunc("/api/event/end", a.handleEventEnd)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleItemTypes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"itemTypes": a.catalog.ItemTypes()})
	case http.MethodPost:
		var req domain.ItemTypeCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !a.catalog.AddItemType(r.Context(), req.Name, req.DefaultUnitPrice, req.Notes) {
			writeError(w, http.StatusUnprocessableEntity, errors.New("name is empty, duplicate, or price is negative"))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"itemTypes": a.catalog.ItemTypes()})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleItemTypeActions(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/catalog/item-types/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown item type path"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req domain.ItemTypeUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !a.catalog.UpdateItemType(r.Context(), name, req) {
			writeError(w, http.StatusUnprocessableEntity, errors.New("item type not found or update invalid"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"itemTypes": a.catalog.ItemTypes()})
	case http.MethodDelete:
		a.catalog.RemoveItemType(r.Context(), name)
		writeJSON(w, http.StatusOK, map[string]any{"itemTypes": a.catalog.ItemTypes()})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleFabrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"fabrics":  a.catalog.Fabrics(),
			"bySeries": a.catalog.FabricsBySeries(),
		})
	case http.MethodPost:
		var req domain.FabricCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !a.catalog.AddFabric(r.Context(), req.Series, req.Pattern) {
			writeError(w, http.StatusUnprocessableEntity, errors.New("pattern is empty or the series/pattern pair already exists"))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"fabrics": a.catalog.Fabrics()})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleFabricActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/catalog/fabrics/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown fabric path"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	a.catalog.RemoveFabric(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"fabrics": a.catalog.Fabrics()})
}

func (a *API) handleFabricOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": a.catalog.FabricOptions()})
}

func (a *API) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": a.catalog.Series()})
}

func (a *API) handleSeriesRename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.SeriesRenameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !a.catalog.RenameSeries(r.Context(), req.OldName, req.NewName) {
		writeError(w, http.StatusUnprocessableEntity, errors.New("series not found or new name invalid"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"series":  a.catalog.Series(),
		"fabrics": a.catalog.Fabrics(),
	})
}

func (a *API) handleSeriesActions(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/catalog/series/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown series path"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	a.catalog.DeleteSeries(r.Context(), name)
	writeJSON(w, http.StatusOK, map[string]any{
		"series":  a.catalog.Series(),
		"fabrics": a.catalog.Fabrics(),
	})
}

func (a *API) handleOrderLines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"lines":    a.orders.Lines(),
			"subtotal": a.orders.Subtotal(),
		})
	case http.MethodPost:
		var req domain.OrderLineRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		line, err := a.service.AddLine(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"line": line})
	case http.MethodDelete:
		a.orders.Clear(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"lines": a.orders.Lines()})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleOrderLineActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/order/lines/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown order line path"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	a.orders.Remove(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":    a.orders.Lines(),
		"subtotal": a.orders.Subtotal(),
	})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	result, err := a.service.Checkout(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrEmptyOrder) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": a.ledger.Sales()})
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	rng, ok := parseRange(r.URL.Query().Get("range"))
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("range must be today, 7d, event, or all"))
		return
	}

	snapshot := a.service.Snapshot(rng)
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="snapshot.csv"`)
		_, _ = w.Write([]byte(snapshotToCSV(snapshot)))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	event := a.ledger.Event()
	writeJSON(w, http.StatusOK, map[string]any{
		"active": event.Active(),
		"event":  event,
	})
}

func (a *API) handleEventStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.EventStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !a.ledger.StartEvent(r.Context(), req.Name, time.Now()) {
		writeError(w, http.StatusUnprocessableEntity, errors.New("event name is empty"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": a.ledger.Event()})
}

func (a *API) handleEventEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	a.ledger.EndEvent(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"active": false})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func parseRange(raw string) (domain.Range, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return domain.RangeToday, true
	case "7d", "last7days":
		return domain.RangeLast7Days, true
	case "event":
		return domain.RangeCurrentEvent, true
	case "all":
		return domain.RangeAll, true
	default:
		return "", false
	}
}

func snapshotToCSV(snapshot domain.Snapshot) string {
	lines := []string{
		"section,key,value",
		fmt.Sprintf("summary,range,%s", snapshot.Range),
		fmt.Sprintf("summary,orders,%d", snapshot.KPIs.OrderCount),
		fmt.Sprintf("summary,gross,%s", snapshot.KPIs.GrossRevenue.StringFixed(2)),
		fmt.Sprintf("summary,items,%d", snapshot.KPIs.ItemsSold),
		fmt.Sprintf("summary,aov,%s", snapshot.KPIs.AverageOrderValue.StringFixed(2)),
	}
	for _, tally := range snapshot.TopPatterns {
		lines = append(lines, fmt.Sprintf("top_pattern,%s,%d", tally.Key, tally.Quantity))
	}
	for _, sale := range snapshot.Recent {
		lines = append(lines, fmt.Sprintf("recent,%s,%s", sale.OrderNumber, sale.Total.StringFixed(2)))
	}
	return strings.Join(lines, "\n") + "\n"
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
