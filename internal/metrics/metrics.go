// Package metrics exposes operational counters over /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SalesRecorded prometheus.Counter
	SyncAttempts  prometheus.Counter
	SyncFailures  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SalesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "boothbabe_sales_recorded_total",
			Help: "Sales appended to the local ledger.",
		}),
		SyncAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "boothbabe_sheets_sync_attempts_total",
			Help: "Outbound spreadsheet sync attempts.",
		}),
		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "boothbabe_sheets_sync_failures_total",
			Help: "Outbound spreadsheet syncs that did not get acknowledged.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
