// Package metrics exposes Prometheus instrumentation for the scanner.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the scanner updates.
type Metrics struct {
	ScanCycles         prometheus.Counter
	OpportunitiesFound prometheus.Counter
	TradesSelected     prometheus.Counter
	BestNetReturn      *prometheus.GaugeVec
	FetchErrors        *prometheus.CounterVec
	BookStalenessMs    *prometheus.GaugeVec
	WsReconnects       *prometheus.CounterVec
}

// New registers all scanner collectors on a fresh registry.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		ScanCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbscan_scan_cycles_total",
			Help: "Number of completed scan cycles.",
		}),
		OpportunitiesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbscan_opportunities_total",
			Help: "Number of directional opportunities evaluated.",
		}),
		TradesSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbscan_trades_selected_total",
			Help: "Number of scan cycles that produced a qualifying trade.",
		}),
		BestNetReturn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbscan_best_net_return",
			Help: "Best net return seen in the latest scan cycle, per pair.",
		}, []string{"pair"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbscan_fetch_errors_total",
			Help: "Number of failed snapshot fetches, per venue.",
		}, []string{"venue"}),
		BookStalenessMs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbscan_book_staleness_ms",
			Help: "Age of the latest top-of-book snapshot, per venue.",
		}, []string{"venue"}),
		WsReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbscan_ws_reconnects_total",
			Help: "Number of WebSocket reconnect attempts, per venue.",
		}, []string{"venue"}),
	}

	reg.MustRegister(
		m.ScanCycles,
		m.OpportunitiesFound,
		m.TradesSelected,
		m.BestNetReturn,
		m.FetchErrors,
		m.BookStalenessMs,
		m.WsReconnects,
	)
	return m, reg
}

// Handler returns the HTTP handler serving the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
