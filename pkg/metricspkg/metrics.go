// Package metricspkg exposes ledger counters and gauges for scraping.
package metricspkg

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transfers_total",
			Help: "Number of transfers applied by the ledger.",
		},
		[]string{"currency"},
	)

	accountsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_accounts",
		Help: "Current number of ledger accounts.",
	})
)

func init() {
	registry.MustRegister(transfersTotal, accountsGauge)
}

// IncTransfers increments the transfer counter for the given currency.
func IncTransfers(currency string) {
	transfersTotal.WithLabelValues(currency).Inc()
}

// SetAccounts reports the current account count.
func SetAccounts(count int) {
	accountsGauge.Set(float64(count))
}

// Handler returns the text exposition handler for the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
