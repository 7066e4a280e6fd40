package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio_checker"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	contractReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "contract_reads_total",
			Help:      "Contract balance reads by chain and outcome (ok, zero, failed).",
		},
		[]string{"chain", "outcome"},
	)

	chainScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning one chain for an address.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"chain"},
	)

	chainOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "scans_total",
			Help:      "Chain scans by outcome (completed, timeout, unavailable, cancelled).",
		},
		[]string{"chain", "outcome"},
	)

	priceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "lookups_total",
			Help:      "Price lookups by source (cache, live, fallback, unavailable).",
		},
		[]string{"source"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	Registry.MustRegister(
		contractReads,
		chainScanDuration,
		chainOutcomes,
		priceLookups,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordContractRead counts one balance read.
func RecordContractRead(chain, outcome string) {
	contractReads.WithLabelValues(chain, outcome).Inc()
}

// RecordChainScan records how one chain scan ended and how long it took.
func RecordChainScan(chain, outcome string, duration time.Duration) {
	chainOutcomes.WithLabelValues(chain, outcome).Inc()
	chainScanDuration.WithLabelValues(chain).Observe(duration.Seconds())
}

// RecordPriceLookup counts a resolved price quote by its source.
func RecordPriceLookup(source string) {
	priceLookups.WithLabelValues(source).Inc()
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
