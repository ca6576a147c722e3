package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	ledgerRPCRequestsTotal *prometheus.CounterVec
	ledgerRPCLatency       *prometheus.HistogramVec
	registryMembersTotal   *prometheus.CounterVec
	transactionsTotal      *prometheus.CounterVec
	objectExtractionTotal  *prometheus.CounterVec
	sessionCacheTotal      *prometheus.CounterVec
	documentUploadsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the gateway.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		ledgerRPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_rpc_requests_total",
			Help: "Total number of JSON-RPC calls made to the full node.",
		}, []string{"method", "status"})

		ledgerRPCLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_rpc_latency_seconds",
			Help:    "Latency distribution for full node JSON-RPC calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method"})

		registryMembersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_members_total",
			Help: "Total number of registry members discovered by walks.",
		}, []string{"collection"})

		transactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Total number of executed or confirmed transactions by outcome.",
		}, []string{"action", "outcome"})

		objectExtractionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "object_extraction_total",
			Help: "Created object extractions by the rule that matched.",
		}, []string{"rule"})

		sessionCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_cache_total",
			Help: "Session snapshot lookups by result.",
		}, []string{"result"})

		documentUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "document_uploads_total",
			Help: "Contract document uploads by store and outcome.",
		}, []string{"store", "outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			ledgerRPCRequestsTotal,
			ledgerRPCLatency,
			registryMembersTotal,
			transactionsTotal,
			objectExtractionTotal,
			sessionCacheTotal,
			documentUploadsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// RegistryMembers exposes the registry walk counter.
func RegistryMembers() *prometheus.CounterVec {
	RegisterMetrics()
	return registryMembersTotal
}

// Transactions exposes the transaction outcome counter.
func Transactions() *prometheus.CounterVec {
	RegisterMetrics()
	return transactionsTotal
}

// ObjectExtractions exposes the extraction rule counter.
func ObjectExtractions() *prometheus.CounterVec {
	RegisterMetrics()
	return objectExtractionTotal
}

// SessionCache exposes the session cache counter.
func SessionCache() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionCacheTotal
}

// DocumentUploads exposes the document upload counter.
func DocumentUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return documentUploadsTotal
}

// ObserveLedgerCall records one full node call. Its signature matches sui.CallObserver.
func ObserveLedgerCall(method, status string, elapsed time.Duration) {
	RegisterMetrics()
	ledgerRPCRequestsTotal.WithLabelValues(method, status).Inc()
	ledgerRPCLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}
