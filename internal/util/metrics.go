package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of sales recorded",
	})

	SaleLinesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_lines_recorded_total",
		Help: "Total number of sale lines appended to the ledger",
	})

	PurchasesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_recorded_total",
		Help: "Total number of purchases recorded",
	})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	})

	SalesSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_settled_total",
		Help: "Total number of sales advanced to Paid",
	})

	LedgerWritesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_writes_failed_total",
		Help: "Total number of failed ledger writes",
	}, []string{"reason"})

	DuplicateSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duplicate_submissions_total",
		Help: "Total number of submissions short-circuited by idempotency key",
	}, []string{"operation"})

	InventoryRecomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_recomputes_total",
		Help: "Total number of inventory snapshot recomputes",
	})

	InventoryRecomputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_recompute_latency_seconds",
		Help:    "Latency of a full inventory recompute and snapshot swap",
		Buckets: prometheus.DefBuckets,
	})

	InventorySnapshotRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_snapshot_rows",
		Help: "Number of SKU rows in the current inventory snapshot",
	})

	ReceivablesOutstanding = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "receivables_outstanding_total",
		Help: "Sum of outstanding balances across all pending sales",
	})

	MasterCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "master_cache_hits_total",
		Help: "Master data cache lookups by result",
	}, []string{"list", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
