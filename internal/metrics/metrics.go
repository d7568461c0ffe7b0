package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Transactions
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transactions reaching a state",
		},
		[]string{"state"},
	)
	TransactionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Failed or rejected transaction requests",
		},
		[]string{"reason"}, // insufficient_funds|risk_rejected|execution_error
	)
	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotent_replays_total",
			Help: "Create requests answered with an existing record",
		},
	)

	RiskEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_evaluations_total",
			Help: "Risk evaluations by level",
		},
		[]string{"level"},
	)

	// Audit worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current audit worker queue depth",
		},
	)
	AuditDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_dropped_total",
			Help: "Audit records dropped or failed to persist",
		},
	)

	initOnce sync.Once
)

// /metrics handler
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(TransactionsTotal)
		prometheus.MustRegister(TransactionsFailed)
		prometheus.MustRegister(IdempotentReplays)
		prometheus.MustRegister(RiskEvaluations)
		prometheus.MustRegister(WorkerQueueDepth)
		prometheus.MustRegister(AuditDropped)
	})
}
