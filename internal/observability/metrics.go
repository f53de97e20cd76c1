package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	gateVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knifesql_gate_verdicts_total",
			Help: "Total number of queries classified by the confirmation gate, by danger category.",
		},
		[]string{"category"},
	)
	gateConfirmationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "knifesql_gate_confirmations_total",
			Help: "Total number of dangerous queries executed after an identical resubmission.",
		},
	)
	statementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knifesql_statements_total",
			Help: "Total number of statements sent to a database engine.",
		},
		[]string{"engine", "outcome"},
	)
	statementDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knifesql_statement_duration_seconds",
			Help:    "Statement execution latency by engine.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)
)

func init() {
	prometheus.MustRegister(
		gateVerdictsTotal,
		gateConfirmationsTotal,
		statementsTotal,
		statementDurationSeconds,
	)
}

// ObserveStatement records one statement round trip. A nil err counts as "ok".
func ObserveStatement(engine string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	statementsTotal.WithLabelValues(engine, outcome).Inc()
	statementDurationSeconds.WithLabelValues(engine).Observe(elapsed.Seconds())
}

func RecordVerdict(category string) {
	gateVerdictsTotal.WithLabelValues(category).Inc()
}

func IncrementConfirmations() {
	gateConfirmationsTotal.Inc()
}
