package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// METRICS - Operational counters exposed on /metrics
// =============================================================================

var (
	clockInsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payday_clock_ins_accepted_total",
		Help: "Clock-ins that passed location verification and were recorded.",
	})

	clockInsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payday_clock_ins_rejected_total",
		Help: "Clock-ins refused by the geofence validator, by first flag.",
	}, []string{"flag"})

	payrollRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payday_payroll_runs_total",
		Help: "Period payroll runs executed.",
	})

	payrollItemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payday_payroll_items_failed_total",
		Help: "Per-employee payroll items rejected by advisory validation.",
	})

	payrollBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payday_payroll_batch_duration_seconds",
		Help:    "Batch payroll execution time distribution.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
	})
)
