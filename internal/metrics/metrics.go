package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts reconciliation outcomes. Inconsistencies is the alerting
// signal for funds that left the processor without a matching ledger debit.
type Metrics struct {
	DepositsCredited     prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	WithdrawalsCompleted prometheus.Counter
	Inconsistencies      prometheus.Counter
	GatewayFailures      *prometheus.CounterVec
}

// New registers the reconciliation counters on the default registry. Call
// once per process.
func New() *Metrics {
	return &Metrics{
		DepositsCredited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "naira_vault",
			Subsystem: "reconcile",
			Name:      "deposits_credited_total",
			Help:      "Deposits credited to wallets, across webhook and verify paths.",
		}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "naira_vault",
			Subsystem: "reconcile",
			Name:      "duplicates_suppressed_total",
			Help:      "Reconciliation attempts short-circuited by the tx_ref dedup record.",
		}),
		WithdrawalsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "naira_vault",
			Subsystem: "reconcile",
			Name:      "withdrawals_completed_total",
			Help:      "Withdrawals transferred and debited.",
		}),
		Inconsistencies: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "naira_vault",
			Subsystem: "reconcile",
			Name:      "inconsistencies_total",
			Help:      "Ledger writes that failed after the external transfer succeeded. Requires manual reconciliation.",
		}),
		GatewayFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "naira_vault",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Outbound gateway calls that failed, partitioned by operation.",
		}, []string{"operation"}),
	}
}
