// Package metrics defines and registers all custom Prometheus metrics for
// the EMR console gateway. It is the single source of truth for metric
// names, labels, and help strings; everything registers with the default
// registry at init time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "emr_console"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "rejected" (bad input or credentials),
//     "superseded" (stale attempt discarded), or "error" (transport failure)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts authorization decisions made by the Guard.
// Label:
//   - decision: "allow", "not_authenticated", or "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of guard access decisions, by outcome.",
	},
	[]string{"decision"},
)

// SessionRehydrationsTotal counts startup rehydration outcomes.
// Label:
//   - result: "restored" (persisted session accepted) or "absent" (no
//     record, corrupt record, or unreachable vault)
var SessionRehydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rehydrations_total",
		Help:      "Total number of session rehydration attempts at startup, by result.",
	},
	[]string{"result"},
)

// SessionExpiriesTotal counts sessions cleared because the backend answered
// 401-equivalent on an authenticated call.
var SessionExpiriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expiries_total",
		Help:      "Total number of sessions cleared after an implicit backend expiry.",
	},
)
