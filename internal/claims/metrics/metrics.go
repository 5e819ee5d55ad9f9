package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the claim workflow counters.
type Metrics struct {
	Submitted     prometheus.Counter
	Conflicts     prometheus.Counter
	Approved      prometheus.Counter
	Rejected      prometheus.Counter
	Resubmitted   prometheus.Counter
	Deleted       prometheus.Counter
	NotifyFailure prometheus.Counter
}

// New creates and registers all claim metrics.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_submitted_total",
			Help: "Claims accepted as pending.",
		}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_conflicts_total",
			Help: "Submissions rejected because the member code was already claimed.",
		}),
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_approved_total",
			Help: "Claims approved by an administrator.",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_rejected_total",
			Help: "Claims rejected by an administrator.",
		}),
		Resubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_resubmitted_total",
			Help: "Rejected claims edited and returned to pending.",
		}),
		Deleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_deleted_total",
			Help: "Claims deleted by their owner.",
		}),
		NotifyFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wasmember_claims_notify_failures_total",
			Help: "Decision notifications that could not be dispatched.",
		}),
	}
}
