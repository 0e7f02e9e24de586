package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the sync module.
type Metrics struct {
	Validations      *prometheus.CounterVec
	ChangesApplied   *prometheus.CounterVec
	VersionConflicts *prometheus.CounterVec
	AdminBypasses    *prometheus.CounterVec
	DedupeHits       *prometheus.CounterVec
}

// New creates and registers the sync metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncgate_transition_validations_total",
			Help: "Transition validations by domain and outcome.",
		}, []string{"domain", "outcome"}),
		ChangesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncgate_changes_applied_total",
			Help: "Status changes applied by domain.",
		}, []string{"domain"}),
		VersionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncgate_version_conflicts_total",
			Help: "Optimistic-lock conflicts by domain and resolution.",
		}, []string{"domain", "resolution"}),
		AdminBypasses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncgate_admin_permission_bypasses_total",
			Help: "Permission checks bypassed via the admin flag, by domain.",
		}, []string{"domain"}),
		DedupeHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncgate_dedupe_hits_total",
			Help: "Change requests answered from the dedupe store, by domain.",
		}, []string{"domain"}),
	}
}

// ObserveValidation records a validation outcome.
func (m *Metrics) ObserveValidation(domain string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.Validations.WithLabelValues(domain, outcome).Inc()
}
