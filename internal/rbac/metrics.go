package rbac

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeFullAccess         = "allowed_full_access"
	outcomeManageAll          = "allowed_manage_all"
	outcomeInHierarchy        = "allowed_in_hierarchy"
	outcomeUnrestricted       = "allowed_unrestricted_role"
	outcomeNotFound           = "denied_not_found"
	outcomePermissionDenied   = "denied_permission"
	outcomeHierarchyViolation = "denied_hierarchy"
	outcomeDirectoryError     = "error_directory"
)

// Metrics holds the Prometheus collectors for authorization decisions. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	AssignmentDecisions *prometheus.CounterVec
	VisibilityFilters   *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg, or on the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AssignmentDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "rbac",
			Name:      "assignment_decisions_total",
			Help:      "Task assignment validations by outcome.",
		}, []string{"outcome"}),
		VisibilityFilters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "rbac",
			Name:      "visibility_filters_total",
			Help:      "Visibility filters built, by role kind.",
		}, []string{"role"}),
	}
}

func (m *Metrics) observeAssignment(outcome string) {
	if m == nil {
		return
	}
	m.AssignmentDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeVisibility(kind RoleKind) {
	if m == nil {
		return
	}
	m.VisibilityFilters.WithLabelValues(kind.String()).Inc()
}

func outcomeFor(err error) string {
	if errors.Is(err, ErrUserNotFound) {
		return outcomeNotFound
	}
	return outcomeDirectoryError
}
