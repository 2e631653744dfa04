package metrics

import "github.com/prometheus/client_golang/prometheus"

// Workflow counts domain events worth alerting on.
type Workflow struct {
	holidayDecisions *prometheus.CounterVec
	kpiRecomputes    *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

// NewWorkflow registers the workflow counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWorkflow(reg prometheus.Registerer) *Workflow {
	if reg == nil {
		return &Workflow{}
	}
	holidayDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "holiday_decisions_total",
		Help: "Holiday approval votes by decision and resulting request status.",
	}, []string{"decision", "status"})
	kpiRecomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_recomputes_total",
		Help: "Stored KPI recomputations by scope.",
	}, []string{"scope"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications persisted by type.",
	}, []string{"type"})
	reg.MustRegister(holidayDecisions, kpiRecomputes, notifications)
	return &Workflow{
		holidayDecisions: holidayDecisions,
		kpiRecomputes:    kpiRecomputes,
		notifications:    notifications,
	}
}

func (w *Workflow) HolidayDecision(decision, status string) {
	if w == nil || w.holidayDecisions == nil {
		return
	}
	w.holidayDecisions.WithLabelValues(normalizeLabel(decision), normalizeLabel(status)).Inc()
}

func (w *Workflow) KPIRecomputed(scope string, users int) {
	if w == nil || w.kpiRecomputes == nil {
		return
	}
	w.kpiRecomputes.WithLabelValues(normalizeLabel(scope)).Add(float64(users))
}

func (w *Workflow) NotificationCreated(kind string) {
	if w == nil || w.notifications == nil {
		return
	}
	w.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}
