package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics counts the outcomes of the assignment and delivery
// pipeline.
type DeliveryMetrics struct {
	assignments *prometheus.CounterVec
	deliveries  prometheus.Counter
	settlements prometheus.Counter
	otpFailures prometheus.Counter
}

// NewDeliveryMetrics registers the delivery pipeline metrics on the
// provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_assignments_total",
		Help: "Auto-assignment attempts by outcome (assigned, no_agent, already_assigned).",
	}, []string{"outcome"})
	deliveries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_completed_total",
		Help: "Deliveries confirmed via OTP.",
	})
	settlements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Vendor settlements executed.",
	})
	otpFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_verification_failures_total",
		Help: "Rejected delivery OTP attempts.",
	})
	reg.MustRegister(assignments, deliveries, settlements, otpFailures)
	return &DeliveryMetrics{
		assignments: assignments,
		deliveries:  deliveries,
		settlements: settlements,
		otpFailures: otpFailures,
	}
}

// IncAssignment increments the assignment counter for the given outcome.
func (d *DeliveryMetrics) IncAssignment(outcome string) {
	if d == nil || d.assignments == nil {
		return
	}
	d.assignments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDelivered increments the completed-delivery counter.
func (d *DeliveryMetrics) IncDelivered() {
	if d == nil || d.deliveries == nil {
		return
	}
	d.deliveries.Inc()
}

// IncSettlement increments the settlement counter.
func (d *DeliveryMetrics) IncSettlement() {
	if d == nil || d.settlements == nil {
		return
	}
	d.settlements.Inc()
}

// IncOTPFailure increments the rejected-OTP counter.
func (d *DeliveryMetrics) IncOTPFailure() {
	if d == nil || d.otpFailures == nil {
		return
	}
	d.otpFailures.Inc()
}
