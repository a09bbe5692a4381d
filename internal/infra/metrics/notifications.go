package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		PaymentNotifications,
		IntakeSubmissions,
	)
}

var (
	// Payment notification emails by method and outcome.
	// method: chargily|paypal|baridimob|...
	// outcome: sent|duplicate|error
	PaymentNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Payment notification emails by method and delivery outcome.",
		},
		[]string{"method", "outcome"},
	)

	// Intake/contact/booking submissions by type.
	IntakeSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Form submissions received by type.",
		},
		[]string{"type"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncNotification(method, outcome string) {
	PaymentNotifications.WithLabelValues(norm(method), norm(outcome)).Inc()
}

func IncSubmission(kind string) {
	IntakeSubmissions.WithLabelValues(norm(kind)).Inc()
}
