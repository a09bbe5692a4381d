package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		CheckoutCreateRequests,
		PaymentVerifyRequests,
		PaymentVerifyDuration,
	)
}

var (
	// Count of create-checkout calls grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_json|bad_origin|bad_amount|provider_error|not_configured|unknown
	CheckoutCreateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_create_requests_total",
			Help: "Count of /api/chargily/create-checkout calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Count of verify calls grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_json|missing_checkout_id|not_paid|not_found|provider_unavailable|unknown
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of /api/chargily/verify-payment calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of verify handler grouped by result.
	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of /api/chargily/verify-payment handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)
