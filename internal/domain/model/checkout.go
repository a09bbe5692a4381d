package model

import "time"

type CheckoutStatus string

const (
	CheckoutStatusPending  CheckoutStatus = "pending"  // created on provider side; awaiting the customer
	CheckoutStatusPaid     CheckoutStatus = "paid"     // settled at the provider; monotonic, never reverts
	CheckoutStatusFailed   CheckoutStatus = "failed"   // provider declined the payment
	CheckoutStatusCanceled CheckoutStatus = "canceled" // customer abandoned the hosted page
	CheckoutStatusExpired  CheckoutStatus = "expired"  // provider timed the session out
)

// CheckoutMetadata is echoed back verbatim by the provider on lookup.
// It is the only trusted source for client identity after a payment.
type CheckoutMetadata struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	PlanName    string `json:"plan_name"`
}

// Checkout mirrors the provider-owned checkout session. The provider is the
// system of record; we never persist these locally.
type Checkout struct {
	ID          string
	Status      CheckoutStatus
	Amount      int64  // smallest currency unit
	Currency    string // lower-case ISO code, e.g. "dzd"
	CheckoutURL string
	SuccessURL  string
	FailureURL  string
	Metadata    CheckoutMetadata
	CreatedAt   time.Time
}

// CheckoutRequest carries everything needed to open a hosted checkout session.
// Ephemeral: lives for a single create-checkout call.
type CheckoutRequest struct {
	Amount     int64
	Currency   string
	SuccessURL string
	FailureURL string
	Metadata   CheckoutMetadata
}

// VerifiedPayment is what a successful server-side verification yields.
// Every field comes from the provider record, never from the browser.
type VerifiedPayment struct {
	CheckoutID string
	Method     string
	Name       string
	Email      string
	Plan       string
	Amount     int64
	Currency   string
	PaidAt     time.Time
}
