package model

import (
	"fmt"
	"strings"
	"time"
)

// PaymentNotification records that a "payment confirmed" email was attempted
// for a transaction. The DedupeKey carries the exactly-once guarantee via a
// UNIQUE constraint; Delivered records whether the send itself succeeded.
type PaymentNotification struct {
	ID        string // ULID
	DedupeKey string
	Method    string
	Name      string
	Email     string
	Plan      string
	Amount    int64
	Currency  string
	Delivered bool
	CreatedAt time.Time
}

// VerifiedDedupeKey keys a provider-verified transaction by its checkout id.
func VerifiedDedupeKey(checkoutID string) string {
	return "tx_" + checkoutID
}

// LegacyDedupeKey keys a client-reported transaction. There is no transaction
// id on this path, so method+name+amount is the best available composite.
func LegacyDedupeKey(method, name string, amount int64) string {
	return fmt.Sprintf("legacy:%s:%s:%d",
		strings.ToLower(strings.TrimSpace(method)),
		strings.ToLower(strings.TrimSpace(name)),
		amount,
	)
}
