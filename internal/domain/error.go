package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrCheckoutNotFound     = errors.New("checkout not found")
	ErrPaymentNotCompleted  = errors.New("payment not completed")
	ErrOriginNotAllowed     = errors.New("redirect origin not allowed")
	ErrVerifiedMethodDirect = errors.New("verified provider must use the checkout verification flow")
	ErrAlreadyNotified      = errors.New("notification already sent for this transaction")
	ErrProviderUnavailable  = errors.New("payment provider unavailable")
	ErrMailerNotConfigured  = errors.New("email sender not configured")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrReadDatabaseRow      = errors.New("failed to read database row")
)
