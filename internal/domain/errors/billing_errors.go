package errors

import "errors"

var (
	// ErrAccountNotFound indicates that no account row matched the billing
	// identifiers of an event. Surfaced, never swallowed: a zero-row update
	// on billing state is a failure, not a success.
	ErrAccountNotFound = errors.New("no account matched the billing identifiers")

	// ErrMissingUserReference indicates that the provider customer carries no
	// user id metadata, so the local account cannot be resolved.
	ErrMissingUserReference = errors.New("customer metadata carries no user reference")

	// ErrSignatureInvalid indicates that the webhook payload failed signature
	// verification.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrCustomerNotFound indicates that the provider has no customer with
	// the given identifier.
	ErrCustomerNotFound = errors.New("provider customer not found")

	// ErrNoBillingAccount indicates that the account has no provider customer
	// attached yet.
	ErrNoBillingAccount = errors.New("account has no billing customer")
)
