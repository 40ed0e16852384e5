package subscription

import "errors"

var (
	// ErrUserNotFound means the user has no subscription record. Query
	// operations never turn it into an allow or a deny on their own.
	ErrUserNotFound = errors.New("subscription: user not found")
	// ErrUserExists is returned when starting a trial for a user that already has a record.
	ErrUserExists = errors.New("subscription: user already exists")
	// ErrSubscriptionCanceled is returned when upgrading a canceled
	// subscription. Canceled is terminal.
	ErrSubscriptionCanceled = errors.New("subscription: subscription canceled")
	// ErrEntitlementCheckFailed wraps store and transition failures: the
	// service could not tell whether the user is entitled.
	ErrEntitlementCheckFailed = errors.New("subscription: entitlement check failed")
)
