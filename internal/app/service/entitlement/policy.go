// Package entitlement holds the pure entitlement rules: whether a trial has
// lapsed and whether a subscription state grants a premium feature.
// Nothing here performs I/O; now is always supplied by the caller.
package entitlement

import (
	"time"

	"github.com/fatflowers/fitgate/pkg/types"
)

const day = 24 * time.Hour

// State is the part of a subscription record the rules look at.
type State struct {
	Status       types.SubscriptionStatus
	TrialEndDate *time.Time
}

// IsTrialExpired reports whether a free trial has run past its end date.
// A trial ending exactly at now is still usable. Any status other than
// free_trial is never expired here, even with a stale TrialEndDate.
func IsTrialExpired(s State, now time.Time) bool {
	return s.Status == types.SubscriptionStatusFreeTrial &&
		s.TrialEndDate != nil &&
		now.After(*s.TrialEndDate)
}

// HasFeatureAccess reports whether s grants feature at now. Every premium
// feature currently shares one rule; feature is accepted so per-feature tiers
// can be added without touching callers.
func HasFeatureAccess(s State, feature types.Feature, now time.Time) bool {
	switch s.Status {
	case types.SubscriptionStatusActive:
		return true
	case types.SubscriptionStatusFreeTrial:
		return !IsTrialExpired(s, now)
	default:
		return false
	}
}

// TrialDaysRemaining is ceil((TrialEndDate-now)/24h), never negative.
func TrialDaysRemaining(s State, now time.Time) int {
	if s.TrialEndDate == nil {
		return 0
	}
	left := s.TrialEndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	days := left / day
	if left%day != 0 {
		days++
	}
	return int(days)
}
