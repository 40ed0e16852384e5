package types

// SubscriptionStatus is the lifecycle state of a user's subscription record.
type SubscriptionStatus string

const (
	SubscriptionStatusFreeTrial SubscriptionStatus = "free_trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusFreeTrial, SubscriptionStatusActive, SubscriptionStatusExpired, SubscriptionStatusCanceled:
		return true
	}
	return false
}

// SubscriptionChangeReason is recorded on every audit entry.
type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonTrialStarted      SubscriptionChangeReason = "trial_started"
	SubscriptionChangeReasonTrialExpired      SubscriptionChangeReason = "trial_expired"
	SubscriptionChangeReasonUpgradedToPremium SubscriptionChangeReason = "upgraded_to_premium"
	SubscriptionChangeReasonCanceled          SubscriptionChangeReason = "canceled"
)

// Feature identifies a premium capability. Every premium feature currently
// shares the same entitlement rule.
type Feature string

const (
	FeatureMealPlans        Feature = "meal_plans"
	FeatureWorkoutAnalysis  Feature = "workout_analysis"
	FeatureProgressInsights Feature = "progress_insights"
)

var DefaultPremiumFeatures = []Feature{
	FeatureMealPlans,
	FeatureWorkoutAnalysis,
	FeatureProgressInsights,
}
