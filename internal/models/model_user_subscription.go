package models

import (
	"time"

	"github.com/fatflowers/fitgate/internal/app/service/entitlement"
	"github.com/fatflowers/fitgate/pkg/types"
)

// UserSubscription is the subscription record of one user.
// It is created with the account (status free_trial) and never deleted.
type UserSubscription struct {
	ID     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string                   `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null;index:idx_status_trial_end,priority:1" json:"status"`
	// TrialStartDate and TrialEndDate are set once the user has been on free_trial
	// and are kept afterwards as historical facts.
	TrialStartDate *time.Time `gorm:"column:trial_start_date" json:"trial_start_date"`
	TrialEndDate   *time.Time `gorm:"column:trial_end_date;index:idx_status_trial_end,priority:2" json:"trial_end_date"`
	// SubscriptionExpiresAt nil means an open-ended paid subscription.
	SubscriptionStartDate *time.Time `gorm:"column:subscription_start_date" json:"subscription_start_date"`
	SubscriptionExpiresAt *time.Time `gorm:"column:subscription_expires_at" json:"subscription_expires_at"`
	// ExternalBillingRef is the payment processor reference of the last upgrade.
	ExternalBillingRef *string   `gorm:"column:external_billing_ref;type:varchar(255)" json:"external_billing_ref"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscription"
}

// State is the minimal view the entitlement policy needs.
func (u *UserSubscription) State() entitlement.State {
	if u == nil {
		return entitlement.State{}
	}
	return entitlement.State{Status: u.Status, TrialEndDate: u.TrialEndDate}
}
