package models

import (
	"testing"
	"time"

	"github.com/fatflowers/fitgate/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestTableNames(t *testing.T) {
	require.Equal(t, "user_subscription", UserSubscription{}.TableName())
	require.Equal(t, "subscription_audit_log", SubscriptionAuditRecord{}.TableName())
	require.Equal(t, "payment_confirmation_log", PaymentConfirmationLog{}.TableName())
}

func TestUserSubscription_State(t *testing.T) {
	var nilSub *UserSubscription
	require.Equal(t, types.SubscriptionStatus(""), nilSub.State().Status)

	end := time.Unix(1735689600, 0)
	s := &UserSubscription{Status: types.SubscriptionStatusFreeTrial, TrialEndDate: &end}
	require.Equal(t, types.SubscriptionStatusFreeTrial, s.State().Status)
	require.Equal(t, &end, s.State().TrialEndDate)
}
