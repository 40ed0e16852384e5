package models

import (
	"time"

	"github.com/fatflowers/fitgate/pkg/types"
	"gorm.io/datatypes"
)

// SubscriptionAuditRecord records one status change of a user subscription.
// Rows are only ever inserted.
type SubscriptionAuditRecord struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_audit_user_created,priority:1" json:"user_id"`
	// FromStatus is empty for the record written when the subscription is created.
	FromStatus types.SubscriptionStatus       `gorm:"column:from_status;type:varchar(32);not null" json:"from_status"`
	ToStatus   types.SubscriptionStatus       `gorm:"column:to_status;type:varchar(32);not null" json:"to_status"`
	Reason     types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	// Metadata is a snapshot of the context of the change (timestamps, billing reference, trigger).
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time         `gorm:"column:created_at;index:idx_audit_user_created,priority:2" json:"created_at"`
}

func (SubscriptionAuditRecord) TableName() string {
	return "subscription_audit_log"
}
