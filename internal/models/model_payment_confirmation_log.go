package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentConfirmationLogStatus string

const (
	PaymentConfirmationLogStatusReceived     PaymentConfirmationLogStatus = "received"
	PaymentConfirmationLogStatusHandled      PaymentConfirmationLogStatus = "handled"
	PaymentConfirmationLogStatusHandleFailed PaymentConfirmationLogStatus = "handle_failed"
)

// PaymentConfirmationLog keeps every payment confirmation delivered to the
// service, before and after it was applied. Use case: troubleshooting.
type PaymentConfirmationLog struct {
	ID                 string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID         string                       `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	UserID             string                       `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	TraceID            string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ExternalBillingRef string                       `gorm:"column:external_billing_ref;type:varchar(255)" json:"external_billing_ref"`
	Data               datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result             *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Status             PaymentConfirmationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
}

func (PaymentConfirmationLog) TableName() string { return "payment_confirmation_log" }
