package handlers

import (
	"github.com/fatflowers/fitgate/internal/app/api/middleware"
	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/internal/app/service/statistics"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespSubscriptionStatus wraps a subscription projection in the standard envelope.
type RespSubscriptionStatus struct {
	Code    response.APIResponseCode      `json:"code"`
	Message string                        `json:"message"`
	Data    subscription.StatusProjection `json:"data"`
}

type RespCheckFeature struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CheckFeatureResponse     `json:"data"`
}

type RespPremiumAccess struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    PremiumAccessResponse    `json:"data"`
}

// RespEntitlementDenied is the 402 body of gated routes.
type RespEntitlementDenied struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    middleware.EntitlementDenied `json:"data"`
}

type RespAuditRecords struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    []*models.SubscriptionAuditRecord `json:"data"`
}

type RespAuditScan struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    audit.ScanResponse       `json:"data"`
}

// RespSubscriptionStatistic wraps SubscriptionStatisticResponse in the standard envelope.
type RespSubscriptionStatistic struct {
	Code    response.APIResponseCode                 `json:"code"`
	Message string                                   `json:"message"`
	Data    statistics.SubscriptionStatisticResponse `json:"data"`
}
