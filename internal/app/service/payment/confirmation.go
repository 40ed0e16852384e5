package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/types"
)

// ConfirmRequest is a payment confirmation delivered by the billing collaborator
// after the external processor accepted a payment.
type ConfirmRequest struct {
	UserID             string                `json:"user_id" binding:"required"`
	Provider           types.PaymentProvider `json:"provider" binding:"required"`
	ExternalBillingRef string                `json:"external_billing_ref"`
}

func (r *ConfirmRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("missing user_id")
	}
	if !r.Provider.Valid() {
		return fmt.Errorf("unsupported provider: %s", r.Provider)
	}
	return nil
}

// Upgrader applies a confirmed payment to the subscription.
type Upgrader interface {
	UpgradeToPremium(ctx context.Context, userID, externalRef string) (*models.UserSubscription, error)
}

// LogSaver persists confirmation log rows.
type LogSaver interface {
	Save(ctx context.Context, log *models.PaymentConfirmationLog)
}

type ConfirmationHandler struct {
	upgrader Upgrader
	logs     LogSaver
	log      *zap.SugaredLogger
}

func NewConfirmationHandler(upgrader Upgrader, logs LogSaver, log *zap.SugaredLogger) *ConfirmationHandler {
	return &ConfirmationHandler{upgrader: upgrader, logs: logs, log: log}
}

// HandleConfirmation logs the confirmation as received, upgrades the user and
// logs the outcome as handled or handle_failed. The request is trusted: its
// authenticity is checked by the caller.
func (h *ConfirmationHandler) HandleConfirmation(ctx context.Context, req *ConfirmRequest) (sub *models.UserSubscription, resErr error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	traceID, _ := ctx.Value(logctx.KeyTraceID).(string)
	dataBytes, _ := json.Marshal(req)
	entry := func(status models.PaymentConfirmationLogStatus, result *datatypes.JSON) *models.PaymentConfirmationLog {
		return &models.PaymentConfirmationLog{
			ProviderID:         string(req.Provider),
			UserID:             req.UserID,
			TraceID:            traceID,
			ExternalBillingRef: req.ExternalBillingRef,
			Data:               datatypes.JSON(dataBytes),
			Result:             result,
			Status:             status,
		}
	}

	h.logs.Save(ctx, entry(models.PaymentConfirmationLogStatusReceived, nil))

	defer func() {
		resMap := map[string]any{}
		if sub != nil {
			resMap["status"] = sub.Status
			resMap["subscription_start_date"] = sub.SubscriptionStartDate
		}
		status := models.PaymentConfirmationLogStatusHandled
		if resErr != nil {
			resMap["error"] = resErr.Error()
			status = models.PaymentConfirmationLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		result := datatypes.JSON(resBytes)
		h.logs.Save(ctx, entry(status, &result))
	}()

	sub, resErr = h.upgrader.UpgradeToPremium(ctx, req.UserID, req.ExternalBillingRef)
	if resErr != nil {
		logctx.FromCtx(ctx, h.log).Errorw("payment_confirmation_failed", "user_id", req.UserID, "provider", req.Provider, "error", resErr)
		return nil, fmt.Errorf("failed to apply payment confirmation: %w", resErr)
	}
	logctx.FromCtx(ctx, h.log).Infow("payment_confirmation_handled", "user_id", req.UserID, "provider", req.Provider)
	return sub, nil
}
