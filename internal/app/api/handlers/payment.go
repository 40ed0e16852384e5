package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fitgate/internal/app/service/payment"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/response"
)

// Confirmer applies payment confirmations.
type Confirmer interface {
	HandleConfirmation(ctx context.Context, req *payment.ConfirmRequest) (*models.UserSubscription, error)
}

// @Summary      Confirm Payment
// @Description  Trusted internal call made after the payment processor accepted a payment. Upgrades the user to premium.
// @Tags         Payment
// @Security     InternalToken
// @Accept       json
// @Produce      json
// @Param        request body payment.ConfirmRequest true "Payment confirmation"
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Router       /api/v1/payment/confirm [post]
func ApiConfirmPayment(h Confirmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := h.HandleConfirmation(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subscription.Project(sub, time.Now())))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, h Confirmer) {
	r.POST("/confirm", ApiConfirmPayment(h))
}
