package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/fitgate/internal/app/api/middleware"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/response"
	"github.com/fatflowers/fitgate/pkg/types"
)

type PremiumAccessResponse struct {
	Feature      types.Feature                  `json:"feature"`
	Subscription *subscription.StatusProjection `json:"subscription,omitempty"`
}

// @Summary      Premium Feature Gate
// @Description  Admits the caller to a premium feature. Denied callers get 402 with the feature and their subscription status.
// @Tags         Premium
// @Produce      json
// @Security     BearerAuth
// @Param        feature path string true "Premium feature, e.g. meal_plans"
// @Success      200  {object}  handlers.RespPremiumAccess
// @Failure      401  {object}  handlers.RespOK
// @Failure      402  {object}  handlers.RespEntitlementDenied
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/premium/{feature} [get]
func ApiPremiumAccess(svc mw.EntitlementChecker, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		feature, _ := c.Get(mw.KeyGrantedFeature)
		out := &PremiumAccessResponse{Feature: feature.(types.Feature)}
		proj, err := svc.GetSubscriptionStatus(c.Request.Context(), mw.UserIDFrom(c))
		if err != nil {
			// access was already granted, the projection is informational
			logctx.FromGin(c, log).Warnw("premium_projection_failed", "error", err)
		} else {
			out.Subscription = proj
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

// RegisterPremiumRoutes mounts one gated group per feature at /<feature> and
// returns them so premium content handlers can be added under each gate.
func RegisterPremiumRoutes(r gin.IRouter, svc mw.EntitlementChecker, features []types.Feature, log *zap.SugaredLogger) map[types.Feature]*gin.RouterGroup {
	groups := make(map[types.Feature]*gin.RouterGroup, len(features))
	for _, f := range features {
		g := r.Group("/"+string(f), mw.RequireFeature(svc, f, log))
		g.GET("", ApiPremiumAccess(svc, log))
		groups[f] = g
	}
	return groups
}
