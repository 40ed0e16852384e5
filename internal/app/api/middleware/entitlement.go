package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/response"
	"github.com/fatflowers/fitgate/pkg/types"
)

// KeyGrantedFeature holds the feature a request was admitted for.
const KeyGrantedFeature = "granted_feature"

// EntitlementChecker is the part of the subscription service the gate needs.
type EntitlementChecker interface {
	CheckFeatureAccess(ctx context.Context, userID string, feature types.Feature) (bool, error)
	GetSubscriptionStatus(ctx context.Context, userID string) (*subscription.StatusProjection, error)
}

// EntitlementDenied is the body data of a 402 response.
type EntitlementDenied struct {
	Feature      types.Feature                  `json:"feature"`
	Subscription *subscription.StatusProjection `json:"subscription,omitempty"`
}

// RequireFeature admits a request only when its principal is entitled to
// feature. It must run after IdentityMiddleware. Any failure to decide ends in
// a 500, never in an admitted request.
func RequireFeature(checker EntitlementChecker, feature types.Feature, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserIDFrom(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}

		ctx := c.Request.Context()
		log := logctx.FromGin(c, base)

		allowed, err := checker.CheckFeatureAccess(ctx, userID, feature)
		if err != nil {
			log.Errorw("entitlement_gate_failed", "feature", feature, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeEntitlementCheckFailed, nil))
			return
		}
		if !allowed {
			denied := EntitlementDenied{Feature: feature}
			proj, err := checker.GetSubscriptionStatus(ctx, userID)
			if err != nil {
				log.Warnw("entitlement_denied_projection_failed", "feature", feature, "error", err)
			} else {
				denied.Subscription = proj
			}
			log.Infow("entitlement_denied", "feature", feature)
			c.AbortWithStatusJSON(http.StatusPaymentRequired, response.ErrorT(response.APIResponseCodeEntitlementDenied, denied))
			return
		}

		c.Set(KeyGrantedFeature, feature)
		c.Next()
	}
}
