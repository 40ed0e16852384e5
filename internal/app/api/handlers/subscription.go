package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/fitgate/internal/app/api/middleware"
	"github.com/fatflowers/fitgate/pkg/response"
	"github.com/fatflowers/fitgate/pkg/types"
)

type CheckFeatureRequest struct {
	Feature types.Feature `json:"feature" binding:"required"`
}

type CheckFeatureResponse struct {
	Feature types.Feature `json:"feature"`
	Allowed bool          `json:"allowed"`
}

// @Summary      Get Subscription Status
// @Description  Returns the caller's subscription projection. A lapsed trial is expired before it is returned.
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/subscription/status [get]
func ApiGetSubscriptionStatus(svc mw.EntitlementChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		proj, err := svc.GetSubscriptionStatus(c.Request.Context(), mw.UserIDFrom(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		if proj == nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUserNotFound, nil))
			return
		}
		c.JSON(http.StatusOK, response.OKT(proj))
	}
}

// @Summary      Check Feature Access
// @Description  Reports whether the caller may use a premium feature right now.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckFeatureRequest true "Feature to check"
// @Success      200  {object}  handlers.RespCheckFeature
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/subscription/check_feature [post]
func ApiCheckFeature(svc mw.EntitlementChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckFeatureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		allowed, err := svc.CheckFeatureAccess(c.Request.Context(), mw.UserIDFrom(c), req.Feature)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CheckFeatureResponse{Feature: req.Feature, Allowed: allowed}))
	}
}

// RegisterSubscriptionRoutes mounts the caller-facing subscription endpoints.
// r must require an identity.
func RegisterSubscriptionRoutes(r gin.IRouter, svc mw.EntitlementChecker) {
	r.GET("/status", ApiGetSubscriptionStatus(svc))
	r.POST("/check_feature", ApiCheckFeature(svc))
}
