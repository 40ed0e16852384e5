package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/internal/app/service/statistics"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/response"
)

// AccountManager performs the collaborator-driven lifecycle changes.
type AccountManager interface {
	StartTrial(ctx context.Context, userID string, days int) (*models.UserSubscription, error)
	CancelSubscription(ctx context.Context, userID, note string) (*models.UserSubscription, error)
}

type AuditReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.SubscriptionAuditRecord, error)
	Scan(ctx context.Context, req *audit.ScanRequest) (*audit.ScanResponse, error)
}

type StatisticReader interface {
	GetSubscriptionStatistic(ctx context.Context, req *statistics.SubscriptionStatisticRequest) (*statistics.SubscriptionStatisticResponse, error)
}

type StartTrialRequest struct {
	UserID string `json:"user_id" binding:"required"`
	// TrialDays <= 0 uses the configured trial length.
	TrialDays int `json:"trial_days"`
}

type CancelSubscriptionRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// @Summary      Start Trial (Admin)
// @Description  Creates the subscription record of a new account in free_trial. Called by account creation.
// @Tags         Admin
// @Security     InternalToken
// @Accept       json
// @Produce      json
// @Param        request body StartTrialRequest true "User and trial length"
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Router       /api/v1/admin/start_trial [post]
func ApiStartTrial(svc AccountManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartTrialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := svc.StartTrial(c.Request.Context(), req.UserID, req.TrialDays)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subscription.Project(sub, time.Now())))
	}
}

// @Summary      Cancel Subscription (Admin)
// @Description  Moves a user to canceled. Canceled users are only reactivated by an explicit upgrade.
// @Tags         Admin
// @Security     InternalToken
// @Accept       json
// @Produce      json
// @Param        request body CancelSubscriptionRequest true "User and cancel reason"
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Router       /api/v1/admin/cancel_subscription [post]
func ApiCancelSubscription(svc AccountManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CancelSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := svc.CancelSubscription(c.Request.Context(), req.UserID, req.Reason)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subscription.Project(sub, time.Now())))
	}
}

// @Summary      List User Audit Records (Admin)
// @Description  Returns the most recent subscription audit records of a user, newest first.
// @Tags         Admin
// @Security     InternalToken
// @Produce      json
// @Param        user_id path string true "User ID"
// @Param        limit query int false "Max records (default 20, max 200)"
// @Success      200  {object}  handlers.RespAuditRecords
// @Router       /api/v1/admin/users/{user_id}/audit [get]
func ApiListUserAudit(svc AuditReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid limit"))
				return
			}
			limit = n
		}
		rows, err := svc.ListRecent(c.Request.Context(), c.Param("user_id"), limit)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      List Audit Records (Admin)
// @Description  Retrieves a paginated and filterable list of subscription audit records.
// @Tags         Admin
// @Security     InternalToken
// @Accept       json
// @Produce      json
// @Param        request body audit.ScanRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespAuditScan
// @Router       /api/v1/admin/list_audit_records [post]
func ApiListAuditRecords(svc AuditReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req audit.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Subscription Statistics (Admin)
// @Description  Status counts, premium total, trial conversion and daily transitions by reason.
// @Tags         Admin
// @Security     InternalToken
// @Accept       json
// @Produce      json
// @Param        request body statistics.SubscriptionStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespSubscriptionStatistic
// @Router       /api/v1/admin/get_subscription_statistic [post]
func ApiGetSubscriptionStatistic(svc StatisticReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SubscriptionStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetSubscriptionStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, accounts AccountManager, audits AuditReader, stats StatisticReader) {
	r.POST("/start_trial", ApiStartTrial(accounts))
	r.POST("/cancel_subscription", ApiCancelSubscription(accounts))
	r.GET("/users/:user_id/audit", ApiListUserAudit(audits))
	r.POST("/list_audit_records", ApiListAuditRecords(audits))
	r.POST("/get_subscription_statistic", ApiGetSubscriptionStatistic(stats))
}
