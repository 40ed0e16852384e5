package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/pkg/logctx"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id and user_id (if present) to gin.Context and request context.
// Run it after IdentityMiddleware so the principal is known.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetString(logctx.KeyTraceID)

		fields := []any{"trace_id", traceID}
		if uid := c.GetString(logctx.KeyUserID); uid != "" {
			fields = append(fields, "user_id", uid)
		}
		reqLogger := base.With(fields...)
		c.Set(logctx.KeyLogger, reqLogger)

		// also attach to std context
		ctx := context.WithValue(c.Request.Context(), logctx.KeyLogger, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		// mirror trace id to response header when available
		if traceID != "" {
			c.Writer.Header().Set(HeaderRequestID, traceID)
		}

		c.Next()
	}
}
