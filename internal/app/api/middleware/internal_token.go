package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/response"
)

// HeaderInternalToken carries the shared secret of internal callers such as
// the billing service and operator tooling.
const HeaderInternalToken = "X-Internal-Token"

// InternalTokenMiddleware admits only requests presenting token in
// X-Internal-Token. With no token configured every request is rejected.
func InternalTokenMiddleware(token string, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderInternalToken)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logctx.FromGin(c, base).Warnw("internal_token_rejected", "path", c.FullPath(), "configured", token != "")
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}
		c.Next()
	}
}
