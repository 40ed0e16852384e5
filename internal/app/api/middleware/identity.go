package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/response"
)

var errNoSecret = errors.New("no jwt secret configured")

// IdentityMiddleware surfaces the authenticated principal of a request. It
// verifies an HS256 bearer token issued by the auth service and stores its
// subject as user_id on gin.Context and the request context.
//
// A request without an Authorization header passes through without identity;
// routes that need one reject it later. A header that does not verify is
// rejected with 401.
func IdentityMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		userID, err := parseBearer(header, secret)
		if err != nil {
			logctx.FromGin(c, base).Infow("identity_rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}

		c.Set(logctx.KeyUserID, userID)
		c.Request = c.Request.WithContext(logctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func parseBearer(header, secret string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("authorization header is not a bearer token")
	}
	if secret == "" {
		return "", errNoSecret
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// UserIDFrom returns the principal set by IdentityMiddleware, or "".
func UserIDFrom(c *gin.Context) string {
	if uid := c.GetString(logctx.KeyUserID); uid != "" {
		return uid
	}
	return logctx.UserID(c.Request.Context())
}

// RequireIdentity rejects requests without a principal with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFrom(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}
		c.Next()
	}
}
