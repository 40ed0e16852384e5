package logctx

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserID_RoundTrip(t *testing.T) {
	require.Equal(t, "", UserID(context.Background()))
	ctx := WithUserID(context.Background(), "u1")
	require.Equal(t, "u1", UserID(ctx))
}

func TestFromGin_PrefersRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := zap.NewNop().Sugar()
	reqLogger := zap.NewNop().Sugar().With("trace_id", "t1")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	require.Same(t, base, FromGin(c, base))

	c.Set(KeyLogger, reqLogger)
	require.Same(t, reqLogger, FromGin(c, base))
	require.Same(t, base, FromGin(nil, base))
}
