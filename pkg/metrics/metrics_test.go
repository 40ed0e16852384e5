package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() {
		r.ObserveEntitlement("meal_plans", "allowed")
		r.ObserveTransition("free_trial", "expired", "trial_expired")
		r.ObserveProcess("subscription", "upgrade", time.Now())
	})
}

func TestRecorder_CountsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveEntitlement("meal_plans", "allowed")
	r.ObserveEntitlement("meal_plans", "allowed")
	r.ObserveEntitlement("meal_plans", "denied")
	r.ObserveTransition("free_trial", "expired", "trial_expired")

	require.Equal(t, 2.0, counterValue(r.checks.WithLabelValues("meal_plans", "allowed")))
	require.Equal(t, 1.0, counterValue(r.checks.WithLabelValues("meal_plans", "denied")))
	require.Equal(t, 1.0, counterValue(r.transitions.WithLabelValues("free_trial", "expired", "trial_expired")))

	// a second recorder on the same registry shares the collectors
	r2 := NewRecorder(reg)
	r2.ObserveEntitlement("meal_plans", "allowed")
	require.Equal(t, 3.0, counterValue(r.checks.WithLabelValues("meal_plans", "allowed")))
}

func TestPrometheus_ExposesRequestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	e := gin.New()
	p := NewPrometheus(NewPrometheusOptions{Registry: reg})
	p.Use(e)
	e.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "req_total")
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}
