package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/docs"
	"github.com/fatflowers/fitgate/internal/app/api/handlers"
	mw "github.com/fatflowers/fitgate/internal/app/api/middleware"
	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/internal/app/service/payment"
	"github.com/fatflowers/fitgate/internal/app/service/statistics"
	subsvc "github.com/fatflowers/fitgate/internal/app/service/subscription"
	cfgpkg "github.com/fatflowers/fitgate/pkg/config"
	metrics "github.com/fatflowers/fitgate/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; identity, request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log          *zap.SugaredLogger
	Cfg          *cfgpkg.Config
	Subscription *subsvc.Service
	Audit        *audit.Service
	Stats        *statistics.Service
	Payments     *payment.ConfirmationHandler
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log, cfg := d.Log, d.Cfg

	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	requestLogging := []gin.HandlerFunc{mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log)}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(requestLogging...)
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.IdentityMiddleware(cfg.Auth.JWTSecret, log))
	apiV1.Use(requestLogging...)

	// Caller-facing APIs, identity required
	handlers.RegisterSubscriptionRoutes(apiV1.Group("/subscription", mw.RequireIdentity()), d.Subscription)
	handlers.RegisterPremiumRoutes(apiV1.Group("/premium"), d.Subscription, cfg.PremiumFeatures(), log)

	// Internal APIs, shared token required
	internal := mw.InternalTokenMiddleware(cfg.Auth.InternalToken, log)
	handlers.RegisterPaymentRoutes(apiV1.Group("/payment", internal), d.Payments)
	handlers.RegisterAdminRoutes(apiV1.Group("/admin", internal), d.Subscription, d.Audit, d.Stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
