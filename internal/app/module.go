package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/fitgate/internal/app/api/server"
	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/internal/app/service/payment"
	"github.com/fatflowers/fitgate/internal/app/service/payment_log"
	"github.com/fatflowers/fitgate/internal/app/service/reconcile"
	"github.com/fatflowers/fitgate/internal/app/service/statistics"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/internal/platform/db"
	"github.com/fatflowers/fitgate/pkg/config"
	"github.com/fatflowers/fitgate/pkg/logger"
	"github.com/fatflowers/fitgate/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	server.Module,
	audit.Module,
	subscription.Module,
	statistics.Module,
	payment_log.Module,
	payment.Module,
	reconcile.Module,
)
