package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fatflowers/fitgate/pkg/config"
)

// New builds the process logger. Dev keeps JSON output but logs at debug level
// so gorm traces and entitlement decisions are visible locally.
func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	if cfg != nil && cfg.Env == config.EnvDev {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("service", "fitgate"), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
