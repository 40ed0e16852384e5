package payment_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/tool"
)

type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	pending sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment confirmation log. Nil input is ignored.
// The write outlives request cancellation; Wait blocks until it is done.
func (s *Service) Save(ctx context.Context, log *models.PaymentConfirmationLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save payment confirmation log: %v", err)
		}
	}()
}

// Wait blocks until every pending Save has finished.
func (s *Service) Wait() { s.pending.Wait() }

func registerHooks(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() { s.Wait(); close(done) }()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// Module exposes the payment confirmation log via Fx and drains pending
// writes on shutdown.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
