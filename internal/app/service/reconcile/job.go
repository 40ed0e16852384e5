// Package reconcile periodically expires trials that lapsed without being
// accessed. Entitlement decisions never depend on it: they expire trials lazily.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/pkg/config"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/tool"
)

// runTimeout bounds one reconciliation run.
const runTimeout = 5 * time.Minute

// TrialExpirer is the subscription service operation the job drives.
type TrialExpirer interface {
	ExpireLapsedTrials(ctx context.Context, limit int) (int, error)
}

type Job struct {
	expirer   TrialExpirer
	log       *zap.SugaredLogger
	batchSize int

	cron *cron.Cron
	mu   sync.Mutex // one run at a time
}

func New(expirer TrialExpirer, log *zap.SugaredLogger, batchSize int) *Job {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Job{expirer: expirer, log: log, batchSize: batchSize}
}

// Run expires lapsed trials batch by batch until a batch comes back short.
// It returns the total number expired.
func (j *Job) Run(ctx context.Context) (int, error) {
	if !j.mu.TryLock() {
		j.log.Infow("reconcile_skipped", "reason", "previous run still active")
		return 0, nil
	}
	defer j.mu.Unlock()

	log := logctx.FromCtx(ctx, j.log)
	start := time.Now()
	total := 0
	for {
		n, err := j.expirer.ExpireLapsedTrials(ctx, j.batchSize)
		total += n
		if err != nil {
			return total, fmt.Errorf("reconcile stopped after %d expirations: %w", total, err)
		}
		if n < j.batchSize || ctx.Err() != nil {
			break
		}
	}
	log.Infow("reconcile_done", "expired", total, "latency_ms", time.Since(start).Milliseconds())
	return total, nil
}

// Start schedules Run on spec, a robfig/cron expression such as "@every 1h".
func (j *Job) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log := j.log.With("trace_id", tool.GenerateTraceID())
		ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), logctx.KeyLogger, log), runTimeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			log.Errorw("reconcile_failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	j.cron = c
	c.Start()
	return nil
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (j *Job) Stop(ctx context.Context) error {
	if j.cron == nil {
		return nil
	}
	select {
	case <-j.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newJob(cfg *config.Config, sub *subscription.Service, log *zap.SugaredLogger) *Job {
	return New(sub, log.With("component", "reconcile"), cfg.Reconcile.BatchSize)
}

func registerHooks(lc fx.Lifecycle, cfg *config.Config, j *Job, log *zap.SugaredLogger) {
	if !cfg.Reconcile.Enabled {
		log.Infow("reconcile disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Infow("starting reconcile job", "schedule", cfg.Reconcile.Schedule, "batch_size", cfg.Reconcile.BatchSize)
			return j.Start(cfg.Reconcile.Schedule)
		},
		OnStop: j.Stop,
	})
}

var Module = fx.Options(
	fx.Provide(newJob),
	fx.Invoke(registerHooks),
)
