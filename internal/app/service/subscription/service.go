package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/fitgate/internal/app/service/entitlement"
	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/config"
	"github.com/fatflowers/fitgate/pkg/logctx"
	"github.com/fatflowers/fitgate/pkg/metrics"
	"github.com/fatflowers/fitgate/pkg/tool"
	"github.com/fatflowers/fitgate/pkg/types"
)

// maxTransitionAttempts bounds how often a transition is retried after another
// writer moved the status between our read and our guarded update.
const maxTransitionAttempts = 3

// Entitlement decision labels used in metrics and logs.
const (
	ResultAllowed     = "allowed"
	ResultDenied      = "denied"
	ResultUnknownUser = "unknown_user"
	ResultError       = "error"
)

// Service owns the subscription state machine. Every status change goes
// through a guarded update and writes its audit record in the same transaction.
type Service struct {
	cfg     *config.Config
	store   Store
	log     *zap.SugaredLogger
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewService(cfg *config.Config, store Store, log *zap.SugaredLogger, rec *metrics.Recorder) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		log:     log,
		metrics: rec,
		now:     time.Now,
	}
}

// StatusProjection is the read model returned to clients.
type StatusProjection struct {
	UserID                string                   `json:"user_id"`
	Status                types.SubscriptionStatus `json:"status"`
	TrialStartDate        *time.Time               `json:"trial_start_date"`
	TrialEndDate          *time.Time               `json:"trial_end_date"`
	TrialExpired          bool                     `json:"trial_expired"`
	TrialDaysRemaining    int                      `json:"trial_days_remaining"`
	SubscriptionStartDate *time.Time               `json:"subscription_start_date"`
	SubscriptionExpiresAt *time.Time               `json:"subscription_expires_at"`
	HasActiveSubscription bool                     `json:"has_active_subscription"`
}

// CheckAndUpdateTrialStatus returns the user's record after moving a lapsed
// trial to expired. Calling it again once expired changes nothing.
func (s *Service) CheckAndUpdateTrialStatus(ctx context.Context, userID string) (*models.UserSubscription, error) {
	return s.refresh(ctx, userID, s.now())
}

func (s *Service) refresh(ctx context.Context, userID string, now time.Time) (*models.UserSubscription, error) {
	sub, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrEntitlementCheckFailed, err)
	}
	if sub == nil {
		return nil, ErrUserNotFound
	}
	if !entitlement.IsTrialExpired(sub.State(), now) {
		return sub, nil
	}

	expired, changed, err := s.transition(ctx, sub, transition{
		from:   []types.SubscriptionStatus{types.SubscriptionStatusFreeTrial},
		to:     types.SubscriptionStatusExpired,
		reason: types.SubscriptionChangeReasonTrialExpired,
		metadata: datatypes.JSONMap{
			"trial_end_date": sub.TrialEndDate.UTC().Format(time.RFC3339Nano),
			"detected_at":    now.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, errors.Join(ErrEntitlementCheckFailed, fmt.Errorf("failed to expire trial of user %s: %w", userID, err))
	}
	if expired == nil {
		return nil, ErrUserNotFound
	}
	if changed {
		logctx.FromCtx(ctx, s.log).Infow("trial_expired", "user_id", userID, "trial_end_date", sub.TrialEndDate)
	}
	return expired, nil
}

// CheckFeatureAccess reports whether userID may use feature right now. An
// unknown user is denied without an error; a store failure is returned as an
// error wrapping ErrEntitlementCheckFailed and never as a decision.
func (s *Service) CheckFeatureAccess(ctx context.Context, userID string, feature types.Feature) (bool, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("entitlement", "check_feature", start)

	now := s.now()
	sub, err := s.refresh(ctx, userID, now)
	if errors.Is(err, ErrUserNotFound) {
		s.metrics.ObserveEntitlement(string(feature), ResultUnknownUser)
		return false, nil
	}
	if err != nil {
		s.metrics.ObserveEntitlement(string(feature), ResultError)
		logctx.FromCtx(ctx, s.log).Errorw("entitlement_check_failed", "user_id", userID, "feature", feature, "error", err)
		return false, err
	}

	allowed := entitlement.HasFeatureAccess(sub.State(), feature, now)
	if allowed {
		s.metrics.ObserveEntitlement(string(feature), ResultAllowed)
	} else {
		s.metrics.ObserveEntitlement(string(feature), ResultDenied)
	}
	return allowed, nil
}

// GetSubscriptionStatus returns the projection of userID, or nil when the user
// has no record.
func (s *Service) GetSubscriptionStatus(ctx context.Context, userID string) (*StatusProjection, error) {
	now := s.now()
	sub, err := s.refresh(ctx, userID, now)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Project(sub, now), nil
}

// Project builds the read model of sub at now.
func Project(sub *models.UserSubscription, now time.Time) *StatusProjection {
	state := sub.State()
	p := &StatusProjection{
		UserID:                sub.UserID,
		Status:                sub.Status,
		TrialStartDate:        sub.TrialStartDate,
		TrialEndDate:          sub.TrialEndDate,
		SubscriptionStartDate: sub.SubscriptionStartDate,
		SubscriptionExpiresAt: sub.SubscriptionExpiresAt,
		HasActiveSubscription: sub.Status == types.SubscriptionStatusActive,
	}
	// an expired record keeps its trial dates, so a lapsed trial still reads as expired
	p.TrialExpired = entitlement.IsTrialExpired(state, now) ||
		(sub.Status == types.SubscriptionStatusExpired && sub.TrialEndDate != nil)
	if sub.Status == types.SubscriptionStatusFreeTrial {
		p.TrialDaysRemaining = entitlement.TrialDaysRemaining(state, now)
	}
	return p
}

// upgradableStatuses are the statuses UpgradeToPremium moves to active.
// Canceled is terminal and never among them.
var upgradableStatuses = []types.SubscriptionStatus{
	types.SubscriptionStatusFreeTrial,
	types.SubscriptionStatusExpired,
	types.SubscriptionStatusActive,
}

// UpgradeToPremium moves the user to active with an open-ended subscription.
// Re-upgrading an active user renews it and is audited again. A canceled user
// gets ErrSubscriptionCanceled, also when the cancel lands while the upgrade
// retries. Trial dates are kept as history. An empty externalRef keeps the
// stored one.
func (s *Service) UpgradeToPremium(ctx context.Context, userID, externalRef string) (*models.UserSubscription, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("subscription", "upgrade", start)

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		sub, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, errors.Join(ErrEntitlementCheckFailed, err)
		}
		if sub == nil {
			return nil, ErrUserNotFound
		}
		if sub.Status == types.SubscriptionStatusCanceled {
			return nil, ErrSubscriptionCanceled
		}
		if !lo.Contains(upgradableStatuses, sub.Status) {
			return nil, fmt.Errorf("cannot upgrade user %s from status %q", userID, sub.Status)
		}

		now := s.now()
		fields := map[string]any{
			FieldSubscriptionStartDate: now,
			FieldSubscriptionExpiresAt: nil,
		}
		metadata := datatypes.JSONMap{
			"subscription_start_date": now.UTC().Format(time.RFC3339Nano),
		}
		if externalRef != "" {
			fields[FieldExternalBillingRef] = externalRef
			metadata["external_billing_ref"] = externalRef
		}

		upgraded, changed, err := s.transition(ctx, sub, transition{
			from:     []types.SubscriptionStatus{sub.Status},
			to:       types.SubscriptionStatusActive,
			reason:   types.SubscriptionChangeReasonUpgradedToPremium,
			fields:   fields,
			metadata: metadata,
		})
		if err != nil {
			return nil, errors.Join(ErrEntitlementCheckFailed, fmt.Errorf("failed to upgrade user %s: %w", userID, err))
		}
		if changed {
			logctx.FromCtx(ctx, s.log).Infow("upgraded_to_premium", "user_id", userID, "from", sub.Status, "external_billing_ref", externalRef)
			return upgraded, nil
		}
		logctx.FromCtx(ctx, s.log).Warnw("upgrade_conflict", "user_id", userID, "attempt", attempt+1, "seen_status", sub.Status)
	}
	return nil, errors.Join(ErrEntitlementCheckFailed, fmt.Errorf("status of user %s kept changing during upgrade", userID))
}

// StartTrial creates the subscription record of a new user in free_trial.
// days <= 0 uses the configured trial length.
func (s *Service) StartTrial(ctx context.Context, userID string, days int) (*models.UserSubscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	length := s.cfg.TrialDuration()
	if days > 0 {
		length = time.Duration(days) * 24 * time.Hour
	}
	now := s.now()
	end := now.Add(length)
	sub := &models.UserSubscription{
		ID:             tool.GenerateUUIDV7(),
		UserID:         userID,
		Status:         types.SubscriptionStatusFreeTrial,
		TrialStartDate: &now,
		TrialEndDate:   &end,
	}

	err := s.store.Transaction(ctx, func(tx Store) error {
		existing, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUserExists
		}
		if err := tx.CreateUser(ctx, sub); err != nil {
			return err
		}
		return tx.CreateAuditRecord(ctx, &models.SubscriptionAuditRecord{
			UserID:   userID,
			ToStatus: types.SubscriptionStatusFreeTrial,
			Reason:   types.SubscriptionChangeReasonTrialStarted,
			Metadata: datatypes.JSONMap{
				"trial_start_date": now.UTC().Format(time.RFC3339Nano),
				"trial_end_date":   end.UTC().Format(time.RFC3339Nano),
			},
		})
	})
	if errors.Is(err, ErrUserExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start trial for user %s: %w", userID, err)
	}
	s.metrics.ObserveTransition("", string(types.SubscriptionStatusFreeTrial), string(types.SubscriptionChangeReasonTrialStarted))
	logctx.FromCtx(ctx, s.log).Infow("trial_started", "user_id", userID, "trial_end_date", end)
	return sub, nil
}

// CancelSubscription moves the user to canceled. Canceling an already canceled
// subscription returns it unchanged and writes no audit record.
func (s *Service) CancelSubscription(ctx context.Context, userID, note string) (*models.UserSubscription, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		sub, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, errors.Join(ErrEntitlementCheckFailed, err)
		}
		if sub == nil {
			return nil, ErrUserNotFound
		}
		if sub.Status == types.SubscriptionStatusCanceled {
			return sub, nil
		}

		metadata := datatypes.JSONMap{"canceled_at": s.now().UTC().Format(time.RFC3339Nano)}
		if note != "" {
			metadata["note"] = note
		}
		canceled, changed, err := s.transition(ctx, sub, transition{
			from:     []types.SubscriptionStatus{sub.Status},
			to:       types.SubscriptionStatusCanceled,
			reason:   types.SubscriptionChangeReasonCanceled,
			metadata: metadata,
		})
		if err != nil {
			return nil, errors.Join(ErrEntitlementCheckFailed, fmt.Errorf("failed to cancel user %s: %w", userID, err))
		}
		if changed {
			logctx.FromCtx(ctx, s.log).Infow("subscription_canceled", "user_id", userID, "from", sub.Status)
			return canceled, nil
		}
	}
	return nil, errors.Join(ErrEntitlementCheckFailed, fmt.Errorf("status of user %s kept changing during cancel", userID))
}

// ExpireLapsedTrials expires up to limit trials whose end date has passed and
// returns how many of them ended up expired. A failure on one user does not
// stop the batch.
func (s *Service) ExpireLapsedTrials(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("subscription", "expire_lapsed_trials", start)

	now := s.now()
	ids, err := s.store.ListLapsedTrials(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	var expired int
	var errs []error
	for _, id := range ids {
		sub, err := s.refresh(ctx, id, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sub.Status == types.SubscriptionStatusExpired {
			expired++
		}
	}
	return expired, errors.Join(errs...)
}

type transition struct {
	from     []types.SubscriptionStatus
	to       types.SubscriptionStatus
	reason   types.SubscriptionChangeReason
	fields   map[string]any
	metadata datatypes.JSONMap
}

// transition applies t to sub inside one transaction. changed is false when the
// guarded update matched no row, in which case nothing is audited and the
// current record is returned as is.
func (s *Service) transition(ctx context.Context, sub *models.UserSubscription, t transition) (*models.UserSubscription, bool, error) {
	fields := make(map[string]any, len(t.fields)+1)
	for k, v := range t.fields {
		fields[k] = v
	}
	fields[FieldStatus] = t.to

	var (
		out     *models.UserSubscription
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		var err error
		changed, err = tx.UpdateUser(ctx, sub.UserID, t.from, fields)
		if err != nil {
			return err
		}
		if changed {
			if err = tx.CreateAuditRecord(ctx, &models.SubscriptionAuditRecord{
				UserID:     sub.UserID,
				FromStatus: sub.Status,
				ToStatus:   t.to,
				Reason:     t.reason,
				Metadata:   t.metadata,
			}); err != nil {
				return err
			}
		}
		out, err = tx.GetUser(ctx, sub.UserID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.metrics.ObserveTransition(string(sub.Status), string(t.to), string(t.reason))
		logctx.FromCtx(ctx, s.log).Infow("subscription_transition",
			"user_id", sub.UserID,
			"from", sub.Status,
			"to", t.to,
			"reason", t.reason,
		)
	}
	return out, changed, nil
}
