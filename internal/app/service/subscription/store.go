package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/types"
)

// Column names accepted by Store.UpdateUser.
const (
	FieldStatus                = "status"
	FieldSubscriptionStartDate = "subscription_start_date"
	FieldSubscriptionExpiresAt = "subscription_expires_at"
	FieldExternalBillingRef    = "external_billing_ref"
)

// Store is the persistence the subscription service depends on.
type Store interface {
	// GetUser returns nil and no error when the user has no record.
	GetUser(ctx context.Context, userID string) (*models.UserSubscription, error)
	CreateUser(ctx context.Context, sub *models.UserSubscription) error
	// UpdateUser writes fields only while the record's status is one of from,
	// and reports whether a row was changed. Columns not in fields are left alone.
	UpdateUser(ctx context.Context, userID string, from []types.SubscriptionStatus, fields map[string]any) (bool, error)
	CreateAuditRecord(ctx context.Context, rec *models.SubscriptionAuditRecord) error
	// ListLapsedTrials returns users still in free_trial whose trial ended before now.
	ListLapsedTrials(ctx context.Context, now time.Time, limit int) ([]string, error)
	// Transaction runs fn against a Store bound to one transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore is the postgres Store. Audit rows go through the audit log writer
// on the same *gorm.DB, so inside Transaction they share the status update's transaction.
type GormStore struct {
	db    *gorm.DB
	audit *audit.Service
}

func NewGormStore(db *gorm.DB, auditSvc *audit.Service) *GormStore {
	return &GormStore{db: db, audit: auditSvc}
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user subscription: %w", err)
	}
	return &sub, nil
}

func (s *GormStore) CreateUser(ctx context.Context, sub *models.UserSubscription) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user subscription: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateUser(ctx context.Context, userID string, from []types.SubscriptionStatus, fields map[string]any) (bool, error) {
	if len(from) == 0 || len(fields) == 0 {
		return false, fmt.Errorf("update of user %s needs expected statuses and fields", userID)
	}
	res := s.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("user_id = ? AND status IN ?", userID, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update user subscription: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateAuditRecord(ctx context.Context, rec *models.SubscriptionAuditRecord) error {
	return s.audit.Append(ctx, s.db, rec)
}

func (s *GormStore) ListLapsedTrials(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("status = ? AND trial_end_date < ?", types.SubscriptionStatusFreeTrial, now).
		Order("trial_end_date").
		Limit(limit).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed trials: %w", err)
	}
	return ids, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, audit: s.audit})
	})
}
