package audit

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/tool"
	"github.com/fatflowers/fitgate/pkg/types"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// Columns accepted in Scan filters and sorting.
var (
	filterableFields = []string{"user_id", "from_status", "to_status", "reason", "created_at"}
	sortableFields   = []string{"created_at", "user_id", "reason"}
)

// Service is the append-only subscription audit log. It deliberately has no
// update or delete operation.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// Append inserts rec. Pass the transaction that performs the status change as
// tx so both writes commit or roll back together; nil tx uses the service db.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, rec *models.SubscriptionAuditRecord) error {
	if rec == nil {
		return fmt.Errorf("nil audit record")
	}
	if rec.UserID == "" || rec.ToStatus == "" || rec.Reason == "" {
		return fmt.Errorf("incomplete audit record: user_id=%q to=%q reason=%q", rec.UserID, rec.ToStatus, rec.Reason)
	}
	if tx == nil {
		tx = s.db
	}
	if rec.ID == "" {
		rec.ID = tool.GenerateUUIDV7()
	}
	if rec.Metadata == nil {
		rec.Metadata = datatypes.JSONMap{}
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}
	return nil
}

// ListRecent returns the most recent records of a user, newest first.
func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]*models.SubscriptionAuditRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	var rows []*models.SubscriptionAuditRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return rows, nil
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.SubscriptionAuditRecord `json:"items"`
	Total int64                             `json:"total"`
}

// Scan is the paginated, filterable listing used by operator tooling.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateCommonFilters(req.Filters, filterableFields...); err != nil {
		return nil, err
	}
	if req.SortBy == "" {
		req.SortBy = "created_at"
	}
	if !lo.Contains(sortableFields, req.SortBy) {
		return nil, fmt.Errorf("cannot sort by %q", req.SortBy)
	}
	if req.Size <= 0 {
		req.Size = DefaultListLimit
	}
	req.Size = min(req.Size, MaxListLimit)
	req.From = max(req.From, 0)

	tx := s.db.WithContext(ctx).Model(&models.SubscriptionAuditRecord{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.CommonFiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit records: %w", err)
	}

	var rows []*models.SubscriptionAuditRecord
	q := tx.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}}).
		Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}
