package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/types"
)

type StatisticType string

const (
	// Current state of user_subscription
	StatisticTypeStatusCount        StatisticType = "status_count"
	StatisticTypeTotalPremiumCount  StatisticType = "total_premium_count"
	StatisticTypeTrialConversionBps StatisticType = "trial_conversion_bps"

	// Derived from the audit log
	StatisticTypeDailyTransitionCount StatisticType = "daily_transition_count"
	StatisticTypeDailyNewTrialCount   StatisticType = "daily_new_trial_count"
)

// Filter fields and the statistic types they apply to. Audit based
// statistics are filtered on the audit row's creation time and reason.
var validFilters = map[string][]StatisticType{
	"created_at": {StatisticTypeDailyTransitionCount, StatisticTypeDailyNewTrialCount},
	"reason":     {StatisticTypeDailyTransitionCount},
}

type SubscriptionStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type SubscriptionStatisticRequest struct {
	Filters   []*types.CommonFilter            `json:"filters"`
	DataItems []*SubscriptionStatisticDataItem `json:"data_items"`
}

var statisticTypes = []StatisticType{
	StatisticTypeStatusCount,
	StatisticTypeTotalPremiumCount,
	StatisticTypeTrialConversionBps,
	StatisticTypeDailyTransitionCount,
	StatisticTypeDailyNewTrialCount,
}

func (r *SubscriptionStatisticRequest) Validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return fmt.Errorf("no data items requested")
	}
	for _, item := range r.DataItems {
		if item == nil {
			return fmt.Errorf("nil data item")
		}
		if !lo.Contains(statisticTypes, item.ID) {
			return fmt.Errorf("invalid data item id: %s", item.ID)
		}
	}
	return types.ValidateCommonFilters(r.Filters, lo.Keys(validFilters)...)
}

// filtersFor keeps the filters that apply to statisticType.
func (r *SubscriptionStatisticRequest) filtersFor(statisticType StatisticType) types.CommonFiltersAnd {
	return lo.Filter(r.Filters, func(f *types.CommonFilter, _ int) bool {
		return lo.Contains(validFilters[f.Field], statisticType)
	})
}

type SubscriptionStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
	// Value2 and Value3 carry the denominator and numerator of rate statistics.
	Value2 int64 `json:"value2,omitempty"`
	Value3 int64 `json:"value3,omitempty"`
}

type SubscriptionStatisticResponse struct {
	DataItems map[StatisticType][]SubscriptionStatisticResponseDataItem `json:"data_items"`
}

// Service answers operator statistics queries. It only reads.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getStatusCount(ctx context.Context, _ *SubscriptionStatisticRequest) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserSubscription{}).TableName()).
		Select("status as label, count(*) as value").
		Group("status").
		Order("status")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalPremiumCount(ctx context.Context, _ *SubscriptionStatisticRequest) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserSubscription{}).TableName()).
		Select("count(*) as value").
		Where("status = ?", types.SubscriptionStatusActive)
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyTransitionCount(ctx context.Context, request *SubscriptionStatisticRequest) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.SubscriptionAuditRecord{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, reason as label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.filtersFor(StatisticTypeDailyTransitionCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("reason").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewTrialCount(ctx context.Context, request *SubscriptionStatisticRequest) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.SubscriptionAuditRecord{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(DISTINCT user_id) as value").
		Where("reason = ?", types.SubscriptionChangeReasonTrialStarted).
		Where(clause.Where{Exprs: []clause.Expression{request.filtersFor(StatisticTypeDailyNewTrialCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getTrialConversionBps is the share of users that ever started a trial and
// later upgraded, in basis points.
func (s *Service) getTrialConversionBps(ctx context.Context, _ *SubscriptionStatisticRequest) ([]SubscriptionStatisticResponseDataItem, error) {
	var results []SubscriptionStatisticResponseDataItem
	sql := `
WITH trials AS (
  SELECT user_id, MIN(created_at) AS started_at
  FROM subscription_audit_log
  WHERE reason = ?
  GROUP BY user_id
),
converted AS (
  SELECT DISTINCT t.user_id
  FROM trials t
  JOIN subscription_audit_log a ON a.user_id = t.user_id AND a.reason = ? AND a.created_at >= t.started_at
)
SELECT
  CASE WHEN (SELECT COUNT(*) FROM trials) = 0 THEN 0
       ELSE CAST((SELECT COUNT(*) FROM converted) * 10000 / (SELECT COUNT(*) FROM trials) AS INTEGER)
  END AS value,
  (SELECT COUNT(*) FROM trials) AS value2,
  (SELECT COUNT(*) FROM converted) AS value3`
	err := s.db.WithContext(ctx).
		Raw(sql, types.SubscriptionChangeReasonTrialStarted, types.SubscriptionChangeReasonUpgradedToPremium).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *SubscriptionStatisticRequest, dataItem *SubscriptionStatisticDataItem) ([]SubscriptionStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeStatusCount:
		return s.getStatusCount(ctx, request)
	case StatisticTypeTotalPremiumCount:
		return s.getTotalPremiumCount(ctx, request)
	case StatisticTypeDailyTransitionCount:
		return s.getDailyTransitionCount(ctx, request)
	case StatisticTypeDailyNewTrialCount:
		return s.getDailyNewTrialCount(ctx, request)
	case StatisticTypeTrialConversionBps:
		return s.getTrialConversionBps(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetSubscriptionStatistic computes the requested data items concurrently.
// The first failing item fails the whole request.
func (s *Service) GetSubscriptionStatistic(ctx context.Context, request *SubscriptionStatisticRequest) (*SubscriptionStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan lo.Entry[StatisticType, []SubscriptionStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *SubscriptionStatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", di.ID, err)
				return
			}
			resChan <- lo.Entry[StatisticType, []SubscriptionStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}
	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	results := make(map[StatisticType][]SubscriptionStatisticResponseDataItem, len(request.DataItems))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &SubscriptionStatisticResponse{DataItems: results}, nil
}
