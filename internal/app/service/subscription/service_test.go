package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatflowers/fitgate/internal/models"
	"github.com/fatflowers/fitgate/pkg/config"
	"github.com/fatflowers/fitgate/pkg/metrics"
	"github.com/fatflowers/fitgate/pkg/types"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory Store. Transactions are serialized and roll back
// users and audits when fn fails.
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	users  map[string]*models.UserSubscription
	audits []*models.SubscriptionAuditRecord
	reads  int

	getErr   error
	auditErr error
	// onUpdate runs once, under the lock, before the next guarded update.
	onUpdate func(m *memStore)
}

func newMemStore(subs ...*models.UserSubscription) *memStore {
	m := &memStore{users: map[string]*models.UserSubscription{}}
	for _, s := range subs {
		m.users[s.UserID] = s
	}
	return m
}

func (m *memStore) GetUser(_ context.Context, userID string) (*models.UserSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(_ context.Context, sub *models.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[sub.UserID]; ok {
		return ErrUserExists
	}
	cp := *sub
	m.users[sub.UserID] = &cp
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, userID string, from []types.SubscriptionStatus, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onUpdate != nil {
		hook := m.onUpdate
		m.onUpdate = nil
		hook(m)
	}
	u, ok := m.users[userID]
	if !ok || !lo.Contains(from, u.Status) {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case FieldStatus:
			u.Status = v.(types.SubscriptionStatus)
		case FieldSubscriptionStartDate:
			t := v.(time.Time)
			u.SubscriptionStartDate = &t
		case FieldSubscriptionExpiresAt:
			if t, ok := v.(time.Time); ok {
				u.SubscriptionExpiresAt = &t
			} else {
				u.SubscriptionExpiresAt = nil
			}
		case FieldExternalBillingRef:
			ref := v.(string)
			u.ExternalBillingRef = &ref
		}
	}
	return true, nil
}

func (m *memStore) CreateAuditRecord(_ context.Context, rec *models.SubscriptionAuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auditErr != nil {
		return m.auditErr
	}
	cp := *rec
	m.audits = append(m.audits, &cp)
	return nil
}

func (m *memStore) ListLapsedTrials(_ context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, u := range m.users {
		if u.Status == types.SubscriptionStatusFreeTrial && u.TrialEndDate != nil && u.TrialEndDate.Before(now) {
			ids = append(ids, id)
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := make(map[string]*models.UserSubscription, len(m.users))
	for k, v := range m.users {
		cp := *v
		users[k] = &cp
	}
	audits := len(m.audits)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users = users
		m.audits = m.audits[:audits]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) user(id string) *models.UserSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audits)
}

func newTestService(store Store) *Service {
	svc := NewService(&config.Config{}, store, zap.NewNop().Sugar(), metrics.NewRecorder(prometheus.NewRegistry()))
	svc.now = func() time.Time { return testNow }
	return svc
}

func trialUser(id string, end time.Time) *models.UserSubscription {
	start := end.Add(-7 * 24 * time.Hour)
	return &models.UserSubscription{
		ID:             id + "-id",
		UserID:         id,
		Status:         types.SubscriptionStatusFreeTrial,
		TrialStartDate: &start,
		TrialEndDate:   &end,
	}
}

func TestLapsedTrialIsExpiredOnAccess(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(trialUser("u1", testNow.Add(-24*time.Hour)))
	svc := newTestService(store)

	allowed, err := svc.CheckFeatureAccess(ctx, "u1", types.FeatureMealPlans)
	require.NoError(t, err)
	require.False(t, allowed)

	require.Equal(t, types.SubscriptionStatusExpired, store.user("u1").Status)
	require.Len(t, store.audits, 1)
	rec := store.audits[0]
	assert.Equal(t, types.SubscriptionStatusFreeTrial, rec.FromStatus)
	assert.Equal(t, types.SubscriptionStatusExpired, rec.ToStatus)
	assert.Equal(t, types.SubscriptionChangeReasonTrialExpired, rec.Reason)
	assert.NotEmpty(t, rec.Metadata["trial_end_date"])

	proj, err := svc.GetSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, proj)
	assert.Equal(t, types.SubscriptionStatusExpired, proj.Status)
	assert.True(t, proj.TrialExpired)
	assert.Equal(t, 0, proj.TrialDaysRemaining)
	assert.False(t, proj.HasActiveSubscription)
	// the status read must not audit again
	assert.Equal(t, 1, store.auditCount())
}

func TestRunningTrialGrantsAccess(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(trialUser("u1", testNow.Add(3*24*time.Hour)))
	svc := newTestService(store)

	allowed, err := svc.CheckFeatureAccess(ctx, "u1", types.FeatureMealPlans)
	require.NoError(t, err)
	require.True(t, allowed)

	proj, err := svc.GetSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, proj.TrialDaysRemaining)
	assert.False(t, proj.TrialExpired)
	assert.Equal(t, types.SubscriptionStatusFreeTrial, proj.Status)
	assert.Zero(t, store.auditCount())
}

func TestTrialEndingNowIsStillUsable(t *testing.T) {
	store := newMemStore(trialUser("u1", testNow))
	svc := newTestService(store)

	allowed, err := svc.CheckFeatureAccess(context.Background(), "u1", types.FeatureWorkoutAnalysis)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, types.SubscriptionStatusFreeTrial, store.user("u1").Status)
}

func TestUpgradeFromExpired(t *testing.T) {
	ctx := context.Background()
	sub := trialUser("u1", testNow.Add(-48*time.Hour))
	sub.Status = types.SubscriptionStatusExpired
	store := newMemStore(sub)
	svc := newTestService(store)

	got, err := svc.UpgradeToPremium(ctx, "u1", "ext-ref-1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, got.Status)
	require.Nil(t, got.SubscriptionExpiresAt)
	require.NotNil(t, got.SubscriptionStartDate)
	require.True(t, got.SubscriptionStartDate.Equal(testNow))
	require.Equal(t, "ext-ref-1", lo.FromPtr(got.ExternalBillingRef))
	// trial dates stay as history
	require.NotNil(t, got.TrialEndDate)

	require.Len(t, store.audits, 1)
	assert.Equal(t, types.SubscriptionStatusExpired, store.audits[0].FromStatus)
	assert.Equal(t, types.SubscriptionStatusActive, store.audits[0].ToStatus)
	assert.Equal(t, types.SubscriptionChangeReasonUpgradedToPremium, store.audits[0].Reason)
	assert.Equal(t, "ext-ref-1", store.audits[0].Metadata["external_billing_ref"])

	allowed, err := svc.CheckFeatureAccess(ctx, "u1", types.FeatureProgressInsights)
	require.NoError(t, err)
	require.True(t, allowed)

	proj, err := svc.GetSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, proj.HasActiveSubscription)
	assert.Equal(t, 0, proj.TrialDaysRemaining)
}

func TestUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	proj, err := svc.GetSubscriptionStatus(ctx, "nonexistent")
	require.NoError(t, err)
	require.Nil(t, proj)

	allowed, err := svc.CheckFeatureAccess(ctx, "nonexistent", types.Feature("x"))
	require.NoError(t, err)
	require.False(t, allowed)

	_, err = svc.UpgradeToPremium(ctx, "nonexistent", "")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.CheckAndUpdateTrialStatus(ctx, "nonexistent")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCheckAndUpdateTrialStatus_Idempotent(t *testing.T) {
	ctx := context.Background()
	end := testNow.Add(-time.Hour)
	store := newMemStore(trialUser("u1", end))
	svc := newTestService(store)

	first, err := svc.CheckAndUpdateTrialStatus(ctx, "u1")
	require.NoError(t, err)
	second, err := svc.CheckAndUpdateTrialStatus(ctx, "u1")
	require.NoError(t, err)

	require.Equal(t, types.SubscriptionStatusExpired, first.Status)
	require.Equal(t, first.Status, second.Status)
	require.True(t, second.TrialEndDate.Equal(end))
	require.Equal(t, 1, store.auditCount())
}

func TestEveryUpgradeIsAudited(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(trialUser("u1", testNow.Add(24*time.Hour)))
	svc := newTestService(store)

	_, err := svc.UpgradeToPremium(ctx, "u1", "ext-1")
	require.NoError(t, err)
	_, err = svc.UpgradeToPremium(ctx, "u1", "")
	require.NoError(t, err)

	require.Len(t, store.audits, 2)
	for _, rec := range store.audits {
		assert.Equal(t, types.SubscriptionStatusActive, rec.ToStatus)
		assert.Equal(t, types.SubscriptionChangeReasonUpgradedToPremium, rec.Reason)
	}
	assert.Equal(t, types.SubscriptionStatusFreeTrial, store.audits[0].FromStatus)
	assert.Equal(t, types.SubscriptionStatusActive, store.audits[1].FromStatus)
	// an empty reference keeps the stored one
	assert.Equal(t, "ext-1", lo.FromPtr(store.user("u1").ExternalBillingRef))
}

func TestUpgradeRetriesWhenStatusMoves(t *testing.T) {
	store := newMemStore(trialUser("u1", testNow.Add(-48*time.Hour)))
	// the reconcile job expires the trial between our read and our update
	store.onUpdate = func(m *memStore) {
		m.users["u1"].Status = types.SubscriptionStatusExpired
	}
	svc := newTestService(store)

	got, err := svc.UpgradeToPremium(context.Background(), "u1", "ext-2")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, got.Status)
	require.Len(t, store.audits, 1)
	require.Equal(t, types.SubscriptionStatusExpired, store.audits[0].FromStatus)
}

func TestUpgradeRefusesCanceled(t *testing.T) {
	sub := trialUser("u1", testNow.Add(-48*time.Hour))
	sub.Status = types.SubscriptionStatusCanceled
	store := newMemStore(sub)
	svc := newTestService(store)

	_, err := svc.UpgradeToPremium(context.Background(), "u1", "ref")
	require.ErrorIs(t, err, ErrSubscriptionCanceled)
	require.NotErrorIs(t, err, ErrEntitlementCheckFailed)
	require.Equal(t, types.SubscriptionStatusCanceled, store.user("u1").Status)
	require.Nil(t, store.user("u1").ExternalBillingRef)
	require.Zero(t, store.auditCount())
}

func TestUpgradeLosesToConcurrentCancel(t *testing.T) {
	sub := trialUser("u1", testNow.Add(-48*time.Hour))
	sub.Status = types.SubscriptionStatusExpired
	store := newMemStore(sub)
	store.onUpdate = func(m *memStore) {
		m.users["u1"].Status = types.SubscriptionStatusCanceled
	}
	svc := newTestService(store)

	_, err := svc.UpgradeToPremium(context.Background(), "u1", "ext-2")
	require.ErrorIs(t, err, ErrSubscriptionCanceled)
	require.Equal(t, types.SubscriptionStatusCanceled, store.user("u1").Status)
	require.Zero(t, store.auditCount())
}

func TestTransitionIsLoggedAfterCommit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	newSvc := func(store Store) *Service {
		svc := NewService(&config.Config{}, store, zap.New(core).Sugar(), metrics.NewRecorder(prometheus.NewRegistry()))
		svc.now = func() time.Time { return testNow }
		return svc
	}

	failing := newMemStore(trialUser("u1", testNow.Add(-time.Hour)))
	failing.auditErr = errors.New("disk full")
	_, err := newSvc(failing).CheckAndUpdateTrialStatus(context.Background(), "u1")
	require.Error(t, err)
	require.Zero(t, logs.FilterMessage("subscription_transition").Len())

	_, err = newSvc(newMemStore(trialUser("u2", testNow.Add(-time.Hour)))).CheckAndUpdateTrialStatus(context.Background(), "u2")
	require.NoError(t, err)
	entries := logs.FilterMessage("subscription_transition").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u2", fields["user_id"])
	assert.EqualValues(t, types.SubscriptionChangeReasonTrialExpired, fields["reason"])
}

func TestCanceledIsNotReactivatedImplicitly(t *testing.T) {
	ctx := context.Background()
	sub := trialUser("u1", testNow.Add(5*24*time.Hour))
	sub.Status = types.SubscriptionStatusCanceled
	store := newMemStore(sub)
	svc := newTestService(store)

	for _, f := range types.DefaultPremiumFeatures {
		allowed, err := svc.CheckFeatureAccess(ctx, "u1", f)
		require.NoError(t, err)
		require.False(t, allowed, f)
	}
	proj, err := svc.GetSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCanceled, proj.Status)
	require.Equal(t, 0, proj.TrialDaysRemaining)
	require.Zero(t, store.auditCount())
}

func TestStoreFailureIsNotADecision(t *testing.T) {
	store := newMemStore(trialUser("u1", testNow.Add(24*time.Hour)))
	store.getErr = errors.New("connection refused")
	svc := newTestService(store)

	allowed, err := svc.CheckFeatureAccess(context.Background(), "u1", types.FeatureMealPlans)
	require.False(t, allowed)
	require.ErrorIs(t, err, ErrEntitlementCheckFailed)
	require.NotErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetSubscriptionStatus(context.Background(), "u1")
	require.ErrorIs(t, err, ErrEntitlementCheckFailed)
}

func TestAuditFailureRollsBackTransition(t *testing.T) {
	store := newMemStore(trialUser("u1", testNow.Add(-time.Hour)))
	store.auditErr = errors.New("disk full")
	svc := newTestService(store)

	_, err := svc.CheckFeatureAccess(context.Background(), "u1", types.FeatureMealPlans)
	require.ErrorIs(t, err, ErrEntitlementCheckFailed)
	require.Equal(t, types.SubscriptionStatusFreeTrial, store.user("u1").Status)
	require.Zero(t, store.auditCount())
}

func TestConcurrentExpiryAuditsOnce(t *testing.T) {
	store := newMemStore(trialUser("u1", testNow.Add(-time.Minute)))
	svc := newTestService(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := svc.CheckFeatureAccess(context.Background(), "u1", types.FeatureMealPlans)
			assert.NoError(t, err)
			assert.False(t, allowed)
		}()
	}
	wg.Wait()

	require.Equal(t, types.SubscriptionStatusExpired, store.user("u1").Status)
	require.Equal(t, 1, store.auditCount())
}

func TestStartTrial(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	sub, err := svc.StartTrial(ctx, "u9", 0)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusFreeTrial, sub.Status)
	require.True(t, sub.TrialEndDate.Equal(testNow.Add(7*24*time.Hour)))
	require.NotEmpty(t, sub.ID)

	require.Len(t, store.audits, 1)
	assert.Empty(t, store.audits[0].FromStatus)
	assert.Equal(t, types.SubscriptionChangeReasonTrialStarted, store.audits[0].Reason)

	_, err = svc.StartTrial(ctx, "u9", 3)
	require.ErrorIs(t, err, ErrUserExists)
	require.Equal(t, 1, store.auditCount())

	short, err := svc.StartTrial(ctx, "u10", 3)
	require.NoError(t, err)
	require.True(t, short.TrialEndDate.Equal(testNow.Add(3*24*time.Hour)))

	_, err = svc.StartTrial(ctx, "", 3)
	require.Error(t, err)
}

func TestCancelSubscription(t *testing.T) {
	ctx := context.Background()
	sub := trialUser("u1", testNow.Add(24*time.Hour))
	sub.Status = types.SubscriptionStatusActive
	store := newMemStore(sub)
	svc := newTestService(store)

	got, err := svc.CancelSubscription(ctx, "u1", "requested by support")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCanceled, got.Status)
	require.Len(t, store.audits, 1)
	assert.Equal(t, types.SubscriptionStatusActive, store.audits[0].FromStatus)
	assert.Equal(t, types.SubscriptionChangeReasonCanceled, store.audits[0].Reason)
	assert.Equal(t, "requested by support", store.audits[0].Metadata["note"])

	again, err := svc.CancelSubscription(ctx, "u1", "")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCanceled, again.Status)
	require.Equal(t, 1, store.auditCount())

	_, err = svc.CancelSubscription(ctx, "ghost", "")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestExpireLapsedTrials(t *testing.T) {
	store := newMemStore(
		trialUser("a", testNow.Add(-time.Hour)),
		trialUser("b", testNow.Add(-72*time.Hour)),
		trialUser("c", testNow.Add(time.Hour)),
	)
	svc := newTestService(store)

	n, err := svc.ExpireLapsedTrials(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, types.SubscriptionStatusFreeTrial, store.user("c").Status)
	require.Equal(t, 2, store.auditCount())

	n, err = svc.ExpireLapsedTrials(context.Background(), 100)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestProject(t *testing.T) {
	start := testNow.Add(-10 * 24 * time.Hour)
	end := testNow.Add(-3 * 24 * time.Hour)

	active := &models.UserSubscription{UserID: "u1", Status: types.SubscriptionStatusActive, TrialStartDate: &start, TrialEndDate: &end, SubscriptionStartDate: &testNow}
	p := Project(active, testNow)
	assert.True(t, p.HasActiveSubscription)
	assert.False(t, p.TrialExpired)
	assert.Zero(t, p.TrialDaysRemaining)
	assert.Nil(t, p.SubscriptionExpiresAt)

	canceled := &models.UserSubscription{UserID: "u2", Status: types.SubscriptionStatusCanceled}
	p = Project(canceled, testNow)
	assert.False(t, p.HasActiveSubscription)
	assert.False(t, p.TrialExpired)

	partial := testNow.Add(36 * time.Hour)
	trial := &models.UserSubscription{UserID: "u3", Status: types.SubscriptionStatusFreeTrial, TrialEndDate: &partial}
	assert.Equal(t, 2, Project(trial, testNow).TrialDaysRemaining)
}
