package subscription

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/fitgate/internal/app/service/audit"
	"github.com/fatflowers/fitgate/pkg/types"
)

var userColumns = []string{
	"id", "user_id", "status", "trial_start_date", "trial_end_date",
	"subscription_start_date", "subscription_expires_at", "external_billing_ref",
	"created_at", "updated_at",
}

func newGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewGormStore(gdb, audit.New(gdb)), mock
}

const selectUser = `SELECT * FROM "user_subscription" WHERE user_id = $1`

func TestGormStore_GetUserMissing(t *testing.T) {
	store, mock := newGormStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	sub, err := store.GetUser(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, sub)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetUserError(t *testing.T) {
	store, mock := newGormStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WillReturnError(errors.New("conn reset"))

	_, err := store.GetUser(context.Background(), "u1")
	require.ErrorContains(t, err, "conn reset")
}

func TestGormStore_GuardedUpdateMissesMovedRow(t *testing.T) {
	store, mock := newGormStore(t)
	mock.ExpectExec(`UPDATE "user_subscription" SET .+ WHERE user_id = \$\d+ AND status IN \(\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := store.UpdateUser(context.Background(), "u1",
		[]types.SubscriptionStatus{types.SubscriptionStatusFreeTrial},
		map[string]any{FieldStatus: types.SubscriptionStatusExpired})
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateNeedsGuard(t *testing.T) {
	store, _ := newGormStore(t)
	_, err := store.UpdateUser(context.Background(), "u1", nil, map[string]any{FieldStatus: types.SubscriptionStatusExpired})
	require.Error(t, err)
}

func TestGormStore_ExpiryWritesStatusAndAuditInOneTransaction(t *testing.T) {
	store, mock := newGormStore(t)
	svc := newTestService(store)
	end := testNow.Add(-24 * time.Hour)
	start := end.Add(-7 * 24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("id-1", "u1", "free_trial", start, end, nil, nil, nil, start, start))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_subscription" SET .+ WHERE user_id = \$\d+ AND status IN \(\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "subscription_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("id-1", "u1", "expired", start, end, nil, nil, nil, start, testNow))
	mock.ExpectCommit()

	sub, err := svc.CheckAndUpdateTrialStatus(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusExpired, sub.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AuditFailureRollsBack(t *testing.T) {
	store, mock := newGormStore(t)
	svc := newTestService(store)
	end := testNow.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("id-1", "u1", "free_trial", nil, end, nil, nil, nil, end, end))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_subscription"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "subscription_audit_log"`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := svc.CheckAndUpdateTrialStatus(context.Background(), "u1")
	require.ErrorIs(t, err, ErrEntitlementCheckFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListLapsedTrials(t *testing.T) {
	store, mock := newGormStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "user_id" FROM "user_subscription" WHERE status = $1 AND trial_end_date < $2 ORDER BY trial_end_date LIMIT`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("a").AddRow("b"))

	ids, err := store.ListLapsedTrials(context.Background(), testNow, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
