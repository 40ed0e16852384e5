package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) ExpireLapsedTrials(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func TestRun_DrainsFullBatches(t *testing.T) {
	exp := &mockExpirer{}
	exp.On("ExpireLapsedTrials", mock.Anything, 2).Return(2, nil).Twice()
	exp.On("ExpireLapsedTrials", mock.Anything, 2).Return(1, nil).Once()

	n, err := New(exp, zap.NewNop().Sugar(), 2).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)
	exp.AssertExpectations(t)
}

func TestRun_StopsOnError(t *testing.T) {
	exp := &mockExpirer{}
	exp.On("ExpireLapsedTrials", mock.Anything, 10).Return(3, errors.New("db down")).Once()

	n, err := New(exp, zap.NewNop().Sugar(), 10).Run(context.Background())
	require.ErrorContains(t, err, "db down")
	require.Equal(t, 3, n)
	exp.AssertNumberOfCalls(t, "ExpireLapsedTrials", 1)
}

func TestRun_DefaultBatchSize(t *testing.T) {
	exp := &mockExpirer{}
	exp.On("ExpireLapsedTrials", mock.Anything, 500).Return(0, nil).Once()

	_, err := New(exp, zap.NewNop().Sugar(), 0).Run(context.Background())
	require.NoError(t, err)
	exp.AssertExpectations(t)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	j := New(&mockExpirer{}, zap.NewNop().Sugar(), 1)
	require.Error(t, j.Start("every now and then"))
	require.NoError(t, j.Stop(context.Background()))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	exp := &mockExpirer{}
	ran := make(chan struct{}, 1)
	exp.On("ExpireLapsedTrials", mock.Anything, 5).Return(0, nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	j := New(exp, zap.NewNop().Sugar(), 5)
	require.NoError(t, j.Start("@every 1s"))
	defer func() { _ = j.Stop(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}
