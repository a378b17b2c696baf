package background

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"reviso/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockPendingSignupRepository struct {
	mock.Mock
}

func (m *MockPendingSignupRepository) Create(ctx context.Context, signup *models.PendingSignup) error {
	return m.Called(ctx, signup).Error(0)
}

func (m *MockPendingSignupRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.PendingSignup, error) {
	args := m.Called(ctx, sessionID)
	signup, _ := args.Get(0).(*models.PendingSignup)
	return signup, args.Error(1)
}

func (m *MockPendingSignupRepository) GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*models.PendingSignup, error) {
	args := m.Called(ctx, sessionID)
	signup, _ := args.Get(0).(*models.PendingSignup)
	return signup, args.Error(1)
}

func (m *MockPendingSignupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPendingSignupRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) ProvisionTenant(ctx context.Context, agencyID uuid.UUID) (string, error) {
	args := m.Called(ctx, agencyID)
	return args.String(0), args.Error(1)
}

func (m *MockProvisioner) ReconcileUnprovisioned(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type TasksTestSuite struct {
	suite.Suite
	signups     *MockPendingSignupRepository
	provisioner *MockProvisioner
	tasks       *Tasks
	now         time.Time
}

func (suite *TasksTestSuite) SetupTest() {
	suite.signups = new(MockPendingSignupRepository)
	suite.provisioner = new(MockProvisioner)
	suite.tasks = NewTasks(suite.signups, suite.provisioner)
	suite.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.tasks.now = func() time.Time { return suite.now }
}

func TestTasksTestSuite(t *testing.T) {
	suite.Run(t, new(TasksTestSuite))
}

func (suite *TasksTestSuite) TestPurgeExpiredSignups() {
	suite.signups.On("DeleteExpired", mock.Anything, suite.now).Return(int64(3), nil).Once()

	n, err := suite.tasks.PurgeExpiredSignups(context.Background())

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), n)
	suite.signups.AssertExpectations(suite.T())
}

func (suite *TasksTestSuite) TestPurgeExpiredSignups_Error() {
	suite.signups.On("DeleteExpired", mock.Anything, suite.now).Return(int64(0), errors.New("db down")).Once()

	_, err := suite.tasks.PurgeExpiredSignups(context.Background())

	assert.ErrorContains(suite.T(), err, "db down")
}

func (suite *TasksTestSuite) TestReconcileTenants() {
	suite.provisioner.On("ReconcileUnprovisioned", mock.Anything, reconcileBatchSize).Return(2, nil).Once()

	n, err := suite.tasks.ReconcileTenants(context.Background())

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, n)
}

func TestJobScheduler_RegistersAndRunsJobs(t *testing.T) {
	signups := new(MockPendingSignupRepository)
	done := make(chan struct{})
	signups.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		close(done)
	}).Once()

	js, err := NewJobScheduler(NewTasks(signups, new(MockProvisioner)))
	require.NoError(t, err)
	defer func() { _ = js.Stop() }()

	names := js.JobNames()
	sort.Strings(names)
	assert.Equal(t, []string{JobPendingSignupPurge, JobTenantReconcile}, names)

	js.Start()
	require.NoError(t, js.RunNow(JobPendingSignupPurge))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("purge job did not run")
	}

	assert.Error(t, js.RunNow("invoice-sync"))
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	locker := NewRedisLocker(client, time.Minute)

	lock, err := locker.Lock(ctx, JobTenantReconcile)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, JobTenantReconcile)
	assert.ErrorIs(t, err, errLockHeld)

	other, err := locker.Lock(ctx, JobPendingSignupPurge)
	require.NoError(t, err)
	require.NoError(t, other.Unlock(ctx))

	require.NoError(t, lock.Unlock(ctx))
	_, err = locker.Lock(ctx, JobTenantReconcile)
	assert.NoError(t, err)
}

func TestRedisLocker_ExpiredLockIsNotReleasedByStaleHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	locker := NewRedisLocker(client, time.Second)
	stale, err := locker.Lock(ctx, JobTenantReconcile)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = locker.Lock(ctx, JobTenantReconcile)
	require.NoError(t, err)

	require.NoError(t, stale.Unlock(ctx))
	assert.True(t, mr.Exists(lockKeyPrefix+JobTenantReconcile))
}
