package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/scheduler"
)

// MockScheduler implements the scheduler.Scheduler interface for testing.
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockScheduler) Stop() error {
	return m.Called().Error(0)
}

func (m *MockScheduler) RunNow(ctx context.Context, name string) (*db.JobRunLog, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.JobRunLog), args.Error(1)
}

func (m *MockScheduler) Jobs() []scheduler.JobInfo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]scheduler.JobInfo)
}
