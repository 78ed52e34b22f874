package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bazuu/investorconnect/internal/db"
)

type MockStoreSuite struct {
	suite.Suite
	store *MockStore
	ctx   context.Context
}

func TestMockStoreSuite(t *testing.T) {
	suite.Run(t, new(MockStoreSuite))
}

func (s *MockStoreSuite) SetupTest() {
	s.store = new(MockStore)
	s.ctx = context.Background()
}

func (s *MockStoreSuite) TearDownTest() {
	s.store.AssertExpectations(s.T())
}

func (s *MockStoreSuite) TestImplementsStore() {
	var _ db.Store = s.store
}

func (s *MockStoreSuite) TestCreateAccount() {
	u := &db.User{Username: "amina"}
	p := &db.Profile{}
	ns := &db.NotificationSettings{}
	s.store.On("CreateAccount", s.ctx, u, p, ns).Return(int64(4), nil)
	id, err := s.store.CreateAccount(s.ctx, u, p, ns)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(4), id)
}

func (s *MockStoreSuite) TestGetUserByUsernameNil() {
	s.store.On("GetUserByUsername", s.ctx, "missing").Return(nil, nil)
	got, err := s.store.GetUserByUsername(s.ctx, "missing")
	require.NoError(s.T(), err)
	require.Nil(s.T(), got)
}

func (s *MockStoreSuite) TestListUsers() {
	users := []*db.User{{ID: 1}}
	s.store.On("ListUsers", s.ctx, db.UserFilter{}, db.PageRequest{Number: 1, Size: 20}).
		Return(users, db.Pagination{Page: 1, Pages: 1, Total: 1}, nil)
	got, pg, err := s.store.ListUsers(s.ctx, db.UserFilter{}, db.PageRequest{Number: 1, Size: 20})
	require.NoError(s.T(), err)
	require.Equal(s.T(), users, got)
	require.Equal(s.T(), 1, pg.Total)
}

func (s *MockStoreSuite) TestListUsersError() {
	s.store.On("ListUsers", s.ctx, db.UserFilter{}, db.PageRequest{}).Return(nil, db.Pagination{}, errors.New("boom"))
	got, _, err := s.store.ListUsers(s.ctx, db.UserFilter{}, db.PageRequest{})
	require.EqualError(s.T(), err, "boom")
	require.Nil(s.T(), got)
}

func (s *MockStoreSuite) TestGetJobNil() {
	s.store.On("GetJob", s.ctx, "j1").Return(nil, nil)
	got, err := s.store.GetJob(s.ctx, "j1")
	require.NoError(s.T(), err)
	require.Nil(s.T(), got)
}

func (s *MockStoreSuite) TestCountUnread() {
	s.store.On("CountUnread", s.ctx, int64(2), "", "r1").Return(5, nil)
	n, err := s.store.CountUnread(s.ctx, 2, "", "r1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 5, n)
}

func (s *MockStoreSuite) TestPaymentAmountsNil() {
	s.store.On("PaymentAmounts", s.ctx).Return(nil, nil)
	got, err := s.store.PaymentAmounts(s.ctx)
	require.NoError(s.T(), err)
	require.Nil(s.T(), got)
}

func (s *MockStoreSuite) TestListJobRunLogs() {
	logs := []*db.JobRunLog{{ID: 1, JobName: "expire-suspensions"}}
	s.store.On("ListJobRunLogs", s.ctx, "", 50).Return(logs, nil)
	got, err := s.store.ListJobRunLogs(s.ctx, "", 50)
	require.NoError(s.T(), err)
	require.Equal(s.T(), logs, got)
}

func (s *MockStoreSuite) TestClose() {
	s.store.On("Close").Return(nil)
	require.NoError(s.T(), s.store.Close())
}
