package accounts

import (
	"errors"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazuu/investorconnect/internal/db"
)

var recentPage = db.PageRequest{Number: 1, Size: 5}

func (s *AccountsSuite) TestDashboardAdmin() {
	admin := &db.User{ID: 1, Username: "root", IsStaff: true}
	s.expectProfile(1, &db.Profile{UserID: 1})
	s.store.On("CountUsers", s.ctx, db.UserFilter{}).Return(10, nil)
	s.store.On("CountUsers", s.ctx, db.UserFilter{UserTypes: []db.UserType{db.UserTypeInvestor}}).Return(3, nil)
	s.store.On("CountUsers", s.ctx, db.UserFilter{UserTypes: []db.UserType{db.UserTypeRegular}}).Return(6, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{Status: db.PitchPending}).Return(2, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{Status: db.PitchApproved}).Return(4, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{Status: db.PitchRejected}).Return(1, nil)
	signups := []*db.User{{ID: 10}}
	pitches := []*db.Pitch{{ID: "p1"}}
	s.store.On("ListUsers", s.ctx, db.UserFilter{}, recentPage).Return(signups, db.Pagination{}, nil)
	s.store.On("ListPitches", s.ctx, db.PitchFilter{}, recentPage).Return(pitches, db.Pagination{}, nil)

	d, err := s.svc.Dashboard(s.ctx, admin)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "admin", d.Role)
	require.Equal(s.T(), 10, d.TotalUsers)
	require.Equal(s.T(), 3, d.TotalInvestors)
	require.Equal(s.T(), 6, d.TotalEntrepreneurs)
	require.Equal(s.T(), 7, d.TotalPitches)
	require.Equal(s.T(), signups, d.RecentSignups)
	require.Equal(s.T(), pitches, d.RecentPitches)
}

func (s *AccountsSuite) TestDashboardInvestor() {
	inv := &db.User{ID: 4, UserType: db.UserTypeInvestor}
	s.expectProfile(4, &db.Profile{UserID: 4})
	approved := db.PitchFilter{Status: db.PitchApproved}
	s.store.On("CountPitches", s.ctx, approved).Return(9, nil)
	s.store.On("CountInterests", s.ctx, int64(4)).Return(2, nil)
	s.store.On("ListPitches", s.ctx, approved, recentPage).Return([]*db.Pitch{}, db.Pagination{}, nil)

	d, err := s.svc.Dashboard(s.ctx, inv)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "investor", d.Role)
	require.Equal(s.T(), 9, d.TotalPitches)
	require.Equal(s.T(), 2, d.MyInterests)
}

func (s *AccountsSuite) TestDashboardEntrepreneur() {
	u := s.activeUser()
	s.expectProfile(3, &db.Profile{UserID: 3})
	s.store.On("CountPitches", s.ctx, db.PitchFilter{UserID: 3, Status: db.PitchPending}).Return(1, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{UserID: 3, Status: db.PitchApproved}).Return(2, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{UserID: 3, Status: db.PitchRejected}).Return(0, nil)
	s.store.On("ListPitches", s.ctx, db.PitchFilter{UserID: 3}, recentPage).Return([]*db.Pitch{{ID: "a"}}, db.Pagination{}, nil)

	d, err := s.svc.Dashboard(s.ctx, u)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "entrepreneur", d.Role)
	require.Equal(s.T(), 3, d.TotalPitches)
	require.Len(s.T(), d.RecentPitches, 1)
}

func (s *AccountsSuite) TestDashboardCountError() {
	s.expectProfile(3, &db.Profile{UserID: 3})
	s.store.On("CountPitches", s.ctx, mock.Anything).Return(0, errors.New("locked"))

	_, err := s.svc.Dashboard(s.ctx, s.activeUser())
	require.ErrorContains(s.T(), err, "counting pending pitches")
}
