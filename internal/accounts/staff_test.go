package accounts

import (
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazuu/investorconnect/internal/auth"
	"github.com/bazuu/investorconnect/internal/db"
)

func (s *AccountsSuite) TestCreateInvestor() {
	s.store.On("GetUserByUsername", s.ctx, "kamau").Return(nil, nil)
	s.store.On("GetUserByEmail", s.ctx, "kamau@fund.co.ke").Return(nil, nil)
	s.store.On("CreateAccount", s.ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.UserType == db.UserTypeInvestor && u.IsVerified && !u.SubscriptionPaid &&
			u.CompanyName == "Savanna Fund" && auth.CheckPassword(u.PasswordHash, "long-password")
	}), mock.MatchedBy(func(p *db.Profile) bool {
		return p.FirstName == "James" && p.LastName == "Kamau"
	}), mock.Anything).Return(int64(12), nil)

	u, err := s.svc.CreateInvestor(s.ctx, InvestorForm{
		Username:        " kamau ",
		Email:           "kamau@fund.co.ke",
		FirstName:       "James",
		LastName:        "Kamau",
		Password:        "long-password",
		PasswordConfirm: "long-password",
		CompanyName:     "Savanna Fund",
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(12), u.ID)
}

func (s *AccountsSuite) TestCreateInvestorValidation() {
	_, err := s.svc.CreateInvestor(s.ctx, InvestorForm{Username: "kamau", Email: "kamau@fund.co.ke", Password: "long-password", PasswordConfirm: "other-password"})
	require.EqualError(s.T(), err, "The two password fields didn't match.")

	_, err = s.svc.CreateInvestor(s.ctx, InvestorForm{Username: "kamau", Email: "nope", Password: "long-password", PasswordConfirm: "long-password"})
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}

func (s *AccountsSuite) TestCreateInvestorDuplicate() {
	s.store.On("GetUserByUsername", s.ctx, "kamau").Return(&db.User{ID: 4}, nil)

	_, err := s.svc.CreateInvestor(s.ctx, InvestorForm{Username: "kamau", Email: "kamau@fund.co.ke", Password: "long-password", PasswordConfirm: "long-password"})
	require.ErrorIs(s.T(), err, db.ErrConflict)
}

func (s *AccountsSuite) TestCreateStaff() {
	s.store.On("GetUserByUsername", s.ctx, "ops").Return(nil, nil)
	s.store.On("GetUserByEmail", s.ctx, "ops@example.com").Return(nil, nil)
	s.store.On("CreateAccount", s.ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.IsStaff && u.IsSuperuser && u.IsActive
	}), mock.Anything, mock.Anything).Return(int64(1), nil)

	u, err := s.svc.CreateStaff(s.ctx, "ops", "ops@example.com", "long-password")
	require.NoError(s.T(), err)
	require.True(s.T(), u.IsAdmin())
}
