package accounts

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazuu/investorconnect/internal/db"
)

func strPtr(s string) *string { return &s }

func (s *AccountsSuite) expectProfile(userID int64, p *db.Profile) {
	s.store.On("GetProfile", s.ctx, userID).Return(p, nil)
	s.store.On("GetNotificationSettings", s.ctx, userID).Return(&db.NotificationSettings{UserID: userID}, nil)
}

func (s *AccountsSuite) TestEnsureProfileCreatesMissing() {
	s.store.On("GetProfile", s.ctx, int64(3)).Return(nil, nil)
	s.store.On("UpsertProfile", s.ctx, mock.MatchedBy(func(p *db.Profile) bool {
		return p.UserID == 3 && p.OpenToRemote && p.ProfileVisibility == db.VisibilityMembers
	})).Return(nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(3)).Return(nil, nil)
	s.store.On("UpsertNotificationSettings", s.ctx, mock.Anything).Return(nil)

	p, err := s.svc.EnsureProfile(s.ctx, &db.User{ID: 3})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(3), p.UserID)
}

func (s *AccountsSuite) TestFixProfiles() {
	users := []*db.User{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}}
	s.store.On("UsersWithoutProfile", s.ctx).Return(users, nil)
	s.store.On("GetProfile", s.ctx, int64(1)).Return(nil, nil)
	s.store.On("UpsertProfile", s.ctx, mock.Anything).Return(nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(1)).Return(&db.NotificationSettings{}, nil)
	s.store.On("GetProfile", s.ctx, int64(2)).Return(&db.Profile{UserID: 2}, nil)
	s.store.On("GetNotificationSettings", s.ctx, int64(2)).Return(nil, nil)
	s.store.On("UpsertNotificationSettings", s.ctx, mock.Anything).Return(nil)

	n, err := s.svc.FixProfiles(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, n)
}

func (s *AccountsSuite) TestFixProfilesError() {
	s.store.On("UsersWithoutProfile", s.ctx).Return(nil, errors.New("boom"))

	_, err := s.svc.FixProfiles(s.ctx)
	require.ErrorContains(s.T(), err, "listing users")
}

func (s *AccountsSuite) TestGetProfileOwn() {
	u := s.activeUser()
	s.expectProfile(3, &db.Profile{UserID: 3, FirstName: "Wanjiru", LastName: "Mwangi", Skills: "go, sql"})

	v, err := s.svc.GetProfile(s.ctx, u, "")
	require.NoError(s.T(), err)
	require.True(s.T(), v.IsOwnProfile)
	require.Equal(s.T(), "Wanjiru Mwangi", v.FullName)
	require.Equal(s.T(), []string{"go", "sql"}, v.Skills)
}

func (s *AccountsSuite) TestGetProfileOther() {
	viewer := s.activeUser()
	other := &db.User{ID: 8, Username: "otieno", UserType: db.UserTypeInvestor, IsVerified: true, IsActive: true}
	s.store.On("GetUserByUsername", s.ctx, "otieno").Return(other, nil)
	s.expectProfile(8, &db.Profile{UserID: 8})

	v, err := s.svc.GetProfile(s.ctx, viewer, "otieno")
	require.NoError(s.T(), err)
	require.False(s.T(), v.IsOwnProfile)
	require.Equal(s.T(), "otieno", v.FullName)
}

func (s *AccountsSuite) TestGetProfileNotAccessible() {
	other := &db.User{ID: 8, Username: "unpaid", UserType: db.UserTypeInvestor}
	s.store.On("GetUserByUsername", s.ctx, "unpaid").Return(other, nil)

	_, err := s.svc.GetProfile(s.ctx, s.activeUser(), "unpaid")
	require.ErrorIs(s.T(), err, db.ErrForbidden)
}

func (s *AccountsSuite) TestGetProfileUnknown() {
	s.store.On("GetUserByUsername", s.ctx, "ghost").Return(nil, nil)

	_, err := s.svc.GetProfile(s.ctx, s.activeUser(), "ghost")
	require.ErrorIs(s.T(), err, db.ErrNotFound)
}

func (s *AccountsSuite) TestUpdateProfile() {
	u := s.activeUser()
	goal := decimal.NewFromInt(50000)
	remote := false
	s.store.On("GetUserByEmail", s.ctx, "new@example.com").Return(nil, nil)
	s.expectProfile(3, &db.Profile{UserID: 3, OpenToRemote: true})
	s.store.On("UpdateUser", s.ctx, mock.MatchedBy(func(x *db.User) bool {
		return x.Email == "new@example.com" && x.CompanyName == "Shamba Ltd"
	})).Return(nil)
	s.store.On("UpsertProfile", s.ctx, mock.MatchedBy(func(p *db.Profile) bool {
		return p.Industry == "agriculture" && p.BusinessStage == "mvp" && p.FundingGoal.Equal(goal) &&
			!p.OpenToRemote && p.Website == "https://shamba.example.com"
	})).Return(nil)

	v, err := s.svc.UpdateProfile(s.ctx, u, ProfileUpdate{
		Email:         strPtr(" new@example.com "),
		CompanyName:   strPtr("Shamba Ltd"),
		Industry:      strPtr("agriculture"),
		BusinessStage: strPtr("mvp"),
		FundingGoal:   &goal,
		Website:       strPtr("https://shamba.example.com"),
		OpenToRemote:  &remote,
	})
	require.NoError(s.T(), err)
	require.True(s.T(), v.IsOwnProfile)
}

func (s *AccountsSuite) TestUpdateProfileValidation() {
	neg := decimal.NewFromInt(-1)
	lo, hi := decimal.NewFromInt(500), decimal.NewFromInt(100)
	vis := db.ProfileVisibility("everyone")
	cases := []struct {
		name string
		up   ProfileUpdate
		msg  string
	}{
		{"bad email", ProfileUpdate{Email: strPtr("nope")}, "valid email"},
		{"bad industry", ProfileUpdate{Industry: strPtr("mining")}, "industry"},
		{"bad range", ProfileUpdate{InvestmentRange: strPtr("lots")}, "investment_range"},
		{"bad availability", ProfileUpdate{Availability: strPtr("never")}, "availability"},
		{"bad visibility", ProfileUpdate{ProfileVisibility: &vis}, "profile_visibility"},
		{"bad url", ProfileUpdate{LinkedinURL: strPtr("linkedin")}, "linkedin_url"},
		{"negative goal", ProfileUpdate{FundingGoal: &neg}, "funding_goal"},
		{"salary order", ProfileUpdate{DesiredSalaryMin: &lo, DesiredSalaryMax: &hi}, "Minimum salary"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.UpdateProfile(s.ctx, s.activeUser(), tc.up)
			require.ErrorIs(s.T(), err, db.ErrInvalid)
			require.Contains(s.T(), err.Error(), tc.msg)
		})
	}
}

func (s *AccountsSuite) TestUpdateProfileEmailTaken() {
	s.store.On("GetUserByEmail", s.ctx, "taken@example.com").Return(&db.User{ID: 9}, nil)

	_, err := s.svc.UpdateProfile(s.ctx, s.activeUser(), ProfileUpdate{Email: strPtr("taken@example.com")})
	require.ErrorIs(s.T(), err, db.ErrConflict)
}

func (s *AccountsSuite) TestProfileCompletion() {
	u := &db.User{Username: "a", Email: "a@b.c", UserType: db.UserTypeRegular}
	require.Equal(s.T(), 12, ProfileCompletion(u, &db.Profile{}))

	goal := decimal.NewFromInt(10)
	full := &db.Profile{
		FirstName: "A", LastName: "B", Location: "Nairobi", JobTitle: "CEO", Industry: "technology",
		ExperienceLevel: "expert", ProfilePicture: "p.png", Website: "https://a.b", LinkedinURL: "https://l.b",
		BusinessStage: "mvp", FundingGoal: &goal,
	}
	u.PhoneNumber, u.CompanyName, u.ProfileDescription = "254700000000", "Co", "desc"
	require.Equal(s.T(), 100, ProfileCompletion(u, full))

	zero := decimal.Zero
	full.FundingGoal = &zero
	require.Equal(s.T(), 93, ProfileCompletion(u, full))

	inv := &db.User{Username: "i", UserType: db.UserTypeInvestor}
	require.Equal(s.T(), 12, ProfileCompletion(inv, &db.Profile{InvestmentRange: "over_1m"}))
}

func (s *AccountsSuite) TestCompletion() {
	s.expectProfile(3, &db.Profile{UserID: 3})

	pct, err := s.svc.Completion(s.ctx, s.activeUser())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 12, pct)
}

func (s *AccountsSuite) TestSetProfilePicture() {
	s.expectProfile(3, &db.Profile{UserID: 3, ProfilePicture: "profile_pictures/3/old.png"})
	s.media.On("Save", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "profile_pictures/3/") && strings.HasSuffix(name, ".jpg")
	}), mock.Anything).Return(int64(2048), nil)
	s.store.On("UpsertProfile", s.ctx, mock.Anything).Return(nil)
	s.media.On("Remove", "profile_pictures/3/old.png").Return(nil)

	p, err := s.svc.SetProfilePicture(s.ctx, s.activeUser(), "me.JPG", strings.NewReader("img"))
	require.NoError(s.T(), err)
	require.True(s.T(), strings.HasPrefix(p.ProfilePicture, "profile_pictures/3/"))
}

func (s *AccountsSuite) TestSetProfilePictureBadType() {
	s.expectProfile(3, &db.Profile{UserID: 3})

	_, err := s.svc.SetProfilePicture(s.ctx, s.activeUser(), "me.exe", strings.NewReader("x"))
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}

func (s *AccountsSuite) TestSetProfilePictureTooLarge() {
	s.expectProfile(3, &db.Profile{UserID: 3})
	var saved string
	s.media.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.String(0)
	}).Return(int64(maxPictureSize+1), nil)
	s.media.On("Remove", mock.Anything).Return(nil)

	_, err := s.svc.SetProfilePicture(s.ctx, s.activeUser(), "big.png", strings.NewReader("x"))
	require.ErrorIs(s.T(), err, db.ErrInvalid)
	require.Contains(s.T(), err.Error(), "5 MB")
	s.media.AssertCalled(s.T(), "Remove", saved)
}

func (s *AccountsSuite) TestDeleteProfilePicture() {
	s.store.On("GetProfile", s.ctx, int64(3)).Return(&db.Profile{UserID: 3, ProfilePicture: "profile_pictures/3/a.png"}, nil)
	s.media.On("Remove", "profile_pictures/3/a.png").Return(nil)
	s.store.On("UpsertProfile", s.ctx, mock.MatchedBy(func(p *db.Profile) bool { return p.ProfilePicture == "" })).Return(nil)

	require.NoError(s.T(), s.svc.DeleteProfilePicture(s.ctx, s.activeUser()))
}

func (s *AccountsSuite) TestDeleteProfilePictureNone() {
	s.store.On("GetProfile", s.ctx, int64(3)).Return(&db.Profile{UserID: 3}, nil)

	err := s.svc.DeleteProfilePicture(s.ctx, s.activeUser())
	require.ErrorIs(s.T(), err, db.ErrNotFound)
	require.EqualError(s.T(), err, "No profile picture to delete.")
}

func (s *AccountsSuite) TestUploadResume() {
	s.expectProfile(3, &db.Profile{UserID: 3})
	s.media.On("Save", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "resumes/3/") && strings.HasSuffix(name, ".docx")
	}), mock.Anything).Return(int64(100), nil)
	s.store.On("UpsertProfile", s.ctx, mock.Anything).Return(nil)

	p, err := s.svc.UploadResume(s.ctx, s.activeUser(), "cv.docx", strings.NewReader("doc"))
	require.NoError(s.T(), err)
	require.True(s.T(), strings.HasSuffix(p.Resume, ".docx"))
}

func (s *AccountsSuite) TestUploadResumeRejectsImages() {
	s.expectProfile(3, &db.Profile{UserID: 3})

	_, err := s.svc.UploadResume(s.ctx, s.activeUser(), "cv.png", strings.NewReader("x"))
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}
