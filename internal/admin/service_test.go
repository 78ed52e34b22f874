package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
	"github.com/bazuu/investorconnect/internal/testutil"
)

type mockInvestors struct {
	mock.Mock
}

func (m *mockInvestors) CreateInvestor(ctx context.Context, f accounts.InvestorForm) (*db.User, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

type mockCategories struct {
	mock.Mock
}

func (m *mockCategories) ListCategories(ctx context.Context) ([]*db.PitchCategory, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*db.PitchCategory), args.Error(1)
}

func (m *mockCategories) CreateCategory(ctx context.Context, admin *db.User, name, description string) (*db.PitchCategory, error) {
	args := m.Called(ctx, admin, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PitchCategory), args.Error(1)
}

func (m *mockCategories) DeleteCategory(ctx context.Context, admin *db.User, id string) error {
	return m.Called(ctx, admin, id).Error(0)
}

type mockFees struct {
	mock.Mock
}

func (m *mockFees) CurrentFees(ctx context.Context) (*db.PlatformSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PlatformSettings), args.Error(1)
}

func (m *mockFees) UpdateFees(ctx context.Context, registration, subscription decimal.Decimal, by *db.User) (*db.PlatformSettings, error) {
	args := m.Called(ctx, registration, subscription, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PlatformSettings), args.Error(1)
}

func (m *mockFees) FeeHistory(ctx context.Context, page int) ([]*db.PlatformSettings, db.Pagination, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]*db.PlatformSettings), args.Get(1).(db.Pagination), args.Error(2)
}

type AdminSuite struct {
	suite.Suite
	ctx        context.Context
	store      *testutil.MockStore
	investors  *mockInvestors
	categories *mockCategories
	fees       *mockFees
	svc        *Service
	now        time.Time
	admin      *db.User
	member     *db.User
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminSuite))
}

func (s *AdminSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = new(testutil.MockStore)
	s.investors = new(mockInvestors)
	s.categories = new(mockCategories)
	s.fees = new(mockFees)
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := notify.NewNotifier(s.store, new(testutil.MockMailer), logger)
	s.svc = NewService(s.store, s.investors, s.categories, s.fees, notifier, logger)
	s.svc.now = func() time.Time { return s.now }

	s.admin = &db.User{ID: 1, Username: "root", IsStaff: true, IsActive: true, AccountStatus: db.AccountActive}
	s.member = &db.User{ID: 5, Username: "wanjiru", UserType: db.UserTypeRegular, IsActive: true, AccountStatus: db.AccountActive}
}

func (s *AdminSuite) TearDownTest() {
	s.store.AssertExpectations(s.T())
	s.investors.AssertExpectations(s.T())
	s.categories.AssertExpectations(s.T())
	s.fees.AssertExpectations(s.T())
}

func (s *AdminSuite) TestRequiresAdmin() {
	_, err := s.svc.Dashboard(s.ctx, s.member)
	require.ErrorIs(s.T(), err, db.ErrForbidden)
	_, _, err = s.svc.ListUsers(s.ctx, s.member, UserListFilter{})
	require.ErrorIs(s.T(), err, db.ErrForbidden)
	require.ErrorIs(s.T(), s.svc.DeleteJob(s.ctx, nil, "j1"), db.ErrForbidden)
}

func (s *AdminSuite) TestDashboard() {
	s.store.On("CountPitches", s.ctx, db.PitchFilter{Status: db.PitchPending}).Return(3, nil)
	s.store.On("CountUsers", s.ctx, mock.Anything).Return(4, nil)
	s.store.On("ListCategories", s.ctx).Return([]*db.PitchCategory{{ID: "c1"}, {ID: "c2"}}, nil)
	s.store.On("CountJobs", s.ctx, db.JobFilter{}).Return(10, nil)
	s.store.On("CountJobs", s.ctx, db.JobFilter{Active: db.BoolPtr(true)}).Return(7, nil)
	s.store.On("CountApplicationsByStatus", s.ctx, db.ApplicationFilter{}).
		Return(map[db.ApplicationStatus]int{db.AppPending: 2, db.AppHired: 1}, nil)
	s.store.On("ListPitches", s.ctx, mock.Anything, mock.Anything).Return([]*db.Pitch{}, db.Pagination{}, nil)
	s.store.On("ListPayments", s.ctx, db.PaymentFilter{Status: db.PaymentCompleted}, mock.Anything).Return([]*db.Payment{}, db.Pagination{}, nil)
	s.store.On("ListUsers", s.ctx, mock.Anything, mock.Anything).Return([]*db.User{}, db.Pagination{}, nil)
	s.store.On("ListJobs", s.ctx, mock.Anything, mock.Anything).Return([]*db.JobPosting{}, db.Pagination{}, nil)
	s.store.On("ListApplications", s.ctx, mock.Anything, mock.Anything).Return([]*db.JobApplication{}, db.Pagination{}, nil)

	d, err := s.svc.Dashboard(s.ctx, s.admin)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, d.PendingPitches)
	require.Equal(s.T(), 2, d.TotalCategories)
	require.Equal(s.T(), 7, d.ActiveJobs)
	require.Equal(s.T(), 3, d.TotalApplications)
	require.Equal(s.T(), 2, d.PendingApplications)
	require.Equal(s.T(), 4, d.JobSeekers)
}

func (s *AdminSuite) TestListUsersFilters() {
	s.store.On("ListUsers", s.ctx, db.UserFilter{
		UserTypes: []db.UserType{db.UserTypeInvestor},
		Verified:  db.BoolPtr(false),
		Search:    "fund",
	}, db.PageRequest{Number: 1, Size: 20}).Return([]*db.User{{ID: 8}}, db.Pagination{Total: 1}, nil)

	users, _, err := s.svc.ListUsers(s.ctx, s.admin, UserListFilter{UserType: db.UserTypeInvestor, Verification: "unverified", Search: " fund "})
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 1)
}

func (s *AdminSuite) TestUserDetail() {
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("GetProfile", s.ctx, int64(5)).Return(&db.Profile{UserID: 5}, nil)
	s.store.On("CountPitches", s.ctx, db.PitchFilter{UserID: 5}).Return(2, nil)
	s.store.On("CountApplicationsByStatus", s.ctx, db.ApplicationFilter{ApplicantID: 5}).Return(map[db.ApplicationStatus]int{db.AppPending: 1}, nil)
	s.store.On("ListPayments", s.ctx, db.PaymentFilter{UserID: 5}, db.PageRequest{Number: 1, Size: 10}).
		Return([]*db.Payment{{ID: "p1"}}, db.Pagination{Total: 4}, nil)

	d, err := s.svc.UserDetail(s.ctx, s.admin, 5)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, d.Pitches)
	require.Equal(s.T(), 1, d.Applications)
	require.Equal(s.T(), 4, d.Payments)
	require.False(s.T(), d.Suspension.Suspended)
}

func (s *AdminSuite) TestSuspendDefaults() {
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("UpdateUser", s.ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.AccountStatus == db.AccountSuspended && u.SuspensionReason == db.DefaultSuspensionReason &&
			u.SuspendedUntil.Equal(s.now.Add(7*24*time.Hour))
	})).Return(nil)

	u, err := s.svc.Suspend(s.ctx, s.admin, 5, 0, "  ")
	require.NoError(s.T(), err)
	require.True(s.T(), u.IsSuspended(s.now))
}

func (s *AdminSuite) TestSuspendAdminRefused() {
	s.store.On("GetUser", s.ctx, int64(2)).Return(&db.User{ID: 2, IsSuperuser: true}, nil)

	_, err := s.svc.Suspend(s.ctx, s.admin, 2, 3, "spam")
	require.EqualError(s.T(), err, "Cannot suspend admin users.")
}

func (s *AdminSuite) TestUnsuspend() {
	until := s.now.Add(time.Hour)
	u := &db.User{ID: 5, AccountStatus: db.AccountSuspended, SuspendedUntil: &until, SuspensionReason: "spam"}
	s.store.On("GetUser", s.ctx, int64(5)).Return(u, nil)
	s.store.On("UpdateUser", s.ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.AccountStatus == db.AccountActive && u.SuspendedUntil == nil
	})).Return(nil)

	_, err := s.svc.Unsuspend(s.ctx, s.admin, 5)
	require.NoError(s.T(), err)
}

func (s *AdminSuite) TestDeleteRules() {
	s.store.On("GetUser", s.ctx, int64(2)).Return(&db.User{ID: 2, IsStaff: true}, nil)
	require.EqualError(s.T(), s.svc.Delete(s.ctx, s.admin, 2), "Cannot delete admin users.")

	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("DeleteUser", s.ctx, int64(5)).Return(nil)
	require.NoError(s.T(), s.svc.Delete(s.ctx, s.admin, 5))

	s.store.On("GetUser", s.ctx, int64(404)).Return(nil, nil)
	require.ErrorIs(s.T(), s.svc.Delete(s.ctx, s.admin, 404), db.ErrNotFound)
}

func (s *AdminSuite) TestBulkSuspendSkipsStaff() {
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("GetUser", s.ctx, int64(6)).Return(&db.User{ID: 6, Username: "otieno"}, nil)
	s.store.On("GetUser", s.ctx, int64(1)).Return(s.admin, nil)
	s.store.On("UpdateUser", s.ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.AccountStatus == db.AccountSuspended && u.SuspensionReason == "Bulk administrative action"
	})).Return(nil).Twice()

	res, err := s.svc.BulkAction(s.ctx, s.admin, BulkRequest{Action: "suspend", UserIDs: []int64{5, 6, 1}, Days: 3})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, res.Affected)
	require.Equal(s.T(), "2 users suspended for 3 days (1 admin users were skipped for safety)", res.Message)
}

func (s *AdminSuite) TestBulkDeleteMessage() {
	ids := []int64{11, 12, 13, 14}
	for _, id := range ids {
		s.store.On("GetUser", s.ctx, id).Return(&db.User{ID: id, Username: "u" + string(rune('a'+id-11))}, nil)
		s.store.On("DeleteUser", s.ctx, id).Return(nil)
	}

	res, err := s.svc.BulkAction(s.ctx, s.admin, BulkRequest{Action: "delete", UserIDs: ids})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "4 users deleted successfully: ua, ub, uc...", res.Message)
}

func (s *AdminSuite) TestBulkActionErrors() {
	_, err := s.svc.BulkAction(s.ctx, s.admin, BulkRequest{Action: "verify"})
	require.EqualError(s.T(), err, "No users selected.")

	_, err = s.svc.BulkAction(s.ctx, s.admin, BulkRequest{Action: "ban", UserIDs: []int64{5}})
	require.EqualError(s.T(), err, "Invalid action.")

	s.store.On("GetUser", s.ctx, int64(1)).Return(s.admin, nil)
	_, err = s.svc.BulkAction(s.ctx, s.admin, BulkRequest{Action: "verify", UserIDs: []int64{1}})
	require.ErrorIs(s.T(), err, db.ErrForbidden)
}

func (s *AdminSuite) TestRegisterInvestor() {
	form := accounts.InvestorForm{Username: "kamau"}
	s.investors.On("CreateInvestor", s.ctx, form).Return(&db.User{ID: 12, UserType: db.UserTypeInvestor}, nil)

	u, err := s.svc.RegisterInvestor(s.ctx, s.admin, form)
	require.NoError(s.T(), err)
	require.True(s.T(), u.IsInvestor())
}

func (s *AdminSuite) TestReviewPitchNotifiesOwner() {
	s.store.On("GetPitch", s.ctx, "p1").Return(&db.Pitch{ID: "p1", UserID: 5, Title: "Solar", Status: db.PitchPending}, nil)
	s.store.On("UpdatePitch", s.ctx, mock.MatchedBy(func(p *db.Pitch) bool {
		return p.Status == db.PitchApproved && *p.ReviewedBy == 1 && p.ReviewedAt.Equal(s.now) && p.AdminNotes == "Great"
	})).Return(nil)
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("CreateNotification", s.ctx, mock.MatchedBy(func(n *db.Notification) bool {
		return n.UserID == 5 && n.Kind == db.NotifyPitchReviewed
	})).Return(int64(1), nil)

	p, err := s.svc.ReviewPitch(s.ctx, s.admin, "p1", db.PitchApproved, " Great ")
	require.NoError(s.T(), err)
	require.Equal(s.T(), db.PitchApproved, p.Status)
}

func (s *AdminSuite) TestReviewPitchRejectsPending() {
	_, err := s.svc.ReviewPitch(s.ctx, s.admin, "p1", db.PitchPending, "")
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}

func (s *AdminSuite) TestFinancialAnalysis() {
	kes := decimal.NewFromInt
	s.store.On("PaymentAmounts", s.ctx).Return([]db.PaymentAmount{
		{Status: db.PaymentCompleted, TransactionType: db.TransactionRegistration, Amount: kes(1000)},
		{Status: db.PaymentCompleted, TransactionType: db.TransactionSubscription, Amount: kes(500)},
		{Status: db.PaymentPending, TransactionType: db.TransactionSubscription, Amount: kes(500)},
	}, nil)
	s.store.On("ListPayments", s.ctx, db.PaymentFilter{}, db.PageRequest{Number: 1, Size: 10}).Return([]*db.Payment{}, db.Pagination{}, nil)

	f, err := s.svc.FinancialAnalysis(s.ctx, s.admin)
	require.NoError(s.T(), err)
	require.True(s.T(), f.TotalRevenue.Equal(kes(1500)))
	require.True(s.T(), f.PendingRevenue.Equal(kes(500)))
	require.True(s.T(), f.AvgTransaction.Equal(kes(750)))
	require.Equal(s.T(), 66.7, f.SuccessRate)
	require.Equal(s.T(), 2, f.SubscriptionCount)
	require.Equal(s.T(), []float64{1000, 500}, f.TypeChart.Data)
}

func (s *AdminSuite) TestPlatformSettings() {
	cur := &db.PlatformSettings{ID: 3, RegistrationFee: decimal.NewFromInt(1)}
	s.fees.On("CurrentFees", s.ctx).Return(cur, nil)
	s.fees.On("FeeHistory", s.ctx, 1).Return([]*db.PlatformSettings{cur}, db.Pagination{Total: 1}, nil)

	st, err := s.svc.PlatformSettings(s.ctx, s.admin)
	require.NoError(s.T(), err)
	require.Equal(s.T(), cur, st.Current)
	require.Len(s.T(), st.RecentChanges, 1)
}

func (s *AdminSuite) TestUpdatePlatformSettings() {
	reg, sub := decimal.NewFromInt(200), decimal.NewFromInt(100)
	s.fees.On("UpdateFees", s.ctx, reg, sub, s.admin).Return(&db.PlatformSettings{RegistrationFee: reg, SubscriptionFee: sub}, nil)

	_, err := s.svc.UpdatePlatformSettings(s.ctx, s.admin, reg, sub)
	require.NoError(s.T(), err)
}

func (s *AdminSuite) TestListJobsExpired() {
	s.store.On("ListJobs", s.ctx, mock.MatchedBy(func(f db.JobFilter) bool {
		return f.DeadlineBefore != nil && f.DeadlineBefore.Equal(s.now) && f.Active == nil && f.Search == "acme"
	}), db.PageRequest{Number: 1, Size: 25}).Return([]*db.JobPosting{}, db.Pagination{}, nil)

	_, _, err := s.svc.ListJobs(s.ctx, s.admin, JobListFilter{Status: "expired", Search: "acme"})
	require.NoError(s.T(), err)
}

func (s *AdminSuite) TestToggleAndFeatureJob() {
	j := &db.JobPosting{ID: "j1", IsActive: true}
	s.store.On("GetJob", s.ctx, "j1").Return(j, nil)
	s.store.On("UpdateJob", s.ctx, j).Return(nil)

	out, err := s.svc.ToggleJob(s.ctx, s.admin, "j1")
	require.NoError(s.T(), err)
	require.False(s.T(), out.IsActive)

	out, err = s.svc.FeatureJob(s.ctx, s.admin, "j1")
	require.NoError(s.T(), err)
	require.True(s.T(), out.IsFeatured)
}

func (s *AdminSuite) TestDeleteJobMissing() {
	s.store.On("DeleteJob", s.ctx, "j9").Return(false, nil)
	require.ErrorIs(s.T(), s.svc.DeleteJob(s.ctx, s.admin, "j9"), db.ErrNotFound)
}

func (s *AdminSuite) TestBulkJobAction() {
	s.store.On("SetJobsActive", s.ctx, []string{"j1", "j2"}, false).Return(int64(2), nil)

	n, err := s.svc.BulkJobAction(s.ctx, s.admin, "deactivate", []string{"j1", "j2"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2), n)

	_, err = s.svc.BulkJobAction(s.ctx, s.admin, "archive", []string{"j1"})
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}

func (s *AdminSuite) TestJobAnalytics() {
	s.store.On("CountJobs", s.ctx, db.JobFilter{}).Return(4, nil)
	s.store.On("CountJobs", s.ctx, db.JobFilter{Active: db.BoolPtr(true)}).Return(3, nil)
	s.store.On("JobCountsBy", s.ctx, "industry").Return(map[string]int{"technology": 4}, nil)
	s.store.On("JobCountsBy", s.ctx, "job_type").Return(map[string]int{"full_time": 4}, nil)
	s.store.On("JobCountsBy", s.ctx, "experience_level").Return(map[string]int{"mid": 4}, nil)
	s.store.On("CountApplicationsByStatus", s.ctx, db.ApplicationFilter{}).Return(map[db.ApplicationStatus]int{db.AppPending: 5, db.AppHired: 2}, nil)
	s.store.On("TopViewedJobs", s.ctx, 10).Return([]*db.JobPosting{{ID: "j1"}}, nil)

	a, err := s.svc.JobAnalytics(s.ctx, s.admin)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 7, a.TotalApplications)
	require.Equal(s.T(), 1.8, a.AvgApplications)
	require.Equal(s.T(), 4, a.ByIndustry["technology"])
}

func (s *AdminSuite) TestAdminUpdateApplicationStatus() {
	s.store.On("GetApplication", s.ctx, "a1").Return(&db.JobApplication{ID: "a1", ApplicantID: 5, JobTitle: "Go Developer"}, nil)
	s.store.On("UpdateApplication", s.ctx, mock.MatchedBy(func(a *db.JobApplication) bool {
		return a.Status == db.AppHired && *a.StatusUpdatedBy == 1
	})).Return(nil)
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)

	_, err := s.svc.UpdateApplicationStatus(s.ctx, s.admin, "a1", db.AppHired)
	require.NoError(s.T(), err)

	_, err = s.svc.UpdateApplicationStatus(s.ctx, s.admin, "a1", "ghosted")
	require.ErrorIs(s.T(), err, db.ErrInvalid)
}

func (s *AdminSuite) TestApplicationDetails() {
	s.store.On("GetApplication", s.ctx, "a1").Return(&db.JobApplication{ID: "a1", ApplicantID: 5, PortfolioLinks: "https://a.dev, https://b.dev"}, nil)
	s.store.On("GetUser", s.ctx, int64(5)).Return(&db.User{ID: 5, Username: "wanjiru", Email: "w@example.com"}, nil)
	s.store.On("GetProfile", s.ctx, int64(5)).Return(&db.Profile{FirstName: "Wanjiru", LastName: "Kamau"}, nil)

	v, err := s.svc.ApplicationDetails(s.ctx, s.admin, "a1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "Wanjiru Kamau", v.ApplicantName)
	require.Equal(s.T(), []string{"https://a.dev", "https://b.dev"}, v.PortfolioList)
}

func (s *AdminSuite) TestDeleteApplicationDecrementsCount() {
	s.store.On("GetApplication", s.ctx, "a1").Return(&db.JobApplication{ID: "a1", JobID: "j1"}, nil)
	s.store.On("DeleteApplication", s.ctx, "a1").Return(true, nil)
	s.store.On("AdjustApplicationsCount", s.ctx, "j1", -1).Return(nil)

	require.NoError(s.T(), s.svc.DeleteApplication(s.ctx, s.admin, "a1"))
}

func (s *AdminSuite) TestJobSeekers() {
	seeker := &db.User{ID: 7, UserType: db.UserTypeJobSeeker}
	s.store.On("ListUsers", s.ctx, db.UserFilter{UserTypes: []db.UserType{db.UserTypeJobSeeker}, Verified: db.BoolPtr(true)}, db.PageRequest{Number: 1, Size: 20}).
		Return([]*db.User{seeker}, db.Pagination{Total: 1}, nil)
	s.store.On("CountApplicationsByStatus", s.ctx, db.ApplicationFilter{ApplicantID: 7}).Return(map[db.ApplicationStatus]int{db.AppPending: 2}, nil)
	s.store.On("ListSavedJobs", s.ctx, int64(7), db.PageRequest{Number: 1, Size: 1}).Return([]*db.SavedJob{}, db.Pagination{Total: 3}, nil)
	s.store.On("ListAlerts", s.ctx, int64(7)).Return([]*db.JobAlert{{ID: "al1"}}, nil)

	out, _, err := s.svc.JobSeekers(s.ctx, s.admin, SeekerFilter{Verification: "verified"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), Seeker{User: seeker, Applications: 2, SavedJobs: 3, Alerts: 1}, out[0])
}

func (s *AdminSuite) TestJobSeekerDetailWrongType() {
	s.store.On("GetUser", s.ctx, int64(5)).Return(s.member, nil)

	_, err := s.svc.JobSeekerDetail(s.ctx, s.admin, 5)
	require.EqualError(s.T(), err, "Job seeker not found.")
}

func (s *AdminSuite) TestExportJobsCSV() {
	min := decimal.NewFromInt(1000)
	s.store.On("AllJobs", s.ctx, db.JobFilter{Active: db.BoolPtr(true)}).Return([]*db.JobPosting{{
		ID: "j1", Title: "Go Developer", CompanyName: "Acme", Industry: "real_estate", JobType: db.JobFullTime,
		Location: "Nairobi", SalaryMin: &min, RemoteOK: true, ApplicationsCount: 2, ViewsCount: 9, IsActive: true,
		PosterUsername: "root", CreatedAt: s.now,
	}}, nil)

	var buf bytes.Buffer
	require.NoError(s.T(), s.svc.ExportJobsCSV(s.ctx, s.admin, JobListFilter{Status: "active"}, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(s.T(), err)
	require.Len(s.T(), rows, 2)
	require.Equal(s.T(), jobsHeader, rows[0])
	require.Equal(s.T(), []string{
		"j1", "Go Developer", "Acme", "Real Estate", "Full Time", "Nairobi", "1000", "", "Yes", "2", "9", "Yes",
		"root", "2024-06-01 12:00:00", "",
	}, rows[1])
}

func (s *AdminSuite) TestExportApplicationsCSV() {
	s.store.On("GetJob", s.ctx, "j1").Return(&db.JobPosting{ID: "j1", Title: "Go Developer"}, nil)
	s.store.On("AllApplications", s.ctx, db.ApplicationFilter{JobID: "j1"}).Return([]*db.JobApplication{{
		ID: "a1", ApplicantID: 5, Status: db.AppInterviewScheduled, AppliedAt: s.now, CoverLetter: "Hello", CustomResume: "cv.pdf",
	}}, nil)
	s.store.On("GetUser", s.ctx, int64(5)).Return(&db.User{ID: 5, Username: "wanjiru", Email: "w@example.com", PhoneNumber: "254700000001"}, nil)
	s.store.On("GetProfile", s.ctx, int64(5)).Return(&db.Profile{Location: "Kisumu"}, nil)

	var buf bytes.Buffer
	j, err := s.svc.ExportApplicationsCSV(s.ctx, s.admin, "j1", "", "", &buf)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "Go Developer", j.Title)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{
		"a1", "wanjiru", "w@example.com", "254700000001", "Interview Scheduled", "2024-06-01 12:00:00", "Hello", "", "Kisumu", "Yes",
	}, rows[1])
}

func TestClip(t *testing.T) {
	require.Equal(t, "abc", clip("abc", 3))
	require.Equal(t, "ab...", clip("abcd", 2))
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 3, 0, time.UTC)
	require.Equal(t, "jobs_export_20240601_090503.csv", ExportFilename("jobs", at))
}
