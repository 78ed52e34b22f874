package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bazuu/investorconnect/internal/db"
)

// MockStore implements the db.Store interface for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, u *db.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreateAccount(ctx context.Context, u *db.User, p *db.Profile, ns *db.NotificationSettings) (int64, error) {
	args := m.Called(ctx, u, p, ns)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*db.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

func (m *MockStore) GetUserByPhone(ctx context.Context, phone string) (*db.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

func (m *MockStore) UpdateUser(ctx context.Context, u *db.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockStore) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) ListUsers(ctx context.Context, f db.UserFilter, page db.PageRequest) ([]*db.User, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.User), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) CountUsers(ctx context.Context, f db.UserFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) FirstActiveStaff(ctx context.Context) (*db.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.User), args.Error(1)
}

func (m *MockStore) LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UsersWithoutProfile(ctx context.Context) ([]*db.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.User), args.Error(1)
}

func (m *MockStore) GetProfile(ctx context.Context, userID int64) (*db.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Profile), args.Error(1)
}

func (m *MockStore) UpsertProfile(ctx context.Context, p *db.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) GetNotificationSettings(ctx context.Context, userID int64) (*db.NotificationSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.NotificationSettings), args.Error(1)
}

func (m *MockStore) UpsertNotificationSettings(ctx context.Context, ns *db.NotificationSettings) error {
	return m.Called(ctx, ns).Error(0)
}

func (m *MockStore) GetActivity(ctx context.Context, userID int64) (*db.UserActivity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.UserActivity), args.Error(1)
}

func (m *MockStore) UpsertActivity(ctx context.Context, a *db.UserActivity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) CreateNotification(ctx context.Context, n *db.Notification) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*db.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.Notification), args.Error(1)
}

func (m *MockStore) MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateCategory(ctx context.Context, c *db.PitchCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockStore) GetCategory(ctx context.Context, id string) (*db.PitchCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PitchCategory), args.Error(1)
}

func (m *MockStore) GetCategoryByName(ctx context.Context, name string) (*db.PitchCategory, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PitchCategory), args.Error(1)
}

func (m *MockStore) ListCategories(ctx context.Context) ([]*db.PitchCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.PitchCategory), args.Error(1)
}

func (m *MockStore) DeleteCategory(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreatePitch(ctx context.Context, p *db.Pitch) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) GetPitch(ctx context.Context, id string) (*db.Pitch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Pitch), args.Error(1)
}

func (m *MockStore) UpdatePitch(ctx context.Context, p *db.Pitch) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) ListPitches(ctx context.Context, f db.PitchFilter, page db.PageRequest) ([]*db.Pitch, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.Pitch), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) CountPitches(ctx context.Context, f db.PitchFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CreatePitchFile(ctx context.Context, f *db.PitchFile) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockStore) ListPitchFiles(ctx context.Context, pitchID string) ([]*db.PitchFile, error) {
	args := m.Called(ctx, pitchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.PitchFile), args.Error(1)
}

func (m *MockStore) GetPitchFile(ctx context.Context, id string) (*db.PitchFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PitchFile), args.Error(1)
}

func (m *MockStore) CreateInterest(ctx context.Context, i *db.PitchInterest) (bool, error) {
	args := m.Called(ctx, i)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetInterest(ctx context.Context, investorID int64, pitchID string) (*db.PitchInterest, error) {
	args := m.Called(ctx, investorID, pitchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PitchInterest), args.Error(1)
}

func (m *MockStore) DeleteInterest(ctx context.Context, investorID int64, pitchID string) (bool, error) {
	args := m.Called(ctx, investorID, pitchID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CountInterests(ctx context.Context, investorID int64) (int, error) {
	args := m.Called(ctx, investorID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CreatePost(ctx context.Context, p *db.InvestorPost) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) GetPost(ctx context.Context, id string) (*db.InvestorPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.InvestorPost), args.Error(1)
}

func (m *MockStore) ListPosts(ctx context.Context, f db.PostFilter, page db.PageRequest) ([]*db.InvestorPost, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.InvestorPost), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) IncrementPostReads(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) CreateJob(ctx context.Context, j *db.JobPosting) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockStore) GetJob(ctx context.Context, id string) (*db.JobPosting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.JobPosting), args.Error(1)
}

func (m *MockStore) UpdateJob(ctx context.Context, j *db.JobPosting) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockStore) DeleteJob(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListJobs(ctx context.Context, f db.JobFilter, page db.PageRequest) ([]*db.JobPosting, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.JobPosting), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) AllJobs(ctx context.Context, f db.JobFilter) ([]*db.JobPosting, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobPosting), args.Error(1)
}

func (m *MockStore) CountJobs(ctx context.Context, f db.JobFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) IncrementJobViews(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) SetJobsActive(ctx context.Context, ids []string, active bool) (int64, error) {
	args := m.Called(ctx, ids, active)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) DeleteJobs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) AdjustApplicationsCount(ctx context.Context, jobID string, delta int) error {
	return m.Called(ctx, jobID, delta).Error(0)
}

func (m *MockStore) JobCountsBy(ctx context.Context, column string) (map[string]int, error) {
	args := m.Called(ctx, column)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockStore) TopViewedJobs(ctx context.Context, limit int) ([]*db.JobPosting, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobPosting), args.Error(1)
}

func (m *MockStore) CreateApplication(ctx context.Context, a *db.JobApplication) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) GetApplication(ctx context.Context, id string) (*db.JobApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.JobApplication), args.Error(1)
}

func (m *MockStore) GetApplicationFor(ctx context.Context, jobID string, applicantID int64) (*db.JobApplication, error) {
	args := m.Called(ctx, jobID, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.JobApplication), args.Error(1)
}

func (m *MockStore) UpdateApplication(ctx context.Context, a *db.JobApplication) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) DeleteApplication(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListApplications(ctx context.Context, f db.ApplicationFilter, page db.PageRequest) ([]*db.JobApplication, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.JobApplication), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) AllApplications(ctx context.Context, f db.ApplicationFilter) ([]*db.JobApplication, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobApplication), args.Error(1)
}

func (m *MockStore) CountApplicationsByStatus(ctx context.Context, f db.ApplicationFilter) (map[db.ApplicationStatus]int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[db.ApplicationStatus]int), args.Error(1)
}

func (m *MockStore) SaveJob(ctx context.Context, s *db.SavedJob) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) UnsaveJob(ctx context.Context, userID int64, jobID string) (bool, error) {
	args := m.Called(ctx, userID, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) IsJobSaved(ctx context.Context, userID int64, jobID string) (bool, error) {
	args := m.Called(ctx, userID, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListSavedJobs(ctx context.Context, userID int64, page db.PageRequest) ([]*db.SavedJob, db.Pagination, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.SavedJob), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) CreateAlert(ctx context.Context, a *db.JobAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) GetAlert(ctx context.Context, id string) (*db.JobAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.JobAlert), args.Error(1)
}

func (m *MockStore) UpdateAlert(ctx context.Context, a *db.JobAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListAlerts(ctx context.Context, userID int64) ([]*db.JobAlert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobAlert), args.Error(1)
}

func (m *MockStore) ActiveAlerts(ctx context.Context, freq db.AlertFrequency) ([]*db.JobAlert, error) {
	args := m.Called(ctx, freq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobAlert), args.Error(1)
}

func (m *MockStore) CreateRoom(ctx context.Context, r *db.ChatRoom) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockStore) GetRoom(ctx context.Context, id string) (*db.ChatRoom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChatRoom), args.Error(1)
}

func (m *MockStore) FindInvestorRoom(ctx context.Context, investorID, regularID int64) (*db.ChatRoom, error) {
	args := m.Called(ctx, investorID, regularID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChatRoom), args.Error(1)
}

func (m *MockStore) FindParticipantRoom(ctx context.Context, a, b int64) (*db.ChatRoom, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChatRoom), args.Error(1)
}

func (m *MockStore) ListRoomsForUser(ctx context.Context, userID int64) ([]*db.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.ChatRoom), args.Error(1)
}

func (m *MockStore) ListRoomsForPitch(ctx context.Context, pitchID string) ([]*db.ChatRoom, error) {
	args := m.Called(ctx, pitchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.ChatRoom), args.Error(1)
}

func (m *MockStore) TouchRoom(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockStore) CreateMessage(ctx context.Context, msg *db.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStore) GetMessage(ctx context.Context, id string) (*db.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChatMessage), args.Error(1)
}

func (m *MockStore) ListMessages(ctx context.Context, roomID string) ([]*db.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.ChatMessage), args.Error(1)
}

func (m *MockStore) LastMessage(ctx context.Context, roomID string) (*db.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChatMessage), args.Error(1)
}

func (m *MockStore) CountMessages(ctx context.Context, roomID string) (int, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) MarkRoomRead(ctx context.Context, roomID string, readerID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, roomID, readerID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkMessageRead(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockStore) CountUnread(ctx context.Context, userID int64, roomID, excludeRoomID string) (int, error) {
	args := m.Called(ctx, userID, roomID, excludeRoomID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CreatePayment(ctx context.Context, p *db.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) GetPayment(ctx context.Context, id string) (*db.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Payment), args.Error(1)
}

func (m *MockStore) GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*db.Payment, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Payment), args.Error(1)
}

func (m *MockStore) UpdatePayment(ctx context.Context, p *db.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) TransitionPayment(ctx context.Context, id string, from, to db.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListPayments(ctx context.Context, f db.PaymentFilter, page db.PageRequest) ([]*db.Payment, db.Pagination, error) {
	args := m.Called(ctx, f, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.Payment), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) CountPayments(ctx context.Context, f db.PaymentFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) PendingPayments(ctx context.Context, before time.Time) ([]*db.Payment, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.Payment), args.Error(1)
}

func (m *MockStore) PaymentAmounts(ctx context.Context) ([]db.PaymentAmount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.PaymentAmount), args.Error(1)
}

func (m *MockStore) LatestPlatformSettings(ctx context.Context) (*db.PlatformSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PlatformSettings), args.Error(1)
}

func (m *MockStore) InsertPlatformSettings(ctx context.Context, ps *db.PlatformSettings) (int64, error) {
	args := m.Called(ctx, ps)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListPlatformSettings(ctx context.Context, page db.PageRequest) ([]*db.PlatformSettings, db.Pagination, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(db.Pagination), args.Error(2)
	}
	return args.Get(0).([]*db.PlatformSettings), args.Get(1).(db.Pagination), args.Error(2)
}

func (m *MockStore) InsertJobRunLog(ctx context.Context, l *db.JobRunLog) (int64, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UpdateJobRunLog(ctx context.Context, l *db.JobRunLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockStore) ListJobRunLogs(ctx context.Context, jobName string, limit int) ([]*db.JobRunLog, error) {
	args := m.Called(ctx, jobName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.JobRunLog), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
