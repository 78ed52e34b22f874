package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazuu/investorconnect/internal/db"
)

func TestAlertMatches(t *testing.T) {
	job := &db.JobPosting{
		Title:           "Backend Engineer",
		Description:     "Payments platform",
		SkillsRequired:  "Go, Postgres",
		CompanyName:     "Acme",
		Location:        "Nairobi, Kenya",
		JobType:         db.JobFullTime,
		ExperienceLevel: db.LevelSenior,
		Industry:        "finance",
		SalaryMin:       dec(150000),
	}
	remote := *job
	remote.Location = "Anywhere"
	remote.RemoteOK = true

	tests := []struct {
		name  string
		alert db.JobAlert
		job   *db.JobPosting
		want  bool
	}{
		{"empty alert", db.JobAlert{}, job, true},
		{"keyword in skills", db.JobAlert{Keywords: "rust postgres"}, job, true},
		{"keyword missing", db.JobAlert{Keywords: "rust java"}, job, false},
		{"location substring", db.JobAlert{Location: "nairobi"}, job, true},
		{"location mismatch", db.JobAlert{Location: "Mombasa"}, job, false},
		{"remote matches any location", db.JobAlert{Location: "Mombasa"}, &remote, true},
		{"remote only", db.JobAlert{RemoteOnly: true}, job, false},
		{"job type", db.JobAlert{JobType: db.JobContract}, job, false},
		{"level", db.JobAlert{ExperienceLevel: db.LevelSenior}, job, true},
		{"industry", db.JobAlert{Industry: "healthcare"}, job, false},
		{"salary falls back to minimum", db.JobAlert{SalaryMin: dec(100000)}, job, true},
		{"salary too low", db.JobAlert{SalaryMin: dec(200000)}, job, false},
		{"salary unknown", db.JobAlert{SalaryMin: dec(1)}, &db.JobPosting{Title: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlertMatches(&tt.alert, tt.job))
		})
	}
}

func (s *JobsSuite) alert() *db.JobAlert {
	return &db.JobAlert{ID: "al1", UserID: 3, Title: "Go roles", Keywords: "go", IsActive: true, Frequency: db.AlertDaily, CreatedAt: s.now.Add(-72 * time.Hour)}
}

func (s *JobsSuite) TestCreateAlertDefaultsFrequency() {
	s.store.On("CreateAlert", s.ctx, mock.MatchedBy(func(a *db.JobAlert) bool {
		return a.UserID == 3 && a.Frequency == db.AlertDaily && a.IsActive && a.Title == "Go roles"
	})).Return(nil)

	al, err := s.svc.CreateAlert(s.ctx, s.seeker, AlertInput{Title: " Go roles "})
	require.NoError(s.T(), err)
	require.Equal(s.T(), db.AlertDaily, al.Frequency)
}

func (s *JobsSuite) TestCreateAlertValidation() {
	_, err := s.svc.CreateAlert(s.ctx, s.seeker, AlertInput{})
	require.EqualError(s.T(), err, "Title is required.")

	_, err = s.svc.CreateAlert(s.ctx, s.seeker, AlertInput{Title: "x", Frequency: "hourly"})
	require.ErrorIs(s.T(), err, db.ErrInvalid)

	_, err = s.svc.CreateAlert(s.ctx, &db.User{ID: 1, UserType: db.UserTypeInvestor}, AlertInput{Title: "x"})
	require.ErrorIs(s.T(), err, db.ErrForbidden)
}

func (s *JobsSuite) TestEditAlertOwnership() {
	other := s.alert()
	other.UserID = 4
	s.store.On("GetAlert", s.ctx, "al1").Return(other, nil)

	_, err := s.svc.EditAlert(s.ctx, s.seeker, "al1", AlertInput{Title: "x"})
	require.EqualError(s.T(), err, "Job alert not found.")
}

func (s *JobsSuite) TestToggleAndDeleteAlert() {
	s.store.On("GetAlert", s.ctx, "al1").Return(s.alert(), nil)
	s.store.On("UpdateAlert", s.ctx, mock.MatchedBy(func(a *db.JobAlert) bool { return !a.IsActive })).Return(nil)
	s.store.On("DeleteAlert", s.ctx, "al1").Return(true, nil)

	al, err := s.svc.ToggleAlert(s.ctx, s.seeker, "al1")
	require.NoError(s.T(), err)
	require.False(s.T(), al.IsActive)
	require.NoError(s.T(), s.svc.DeleteAlert(s.ctx, s.seeker, "al1"))
}

func (s *JobsSuite) TestDispatchAlerts() {
	al := s.alert()
	quiet := &db.JobAlert{ID: "al2", UserID: 5, Title: "Nursing", Keywords: "nurse", IsActive: true, CreatedAt: s.now.Add(-time.Hour)}
	since := al.CreatedAt

	s.store.On("ActiveAlerts", s.ctx, db.AlertDaily).Return([]*db.JobAlert{al, quiet}, nil)
	s.store.On("AllJobs", s.ctx, db.JobFilter{Active: db.BoolPtr(true), CreatedAfter: &since}).Return([]*db.JobPosting{s.job()}, nil)
	s.store.On("AllJobs", s.ctx, mock.MatchedBy(func(f db.JobFilter) bool {
		return f.CreatedAfter.Equal(quiet.CreatedAt)
	})).Return([]*db.JobPosting{s.job()}, nil)
	s.store.On("GetUser", s.ctx, int64(3)).Return(s.seeker, nil)
	s.store.On("CreateNotification", s.ctx, mock.MatchedBy(func(n *db.Notification) bool {
		return n.UserID == 3 && n.Kind == db.NotifyJobMatch
	})).Return(int64(1), nil)
	s.store.On("UpdateAlert", s.ctx, mock.MatchedBy(func(a *db.JobAlert) bool {
		return a.ID == "al1" && a.LastSent != nil && a.LastSent.Equal(s.now)
	})).Return(nil)

	sent, err := s.svc.DispatchAlerts(s.ctx, db.AlertDaily, s.now)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, sent)
	require.Nil(s.T(), quiet.LastSent)
}

func (s *JobsSuite) TestDispatchWatermarkCoversFutureJobs() {
	al := s.alert()
	late := s.job()
	late.CreatedAt = s.now.Add(2 * time.Second)

	s.store.On("ActiveAlerts", s.ctx, db.AlertDaily).Return([]*db.JobAlert{al}, nil)
	s.store.On("AllJobs", s.ctx, mock.Anything).Return([]*db.JobPosting{s.job(), late}, nil)
	s.store.On("GetUser", s.ctx, int64(3)).Return(s.seeker, nil)
	s.store.On("CreateNotification", s.ctx, mock.Anything).Return(int64(1), nil)
	s.store.On("UpdateAlert", s.ctx, mock.MatchedBy(func(a *db.JobAlert) bool {
		return a.LastSent != nil && a.LastSent.Equal(late.CreatedAt)
	})).Return(nil)

	sent, err := s.svc.DispatchAlerts(s.ctx, db.AlertDaily, s.now)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, sent)
}

func (s *JobsSuite) TestDispatchSkipsInactiveUsers() {
	al := s.alert()
	last := s.now.Add(-24 * time.Hour)
	al.LastSent = &last

	s.store.On("ActiveAlerts", s.ctx, db.AlertDaily).Return([]*db.JobAlert{al}, nil)
	s.store.On("AllJobs", s.ctx, mock.MatchedBy(func(f db.JobFilter) bool {
		return f.CreatedAfter.Equal(last)
	})).Return([]*db.JobPosting{s.job()}, nil)
	s.store.On("GetUser", s.ctx, int64(3)).Return(&db.User{ID: 3, IsActive: false}, nil)

	sent, err := s.svc.DispatchAlerts(s.ctx, db.AlertDaily, s.now)
	require.NoError(s.T(), err)
	require.Zero(s.T(), sent)
}
