package admin

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

// JobListFilter selects postings in the job management list.
type JobListFilter struct {
	Search string
	// Status is "active", "inactive", "expired" or empty.
	Status   string
	Industry string
	JobType  db.JobType
	Page     int
	PerPage  int
}

func (s *Service) jobFilter(f JobListFilter) db.JobFilter {
	jf := db.JobFilter{
		Search:   strings.TrimSpace(f.Search),
		Industry: f.Industry,
		JobType:  f.JobType,
	}
	switch f.Status {
	case "active":
		jf.Active = db.BoolPtr(true)
	case "inactive":
		jf.Active = db.BoolPtr(false)
	case "expired":
		now := s.now().UTC()
		jf.DeadlineBefore = &now
	}
	return jf
}

// ListJobs returns one page of postings, newest first.
func (s *Service) ListJobs(ctx context.Context, admin *db.User, f JobListFilter) ([]*db.JobPosting, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	size := f.PerPage
	if size <= 0 {
		size = listPageSize
	}
	jobs, pg, err := s.store.ListJobs(ctx, s.jobFilter(f), page(f.Page, size))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, pg, nil
}

func (s *Service) getJob(ctx context.Context, id string) (*db.JobPosting, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading job: %w", err)
	}
	if j == nil {
		return nil, db.Errorf(db.ErrNotFound, "Job not found.")
	}
	return j, nil
}

// ToggleJob flips a posting between active and inactive.
func (s *Service) ToggleJob(ctx context.Context, admin *db.User, id string) (*db.JobPosting, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	j, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	j.IsActive = !j.IsActive
	if err := s.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}
	return j, nil
}

// FeatureJob flips the featured flag of a posting.
func (s *Service) FeatureJob(ctx context.Context, admin *db.User, id string) (*db.JobPosting, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	j, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	j.IsFeatured = !j.IsFeatured
	if err := s.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}
	return j, nil
}

// DeleteJob removes a posting and its applications.
func (s *Service) DeleteJob(ctx context.Context, admin *db.User, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	ok, err := s.store.DeleteJob(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	if !ok {
		return db.Errorf(db.ErrNotFound, "Job not found.")
	}
	s.logger.Info("job deleted", "job_id", id, "admin_id", admin.ID)
	return nil
}

// BulkJobAction activates, deactivates or deletes many postings. It
// returns the number of postings changed.
func (s *Service) BulkJobAction(ctx context.Context, admin *db.User, action string, ids []string) (int64, error) {
	if err := requireAdmin(admin); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, db.Errorf(db.ErrInvalid, "No jobs selected.")
	}
	var (
		n   int64
		err error
	)
	switch action {
	case "activate":
		n, err = s.store.SetJobsActive(ctx, ids, true)
	case "deactivate":
		n, err = s.store.SetJobsActive(ctx, ids, false)
	case "delete":
		n, err = s.store.DeleteJobs(ctx, ids)
	default:
		return 0, db.Errorf(db.ErrInvalid, "Invalid action.")
	}
	if err != nil {
		return 0, fmt.Errorf("bulk %s jobs: %w", action, err)
	}
	s.logger.Info("bulk job action", "action", action, "affected", n, "admin_id", admin.ID)
	return n, nil
}

// JobAnalytics is the job board report.
type JobAnalytics struct {
	TotalJobs          int                          `json:"total_jobs"`
	ActiveJobs         int                          `json:"active_jobs"`
	TotalApplications  int                          `json:"total_applications"`
	AvgApplications    float64                      `json:"avg_applications"`
	ByIndustry         map[string]int               `json:"by_industry"`
	ByJobType          map[string]int               `json:"by_job_type"`
	ByExperience       map[string]int               `json:"by_experience_level"`
	ApplicationsStatus map[db.ApplicationStatus]int `json:"application_status_distribution"`
	TopViewed          []*db.JobPosting             `json:"top_viewed"`
}

// JobAnalytics aggregates postings and applications.
func (s *Service) JobAnalytics(ctx context.Context, admin *db.User) (*JobAnalytics, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	a := &JobAnalytics{}
	var err error
	if a.TotalJobs, err = s.store.CountJobs(ctx, db.JobFilter{}); err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	if a.ActiveJobs, err = s.store.CountJobs(ctx, db.JobFilter{Active: db.BoolPtr(true)}); err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	groups := []struct {
		column string
		dst    *map[string]int
	}{
		{"industry", &a.ByIndustry},
		{"job_type", &a.ByJobType},
		{"experience_level", &a.ByExperience},
	}
	for _, g := range groups {
		if *g.dst, err = s.store.JobCountsBy(ctx, g.column); err != nil {
			return nil, fmt.Errorf("grouping jobs by %s: %w", g.column, err)
		}
	}
	if a.ApplicationsStatus, err = s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{}); err != nil {
		return nil, fmt.Errorf("counting applications: %w", err)
	}
	a.TotalApplications = sum(a.ApplicationsStatus)
	if a.TotalJobs > 0 {
		avg := float64(a.TotalApplications) / float64(a.TotalJobs)
		a.AvgApplications = math.Round(avg*10) / 10
	}
	if a.TopViewed, err = s.store.TopViewedJobs(ctx, 10); err != nil {
		return nil, fmt.Errorf("listing top jobs: %w", err)
	}
	return a, nil
}

// JobApplicationsPage is one page of a posting's applications.
type JobApplicationsPage struct {
	Job          *db.JobPosting               `json:"job"`
	Applications []*db.JobApplication         `json:"applications"`
	StatusStats  map[db.ApplicationStatus]int `json:"status_stats"`
	Pagination   db.Pagination                `json:"pagination"`
}

// JobApplications lists the applications of any posting.
func (s *Service) JobApplications(ctx context.Context, admin *db.User, jobID string, status db.ApplicationStatus, search string, n, perPage int) (*JobApplicationsPage, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	j, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = applicationsPageSize
	}
	out := &JobApplicationsPage{Job: j}
	f := db.ApplicationFilter{JobID: j.ID, Status: status, Search: strings.TrimSpace(search)}
	if out.Applications, out.Pagination, err = s.store.ListApplications(ctx, f, page(n, perPage)); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	if out.StatusStats, err = s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{JobID: j.ID}); err != nil {
		return nil, fmt.Errorf("counting applications: %w", err)
	}
	return out, nil
}

func (s *Service) getApplication(ctx context.Context, id string) (*db.JobApplication, error) {
	a, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading application: %w", err)
	}
	if a == nil {
		return nil, db.Errorf(db.ErrNotFound, "Application not found.")
	}
	return a, nil
}

// UpdateApplicationStatus sets the status of any application and tells the
// applicant.
func (s *Service) UpdateApplicationStatus(ctx context.Context, admin *db.User, id string, status db.ApplicationStatus) (*db.JobApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if !slices.Contains(db.ApplicationStatuses, status) {
		return nil, db.Errorf(db.ErrInvalid, "Invalid status.")
	}
	a, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = status
	a.StatusUpdatedBy = &admin.ID
	if err := s.store.UpdateApplication(ctx, a); err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}

	applicant, err := s.store.GetUser(ctx, a.ApplicantID)
	if err != nil {
		s.logger.Warn("loading applicant", "application_id", a.ID, "error", err)
	} else if applicant != nil {
		if err := s.notifier.Notify(ctx, applicant, notify.Message{
			Kind:  db.NotifyApplicationUpdate,
			Title: "Application update: " + a.JobTitle,
			Body:  fmt.Sprintf("Your application for %s is now %s.", a.JobTitle, strings.ReplaceAll(string(status), "_", " ")),
			Email: notify.PrefApplicationUpdates,
		}); err != nil {
			s.logger.Warn("notifying applicant", "application_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// ApplicationView is an application with its applicant's contact details.
type ApplicationView struct {
	*db.JobApplication
	ApplicantName  string   `json:"applicant_name"`
	ApplicantEmail string   `json:"applicant_email"`
	PortfolioList  []string `json:"portfolio_links_list"`
}

func fullName(u *db.User, p *db.Profile) string {
	if p == nil {
		return u.Username
	}
	return p.FullName(u.Username)
}

func (s *Service) applicant(ctx context.Context, id int64) (*db.User, *db.Profile, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading applicant: %w", err)
	}
	if u == nil {
		return &db.User{ID: id}, nil, nil
	}
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading profile: %w", err)
	}
	return u, p, nil
}

// ApplicationDetails returns one application for the detail modal.
func (s *Service) ApplicationDetails(ctx context.Context, admin *db.User, id string) (*ApplicationView, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	a, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	u, p, err := s.applicant(ctx, a.ApplicantID)
	if err != nil {
		return nil, err
	}
	var links []string
	for _, l := range strings.Fields(a.PortfolioLinks) {
		links = append(links, strings.TrimRight(l, ","))
	}
	return &ApplicationView{
		JobApplication: a,
		ApplicantName:  fullName(u, p),
		ApplicantEmail: u.Email,
		PortfolioList:  links,
	}, nil
}

// DeleteApplication removes an application and decrements the posting's
// application count.
func (s *Service) DeleteApplication(ctx context.Context, admin *db.User, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	a, err := s.getApplication(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteApplication(ctx, a.ID); err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}
	if err := s.store.AdjustApplicationsCount(ctx, a.JobID, -1); err != nil {
		return fmt.Errorf("updating application count: %w", err)
	}
	s.logger.Info("application deleted", "application_id", a.ID, "job_id", a.JobID, "admin_id", admin.ID)
	return nil
}

// SeekerFilter selects job seekers.
type SeekerFilter struct {
	Verification string
	Search       string
	Page         int
}

// Seeker is a job seeker with activity counters.
type Seeker struct {
	*db.User
	Applications int `json:"application_count"`
	SavedJobs    int `json:"saved_jobs_count"`
	Alerts       int `json:"alerts_count"`
}

func (s *Service) seeker(ctx context.Context, u *db.User) (Seeker, error) {
	out := Seeker{User: u}
	counts, err := s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{ApplicantID: u.ID})
	if err != nil {
		return out, fmt.Errorf("counting applications: %w", err)
	}
	out.Applications = sum(counts)
	_, pg, err := s.store.ListSavedJobs(ctx, u.ID, page(1, 1))
	if err != nil {
		return out, fmt.Errorf("counting saved jobs: %w", err)
	}
	out.SavedJobs = pg.Total
	alerts, err := s.store.ListAlerts(ctx, u.ID)
	if err != nil {
		return out, fmt.Errorf("counting alerts: %w", err)
	}
	out.Alerts = len(alerts)
	return out, nil
}

// JobSeekers returns one page of job seeker accounts.
func (s *Service) JobSeekers(ctx context.Context, admin *db.User, f SeekerFilter) ([]Seeker, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	uf := db.UserFilter{
		UserTypes: userTypes(db.UserTypeJobSeeker),
		Verified:  verification(f.Verification),
		Search:    strings.TrimSpace(f.Search),
	}
	users, pg, err := s.store.ListUsers(ctx, uf, page(f.Page, seekersPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing job seekers: %w", err)
	}
	out := make([]Seeker, 0, len(users))
	for _, u := range users {
		sk, err := s.seeker(ctx, u)
		if err != nil {
			return nil, db.Pagination{}, err
		}
		out = append(out, sk)
	}
	return out, pg, nil
}

// SeekerDetail is a job seeker's recent activity.
type SeekerDetail struct {
	User         *db.User             `json:"job_seeker"`
	Applications []*db.JobApplication `json:"applications"`
	SavedJobs    []*db.SavedJob       `json:"saved_jobs"`
	Alerts       []*db.JobAlert       `json:"job_alerts"`
	Stats        SeekerStats          `json:"stats"`
}

// SeekerStats are the counters on the job seeker detail page.
type SeekerStats struct {
	TotalApplications       int `json:"total_applications"`
	PendingApplications     int `json:"pending_applications"`
	ShortlistedApplications int `json:"shortlisted_applications"`
	TotalSavedJobs          int `json:"total_saved_jobs"`
	ActiveAlerts            int `json:"active_alerts"`
}

// JobSeekerDetail returns the activity of one job seeker.
func (s *Service) JobSeekerDetail(ctx context.Context, admin *db.User, id int64) (*SeekerDetail, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil || u.UserType != db.UserTypeJobSeeker {
		return nil, db.Errorf(db.ErrNotFound, "Job seeker not found.")
	}
	d := &SeekerDetail{User: u}
	if d.Applications, _, err = s.store.ListApplications(ctx, db.ApplicationFilter{ApplicantID: u.ID}, page(1, 10)); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	var saved db.Pagination
	if d.SavedJobs, saved, err = s.store.ListSavedJobs(ctx, u.ID, page(1, 10)); err != nil {
		return nil, fmt.Errorf("listing saved jobs: %w", err)
	}
	alerts, err := s.store.ListAlerts(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	counts, err := s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{ApplicantID: u.ID})
	if err != nil {
		return nil, fmt.Errorf("counting applications: %w", err)
	}

	d.Stats = SeekerStats{
		TotalApplications:       sum(counts),
		PendingApplications:     counts[db.AppPending],
		ShortlistedApplications: counts[db.AppShortlisted],
		TotalSavedJobs:          saved.Total,
	}
	for _, al := range alerts {
		if al.IsActive {
			d.Stats.ActiveAlerts++
		}
	}
	if len(alerts) > recentLimit {
		alerts = alerts[:recentLimit]
	}
	d.Alerts = alerts
	return d, nil
}
