package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

var (
	listPageSize        = 12
	postingsPageSize    = 10
	applicationPageSize = 10
	jobAppsPageSize     = 20
	savedPageSize       = 12
)

var (
	jobTypes   = set(db.JobFullTime, db.JobPartTime, db.JobContract, db.JobFreelance, db.JobInternship)
	levels     = set(db.LevelEntry, db.LevelJunior, db.LevelMid, db.LevelSenior, db.LevelLead, db.LevelExecutive)
	industries = set("technology", "healthcare", "finance", "retail", "manufacturing",
		"education", "real_estate", "agriculture", "entertainment", "other")
	frequencies = set(db.AlertImmediate, db.AlertDaily, db.AlertWeekly)
)

func set[T comparable](vs ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

func has[T comparable](m map[T]struct{}, v T) bool {
	_, ok := m[v]
	return ok
}

// Media stores application resumes.
type Media interface {
	Save(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

// Service implements the job board.
type Service struct {
	store    db.Store
	media    Media
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new jobs Service.
func NewService(store db.Store, media Media, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		media:    media,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func page(n, size int) db.PageRequest {
	if n < 1 {
		n = 1
	}
	return db.PageRequest{Number: n, Size: size}
}

// List returns active jobs matching q in title, company or skills.
func (s *Service) List(ctx context.Context, q string, n int) ([]*db.JobPosting, db.Pagination, error) {
	f := db.JobFilter{Query: strings.TrimSpace(q), Active: db.BoolPtr(true)}
	jobs, pg, err := s.store.ListJobs(ctx, f, page(n, listPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, pg, nil
}

// SearchFilters are the advanced search fields.
type SearchFilters struct {
	Keywords        string
	Location        string
	JobType         db.JobType
	ExperienceLevel db.ExperienceLevel
	Industry        string
	RemoteOnly      bool
	SalaryMin       *decimal.Decimal
}

// Search returns active jobs matching every given filter.
func (s *Service) Search(ctx context.Context, sf SearchFilters, n int) ([]*db.JobPosting, db.Pagination, error) {
	f := db.JobFilter{
		Keywords:        strings.TrimSpace(sf.Keywords),
		Location:        strings.TrimSpace(sf.Location),
		JobType:         sf.JobType,
		ExperienceLevel: sf.ExperienceLevel,
		Industry:        sf.Industry,
		RemoteOnly:      sf.RemoteOnly,
		SalaryMin:       sf.SalaryMin,
		Active:          db.BoolPtr(true),
	}
	jobs, pg, err := s.store.ListJobs(ctx, f, page(n, listPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("searching jobs: %w", err)
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

func (s *Service) activeJob(ctx context.Context, id string) (*db.JobPosting, error) {
	j, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.IsActive {
		return nil, db.Errorf(db.ErrNotFound, "Job not found.")
	}
	return j, nil
}

// JobDetail is a posting as seen by one viewer.
type JobDetail struct {
	Job         *db.JobPosting `json:"job"`
	UserApplied bool           `json:"user_applied"`
	UserSaved   bool           `json:"user_saved"`
	CanApply    bool           `json:"can_apply"`
	Skills      []string       `json:"skills_list"`
}

// Detail returns an active posting and counts the view. viewer may be nil.
func (s *Service) Detail(ctx context.Context, viewer *db.User, id string) (*JobDetail, error) {
	j, err := s.activeJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementJobViews(ctx, j.ID); err != nil {
		return nil, fmt.Errorf("counting view: %w", err)
	}
	j.ViewsCount++

	d := &JobDetail{Job: j, Skills: j.SkillsList()}
	if viewer != nil && viewer.IsJobSeeker() {
		a, err := s.store.GetApplicationFor(ctx, j.ID, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("loading application: %w", err)
		}
		d.UserApplied = a != nil
		if d.UserSaved, err = s.store.IsJobSaved(ctx, viewer.ID, j.ID); err != nil {
			return nil, fmt.Errorf("loading saved job: %w", err)
		}
		d.CanApply = !d.UserApplied && !j.DeadlinePassed(s.now())
	}
	return d, nil
}

// JobInput holds the editable fields of a posting.
type JobInput struct {
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Requirements        string             `json:"requirements"`
	Responsibilities    string             `json:"responsibilities"`
	CompanyName         string             `json:"company_name"`
	CompanyDescription  string             `json:"company_description"`
	Location            string             `json:"location"`
	RemoteOK            bool               `json:"remote_ok"`
	JobType             db.JobType         `json:"job_type"`
	Industry            string             `json:"industry"`
	ExperienceLevel     db.ExperienceLevel `json:"experience_level"`
	SalaryMin           *decimal.Decimal   `json:"salary_min"`
	SalaryMax           *decimal.Decimal   `json:"salary_max"`
	SalaryCurrency      string             `json:"salary_currency"`
	EquityOffered       bool               `json:"equity_offered"`
	SkillsRequired      string             `json:"skills_required"`
	Benefits            string             `json:"benefits"`
	ApplicationDeadline *time.Time         `json:"application_deadline"`
}

func (in *JobInput) trim() {
	for _, f := range []*string{
		&in.Title, &in.Description, &in.Requirements, &in.Responsibilities, &in.CompanyName,
		&in.CompanyDescription, &in.Location, &in.SkillsRequired, &in.Benefits, &in.SalaryCurrency,
	} {
		*f = strings.TrimSpace(*f)
	}
}

func (s *Service) validateJob(in *JobInput) error {
	required := []struct {
		v, name string
	}{
		{in.Title, "Title"},
		{in.Description, "Description"},
		{in.Requirements, "Requirements"},
		{in.CompanyName, "Company name"},
		{in.Location, "Location"},
		{in.Industry, "Industry"},
		{string(in.ExperienceLevel), "Experience level"},
		{in.SkillsRequired, "Skills"},
	}
	for _, r := range required {
		if r.v == "" {
			return db.Errorf(db.ErrInvalid, "%s is required.", r.name)
		}
	}
	if in.JobType == "" {
		in.JobType = db.JobFullTime
	}
	switch {
	case utf8.RuneCountInString(in.Title) > 200:
		return db.Errorf(db.ErrInvalid, "Title cannot exceed 200 characters.")
	case !has(jobTypes, in.JobType):
		return db.Errorf(db.ErrInvalid, "Invalid job type %q.", in.JobType)
	case !has(levels, in.ExperienceLevel):
		return db.Errorf(db.ErrInvalid, "Invalid experience level %q.", in.ExperienceLevel)
	case !has(industries, in.Industry):
		return db.Errorf(db.ErrInvalid, "Invalid industry %q.", in.Industry)
	case in.SalaryMin != nil && in.SalaryMin.IsNegative(), in.SalaryMax != nil && in.SalaryMax.IsNegative():
		return db.Errorf(db.ErrInvalid, "Salary cannot be negative.")
	case in.SalaryMin != nil && in.SalaryMax != nil && in.SalaryMin.GreaterThan(*in.SalaryMax):
		return db.Errorf(db.ErrInvalid, "Minimum salary cannot be higher than maximum salary.")
	case in.ApplicationDeadline != nil && !in.ApplicationDeadline.After(s.now()):
		return db.Errorf(db.ErrInvalid, "Application deadline must be in the future.")
	}
	return nil
}

func apply(j *db.JobPosting, in JobInput) {
	j.Title = in.Title
	j.Description = in.Description
	j.Requirements = in.Requirements
	j.Responsibilities = in.Responsibilities
	j.CompanyName = in.CompanyName
	j.CompanyDescription = in.CompanyDescription
	j.Location = in.Location
	j.RemoteOK = in.RemoteOK
	j.JobType = in.JobType
	j.Industry = in.Industry
	j.ExperienceLevel = in.ExperienceLevel
	j.SalaryMin = in.SalaryMin
	j.SalaryMax = in.SalaryMax
	j.SalaryCurrency = in.SalaryCurrency
	j.EquityOffered = in.EquityOffered
	j.SkillsRequired = in.SkillsRequired
	j.Benefits = in.Benefits
	j.ApplicationDeadline = in.ApplicationDeadline
}

// Post creates a job posting and sends immediate alerts that match it.
func (s *Service) Post(ctx context.Context, u *db.User, in JobInput) (*db.JobPosting, error) {
	if !u.CanPostJobs(s.now()) {
		return nil, db.Errorf(db.ErrForbidden, "You don't have permission to post jobs.")
	}
	in.trim()
	if in.CompanyName == "" {
		in.CompanyName = strings.TrimSpace(u.CompanyName)
	}
	if err := s.validateJob(&in); err != nil {
		return nil, err
	}
	if in.SalaryCurrency == "" {
		in.SalaryCurrency = "KES"
	}
	j := &db.JobPosting{PosterID: u.ID, PosterUsername: u.Username, IsActive: true, CreatedAt: s.now().UTC()}
	apply(j, in)
	if err := s.store.CreateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	s.logger.Info("job posted", "job_id", j.ID, "poster_id", u.ID)

	if _, err := s.DispatchAlerts(ctx, db.AlertImmediate, s.now()); err != nil {
		s.logger.Warn("dispatching immediate alerts", "job_id", j.ID, "error", err)
	}
	return j, nil
}

// ownJob loads a posting owned by u. Other users see ErrNotFound.
func (s *Service) ownJob(ctx context.Context, u *db.User, id string) (*db.JobPosting, error) {
	j, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.PosterID != u.ID {
		return nil, db.Errorf(db.ErrNotFound, "Job not found.")
	}
	return j, nil
}

// Edit updates a posting owned by u.
func (s *Service) Edit(ctx context.Context, u *db.User, id string, in JobInput) (*db.JobPosting, error) {
	j, err := s.ownJob(ctx, u, id)
	if err != nil {
		return nil, err
	}
	in.trim()
	if err := s.validateJob(&in); err != nil {
		return nil, err
	}
	if in.SalaryCurrency == "" {
		in.SalaryCurrency = j.SalaryCurrency
	}
	apply(j, in)
	if err := s.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}
	return j, nil
}

// Delete deactivates a posting owned by u.
func (s *Service) Delete(ctx context.Context, u *db.User, id string) error {
	j, err := s.ownJob(ctx, u, id)
	if err != nil {
		return err
	}
	j.IsActive = false
	if err := s.store.UpdateJob(ctx, j); err != nil {
		return fmt.Errorf("deactivating job: %w", err)
	}
	return nil
}

// Posting is one of the user's postings with its live application count.
type Posting struct {
	*db.JobPosting
	TotalApplications int `json:"total_applications"`
}

// MyPostings returns the postings created by u.
func (s *Service) MyPostings(ctx context.Context, u *db.User, n int) ([]Posting, db.Pagination, error) {
	if !u.CanPostJobs(s.now()) {
		return nil, db.Pagination{}, db.Errorf(db.ErrForbidden, "You don't have permission to view this page.")
	}
	jobs, pg, err := s.store.ListJobs(ctx, db.JobFilter{PosterID: u.ID}, page(n, postingsPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing jobs: %w", err)
	}
	out := make([]Posting, 0, len(jobs))
	for _, j := range jobs {
		counts, err := s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{JobID: j.ID})
		if err != nil {
			return nil, db.Pagination{}, fmt.Errorf("counting applications: %w", err)
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		out = append(out, Posting{JobPosting: j, TotalApplications: total})
	}
	return out, pg, nil
}
