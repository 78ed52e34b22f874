package jobs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

var (
	maxResumeSize = int64(10 << 20)
	resumeExts    = set("pdf", "doc", "docx")
)

func (s *Service) requireSeeker(u *db.User, msg string) error {
	if !u.IsJobSeeker() {
		return db.Errorf(db.ErrForbidden, "%s", msg)
	}
	return nil
}

// Resume is an optional resume submitted with an application.
type Resume struct {
	Filename string
	Body     io.Reader
}

// ApplyInput holds the fields of a job application.
type ApplyInput struct {
	CoverLetter    string  `json:"cover_letter"`
	PortfolioLinks string  `json:"portfolio_links"`
	Resume         *Resume `json:"-"`
}

func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func (s *Service) saveResume(userID int64, r *Resume) (string, error) {
	ext := extension(r.Filename)
	if !has(resumeExts, ext) {
		return "", db.Errorf(db.ErrInvalid, "File type .%s is not allowed.", ext)
	}
	name := fmt.Sprintf("application_resumes/%d/%s.%s", userID, uuid.NewString(), ext)
	n, err := s.media.Save(name, io.LimitReader(r.Body, maxResumeSize+1))
	if err != nil {
		return "", fmt.Errorf("saving resume: %w", err)
	}
	if n > maxResumeSize {
		if err := s.media.Remove(name); err != nil {
			s.logger.Warn("removing oversized upload", "path", name, "error", err)
		}
		return "", db.Errorf(db.ErrInvalid, "File size cannot exceed 10 MB.")
	}
	return name, nil
}

// Apply submits an application for an active posting.
func (s *Service) Apply(ctx context.Context, u *db.User, id string, in ApplyInput) (*db.JobApplication, error) {
	if err := s.requireSeeker(u, "Only job seekers can apply for jobs."); err != nil {
		return nil, err
	}
	j, err := s.activeJob(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetApplicationFor(ctx, j.ID, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading application: %w", err)
	}
	if existing != nil {
		return nil, db.Errorf(db.ErrConflict, "You have already applied for this job.")
	}
	if j.DeadlinePassed(s.now()) {
		return nil, db.Errorf(db.ErrInvalid, "The application deadline has passed.")
	}
	in.CoverLetter = strings.TrimSpace(in.CoverLetter)
	if in.CoverLetter == "" {
		return nil, db.Errorf(db.ErrInvalid, "Cover letter is required.")
	}

	a := &db.JobApplication{
		JobID:             j.ID,
		JobTitle:          j.Title,
		ApplicantID:       u.ID,
		ApplicantUsername: u.Username,
		CoverLetter:       in.CoverLetter,
		PortfolioLinks:    strings.TrimSpace(in.PortfolioLinks),
		Status:            db.AppPending,
		AppliedAt:         s.now().UTC(),
	}
	if in.Resume != nil {
		if a.CustomResume, err = s.saveResume(u.ID, in.Resume); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateApplication(ctx, a); err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	if err := s.store.AdjustApplicationsCount(ctx, j.ID, 1); err != nil {
		return nil, fmt.Errorf("updating application count: %w", err)
	}

	poster, err := s.store.GetUser(ctx, j.PosterID)
	if err != nil {
		s.logger.Warn("loading job poster", "job_id", j.ID, "error", err)
	} else if poster != nil {
		if err := s.notifier.Notify(ctx, poster, notify.Message{
			Kind:  db.NotifyNewApplication,
			Title: "New application for " + j.Title,
			Body:  fmt.Sprintf("%s applied for %s.", u.Username, j.Title),
			Email: notify.PrefNewApplications,
		}); err != nil {
			s.logger.Warn("notifying job poster", "job_id", j.ID, "error", err)
		}
	}
	s.logger.Info("job application submitted", "job_id", j.ID, "application_id", a.ID, "user_id", u.ID)
	return a, nil
}

// MyApplications returns the applications submitted by u, newest first.
func (s *Service) MyApplications(ctx context.Context, u *db.User, n int) ([]*db.JobApplication, db.Pagination, error) {
	if err := s.requireSeeker(u, "You don't have permission to view this page."); err != nil {
		return nil, db.Pagination{}, err
	}
	apps, pg, err := s.store.ListApplications(ctx, db.ApplicationFilter{ApplicantID: u.ID}, page(n, applicationPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing applications: %w", err)
	}
	return apps, pg, nil
}

func (s *Service) getApplication(ctx context.Context, id string) (*db.JobApplication, *db.JobPosting, error) {
	a, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading application: %w", err)
	}
	if a == nil {
		return nil, nil, db.Errorf(db.ErrNotFound, "Application not found.")
	}
	j, err := s.getJob(ctx, a.JobID)
	if err != nil {
		return nil, nil, err
	}
	return a, j, nil
}

// ApplicationDetail returns an application to its applicant, the job poster
// or an administrator.
func (s *Service) ApplicationDetail(ctx context.Context, viewer *db.User, id string) (*db.JobApplication, error) {
	a, j, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ApplicantID != viewer.ID && j.PosterID != viewer.ID && !viewer.IsStaff {
		return nil, db.Errorf(db.ErrForbidden, "You don't have permission to view this application.")
	}
	return a, nil
}

// Withdraw withdraws an application owned by u.
func (s *Service) Withdraw(ctx context.Context, u *db.User, id string) (*db.JobApplication, error) {
	a, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading application: %w", err)
	}
	if a == nil || a.ApplicantID != u.ID {
		return nil, db.Errorf(db.ErrNotFound, "Application not found.")
	}
	a.Status = db.AppWithdrawn
	a.StatusUpdatedBy = &u.ID
	a.StatusNotes = "Withdrawn by applicant"
	if err := s.store.UpdateApplication(ctx, a); err != nil {
		return nil, fmt.Errorf("withdrawing application: %w", err)
	}
	return a, nil
}

// JobApplications lists applications for a posting owned by u.
func (s *Service) JobApplications(ctx context.Context, u *db.User, jobID string, status db.ApplicationStatus, n int) (*db.JobPosting, []*db.JobApplication, db.Pagination, error) {
	j, err := s.ownJob(ctx, u, jobID)
	if err != nil {
		return nil, nil, db.Pagination{}, err
	}
	apps, pg, err := s.store.ListApplications(ctx, db.ApplicationFilter{JobID: j.ID, Status: status}, page(n, jobAppsPageSize))
	if err != nil {
		return nil, nil, db.Pagination{}, fmt.Errorf("listing applications: %w", err)
	}
	return j, apps, pg, nil
}

// StatusUpdate changes the hiring state of an application.
type StatusUpdate struct {
	Status               db.ApplicationStatus `json:"status"`
	StatusNotes          string               `json:"status_notes"`
	InterviewScheduledAt *time.Time           `json:"interview_scheduled_at"`
	InterviewLocation    string               `json:"interview_location"`
	InterviewNotes       string               `json:"interview_notes"`
}

func validStatus(st db.ApplicationStatus) bool {
	for _, v := range db.ApplicationStatuses {
		if v == st {
			return true
		}
	}
	return false
}

// UpdateApplicationStatus lets the job poster move an application forward
// and notifies the applicant.
func (s *Service) UpdateApplicationStatus(ctx context.Context, u *db.User, id string, in StatusUpdate) (*db.JobApplication, error) {
	a, j, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.PosterID != u.ID {
		return nil, db.Errorf(db.ErrForbidden, "You don't have permission to update this application.")
	}
	if !validStatus(in.Status) {
		return nil, db.Errorf(db.ErrInvalid, "Invalid status %q.", in.Status)
	}
	a.Status = in.Status
	a.StatusNotes = strings.TrimSpace(in.StatusNotes)
	a.InterviewScheduledAt = in.InterviewScheduledAt
	a.InterviewLocation = strings.TrimSpace(in.InterviewLocation)
	a.InterviewNotes = strings.TrimSpace(in.InterviewNotes)
	a.StatusUpdatedBy = &u.ID
	if err := s.store.UpdateApplication(ctx, a); err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}

	applicant, err := s.store.GetUser(ctx, a.ApplicantID)
	if err != nil {
		s.logger.Warn("loading applicant", "application_id", a.ID, "error", err)
	} else if applicant != nil {
		if err := s.notifier.Notify(ctx, applicant, notify.Message{
			Kind:  db.NotifyApplicationUpdate,
			Title: "Application update: " + j.Title,
			Body:  fmt.Sprintf("Your application for %s is now %s.", j.Title, strings.ReplaceAll(string(a.Status), "_", " ")),
			Email: notify.PrefApplicationUpdates,
		}); err != nil {
			s.logger.Warn("notifying applicant", "application_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// Save bookmarks an active job. It reports whether a bookmark was created.
func (s *Service) Save(ctx context.Context, u *db.User, id, notes string) (bool, error) {
	if err := s.requireSeeker(u, "Only job seekers can save jobs."); err != nil {
		return false, err
	}
	j, err := s.activeJob(ctx, id)
	if err != nil {
		return false, err
	}
	created, err := s.store.SaveJob(ctx, &db.SavedJob{UserID: u.ID, JobID: j.ID, Notes: strings.TrimSpace(notes), SavedAt: s.now().UTC()})
	if err != nil {
		return false, fmt.Errorf("saving job: %w", err)
	}
	return created, nil
}

// Unsave removes a bookmark. It reports whether one existed.
func (s *Service) Unsave(ctx context.Context, u *db.User, id string) (bool, error) {
	if err := s.requireSeeker(u, "Only job seekers can unsave jobs."); err != nil {
		return false, err
	}
	if _, err := s.getJob(ctx, id); err != nil {
		return false, err
	}
	removed, err := s.store.UnsaveJob(ctx, u.ID, id)
	if err != nil {
		return false, fmt.Errorf("removing saved job: %w", err)
	}
	return removed, nil
}

// SavedJobs returns the bookmarks of u with their postings.
func (s *Service) SavedJobs(ctx context.Context, u *db.User, n int) ([]*db.SavedJob, db.Pagination, error) {
	if err := s.requireSeeker(u, "You don't have permission to view this page."); err != nil {
		return nil, db.Pagination{}, err
	}
	saved, pg, err := s.store.ListSavedJobs(ctx, u.ID, page(n, savedPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing saved jobs: %w", err)
	}
	for _, sj := range saved {
		if sj.Job != nil {
			continue
		}
		if sj.Job, err = s.store.GetJob(ctx, sj.JobID); err != nil {
			return nil, db.Pagination{}, fmt.Errorf("loading job: %w", err)
		}
	}
	return saved, pg, nil
}
