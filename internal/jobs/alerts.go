package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

// AlertInput holds the editable fields of a job alert.
type AlertInput struct {
	Title           string             `json:"title"`
	Keywords        string             `json:"keywords"`
	Location        string             `json:"location"`
	RemoteOnly      bool               `json:"remote_only"`
	JobType         db.JobType         `json:"job_type"`
	ExperienceLevel db.ExperienceLevel `json:"experience_level"`
	Industry        string             `json:"industry"`
	SalaryMin       *decimal.Decimal   `json:"salary_min"`
	Frequency       db.AlertFrequency  `json:"frequency"`
}

func validateAlert(in *AlertInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Keywords = strings.TrimSpace(in.Keywords)
	in.Location = strings.TrimSpace(in.Location)
	if in.Frequency == "" {
		in.Frequency = db.AlertDaily
	}
	switch {
	case in.Title == "":
		return db.Errorf(db.ErrInvalid, "Title is required.")
	case in.JobType != "" && !has(jobTypes, in.JobType):
		return db.Errorf(db.ErrInvalid, "Invalid job type %q.", in.JobType)
	case in.ExperienceLevel != "" && !has(levels, in.ExperienceLevel):
		return db.Errorf(db.ErrInvalid, "Invalid experience level %q.", in.ExperienceLevel)
	case in.Industry != "" && !has(industries, in.Industry):
		return db.Errorf(db.ErrInvalid, "Invalid industry %q.", in.Industry)
	case !has(frequencies, in.Frequency):
		return db.Errorf(db.ErrInvalid, "Invalid frequency %q.", in.Frequency)
	case in.SalaryMin != nil && in.SalaryMin.IsNegative():
		return db.Errorf(db.ErrInvalid, "Salary cannot be negative.")
	}
	return nil
}

func (in *AlertInput) applyTo(al *db.JobAlert) {
	al.Title = in.Title
	al.Keywords = in.Keywords
	al.Location = in.Location
	al.RemoteOnly = in.RemoteOnly
	al.JobType = in.JobType
	al.ExperienceLevel = in.ExperienceLevel
	al.Industry = in.Industry
	al.SalaryMin = in.SalaryMin
	al.Frequency = in.Frequency
}

// ListAlerts returns the alerts of u, newest first.
func (s *Service) ListAlerts(ctx context.Context, u *db.User) ([]*db.JobAlert, error) {
	if err := s.requireSeeker(u, "You don't have permission to view this page."); err != nil {
		return nil, err
	}
	alerts, err := s.store.ListAlerts(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// CreateAlert saves a new job alert for u.
func (s *Service) CreateAlert(ctx context.Context, u *db.User, in AlertInput) (*db.JobAlert, error) {
	if err := s.requireSeeker(u, "You don't have permission to create job alerts."); err != nil {
		return nil, err
	}
	if err := validateAlert(&in); err != nil {
		return nil, err
	}
	al := &db.JobAlert{UserID: u.ID, IsActive: true, CreatedAt: s.now().UTC()}
	in.applyTo(al)
	if err := s.store.CreateAlert(ctx, al); err != nil {
		return nil, fmt.Errorf("creating alert: %w", err)
	}
	return al, nil
}

func (s *Service) ownAlert(ctx context.Context, u *db.User, id string) (*db.JobAlert, error) {
	if err := s.requireSeeker(u, "You don't have permission to manage job alerts."); err != nil {
		return nil, err
	}
	al, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading alert: %w", err)
	}
	if al == nil || al.UserID != u.ID {
		return nil, db.Errorf(db.ErrNotFound, "Job alert not found.")
	}
	return al, nil
}

// EditAlert updates an alert owned by u.
func (s *Service) EditAlert(ctx context.Context, u *db.User, id string, in AlertInput) (*db.JobAlert, error) {
	al, err := s.ownAlert(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if err := validateAlert(&in); err != nil {
		return nil, err
	}
	in.applyTo(al)
	if err := s.store.UpdateAlert(ctx, al); err != nil {
		return nil, fmt.Errorf("updating alert: %w", err)
	}
	return al, nil
}

// DeleteAlert removes an alert owned by u.
func (s *Service) DeleteAlert(ctx context.Context, u *db.User, id string) error {
	al, err := s.ownAlert(ctx, u, id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteAlert(ctx, al.ID); err != nil {
		return fmt.Errorf("deleting alert: %w", err)
	}
	return nil
}

// ToggleAlert flips an alert between active and paused.
func (s *Service) ToggleAlert(ctx context.Context, u *db.User, id string) (*db.JobAlert, error) {
	al, err := s.ownAlert(ctx, u, id)
	if err != nil {
		return nil, err
	}
	al.IsActive = !al.IsActive
	if err := s.store.UpdateAlert(ctx, al); err != nil {
		return nil, fmt.Errorf("updating alert: %w", err)
	}
	return al, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// AlertMatches reports whether job satisfies every criterion set on alert.
func AlertMatches(alert *db.JobAlert, job *db.JobPosting) bool {
	if terms := strings.Fields(alert.Keywords); len(terms) > 0 {
		text := strings.Join([]string{job.Title, job.Description, job.SkillsRequired, job.CompanyName}, " ")
		found := false
		for _, t := range terms {
			if containsFold(text, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if alert.Location != "" && !job.RemoteOK && !containsFold(job.Location, alert.Location) {
		return false
	}
	if alert.RemoteOnly && !job.RemoteOK {
		return false
	}
	if alert.JobType != "" && alert.JobType != job.JobType {
		return false
	}
	if alert.ExperienceLevel != "" && alert.ExperienceLevel != job.ExperienceLevel {
		return false
	}
	if alert.Industry != "" && alert.Industry != job.Industry {
		return false
	}
	if alert.SalaryMin != nil {
		top := job.SalaryMax
		if top == nil {
			top = job.SalaryMin
		}
		if top == nil || top.LessThan(*alert.SalaryMin) {
			return false
		}
	}
	return true
}

// DispatchAlerts notifies the owners of active alerts with the given
// frequency about matching jobs posted since the alert last fired. It
// returns the number of alerts that fired. An alert's watermark never falls
// behind the newest job it saw, so a job stamped after now is not sent twice.
func (s *Service) DispatchAlerts(ctx context.Context, freq db.AlertFrequency, now time.Time) (int, error) {
	alerts, err := s.store.ActiveAlerts(ctx, freq)
	if err != nil {
		return 0, fmt.Errorf("listing alerts: %w", err)
	}
	sent := 0
	for _, al := range alerts {
		since := al.CreatedAt
		if al.LastSent != nil {
			since = *al.LastSent
		}
		jobs, err := s.store.AllJobs(ctx, db.JobFilter{Active: db.BoolPtr(true), CreatedAfter: &since})
		if err != nil {
			return sent, fmt.Errorf("listing jobs: %w", err)
		}
		var matches []*db.JobPosting
		mark := now.UTC()
		for _, j := range jobs {
			if j.CreatedAt.After(mark) {
				mark = j.CreatedAt.UTC()
			}
			if AlertMatches(al, j) {
				matches = append(matches, j)
			}
		}
		if len(matches) == 0 {
			continue
		}

		u, err := s.store.GetUser(ctx, al.UserID)
		if err != nil {
			return sent, fmt.Errorf("loading user: %w", err)
		}
		if u == nil || !u.IsActive {
			continue
		}
		if err := s.notifier.Notify(ctx, u, alertMessage(al, matches)); err != nil {
			return sent, err
		}
		al.LastSent = &mark
		if err := s.store.UpdateAlert(ctx, al); err != nil {
			return sent, fmt.Errorf("updating alert: %w", err)
		}
		sent++
	}
	if sent > 0 {
		s.logger.Info("job alerts dispatched", "frequency", freq, "sent", sent)
	}
	return sent, nil
}

func alertMessage(al *db.JobAlert, jobs []*db.JobPosting) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new job(s) match your alert %q:\n", len(jobs), al.Title)
	for _, j := range jobs {
		fmt.Fprintf(&b, "- %s at %s (%s)\n", j.Title, j.CompanyName, j.Location)
	}
	return notify.Message{
		Kind:  db.NotifyJobMatch,
		Title: "New jobs for " + al.Title,
		Body:  b.String(),
		Email: notify.PrefJobMatches,
	}
}
