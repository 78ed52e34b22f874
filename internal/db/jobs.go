package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const jobFrom = ` FROM job_postings j JOIN users u ON u.id = j.poster_id`

const jobSelect = `SELECT j.id, j.title, j.description, j.requirements, j.responsibilities, j.poster_id, u.username,
	j.company_name, j.company_description, j.location, j.remote_ok, j.job_type, j.industry, j.experience_level,
	j.salary_min, j.salary_max, j.salary_currency, j.equity_offered, j.skills_required, j.benefits,
	j.application_deadline, j.is_active, j.is_featured, j.views_count, j.applications_count, j.created_at, j.updated_at` + jobFrom

func scanJob(sc rowScanner) (*JobPosting, error) {
	j := &JobPosting{}
	err := sc.Scan(&j.ID, &j.Title, &j.Description, &j.Requirements, &j.Responsibilities, &j.PosterID, &j.PosterUsername,
		&j.CompanyName, &j.CompanyDescription, &j.Location, &j.RemoteOK, &j.JobType, &j.Industry, &j.ExperienceLevel,
		&j.SalaryMin, &j.SalaryMax, &j.SalaryCurrency, &j.EquityOffered, &j.SkillsRequired, &j.Benefits,
		&j.ApplicationDeadline, &j.IsActive, &j.IsFeatured, &j.ViewsCount, &j.ApplicationsCount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*JobPosting, error) {
	defer rows.Close()
	var out []*JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, j *JobPosting) error {
	now := utcNow()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.SalaryCurrency == "" {
		j.SalaryCurrency = "KES"
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_postings (id, title, description, requirements, responsibilities, poster_id, company_name,
			company_description, location, remote_ok, job_type, industry, experience_level, salary_min, salary_max,
			salary_currency, equity_offered, skills_required, benefits, application_deadline, is_active, is_featured,
			views_count, applications_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.Description, j.Requirements, j.Responsibilities, j.PosterID, j.CompanyName,
		j.CompanyDescription, j.Location, j.RemoteOK, string(j.JobType), j.Industry, string(j.ExperienceLevel), j.SalaryMin, j.SalaryMax,
		j.SalaryCurrency, j.EquityOffered, j.SkillsRequired, j.Benefits, j.ApplicationDeadline, j.IsActive, j.IsFeatured,
		j.ViewsCount, j.ApplicationsCount, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*JobPosting, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, jobSelect+` WHERE j.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, j *JobPosting) error {
	j.UpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET title = ?, description = ?, requirements = ?, responsibilities = ?, company_name = ?,
			company_description = ?, location = ?, remote_ok = ?, job_type = ?, industry = ?, experience_level = ?,
			salary_min = ?, salary_max = ?, salary_currency = ?, equity_offered = ?, skills_required = ?, benefits = ?,
			application_deadline = ?, is_active = ?, is_featured = ?, updated_at = ?
		 WHERE id = ?`,
		j.Title, j.Description, j.Requirements, j.Responsibilities, j.CompanyName,
		j.CompanyDescription, j.Location, j.RemoteOK, string(j.JobType), j.Industry, string(j.ExperienceLevel),
		j.SalaryMin, j.SalaryMax, j.SalaryCurrency, j.EquityOffered, j.SkillsRequired, j.Benefits,
		j.ApplicationDeadline, j.IsActive, j.IsFeatured, j.UpdatedAt, j.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id string) (bool, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM job_postings WHERE id = ?`, id))
}

// ListJobs orders featured postings first, then newest.
func (s *SQLiteStore) ListJobs(ctx context.Context, f JobFilter, page PageRequest) ([]*JobPosting, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*)`+jobFrom+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx,
		jobSelect+w.String()+` ORDER BY j.is_featured DESC, j.created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	jobs, err := scanJobs(rows)
	return jobs, pg, err
}

// AllJobs returns every matching posting, newest first.
func (s *SQLiteStore) AllJobs(ctx context.Context, f JobFilter) ([]*JobPosting, error) {
	w := f.build()
	rows, err := s.db.QueryContext(ctx, jobSelect+w.String()+` ORDER BY j.created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (s *SQLiteStore) CountJobs(ctx context.Context, f JobFilter) (int, error) {
	w := f.build()
	return s.count(ctx, `SELECT COUNT(*)`+jobFrom+w.String(), w.args...)
}

func (s *SQLiteStore) IncrementJobViews(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE job_postings SET views_count = views_count + 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) SetJobsActive(ctx context.Context, ids []string, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{active, utcNow()}, stringArgs(ids)...)
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET is_active = ?, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteJobs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM job_postings WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) AdjustApplicationsCount(ctx context.Context, jobID string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET applications_count = MAX(applications_count + ?, 0) WHERE id = ?`, delta, jobID)
	return err
}

var jobCountColumns = map[string]bool{
	"industry":         true,
	"job_type":         true,
	"experience_level": true,
}

// JobCountsBy groups postings by one of industry, job_type or experience_level.
func (s *SQLiteStore) JobCountsBy(ctx context.Context, column string) (map[string]int, error) {
	if !jobCountColumns[column] {
		return nil, fmt.Errorf("unsupported grouping column %q", column)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM job_postings GROUP BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TopViewedJobs(ctx context.Context, limit int) ([]*JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, jobSelect+` ORDER BY j.views_count DESC, j.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

const applicationFrom = ` FROM job_applications a
	JOIN job_postings j ON j.id = a.job_id
	JOIN users u ON u.id = a.applicant_id`

const applicationSelect = `SELECT a.id, a.job_id, j.title, a.applicant_id, u.username, a.cover_letter, a.custom_resume,
	a.portfolio_links, a.status, a.status_updated_by, a.status_notes, a.interview_scheduled_at, a.interview_location,
	a.interview_notes, a.applied_at, a.status_updated_at` + applicationFrom

func scanApplication(sc rowScanner) (*JobApplication, error) {
	a := &JobApplication{}
	err := sc.Scan(&a.ID, &a.JobID, &a.JobTitle, &a.ApplicantID, &a.ApplicantUsername, &a.CoverLetter, &a.CustomResume,
		&a.PortfolioLinks, &a.Status, &a.StatusUpdatedBy, &a.StatusNotes, &a.InterviewScheduledAt, &a.InterviewLocation,
		&a.InterviewNotes, &a.AppliedAt, &a.StatusUpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanApplications(rows *sql.Rows) ([]*JobApplication, error) {
	defer rows.Close()
	var out []*JobApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateApplication(ctx context.Context, a *JobApplication) error {
	now := utcNow()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AppPending
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = now
	}
	a.StatusUpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_applications (id, job_id, applicant_id, cover_letter, custom_resume, portfolio_links, status,
			status_updated_by, status_notes, interview_scheduled_at, interview_location, interview_notes, applied_at,
			status_updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.JobID, a.ApplicantID, a.CoverLetter, a.CustomResume, a.PortfolioLinks, string(a.Status),
		a.StatusUpdatedBy, a.StatusNotes, a.InterviewScheduledAt, a.InterviewLocation, a.InterviewNotes, a.AppliedAt,
		a.StatusUpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*JobApplication, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx, applicationSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) GetApplicationFor(ctx context.Context, jobID string, applicantID int64) (*JobApplication, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx,
		applicationSelect+` WHERE a.job_id = ? AND a.applicant_id = ?`, jobID, applicantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) UpdateApplication(ctx context.Context, a *JobApplication) error {
	a.StatusUpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_applications SET cover_letter = ?, custom_resume = ?, portfolio_links = ?, status = ?,
			status_updated_by = ?, status_notes = ?, interview_scheduled_at = ?, interview_location = ?,
			interview_notes = ?, status_updated_at = ?
		 WHERE id = ?`,
		a.CoverLetter, a.CustomResume, a.PortfolioLinks, string(a.Status),
		a.StatusUpdatedBy, a.StatusNotes, a.InterviewScheduledAt, a.InterviewLocation,
		a.InterviewNotes, a.StatusUpdatedAt, a.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteApplication(ctx context.Context, id string) (bool, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM job_applications WHERE id = ?`, id))
}

func (s *SQLiteStore) ListApplications(ctx context.Context, f ApplicationFilter, page PageRequest) ([]*JobApplication, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*)`+applicationFrom+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx, applicationSelect+w.String()+` ORDER BY a.applied_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	apps, err := scanApplications(rows)
	return apps, pg, err
}

func (s *SQLiteStore) AllApplications(ctx context.Context, f ApplicationFilter) ([]*JobApplication, error) {
	w := f.build()
	rows, err := s.db.QueryContext(ctx, applicationSelect+w.String()+` ORDER BY a.applied_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	return scanApplications(rows)
}

func (s *SQLiteStore) CountApplicationsByStatus(ctx context.Context, f ApplicationFilter) (map[ApplicationStatus]int, error) {
	w := f.build()
	rows, err := s.db.QueryContext(ctx, `SELECT a.status, COUNT(*)`+applicationFrom+w.String()+` GROUP BY a.status`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[ApplicationStatus]int{}
	for rows.Next() {
		var status ApplicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// SaveJob bookmarks a posting and reports whether a new bookmark was created.
func (s *SQLiteStore) SaveJob(ctx context.Context, sj *SavedJob) (bool, error) {
	if sj.ID == "" {
		sj.ID = uuid.NewString()
	}
	if sj.SavedAt.IsZero() {
		sj.SavedAt = utcNow()
	}
	return affected(s.db.ExecContext(ctx,
		`INSERT INTO saved_jobs (id, user_id, job_id, notes, saved_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, job_id) DO NOTHING`,
		sj.ID, sj.UserID, sj.JobID, sj.Notes, sj.SavedAt,
	))
}

func (s *SQLiteStore) UnsaveJob(ctx context.Context, userID int64, jobID string) (bool, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM saved_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID))
}

func (s *SQLiteStore) IsJobSaved(ctx context.Context, userID int64, jobID string) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM saved_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID)
	return n > 0, err
}

func (s *SQLiteStore) ListSavedJobs(ctx context.Context, userID int64, page PageRequest) ([]*SavedJob, Pagination, error) {
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM saved_jobs WHERE user_id = ?`, []any{userID}, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, job_id, notes, saved_at FROM saved_jobs WHERE user_id = ? ORDER BY saved_at DESC LIMIT ? OFFSET ?`,
		userID, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	var out []*SavedJob
	for rows.Next() {
		sj := &SavedJob{}
		if err := rows.Scan(&sj.ID, &sj.UserID, &sj.JobID, &sj.Notes, &sj.SavedAt); err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, sj)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}
	rows.Close()

	for _, sj := range out {
		job, err := s.GetJob(ctx, sj.JobID)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("loading saved job %s: %w", sj.JobID, err)
		}
		sj.Job = job
	}
	return out, pg, nil
}

const alertColumns = `id, user_id, title, keywords, location, remote_only, job_type, experience_level, industry,
	salary_min, is_active, frequency, last_sent, created_at, updated_at`

func scanAlert(sc rowScanner) (*JobAlert, error) {
	a := &JobAlert{}
	err := sc.Scan(&a.ID, &a.UserID, &a.Title, &a.Keywords, &a.Location, &a.RemoteOnly, &a.JobType, &a.ExperienceLevel,
		&a.Industry, &a.SalaryMin, &a.IsActive, &a.Frequency, &a.LastSent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAlerts(rows *sql.Rows) ([]*JobAlert, error) {
	defer rows.Close()
	var out []*JobAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, a *JobAlert) error {
	now := utcNow()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Frequency == "" {
		a.Frequency = AlertDaily
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Title, a.Keywords, a.Location, a.RemoteOnly, string(a.JobType), string(a.ExperienceLevel),
		a.Industry, a.SalaryMin, a.IsActive, string(a.Frequency), a.LastSent, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (*JobAlert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM job_alerts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) UpdateAlert(ctx context.Context, a *JobAlert) error {
	a.UpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_alerts SET title = ?, keywords = ?, location = ?, remote_only = ?, job_type = ?, experience_level = ?,
			industry = ?, salary_min = ?, is_active = ?, frequency = ?, last_sent = ?, updated_at = ?
		 WHERE id = ?`,
		a.Title, a.Keywords, a.Location, a.RemoteOnly, string(a.JobType), string(a.ExperienceLevel),
		a.Industry, a.SalaryMin, a.IsActive, string(a.Frequency), a.LastSent, a.UpdatedAt, a.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM job_alerts WHERE id = ?`, id))
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, userID int64) ([]*JobAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM job_alerts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanAlerts(rows)
}

func (s *SQLiteStore) ActiveAlerts(ctx context.Context, freq AlertFrequency) ([]*JobAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM job_alerts WHERE is_active = 1 AND frequency = ? ORDER BY created_at`, string(freq))
	if err != nil {
		return nil, err
	}
	return scanAlerts(rows)
}
