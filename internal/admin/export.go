package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
)

const csvTime = "2006-01-02 15:04:05"

var jobsHeader = []string{
	"ID", "Title", "Company", "Industry", "Job Type", "Location",
	"Salary Min", "Salary Max", "Remote OK", "Applications Count",
	"Views Count", "Is Active", "Posted By", "Created At", "Application Deadline",
}

var applicationsHeader = []string{
	"Application ID", "Applicant Name", "Email", "Phone", "Status",
	"Applied Date", "Cover Letter", "Portfolio Links", "Location", "Resume",
}

// label turns a stored choice such as "real_estate" into "Real Estate".
func label(v string) string {
	words := strings.Fields(strings.ReplaceAll(v, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(csvTime)
}

func optDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// ExportFilename returns the attachment name for an export of kind taken at now.
func ExportFilename(kind string, now time.Time) string {
	return fmt.Sprintf("%s_export_%s.csv", kind, now.Format("20060102_150405"))
}

// ExportJobsCSV writes every posting matching f as CSV.
func (s *Service) ExportJobsCSV(ctx context.Context, admin *db.User, f JobListFilter, w io.Writer) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	jobs, err := s.store.AllJobs(ctx, s.jobFilter(f))
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(jobsHeader); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := cw.Write([]string{
			j.ID,
			j.Title,
			j.CompanyName,
			label(j.Industry),
			label(string(j.JobType)),
			j.Location,
			optDecimal(j.SalaryMin),
			optDecimal(j.SalaryMax),
			yesNo(j.RemoteOK),
			strconv.Itoa(j.ApplicationsCount),
			strconv.Itoa(j.ViewsCount),
			yesNo(j.IsActive),
			j.PosterUsername,
			j.CreatedAt.Format(csvTime),
			optTime(j.ApplicationDeadline),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportApplicationsCSV writes the applications of one posting as CSV.
func (s *Service) ExportApplicationsCSV(ctx context.Context, admin *db.User, jobID string, status db.ApplicationStatus, search string, w io.Writer) (*db.JobPosting, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	j, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	apps, err := s.store.AllApplications(ctx, db.ApplicationFilter{JobID: j.ID, Status: status, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(applicationsHeader); err != nil {
		return nil, err
	}
	for _, a := range apps {
		u, p, err := s.applicant(ctx, a.ApplicantID)
		if err != nil {
			return nil, err
		}
		location := ""
		if p != nil {
			location = p.Location
		}
		if err := cw.Write([]string{
			a.ID,
			fullName(u, p),
			u.Email,
			u.PhoneNumber,
			label(string(a.Status)),
			a.AppliedAt.Format(csvTime),
			clip(a.CoverLetter, 500),
			clip(a.PortfolioLinks, 200),
			location,
			yesNo(a.CustomResume != ""),
		}); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return j, cw.Error()
}
