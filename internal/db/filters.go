package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserFilter narrows user listings. Zero values match everything.
type UserFilter struct {
	UserTypes        []UserType
	Verified         *bool
	SubscriptionPaid *bool
	Staff            *bool
	AccountStatus    AccountStatus
	Search           string
	JoinedAfter      *time.Time
}

func (f UserFilter) build() *where {
	w := &where{}
	if len(f.UserTypes) > 0 {
		args := make([]any, len(f.UserTypes))
		for i, t := range f.UserTypes {
			args[i] = string(t)
		}
		w.add("user_type IN ("+placeholders(len(args))+")", args...)
	}
	if f.Verified != nil {
		w.add("is_verified = ?", *f.Verified)
	}
	if f.SubscriptionPaid != nil {
		w.add("subscription_paid = ?", *f.SubscriptionPaid)
	}
	if f.Staff != nil {
		if *f.Staff {
			w.add("(is_staff = 1 OR is_superuser = 1)")
		} else {
			w.add("is_staff = 0 AND is_superuser = 0")
		}
	}
	if f.AccountStatus != "" {
		w.add("account_status = ?", string(f.AccountStatus))
	}
	if f.Search != "" {
		w.add("(username LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%' OR company_name LIKE '%' || ? || '%')", f.Search, f.Search, f.Search)
	}
	if f.JoinedAfter != nil {
		w.add("created_at >= ?", *f.JoinedAfter)
	}
	return w
}

// PitchFilter narrows pitch listings.
type PitchFilter struct {
	UserID     int64
	Status     PitchStatus
	CategoryID string
}

func (f PitchFilter) build() *where {
	w := &where{}
	if f.UserID != 0 {
		w.add("p.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		w.add("p.status = ?", string(f.Status))
	}
	if f.CategoryID != "" {
		w.add("p.category_id = ?", f.CategoryID)
	}
	return w
}

// PostFilter narrows investor post listings.
type PostFilter struct {
	InvestorID int64
	PostType   string
	Tag        string
	PublicOnly bool
}

func (f PostFilter) build() *where {
	w := &where{}
	if f.InvestorID != 0 {
		w.add("ip.investor_id = ?", f.InvestorID)
	}
	if f.PostType != "" {
		w.add("ip.post_type = ?", f.PostType)
	}
	if f.Tag != "" {
		w.add("ip.tags LIKE '%' || ? || '%'", f.Tag)
	}
	if f.PublicOnly {
		w.add("ip.is_public = 1")
	}
	return w
}

// JobFilter narrows job listings.
type JobFilter struct {
	// Query matches title, company or skills.
	Query string
	// Keywords matches title, description, skills or company.
	Keywords string
	// Search matches title, company, description or poster username.
	Search          string
	Location        string
	JobType         JobType
	ExperienceLevel ExperienceLevel
	Industry        string
	RemoteOnly      bool
	SalaryMin       *decimal.Decimal
	PosterID        int64
	Active          *bool
	DeadlineBefore  *time.Time
	CreatedAfter    *time.Time
}

func (f JobFilter) build() *where {
	w := &where{}
	if f.Query != "" {
		w.add("(j.title LIKE '%' || ? || '%' OR j.company_name LIKE '%' || ? || '%' OR j.skills_required LIKE '%' || ? || '%')", f.Query, f.Query, f.Query)
	}
	if f.Keywords != "" {
		w.add("(j.title LIKE '%' || ? || '%' OR j.description LIKE '%' || ? || '%' OR j.skills_required LIKE '%' || ? || '%' OR j.company_name LIKE '%' || ? || '%')",
			f.Keywords, f.Keywords, f.Keywords, f.Keywords)
	}
	if f.Search != "" {
		w.add("(j.title LIKE '%' || ? || '%' OR j.company_name LIKE '%' || ? || '%' OR j.description LIKE '%' || ? || '%' OR u.username LIKE '%' || ? || '%')",
			f.Search, f.Search, f.Search, f.Search)
	}
	if f.Location != "" {
		w.add("j.location LIKE '%' || ? || '%'", f.Location)
	}
	if f.JobType != "" {
		w.add("j.job_type = ?", string(f.JobType))
	}
	if f.ExperienceLevel != "" {
		w.add("j.experience_level = ?", string(f.ExperienceLevel))
	}
	if f.Industry != "" {
		w.add("j.industry = ?", f.Industry)
	}
	if f.RemoteOnly {
		w.add("j.remote_ok = 1")
	}
	if f.SalaryMin != nil {
		w.add("CAST(j.salary_min AS REAL) >= ?", f.SalaryMin.InexactFloat64())
	}
	if f.PosterID != 0 {
		w.add("j.poster_id = ?", f.PosterID)
	}
	if f.Active != nil {
		w.add("j.is_active = ?", *f.Active)
	}
	if f.DeadlineBefore != nil {
		w.add("j.application_deadline IS NOT NULL AND j.application_deadline < ?", *f.DeadlineBefore)
	}
	if f.CreatedAfter != nil {
		w.add("j.created_at > ?", *f.CreatedAfter)
	}
	return w
}

// ApplicationFilter narrows job application listings.
type ApplicationFilter struct {
	JobID       string
	ApplicantID int64
	Status      ApplicationStatus
	// Search matches applicant username or email.
	Search string
}

func (f ApplicationFilter) build() *where {
	w := &where{}
	if f.JobID != "" {
		w.add("a.job_id = ?", f.JobID)
	}
	if f.ApplicantID != 0 {
		w.add("a.applicant_id = ?", f.ApplicantID)
	}
	if f.Status != "" {
		w.add("a.status = ?", string(f.Status))
	}
	if f.Search != "" {
		w.add("(u.username LIKE '%' || ? || '%' OR u.email LIKE '%' || ? || '%')", f.Search, f.Search)
	}
	return w
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status          PaymentStatus
	UserID          int64
	TransactionType TransactionType
}

func (f PaymentFilter) build() *where {
	w := &where{}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.UserID != 0 {
		w.add("user_id = ?", f.UserID)
	}
	if f.TransactionType != "" {
		w.add("transaction_type = ?", string(f.TransactionType))
	}
	return w
}

// BoolPtr returns a pointer to b, for filter fields.
func BoolPtr(b bool) *bool { return &b }
