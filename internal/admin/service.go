// Package admin implements the moderation and reporting back office.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

var (
	usersPageSize        = 20
	seekersPageSize      = 20
	listPageSize         = 25
	applicationsPageSize = 25
	recentLimit          = 5
)

// Investors creates investor accounts.
type Investors interface {
	CreateInvestor(ctx context.Context, f accounts.InvestorForm) (*db.User, error)
}

// Categories manages pitch categories.
type Categories interface {
	ListCategories(ctx context.Context) ([]*db.PitchCategory, error)
	CreateCategory(ctx context.Context, admin *db.User, name, description string) (*db.PitchCategory, error)
	DeleteCategory(ctx context.Context, admin *db.User, id string) error
}

// Fees manages the platform fee history.
type Fees interface {
	CurrentFees(ctx context.Context) (*db.PlatformSettings, error)
	UpdateFees(ctx context.Context, registration, subscription decimal.Decimal, by *db.User) (*db.PlatformSettings, error)
	FeeHistory(ctx context.Context, page int) ([]*db.PlatformSettings, db.Pagination, error)
}

// Service implements the admin operations. Every method requires an
// administrator.
type Service struct {
	store      db.Store
	investors  Investors
	categories Categories
	fees       Fees
	notifier   *notify.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new admin Service.
func NewService(store db.Store, investors Investors, categories Categories, fees Fees, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		investors:  investors,
		categories: categories,
		fees:       fees,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

func requireAdmin(u *db.User) error {
	if u == nil || !u.IsAdmin() {
		return db.Errorf(db.ErrForbidden, "Administrator access required.")
	}
	return nil
}

func page(n, size int) db.PageRequest {
	if n < 1 {
		n = 1
	}
	return db.PageRequest{Number: n, Size: size}
}

func userTypes(t db.UserType) []db.UserType {
	if t == "" {
		return nil
	}
	return []db.UserType{t}
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	PendingPitches      int `json:"pending_pitches"`
	PendingUsers        int `json:"pending_users"`
	TotalUsers          int `json:"total_users"`
	TotalCategories     int `json:"total_categories"`
	TotalInvestors      int `json:"total_investors"`
	TotalEntrepreneurs  int `json:"total_entrepreneurs"`
	TotalJobs           int `json:"total_jobs"`
	ActiveJobs          int `json:"active_jobs"`
	TotalApplications   int `json:"total_applications"`
	PendingApplications int `json:"pending_applications"`
	JobSeekers          int `json:"job_seekers"`

	RecentPitches      []*db.Pitch          `json:"recent_pitches"`
	RecentPayments     []*db.Payment        `json:"recent_payments"`
	RecentUsers        []*db.User           `json:"recent_users"`
	RecentJobs         []*db.JobPosting     `json:"recent_jobs"`
	RecentApplications []*db.JobApplication `json:"recent_applications"`
}

func sum(counts map[db.ApplicationStatus]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

// Dashboard returns platform wide counters and recent activity.
func (s *Service) Dashboard(ctx context.Context, admin *db.User) (*Dashboard, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	d := &Dashboard{}
	var err error

	if d.PendingPitches, err = s.store.CountPitches(ctx, db.PitchFilter{Status: db.PitchPending}); err != nil {
		return nil, fmt.Errorf("counting pitches: %w", err)
	}
	users := []struct {
		f   db.UserFilter
		dst *int
	}{
		{db.UserFilter{UserTypes: userTypes(db.UserTypeRegular), SubscriptionPaid: db.BoolPtr(true), Verified: db.BoolPtr(false)}, &d.PendingUsers},
		{db.UserFilter{}, &d.TotalUsers},
		{db.UserFilter{UserTypes: userTypes(db.UserTypeInvestor)}, &d.TotalInvestors},
		{db.UserFilter{UserTypes: userTypes(db.UserTypeRegular)}, &d.TotalEntrepreneurs},
		{db.UserFilter{UserTypes: userTypes(db.UserTypeJobSeeker)}, &d.JobSeekers},
	}
	for _, c := range users {
		if *c.dst, err = s.store.CountUsers(ctx, c.f); err != nil {
			return nil, fmt.Errorf("counting users: %w", err)
		}
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	d.TotalCategories = len(cats)

	if d.TotalJobs, err = s.store.CountJobs(ctx, db.JobFilter{}); err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	if d.ActiveJobs, err = s.store.CountJobs(ctx, db.JobFilter{Active: db.BoolPtr(true)}); err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	counts, err := s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{})
	if err != nil {
		return nil, fmt.Errorf("counting applications: %w", err)
	}
	d.TotalApplications = sum(counts)
	d.PendingApplications = counts[db.AppPending]

	recent := page(1, recentLimit)
	if d.RecentPitches, _, err = s.store.ListPitches(ctx, db.PitchFilter{Status: db.PitchPending}, recent); err != nil {
		return nil, fmt.Errorf("listing pitches: %w", err)
	}
	if d.RecentPayments, _, err = s.store.ListPayments(ctx, db.PaymentFilter{Status: db.PaymentCompleted}, recent); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	if d.RecentUsers, _, err = s.store.ListUsers(ctx, db.UserFilter{UserTypes: userTypes(db.UserTypeRegular)}, recent); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if d.RecentJobs, _, err = s.store.ListJobs(ctx, db.JobFilter{Active: db.BoolPtr(true)}, recent); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	if d.RecentApplications, _, err = s.store.ListApplications(ctx, db.ApplicationFilter{}, recent); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return d, nil
}

// ListCategories returns every pitch category.
func (s *Service) ListCategories(ctx context.Context, admin *db.User) ([]*db.PitchCategory, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.categories.ListCategories(ctx)
}

// CreateCategory adds a pitch category.
func (s *Service) CreateCategory(ctx context.Context, admin *db.User, name, description string) (*db.PitchCategory, error) {
	return s.categories.CreateCategory(ctx, admin, name, description)
}

// DeleteCategory removes a pitch category.
func (s *Service) DeleteCategory(ctx context.Context, admin *db.User, id string) error {
	return s.categories.DeleteCategory(ctx, admin, id)
}
