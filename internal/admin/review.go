package admin

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

// ListPitches returns pitches newest first, optionally by status.
func (s *Service) ListPitches(ctx context.Context, admin *db.User, status db.PitchStatus, n int) ([]*db.Pitch, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	pitches, pg, err := s.store.ListPitches(ctx, db.PitchFilter{Status: status}, page(n, listPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing pitches: %w", err)
	}
	return pitches, pg, nil
}

// ReviewPitch approves or rejects a pitch and tells its owner.
func (s *Service) ReviewPitch(ctx context.Context, admin *db.User, id string, status db.PitchStatus, notes string) (*db.Pitch, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if status != db.PitchApproved && status != db.PitchRejected {
		return nil, db.Errorf(db.ErrInvalid, "Status must be approved or rejected.")
	}
	p, err := s.store.GetPitch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading pitch: %w", err)
	}
	if p == nil {
		return nil, db.Errorf(db.ErrNotFound, "Pitch not found.")
	}
	now := s.now().UTC()
	p.Status = status
	p.AdminNotes = strings.TrimSpace(notes)
	p.ReviewedAt = &now
	p.ReviewedBy = &admin.ID
	if err := s.store.UpdatePitch(ctx, p); err != nil {
		return nil, fmt.Errorf("reviewing pitch: %w", err)
	}
	s.logger.Info("pitch reviewed", "pitch_id", p.ID, "status", status, "admin_id", admin.ID)

	owner, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		s.logger.Warn("loading pitch owner", "pitch_id", p.ID, "error", err)
		return p, nil
	}
	if owner == nil {
		return p, nil
	}
	body := fmt.Sprintf("Your pitch %q has been %s.", p.Title, status)
	if p.AdminNotes != "" {
		body += "\n\nReviewer notes: " + p.AdminNotes
	}
	if err := s.notifier.Notify(ctx, owner, notify.Message{
		Kind:  db.NotifyPitchReviewed,
		Title: "Pitch " + string(status),
		Body:  body,
		Email: notify.PrefPitchApproved,
	}); err != nil {
		s.logger.Warn("notifying pitch owner", "pitch_id", p.ID, "error", err)
	}
	return p, nil
}

// ListPayments returns payments newest first, optionally by status.
func (s *Service) ListPayments(ctx context.Context, admin *db.User, status db.PaymentStatus, n int) ([]*db.Payment, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	payments, pg, err := s.store.ListPayments(ctx, db.PaymentFilter{Status: status}, page(n, listPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing payments: %w", err)
	}
	return payments, pg, nil
}

// Chart is a labelled series for the back office charts.
type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Finance is the revenue report.
type Finance struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	PendingRevenue      decimal.Decimal `json:"pending_revenue"`
	FailedRevenue       decimal.Decimal `json:"failed_revenue"`
	RegistrationRevenue decimal.Decimal `json:"registration_revenue"`
	SubscriptionRevenue decimal.Decimal `json:"subscription_revenue"`

	TotalTransactions int `json:"total_transactions"`
	CompletedCount    int `json:"completed_count"`
	PendingCount      int `json:"pending_count"`
	FailedCount       int `json:"failed_count"`
	RegistrationCount int `json:"registration_count"`
	SubscriptionCount int `json:"subscription_count"`

	SuccessRate    float64         `json:"success_rate"`
	AvgTransaction decimal.Decimal `json:"avg_transaction"`

	RecentTransactions []*db.Payment `json:"recent_transactions"`
	StatusChart        Chart         `json:"status_chart"`
	TypeChart          Chart         `json:"type_chart"`
}

// FinancialAnalysis aggregates every payment into the revenue report.
func (s *Service) FinancialAnalysis(ctx context.Context, admin *db.User) (*Finance, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	rows, err := s.store.PaymentAmounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading payments: %w", err)
	}
	f := &Finance{TotalTransactions: len(rows)}
	for _, r := range rows {
		switch r.TransactionType {
		case db.TransactionRegistration:
			f.RegistrationCount++
		case db.TransactionSubscription:
			f.SubscriptionCount++
		}
		switch r.Status {
		case db.PaymentCompleted:
			f.CompletedCount++
			f.TotalRevenue = f.TotalRevenue.Add(r.Amount)
			if r.TransactionType == db.TransactionRegistration {
				f.RegistrationRevenue = f.RegistrationRevenue.Add(r.Amount)
			} else if r.TransactionType == db.TransactionSubscription {
				f.SubscriptionRevenue = f.SubscriptionRevenue.Add(r.Amount)
			}
		case db.PaymentPending:
			f.PendingCount++
			f.PendingRevenue = f.PendingRevenue.Add(r.Amount)
		case db.PaymentFailed:
			f.FailedCount++
			f.FailedRevenue = f.FailedRevenue.Add(r.Amount)
		}
	}
	if f.TotalTransactions > 0 {
		rate := float64(f.CompletedCount) / float64(f.TotalTransactions) * 100
		f.SuccessRate = math.Round(rate*10) / 10
	}
	if f.CompletedCount > 0 {
		f.AvgTransaction = f.TotalRevenue.Div(decimal.NewFromInt(int64(f.CompletedCount))).Round(2)
	}
	if f.RecentTransactions, _, err = s.store.ListPayments(ctx, db.PaymentFilter{}, page(1, 10)); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	f.StatusChart = Chart{
		Labels: []string{"Completed", "Pending", "Failed"},
		Data:   []float64{float64(f.CompletedCount), float64(f.PendingCount), float64(f.FailedCount)},
	}
	f.TypeChart = Chart{
		Labels: []string{"Registration", "Subscription"},
		Data:   []float64{f.RegistrationRevenue.InexactFloat64(), f.SubscriptionRevenue.InexactFloat64()},
	}
	return f, nil
}

// Settings is the current fee configuration with its latest revisions.
type Settings struct {
	Current       *db.PlatformSettings   `json:"settings"`
	RecentChanges []*db.PlatformSettings `json:"recent_changes"`
}

// PlatformSettings returns the effective fees and the last ten changes.
func (s *Service) PlatformSettings(ctx context.Context, admin *db.User) (*Settings, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	cur, err := s.fees.CurrentFees(ctx)
	if err != nil {
		return nil, err
	}
	history, _, err := s.fees.FeeHistory(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("listing fee history: %w", err)
	}
	if len(history) > 10 {
		history = history[:10]
	}
	return &Settings{Current: cur, RecentChanges: history}, nil
}

// UpdatePlatformSettings records a new fee revision.
func (s *Service) UpdatePlatformSettings(ctx context.Context, admin *db.User, registration, subscription decimal.Decimal) (*db.PlatformSettings, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	ps, err := s.fees.UpdateFees(ctx, registration, subscription, admin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("platform fees updated", "registration", ps.RegistrationFee, "subscription", ps.SubscriptionFee, "admin_id", admin.ID)
	return ps, nil
}

// SettingsHistory pages through every fee revision.
func (s *Service) SettingsHistory(ctx context.Context, admin *db.User, n int) ([]*db.PlatformSettings, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	if n < 1 {
		n = 1
	}
	return s.fees.FeeHistory(ctx, n)
}
