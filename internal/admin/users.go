package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/db"
)

// UserListFilter selects users in the user management list.
type UserListFilter struct {
	UserType db.UserType
	// Verification is "verified", "unverified" or empty.
	Verification  string
	AccountStatus db.AccountStatus
	Search        string
	Page          int
}

func verification(v string) *bool {
	switch v {
	case "verified":
		return db.BoolPtr(true)
	case "unverified", "pending":
		return db.BoolPtr(false)
	}
	return nil
}

// ListUsers returns one page of users, newest first.
func (s *Service) ListUsers(ctx context.Context, admin *db.User, f UserListFilter) ([]*db.User, db.Pagination, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, db.Pagination{}, err
	}
	uf := db.UserFilter{
		UserTypes:     userTypes(f.UserType),
		Verified:      verification(f.Verification),
		AccountStatus: f.AccountStatus,
		Search:        strings.TrimSpace(f.Search),
	}
	users, pg, err := s.store.ListUsers(ctx, uf, page(f.Page, usersPageSize))
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing users: %w", err)
	}
	return users, pg, nil
}

// UserDetail is a user with their profile and activity counters.
type UserDetail struct {
	User           *db.User          `json:"user"`
	Profile        *db.Profile       `json:"profile"`
	Suspension     db.SuspensionInfo `json:"suspension_info"`
	Pitches        int               `json:"pitch_count"`
	Applications   int               `json:"application_count"`
	Payments       int               `json:"payment_count"`
	RecentPayments []*db.Payment     `json:"recent_payments"`
}

func (s *Service) getUser(ctx context.Context, id int64) (*db.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		return nil, db.Errorf(db.ErrNotFound, "User not found.")
	}
	return u, nil
}

// UserDetail returns everything the back office shows about one user.
func (s *Service) UserDetail(ctx context.Context, admin *db.User, id int64) (*UserDetail, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &UserDetail{User: u, Suspension: u.SuspensionInfo(s.now())}
	if d.Profile, err = s.store.GetProfile(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if d.Pitches, err = s.store.CountPitches(ctx, db.PitchFilter{UserID: u.ID}); err != nil {
		return nil, fmt.Errorf("counting pitches: %w", err)
	}
	apps, err := s.store.CountApplicationsByStatus(ctx, db.ApplicationFilter{ApplicantID: u.ID})
	if err != nil {
		return nil, fmt.Errorf("counting applications: %w", err)
	}
	d.Applications = sum(apps)
	var pg db.Pagination
	if d.RecentPayments, pg, err = s.store.ListPayments(ctx, db.PaymentFilter{UserID: u.ID}, page(1, 10)); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	d.Payments = pg.Total
	return d, nil
}

// Verify marks a user verified.
func (s *Service) Verify(ctx context.Context, admin *db.User, id int64) (*db.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsVerified = true
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("verifying user: %w", err)
	}
	s.logger.Info("user verified", "user_id", u.ID, "admin_id", admin.ID)
	return u, nil
}

// Suspend suspends a non-admin account for days. Zero days and an empty
// reason fall back to the defaults.
func (s *Service) Suspend(ctx context.Context, admin *db.User, id int64, days int, reason string) (*db.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return nil, db.Errorf(db.ErrForbidden, "Cannot suspend admin users.")
	}
	u.Suspend(s.now().UTC(), days, strings.TrimSpace(reason))
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("suspending user: %w", err)
	}
	s.logger.Info("user suspended", "user_id", u.ID, "until", u.SuspendedUntil, "admin_id", admin.ID)
	return u, nil
}

// Unsuspend reactivates a suspended account.
func (s *Service) Unsuspend(ctx context.Context, admin *db.User, id int64) (*db.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Unsuspend()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("unsuspending user: %w", err)
	}
	return u, nil
}

// Delete permanently removes an account. Admins and the caller cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, admin *db.User, id int64) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case u.IsAdmin():
		return db.Errorf(db.ErrForbidden, "Cannot delete admin users.")
	case u.ID == admin.ID:
		return db.Errorf(db.ErrForbidden, "Cannot delete your own account.")
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", u.ID, "username", u.Username, "admin_id", admin.ID)
	return nil
}

// BulkRequest is a single action applied to many users.
type BulkRequest struct {
	Action  string  `json:"action"`
	UserIDs []int64 `json:"user_ids"`
	Days    int     `json:"duration"`
	Reason  string  `json:"reason"`
}

// BulkResult summarises a bulk action.
type BulkResult struct {
	Affected int    `json:"affected"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// BulkAction verifies, suspends or deletes many users at once. Staff
// accounts and unknown ids are skipped.
func (s *Service) BulkAction(ctx context.Context, admin *db.User, req BulkRequest) (*BulkResult, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if len(req.UserIDs) == 0 {
		return nil, db.Errorf(db.ErrInvalid, "No users selected.")
	}
	switch req.Action {
	case "verify", "suspend", "delete":
	default:
		return nil, db.Errorf(db.ErrInvalid, "Invalid action.")
	}

	var targets []*db.User
	for _, id := range req.UserIDs {
		u, err := s.store.GetUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading user: %w", err)
		}
		if u != nil && !u.IsAdmin() {
			targets = append(targets, u)
		}
	}
	skipped := len(req.UserIDs) - len(targets)
	if len(targets) == 0 {
		return nil, db.Errorf(db.ErrForbidden, "Cannot perform bulk actions on admin users. %d admin users were excluded.", skipped)
	}

	now := s.now().UTC()
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Bulk administrative action"
	}
	days := req.Days
	if days <= 0 {
		days = db.DefaultSuspensionDays
	}
	var names []string
	for _, u := range targets {
		var err error
		switch req.Action {
		case "verify":
			u.IsVerified = true
			err = s.store.UpdateUser(ctx, u)
		case "suspend":
			u.Suspend(now, days, reason)
			err = s.store.UpdateUser(ctx, u)
		case "delete":
			err = s.store.DeleteUser(ctx, u.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("bulk %s user %d: %w", req.Action, u.ID, err)
		}
		names = append(names, u.Username)
	}

	res := &BulkResult{Affected: len(targets), Skipped: skipped}
	switch req.Action {
	case "verify":
		res.Message = fmt.Sprintf("%d users verified successfully", len(targets))
	case "suspend":
		res.Message = fmt.Sprintf("%d users suspended for %d days", len(targets), days)
	case "delete":
		shown := names
		more := ""
		if len(shown) > 3 {
			shown, more = shown[:3], "..."
		}
		res.Message = fmt.Sprintf("%d users deleted successfully: %s%s", len(targets), strings.Join(shown, ", "), more)
	}
	if skipped > 0 {
		res.Message += fmt.Sprintf(" (%d admin users were skipped for safety)", skipped)
	}
	s.logger.Info("bulk user action", "action", req.Action, "affected", res.Affected, "skipped", skipped, "admin_id", admin.ID)
	return res, nil
}

// RegisterInvestor creates a verified investor account.
func (s *Service) RegisterInvestor(ctx context.Context, admin *db.User, f accounts.InvestorForm) (*db.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.investors.CreateInvestor(ctx, f)
}
