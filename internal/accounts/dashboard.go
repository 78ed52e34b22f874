package accounts

import (
	"context"
	"fmt"

	"github.com/bazuu/investorconnect/internal/db"
)

const recentLimit = 5

// Dashboard is the landing summary for a user. Which fields are set
// depends on the role.
type Dashboard struct {
	Role string `json:"role"`

	TotalUsers         int `json:"total_users,omitempty"`
	TotalInvestors     int `json:"total_investors,omitempty"`
	TotalEntrepreneurs int `json:"total_entrepreneurs,omitempty"`

	TotalPitches    int `json:"total_pitches"`
	PendingPitches  int `json:"pending_pitches"`
	ApprovedPitches int `json:"approved_pitches"`
	RejectedPitches int `json:"rejected_pitches"`
	MyInterests     int `json:"my_interests,omitempty"`

	RecentSignups []*db.User  `json:"recent_signups,omitempty"`
	RecentPitches []*db.Pitch `json:"recent_pitches"`
}

func (s *Service) pitchCounts(ctx context.Context, d *Dashboard, userID int64) error {
	counts := []struct {
		status db.PitchStatus
		dst    *int
	}{
		{db.PitchPending, &d.PendingPitches},
		{db.PitchApproved, &d.ApprovedPitches},
		{db.PitchRejected, &d.RejectedPitches},
	}
	for _, c := range counts {
		n, err := s.store.CountPitches(ctx, db.PitchFilter{UserID: userID, Status: c.status})
		if err != nil {
			return fmt.Errorf("counting %s pitches: %w", c.status, err)
		}
		*c.dst = n
	}
	d.TotalPitches = d.PendingPitches + d.ApprovedPitches + d.RejectedPitches
	return nil
}

// Dashboard builds the role specific dashboard of u.
func (s *Service) Dashboard(ctx context.Context, u *db.User) (*Dashboard, error) {
	if _, err := s.EnsureProfile(ctx, u); err != nil {
		return nil, err
	}
	recent := db.PageRequest{Number: 1, Size: recentLimit}

	switch {
	case u.IsAdmin():
		d := &Dashboard{Role: "admin"}
		var err error
		if d.TotalUsers, err = s.store.CountUsers(ctx, db.UserFilter{}); err != nil {
			return nil, fmt.Errorf("counting users: %w", err)
		}
		if d.TotalInvestors, err = s.store.CountUsers(ctx, db.UserFilter{UserTypes: []db.UserType{db.UserTypeInvestor}}); err != nil {
			return nil, fmt.Errorf("counting investors: %w", err)
		}
		if d.TotalEntrepreneurs, err = s.store.CountUsers(ctx, db.UserFilter{UserTypes: []db.UserType{db.UserTypeRegular}}); err != nil {
			return nil, fmt.Errorf("counting entrepreneurs: %w", err)
		}
		if err := s.pitchCounts(ctx, d, 0); err != nil {
			return nil, err
		}
		if d.RecentSignups, _, err = s.store.ListUsers(ctx, db.UserFilter{}, recent); err != nil {
			return nil, fmt.Errorf("listing recent users: %w", err)
		}
		if d.RecentPitches, _, err = s.store.ListPitches(ctx, db.PitchFilter{}, recent); err != nil {
			return nil, fmt.Errorf("listing recent pitches: %w", err)
		}
		return d, nil

	case u.IsInvestor():
		d := &Dashboard{Role: "investor"}
		approved := db.PitchFilter{Status: db.PitchApproved}
		var err error
		if d.ApprovedPitches, err = s.store.CountPitches(ctx, approved); err != nil {
			return nil, fmt.Errorf("counting pitches: %w", err)
		}
		d.TotalPitches = d.ApprovedPitches
		if d.MyInterests, err = s.store.CountInterests(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("counting interests: %w", err)
		}
		if d.RecentPitches, _, err = s.store.ListPitches(ctx, approved, recent); err != nil {
			return nil, fmt.Errorf("listing recent pitches: %w", err)
		}
		return d, nil

	default:
		d := &Dashboard{Role: "entrepreneur"}
		if err := s.pitchCounts(ctx, d, u.ID); err != nil {
			return nil, err
		}
		var err error
		if d.RecentPitches, _, err = s.store.ListPitches(ctx, db.PitchFilter{UserID: u.ID}, recent); err != nil {
			return nil, fmt.Errorf("listing recent pitches: %w", err)
		}
		return d, nil
	}
}
