package db

import (
	"math"
	"time"
)

// Suspension defaults applied by moderation actions.
const (
	DefaultSuspensionDays   = 7
	DefaultSuspensionReason = "Administrative action"
)

// SuspensionInfo describes the current suspension of an account.
type SuspensionInfo struct {
	Suspended     bool       `json:"is_suspended"`
	Until         *time.Time `json:"suspended_until,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
}

func (u *User) IsInvestor() bool { return u.UserType == UserTypeInvestor }

func (u *User) IsRegular() bool { return u.UserType == UserTypeRegular }

// IsJobSeeker reports whether the user may use the job seeker features.
// Entrepreneurs are job seekers too.
func (u *User) IsJobSeeker() bool {
	return u.UserType == UserTypeJobSeeker || u.UserType == UserTypeRegular
}

// IsAdmin reports whether the user has staff privileges.
func (u *User) IsAdmin() bool { return u.IsStaff || u.IsSuperuser }

// IsSuspended reports whether the suspension is still in force at now. An
// expired suspension counts as lifted even before it is persisted.
func (u *User) IsSuspended(now time.Time) bool {
	if u.AccountStatus != AccountSuspended {
		return false
	}
	if u.SuspendedUntil != nil && now.After(*u.SuspendedUntil) {
		return false
	}
	return true
}

// SuspensionExpired reports whether the account is marked suspended but the
// suspension end has passed.
func (u *User) SuspensionExpired(now time.Time) bool {
	return u.AccountStatus == AccountSuspended && u.SuspendedUntil != nil && now.After(*u.SuspendedUntil)
}

// CanAccessPlatform reports whether the user may use member features.
func (u *User) CanAccessPlatform(now time.Time) bool {
	if u.IsSuspended(now) {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	if u.IsInvestor() || u.IsJobSeeker() {
		return u.IsVerified
	}
	return u.IsVerified && u.SubscriptionPaid
}

// CanPostJobs is restricted to administrators.
func (u *User) CanPostJobs(now time.Time) bool {
	return !u.IsSuspended(now) && u.IsAdmin()
}

func (u *User) CanApplyForJobs(now time.Time) bool {
	return !u.IsSuspended(now) && u.IsJobSeeker() && u.CanAccessPlatform(now)
}

func (u *User) CanCreateInvestorPosts(now time.Time) bool {
	return !u.IsSuspended(now) && (u.IsInvestor() || u.IsAdmin())
}

// Suspend marks the account suspended for days starting at now.
func (u *User) Suspend(now time.Time, days int, reason string) {
	if days <= 0 {
		days = DefaultSuspensionDays
	}
	if reason == "" {
		reason = DefaultSuspensionReason
	}
	until := now.Add(time.Duration(days) * 24 * time.Hour)
	u.AccountStatus = AccountSuspended
	u.SuspendedUntil = &until
	u.SuspensionReason = reason
}

// Unsuspend restores an active account.
func (u *User) Unsuspend() {
	u.AccountStatus = AccountActive
	u.SuspendedUntil = nil
	u.SuspensionReason = ""
}

// SuspensionInfo reports the suspension state at now.
func (u *User) SuspensionInfo(now time.Time) SuspensionInfo {
	if !u.IsSuspended(now) {
		return SuspensionInfo{}
	}
	info := SuspensionInfo{Suspended: true, Until: u.SuspendedUntil, Reason: u.SuspensionReason}
	if u.SuspendedUntil != nil {
		days := int(math.Floor(u.SuspendedUntil.Sub(now).Hours() / 24))
		info.DaysRemaining = &days
	}
	return info
}

// TypeLabel is the role shown next to a user in conversations.
func (u *User) TypeLabel() string {
	switch {
	case u.IsAdmin():
		return "Administrator"
	case u.IsInvestor():
		return "Investor"
	default:
		return "Entrepreneur"
	}
}
