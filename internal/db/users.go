package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, user_type, is_verified, subscription_paid,
	is_staff, is_superuser, is_active, profile_description, company_name, phone_number,
	account_status, suspended_until, suspension_reason, created_at, updated_at`

func scanUser(sc rowScanner) (*User, error) {
	u := &User{}
	err := sc.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.UserType, &u.IsVerified, &u.SubscriptionPaid,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.ProfileDescription, &u.CompanyName, &u.PhoneNumber,
		&u.AccountStatus, &u.SuspendedUntil, &u.SuspensionReason, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]*User, error) {
	defer rows.Close()
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) getUser(ctx context.Context, cond string, arg any) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, ex execer, u *User) (int64, error) {
	now := utcNow()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.AccountStatus == "" {
		u.AccountStatus = AccountActive
	}
	if u.UserType == "" {
		u.UserType = UserTypeRegular
	}
	res, err := ex.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, user_type, is_verified, subscription_paid,
			is_staff, is_superuser, is_active, profile_description, company_name, phone_number,
			account_status, suspended_until, suspension_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, string(u.UserType), u.IsVerified, u.SubscriptionPaid,
		u.IsStaff, u.IsSuperuser, u.IsActive, u.ProfileDescription, u.CompanyName, u.PhoneNumber,
		string(u.AccountStatus), u.SuspendedUntil, u.SuspensionReason, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) (int64, error) {
	return insertUser(ctx, s.db, u)
}

// CreateAccount inserts a user together with its profile and notification
// settings in one transaction.
func (s *SQLiteStore) CreateAccount(ctx context.Context, u *User, p *Profile, ns *NotificationSettings) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id, err := insertUser(ctx, tx, u)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	p.UserID = id
	if err := upsertProfile(ctx, tx, p); err != nil {
		return 0, fmt.Errorf("inserting profile: %w", err)
	}
	ns.UserID = id
	if err := upsertNotificationSettings(ctx, tx, ns); err != nil {
		return 0, fmt.Errorf("inserting notification settings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing account: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername matches case-insensitively.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = ? COLLATE NOCASE", username)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email = ? COLLATE NOCASE", email)
}

func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return s.getUser(ctx, "phone_number = ?", phone)
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *User) error {
	u.UpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, user_type = ?, is_verified = ?,
			subscription_paid = ?, is_staff = ?, is_superuser = ?, is_active = ?, profile_description = ?,
			company_name = ?, phone_number = ?, account_status = ?, suspended_until = ?, suspension_reason = ?,
			updated_at = ?
		 WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, string(u.UserType), u.IsVerified,
		u.SubscriptionPaid, u.IsStaff, u.IsSuperuser, u.IsActive, u.ProfileDescription,
		u.CompanyName, u.PhoneNumber, string(u.AccountStatus), u.SuspendedUntil, u.SuspensionReason,
		u.UpdatedAt, u.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListUsers(ctx context.Context, f UserFilter, page PageRequest) ([]*User, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	users, err := scanUsers(rows)
	return users, pg, err
}

func (s *SQLiteStore) CountUsers(ctx context.Context, f UserFilter) (int, error) {
	w := f.build()
	return s.count(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...)
}

func (s *SQLiteStore) FirstActiveStaff(ctx context.Context) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_staff = 1 AND is_active = 1 ORDER BY id LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// LiftExpiredSuspensions reactivates accounts whose suspension ended before now.
func (s *SQLiteStore) LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET account_status = 'active', suspended_until = NULL, suspension_reason = '', updated_at = ?
		 WHERE account_status = 'suspended' AND suspended_until IS NOT NULL AND suspended_until < ?`,
		now.UTC(), now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UsersWithoutProfile returns users missing a profile or notification settings.
func (s *SQLiteStore) UsersWithoutProfile(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id NOT IN (SELECT user_id FROM profiles) OR id NOT IN (SELECT user_id FROM notification_settings)
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const profileColumns = `id, user_id, first_name, last_name, profile_picture, location, job_title, industry,
	experience_level, investment_range, investment_focus, business_stage, funding_goal, website, resume,
	skills, job_level, desired_salary_min, desired_salary_max, availability, preferred_employment_type,
	portfolio_url, linkedin_url, github_url, open_to_remote, preferred_locations, profile_visibility,
	created_at, updated_at`

func (s *SQLiteStore) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	p := &Profile{}
	err := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.ProfilePicture, &p.Location, &p.JobTitle, &p.Industry,
		&p.ExperienceLevel, &p.InvestmentRange, &p.InvestmentFocus, &p.BusinessStage, &p.FundingGoal, &p.Website, &p.Resume,
		&p.Skills, &p.JobLevel, &p.DesiredSalaryMin, &p.DesiredSalaryMax, &p.Availability, &p.PreferredEmploymentType,
		&p.PortfolioURL, &p.LinkedinURL, &p.GithubURL, &p.OpenToRemote, &p.PreferredLocations, &p.ProfileVisibility,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func upsertProfile(ctx context.Context, ex execer, p *Profile) error {
	now := utcNow()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.ProfileVisibility == "" {
		p.ProfileVisibility = VisibilityMembers
	}
	p.UpdatedAt = now
	_, err := ex.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   profile_picture = excluded.profile_picture,
		   location = excluded.location,
		   job_title = excluded.job_title,
		   industry = excluded.industry,
		   experience_level = excluded.experience_level,
		   investment_range = excluded.investment_range,
		   investment_focus = excluded.investment_focus,
		   business_stage = excluded.business_stage,
		   funding_goal = excluded.funding_goal,
		   website = excluded.website,
		   resume = excluded.resume,
		   skills = excluded.skills,
		   job_level = excluded.job_level,
		   desired_salary_min = excluded.desired_salary_min,
		   desired_salary_max = excluded.desired_salary_max,
		   availability = excluded.availability,
		   preferred_employment_type = excluded.preferred_employment_type,
		   portfolio_url = excluded.portfolio_url,
		   linkedin_url = excluded.linkedin_url,
		   github_url = excluded.github_url,
		   open_to_remote = excluded.open_to_remote,
		   preferred_locations = excluded.preferred_locations,
		   profile_visibility = excluded.profile_visibility,
		   updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.FirstName, p.LastName, p.ProfilePicture, p.Location, p.JobTitle, p.Industry,
		p.ExperienceLevel, p.InvestmentRange, p.InvestmentFocus, p.BusinessStage, p.FundingGoal, p.Website, p.Resume,
		p.Skills, p.JobLevel, p.DesiredSalaryMin, p.DesiredSalaryMax, p.Availability, p.PreferredEmploymentType,
		p.PortfolioURL, p.LinkedinURL, p.GithubURL, p.OpenToRemote, p.PreferredLocations, string(p.ProfileVisibility),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *Profile) error {
	return upsertProfile(ctx, s.db, p)
}

const notificationSettingsColumns = `id, user_id, email_new_messages, email_pitch_interest, email_pitch_approved,
	email_weekly_digest, email_job_matches, email_application_updates, email_new_applications,
	browser_new_messages, browser_pitch_updates, browser_job_alerts, sms_critical_updates, created_at, updated_at`

func (s *SQLiteStore) GetNotificationSettings(ctx context.Context, userID int64) (*NotificationSettings, error) {
	ns := &NotificationSettings{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+notificationSettingsColumns+` FROM notification_settings WHERE user_id = ?`, userID,
	).Scan(&ns.ID, &ns.UserID, &ns.EmailNewMessages, &ns.EmailPitchInterest, &ns.EmailPitchApproved,
		&ns.EmailWeeklyDigest, &ns.EmailJobMatches, &ns.EmailApplicationUpdates, &ns.EmailNewApplications,
		&ns.BrowserNewMessages, &ns.BrowserPitchUpdates, &ns.BrowserJobAlerts, &ns.SMSCriticalUpdates,
		&ns.CreatedAt, &ns.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func upsertNotificationSettings(ctx context.Context, ex execer, ns *NotificationSettings) error {
	now := utcNow()
	if ns.ID == "" {
		ns.ID = uuid.NewString()
	}
	if ns.CreatedAt.IsZero() {
		ns.CreatedAt = now
	}
	ns.UpdatedAt = now
	_, err := ex.ExecContext(ctx,
		`INSERT INTO notification_settings (`+notificationSettingsColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   email_new_messages = excluded.email_new_messages,
		   email_pitch_interest = excluded.email_pitch_interest,
		   email_pitch_approved = excluded.email_pitch_approved,
		   email_weekly_digest = excluded.email_weekly_digest,
		   email_job_matches = excluded.email_job_matches,
		   email_application_updates = excluded.email_application_updates,
		   email_new_applications = excluded.email_new_applications,
		   browser_new_messages = excluded.browser_new_messages,
		   browser_pitch_updates = excluded.browser_pitch_updates,
		   browser_job_alerts = excluded.browser_job_alerts,
		   sms_critical_updates = excluded.sms_critical_updates,
		   updated_at = excluded.updated_at`,
		ns.ID, ns.UserID, ns.EmailNewMessages, ns.EmailPitchInterest, ns.EmailPitchApproved,
		ns.EmailWeeklyDigest, ns.EmailJobMatches, ns.EmailApplicationUpdates, ns.EmailNewApplications,
		ns.BrowserNewMessages, ns.BrowserPitchUpdates, ns.BrowserJobAlerts, ns.SMSCriticalUpdates,
		ns.CreatedAt, ns.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) UpsertNotificationSettings(ctx context.Context, ns *NotificationSettings) error {
	return upsertNotificationSettings(ctx, s.db, ns)
}

func (s *SQLiteStore) GetActivity(ctx context.Context, userID int64) (*UserActivity, error) {
	a := &UserActivity{}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, last_seen, is_online, current_room, is_typing, typing_in_room FROM user_activity WHERE user_id = ?`,
		userID,
	).Scan(&a.UserID, &a.LastSeen, &a.IsOnline, &a.CurrentRoom, &a.IsTyping, &a.TypingInRoom)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) UpsertActivity(ctx context.Context, a *UserActivity) error {
	if a.LastSeen.IsZero() {
		a.LastSeen = utcNow()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, last_seen, is_online, current_room, is_typing, typing_in_room)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   last_seen = excluded.last_seen,
		   is_online = excluded.is_online,
		   current_room = excluded.current_room,
		   is_typing = excluded.is_typing,
		   typing_in_room = excluded.typing_in_room`,
		a.UserID, a.LastSeen, a.IsOnline, a.CurrentRoom, a.IsTyping, a.TypingInRoom,
	)
	return err
}

func (s *SQLiteStore) CreateNotification(ctx context.Context, n *Notification) (int64, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = utcNow()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, body, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Kind), n.Title, n.Body, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	n.ID = id
	return id, nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*Notification, error) {
	query := `SELECT id, user_id, kind, title, body, is_read, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID))
}
