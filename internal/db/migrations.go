package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds all schema migration SQL statements in order.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		user_type TEXT NOT NULL DEFAULT 'regular' CHECK(user_type IN ('investor', 'regular', 'job_seeker')),
		is_verified INTEGER NOT NULL DEFAULT 0,
		subscription_paid INTEGER NOT NULL DEFAULT 0,
		is_staff INTEGER NOT NULL DEFAULT 0,
		is_superuser INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		profile_description TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		account_status TEXT NOT NULL DEFAULT 'active' CHECK(account_status IN ('active', 'suspended', 'banned')),
		suspended_until TIMESTAMP,
		suspension_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email COLLATE NOCASE)`,
	`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_number)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		experience_level TEXT NOT NULL DEFAULT '',
		investment_range TEXT NOT NULL DEFAULT '',
		investment_focus TEXT NOT NULL DEFAULT '',
		business_stage TEXT NOT NULL DEFAULT '',
		funding_goal TEXT,
		website TEXT NOT NULL DEFAULT '',
		resume TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		job_level TEXT NOT NULL DEFAULT '',
		desired_salary_min TEXT,
		desired_salary_max TEXT,
		availability TEXT NOT NULL DEFAULT '',
		preferred_employment_type TEXT NOT NULL DEFAULT '',
		portfolio_url TEXT NOT NULL DEFAULT '',
		linkedin_url TEXT NOT NULL DEFAULT '',
		github_url TEXT NOT NULL DEFAULT '',
		open_to_remote INTEGER NOT NULL DEFAULT 1,
		preferred_locations TEXT NOT NULL DEFAULT '',
		profile_visibility TEXT NOT NULL DEFAULT 'members' CHECK(profile_visibility IN ('public', 'members', 'private')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS notification_settings (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE,
		email_new_messages INTEGER NOT NULL DEFAULT 1,
		email_pitch_interest INTEGER NOT NULL DEFAULT 1,
		email_pitch_approved INTEGER NOT NULL DEFAULT 1,
		email_weekly_digest INTEGER NOT NULL DEFAULT 1,
		email_job_matches INTEGER NOT NULL DEFAULT 1,
		email_application_updates INTEGER NOT NULL DEFAULT 1,
		email_new_applications INTEGER NOT NULL DEFAULT 1,
		browser_new_messages INTEGER NOT NULL DEFAULT 1,
		browser_pitch_updates INTEGER NOT NULL DEFAULT 1,
		browser_job_alerts INTEGER NOT NULL DEFAULT 1,
		sms_critical_updates INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS pitch_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pitches (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category_id TEXT,
		budget_required TEXT,
		timeline TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'rejected')),
		submitted_at TIMESTAMP NOT NULL,
		reviewed_at TIMESTAMP,
		reviewed_by INTEGER,
		admin_notes TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (category_id) REFERENCES pitch_categories(id) ON DELETE SET NULL,
		FOREIGN KEY (reviewed_by) REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pitches_status ON pitches(status)`,
	`CREATE INDEX IF NOT EXISTS idx_pitches_user_id ON pitches(user_id)`,
	`CREATE TABLE IF NOT EXISTS pitch_interests (
		id TEXT PRIMARY KEY,
		investor_id INTEGER NOT NULL,
		pitch_id TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (investor_id, pitch_id),
		FOREIGN KEY (investor_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (pitch_id) REFERENCES pitches(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS pitch_files (
		id TEXT PRIMARY KEY,
		pitch_id TEXT NOT NULL,
		path TEXT NOT NULL,
		file_type TEXT NOT NULL DEFAULT 'other',
		original_filename TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP NOT NULL,
		FOREIGN KEY (pitch_id) REFERENCES pitches(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS investor_posts (
		id TEXT PRIMARY KEY,
		investor_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		post_type TEXT NOT NULL DEFAULT 'testimonial',
		featured_image TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		read_count INTEGER NOT NULL DEFAULT 0,
		is_featured INTEGER NOT NULL DEFAULT 0,
		is_public INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (investor_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS job_postings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		requirements TEXT NOT NULL DEFAULT '',
		responsibilities TEXT NOT NULL DEFAULT '',
		poster_id INTEGER NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		company_description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		remote_ok INTEGER NOT NULL DEFAULT 0,
		job_type TEXT NOT NULL DEFAULT 'full_time',
		industry TEXT NOT NULL DEFAULT '',
		experience_level TEXT NOT NULL DEFAULT 'mid',
		salary_min TEXT,
		salary_max TEXT,
		salary_currency TEXT NOT NULL DEFAULT 'KES',
		equity_offered INTEGER NOT NULL DEFAULT 0,
		skills_required TEXT NOT NULL DEFAULT '',
		benefits TEXT NOT NULL DEFAULT '',
		application_deadline TIMESTAMP,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_featured INTEGER NOT NULL DEFAULT 0,
		views_count INTEGER NOT NULL DEFAULT 0,
		applications_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (poster_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_postings_active ON job_postings(is_active, created_at)`,
	`CREATE TABLE IF NOT EXISTS job_applications (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		applicant_id INTEGER NOT NULL,
		cover_letter TEXT NOT NULL DEFAULT '',
		custom_resume TEXT NOT NULL DEFAULT '',
		portfolio_links TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		status_updated_by INTEGER,
		status_notes TEXT NOT NULL DEFAULT '',
		interview_scheduled_at TIMESTAMP,
		interview_location TEXT NOT NULL DEFAULT '',
		interview_notes TEXT NOT NULL DEFAULT '',
		applied_at TIMESTAMP NOT NULL,
		status_updated_at TIMESTAMP NOT NULL,
		UNIQUE (job_id, applicant_id),
		FOREIGN KEY (job_id) REFERENCES job_postings(id) ON DELETE CASCADE,
		FOREIGN KEY (applicant_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (status_updated_by) REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS saved_jobs (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		job_id TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		saved_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, job_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (job_id) REFERENCES job_postings(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS job_alerts (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		remote_only INTEGER NOT NULL DEFAULT 0,
		job_type TEXT NOT NULL DEFAULT '',
		experience_level TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		salary_min TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		frequency TEXT NOT NULL DEFAULT 'daily' CHECK(frequency IN ('immediate', 'daily', 'weekly')),
		last_sent TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id TEXT PRIMARY KEY,
		investor_id INTEGER,
		regular_user_id INTEGER,
		participant_1_id INTEGER,
		participant_2_id INTEGER,
		related_pitch_id TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (investor_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (regular_user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (participant_1_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (participant_2_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (related_pitch_id) REFERENCES pitches(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		sender_id INTEGER NOT NULL,
		message TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		delivered INTEGER NOT NULL DEFAULT 0,
		delivered_at TIMESTAMP,
		read_at TIMESTAMP,
		FOREIGN KEY (room_id) REFERENCES chat_rooms(id) ON DELETE CASCADE,
		FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages(room_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_activity (
		user_id INTEGER PRIMARY KEY,
		last_seen TIMESTAMP NOT NULL,
		is_online INTEGER NOT NULL DEFAULT 0,
		current_room TEXT,
		is_typing INTEGER NOT NULL DEFAULT 0,
		typing_in_room TEXT,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		user_id INTEGER,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'KES',
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed', 'failed', 'cancelled', 'refunded')),
		phone_number TEXT NOT NULL DEFAULT '',
		merchant_request_id TEXT NOT NULL DEFAULT '',
		receipt_number TEXT NOT NULL DEFAULT '',
		checkout_request_id TEXT NOT NULL DEFAULT '',
		transaction_type TEXT NOT NULL DEFAULT 'REGISTRATION',
		account_reference TEXT NOT NULL DEFAULT '',
		transaction_desc TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		temp_email TEXT NOT NULL DEFAULT '',
		temp_username TEXT NOT NULL DEFAULT '',
		temp_user_type TEXT NOT NULL DEFAULT '',
		temp_password_hash TEXT NOT NULL DEFAULT '',
		transaction_date TIMESTAMP,
		payment_date TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_checkout ON payments(checkout_request_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
	`CREATE TABLE IF NOT EXISTS platform_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		registration_fee TEXT NOT NULL,
		subscription_fee TEXT NOT NULL,
		updated_by INTEGER,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (updated_by) REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read)`,
	`CREATE TABLE IF NOT EXISTS job_run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		detail TEXT NOT NULL DEFAULT '',
		error_text TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_run_logs_name ON job_run_logs(job_name, started_at)`,
}

// RunMigrations applies every migration not yet recorded in
// schema_migrations. Each migration commits together with its record.
func RunMigrations(ctx context.Context, sqlDB *sql.DB) error {
	if _, err := sqlDB.ExecContext(ctx, migrations[0]); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	applied, err := appliedVersions(ctx, sqlDB)
	if err != nil {
		return err
	}
	for version := 1; version < len(migrations); version++ {
		if applied[version] {
			continue
		}
		if err := applyMigration(ctx, sqlDB, version); err != nil {
			return err
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, sqlDB *sql.DB) (map[int]bool, error) {
	rows, err := sqlDB.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("listing applied migrations: %w", err)
	}
	defer rows.Close()
	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing applied migrations: %w", err)
	}
	return applied, nil
}

func applyMigration(ctx context.Context, sqlDB *sql.DB, version int) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration %d: %w", version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, migrations[version]); err != nil {
		return fmt.Errorf("executing migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}
