package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store defines all database operations.
type Store interface {
	UserStore
	PitchStore
	JobStore
	ChatStore
	PaymentStore
	RunLogStore
	Close() error
}

// UserStore covers accounts, profiles, presence and in-app notifications.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) (int64, error)
	CreateAccount(ctx context.Context, u *User, p *Profile, ns *NotificationSettings) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, f UserFilter, page PageRequest) ([]*User, Pagination, error)
	CountUsers(ctx context.Context, f UserFilter) (int, error)
	FirstActiveStaff(ctx context.Context) (*User, error)
	LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error)
	UsersWithoutProfile(ctx context.Context) ([]*User, error)
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
	GetNotificationSettings(ctx context.Context, userID int64) (*NotificationSettings, error)
	UpsertNotificationSettings(ctx context.Context, ns *NotificationSettings) error
	GetActivity(ctx context.Context, userID int64) (*UserActivity, error)
	UpsertActivity(ctx context.Context, a *UserActivity) error
	CreateNotification(ctx context.Context, n *Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) (bool, error)
}

// PitchStore covers pitches, categories, interests, attachments and investor posts.
type PitchStore interface {
	CreateCategory(ctx context.Context, c *PitchCategory) error
	GetCategory(ctx context.Context, id string) (*PitchCategory, error)
	GetCategoryByName(ctx context.Context, name string) (*PitchCategory, error)
	ListCategories(ctx context.Context) ([]*PitchCategory, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
	CreatePitch(ctx context.Context, p *Pitch) error
	GetPitch(ctx context.Context, id string) (*Pitch, error)
	UpdatePitch(ctx context.Context, p *Pitch) error
	ListPitches(ctx context.Context, f PitchFilter, page PageRequest) ([]*Pitch, Pagination, error)
	CountPitches(ctx context.Context, f PitchFilter) (int, error)
	CreatePitchFile(ctx context.Context, f *PitchFile) error
	ListPitchFiles(ctx context.Context, pitchID string) ([]*PitchFile, error)
	GetPitchFile(ctx context.Context, id string) (*PitchFile, error)
	CreateInterest(ctx context.Context, i *PitchInterest) (bool, error)
	GetInterest(ctx context.Context, investorID int64, pitchID string) (*PitchInterest, error)
	DeleteInterest(ctx context.Context, investorID int64, pitchID string) (bool, error)
	CountInterests(ctx context.Context, investorID int64) (int, error)
	CreatePost(ctx context.Context, p *InvestorPost) error
	GetPost(ctx context.Context, id string) (*InvestorPost, error)
	ListPosts(ctx context.Context, f PostFilter, page PageRequest) ([]*InvestorPost, Pagination, error)
	IncrementPostReads(ctx context.Context, id string) error
}

// JobStore covers postings, applications, bookmarks and alerts.
type JobStore interface {
	CreateJob(ctx context.Context, j *JobPosting) error
	GetJob(ctx context.Context, id string) (*JobPosting, error)
	UpdateJob(ctx context.Context, j *JobPosting) error
	DeleteJob(ctx context.Context, id string) (bool, error)
	ListJobs(ctx context.Context, f JobFilter, page PageRequest) ([]*JobPosting, Pagination, error)
	AllJobs(ctx context.Context, f JobFilter) ([]*JobPosting, error)
	CountJobs(ctx context.Context, f JobFilter) (int, error)
	IncrementJobViews(ctx context.Context, id string) error
	SetJobsActive(ctx context.Context, ids []string, active bool) (int64, error)
	DeleteJobs(ctx context.Context, ids []string) (int64, error)
	AdjustApplicationsCount(ctx context.Context, jobID string, delta int) error
	JobCountsBy(ctx context.Context, column string) (map[string]int, error)
	TopViewedJobs(ctx context.Context, limit int) ([]*JobPosting, error)
	CreateApplication(ctx context.Context, a *JobApplication) error
	GetApplication(ctx context.Context, id string) (*JobApplication, error)
	GetApplicationFor(ctx context.Context, jobID string, applicantID int64) (*JobApplication, error)
	UpdateApplication(ctx context.Context, a *JobApplication) error
	DeleteApplication(ctx context.Context, id string) (bool, error)
	ListApplications(ctx context.Context, f ApplicationFilter, page PageRequest) ([]*JobApplication, Pagination, error)
	AllApplications(ctx context.Context, f ApplicationFilter) ([]*JobApplication, error)
	CountApplicationsByStatus(ctx context.Context, f ApplicationFilter) (map[ApplicationStatus]int, error)
	SaveJob(ctx context.Context, s *SavedJob) (bool, error)
	UnsaveJob(ctx context.Context, userID int64, jobID string) (bool, error)
	IsJobSaved(ctx context.Context, userID int64, jobID string) (bool, error)
	ListSavedJobs(ctx context.Context, userID int64, page PageRequest) ([]*SavedJob, Pagination, error)
	CreateAlert(ctx context.Context, a *JobAlert) error
	GetAlert(ctx context.Context, id string) (*JobAlert, error)
	UpdateAlert(ctx context.Context, a *JobAlert) error
	DeleteAlert(ctx context.Context, id string) (bool, error)
	ListAlerts(ctx context.Context, userID int64) ([]*JobAlert, error)
	ActiveAlerts(ctx context.Context, freq AlertFrequency) ([]*JobAlert, error)
}

// ChatStore covers rooms and messages.
type ChatStore interface {
	CreateRoom(ctx context.Context, r *ChatRoom) error
	GetRoom(ctx context.Context, id string) (*ChatRoom, error)
	FindInvestorRoom(ctx context.Context, investorID, regularID int64) (*ChatRoom, error)
	FindParticipantRoom(ctx context.Context, a, b int64) (*ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID int64) ([]*ChatRoom, error)
	ListRoomsForPitch(ctx context.Context, pitchID string) ([]*ChatRoom, error)
	TouchRoom(ctx context.Context, id string, at time.Time) error
	CreateMessage(ctx context.Context, m *ChatMessage) error
	GetMessage(ctx context.Context, id string) (*ChatMessage, error)
	ListMessages(ctx context.Context, roomID string) ([]*ChatMessage, error)
	LastMessage(ctx context.Context, roomID string) (*ChatMessage, error)
	CountMessages(ctx context.Context, roomID string) (int, error)
	MarkRoomRead(ctx context.Context, roomID string, readerID int64, at time.Time) (int64, error)
	MarkMessageRead(ctx context.Context, id string, at time.Time) error
	CountUnread(ctx context.Context, userID int64, roomID, excludeRoomID string) (int, error)
}

// PaymentStore covers payments and the platform fee history.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	TransitionPayment(ctx context.Context, id string, from, to PaymentStatus) (bool, error)
	ListPayments(ctx context.Context, f PaymentFilter, page PageRequest) ([]*Payment, Pagination, error)
	CountPayments(ctx context.Context, f PaymentFilter) (int, error)
	PendingPayments(ctx context.Context, before time.Time) ([]*Payment, error)
	PaymentAmounts(ctx context.Context) ([]PaymentAmount, error)
	LatestPlatformSettings(ctx context.Context) (*PlatformSettings, error)
	InsertPlatformSettings(ctx context.Context, ps *PlatformSettings) (int64, error)
	ListPlatformSettings(ctx context.Context, page PageRequest) ([]*PlatformSettings, Pagination, error)
}

// RunLogStore records maintenance job executions.
type RunLogStore interface {
	InsertJobRunLog(ctx context.Context, l *JobRunLog) (int64, error)
	UpdateJobRunLog(ctx context.Context, l *JobRunLog) error
	ListJobRunLogs(ctx context.Context, jobName string, limit int) ([]*JobRunLog, error)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlOpenFunc is a package-level variable to allow testing sql.Open failures.
var sqlOpenFunc = sql.Open

// NewSQLiteStore opens a SQLite database and returns a new SQLiteStore.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sqlOpenFunc("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := initDB(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &SQLiteStore{db: sqlDB}, nil
}

// initDB configures pragmas and runs migrations on an open database connection.
func initDB(sqlDB *sql.DB) error {
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := RunMigrations(context.Background(), sqlDB); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// NewSQLiteStoreFromDB creates a SQLiteStore from an existing *sql.DB connection.
func NewSQLiteStoreFromDB(sqlDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: sqlDB}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PageRequest selects a 1-based page of Size rows.
type PageRequest struct {
	Number int
	Size   int
}

// Pagination describes the page returned by a list query.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	PerPage int `json:"per_page"`
}

// NewPagination clamps the requested page into [1, pages].
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = 20
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Pagination{Page: page, Pages: pages, Total: total, PerPage: size}
}

// Offset is the number of rows to skip for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Page < p.Pages }

type rowScanner interface {
	Scan(dest ...any) error
}

// where accumulates SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (s *SQLiteStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) paginate(ctx context.Context, countQuery string, args []any, page PageRequest) (Pagination, error) {
	total, err := s.count(ctx, countQuery, args...)
	if err != nil {
		return Pagination{}, err
	}
	return NewPagination(page.Number, page.Size, total), nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
