package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserType identifies which side of the marketplace a user is on.
type UserType string

const (
	UserTypeInvestor  UserType = "investor"
	UserTypeRegular   UserType = "regular"
	UserTypeJobSeeker UserType = "job_seeker"
)

// AccountStatus is the moderation state of an account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// User is a platform account.
type User struct {
	ID                 int64         `json:"id"`
	Username           string        `json:"username"`
	Email              string        `json:"email"`
	PasswordHash       string        `json:"-"`
	UserType           UserType      `json:"user_type"`
	IsVerified         bool          `json:"is_verified"`
	SubscriptionPaid   bool          `json:"subscription_paid"`
	IsStaff            bool          `json:"is_staff"`
	IsSuperuser        bool          `json:"is_superuser"`
	IsActive           bool          `json:"is_active"`
	ProfileDescription string        `json:"profile_description"`
	CompanyName        string        `json:"company_name"`
	PhoneNumber        string        `json:"phone_number"`
	AccountStatus      AccountStatus `json:"account_status"`
	SuspendedUntil     *time.Time    `json:"suspended_until,omitempty"`
	SuspensionReason   string        `json:"suspension_reason,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ProfileVisibility controls who can view a profile.
type ProfileVisibility string

const (
	VisibilityPublic  ProfileVisibility = "public"
	VisibilityMembers ProfileVisibility = "members"
	VisibilityPrivate ProfileVisibility = "private"
)

// Profile holds the extended profile of a user.
type Profile struct {
	ID                      string            `json:"id"`
	UserID                  int64             `json:"user_id"`
	FirstName               string            `json:"first_name"`
	LastName                string            `json:"last_name"`
	ProfilePicture          string            `json:"profile_picture"`
	Location                string            `json:"location"`
	JobTitle                string            `json:"job_title"`
	Industry                string            `json:"industry"`
	ExperienceLevel         string            `json:"experience_level"`
	InvestmentRange         string            `json:"investment_range"`
	InvestmentFocus         string            `json:"investment_focus"`
	BusinessStage           string            `json:"business_stage"`
	FundingGoal             *decimal.Decimal  `json:"funding_goal"`
	Website                 string            `json:"website"`
	Resume                  string            `json:"resume"`
	Skills                  string            `json:"skills"`
	JobLevel                string            `json:"job_level"`
	DesiredSalaryMin        *decimal.Decimal  `json:"desired_salary_min"`
	DesiredSalaryMax        *decimal.Decimal  `json:"desired_salary_max"`
	Availability            string            `json:"availability"`
	PreferredEmploymentType string            `json:"preferred_employment_type"`
	PortfolioURL            string            `json:"portfolio_url"`
	LinkedinURL             string            `json:"linkedin_url"`
	GithubURL               string            `json:"github_url"`
	OpenToRemote            bool              `json:"open_to_remote"`
	PreferredLocations      string            `json:"preferred_locations"`
	ProfileVisibility       ProfileVisibility `json:"profile_visibility"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// NotificationSettings holds per-user delivery preferences.
type NotificationSettings struct {
	ID                      string    `json:"id"`
	UserID                  int64     `json:"user_id"`
	EmailNewMessages        bool      `json:"email_new_messages"`
	EmailPitchInterest      bool      `json:"email_pitch_interest"`
	EmailPitchApproved      bool      `json:"email_pitch_approved"`
	EmailWeeklyDigest       bool      `json:"email_weekly_digest"`
	EmailJobMatches         bool      `json:"email_job_matches"`
	EmailApplicationUpdates bool      `json:"email_application_updates"`
	EmailNewApplications    bool      `json:"email_new_applications"`
	BrowserNewMessages      bool      `json:"browser_new_messages"`
	BrowserPitchUpdates     bool      `json:"browser_pitch_updates"`
	BrowserJobAlerts        bool      `json:"browser_job_alerts"`
	SMSCriticalUpdates      bool      `json:"sms_critical_updates"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// DefaultNotificationSettings returns the settings a new account starts with.
func DefaultNotificationSettings(userID int64) *NotificationSettings {
	return &NotificationSettings{
		UserID:                  userID,
		EmailNewMessages:        true,
		EmailPitchInterest:      true,
		EmailPitchApproved:      true,
		EmailWeeklyDigest:       true,
		EmailJobMatches:         true,
		EmailApplicationUpdates: true,
		EmailNewApplications:    true,
		BrowserNewMessages:      true,
		BrowserPitchUpdates:     true,
		BrowserJobAlerts:        true,
	}
}

// PitchCategory groups pitches.
type PitchCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PitchStatus is the review state of a pitch.
type PitchStatus string

const (
	PitchPending  PitchStatus = "pending"
	PitchApproved PitchStatus = "approved"
	PitchRejected PitchStatus = "rejected"
)

// Pitch is an idea submitted by an entrepreneur.
type Pitch struct {
	ID             string           `json:"id"`
	UserID         int64            `json:"user_id"`
	OwnerUsername  string           `json:"owner_username"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	CategoryID     *string          `json:"category_id,omitempty"`
	CategoryName   string           `json:"category_name,omitempty"`
	BudgetRequired *decimal.Decimal `json:"budget_required"`
	Timeline       string           `json:"timeline"`
	Status         PitchStatus      `json:"status"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy     *int64           `json:"reviewed_by,omitempty"`
	AdminNotes     string           `json:"admin_notes,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// PitchInterest records an investor's interest in a pitch.
type PitchInterest struct {
	ID         string    `json:"id"`
	InvestorID int64     `json:"investor_id"`
	PitchID    string    `json:"pitch_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// PitchFileType classifies an attachment.
type PitchFileType string

const (
	FileBusinessPlan PitchFileType = "business_plan"
	FileFinancial    PitchFileType = "financial"
	FileImage        PitchFileType = "image"
	FilePrototype    PitchFileType = "prototype"
	FilePresentation PitchFileType = "presentation"
	FileOther        PitchFileType = "other"
)

// PitchFile is a document attached to a pitch.
type PitchFile struct {
	ID               string        `json:"id"`
	PitchID          string        `json:"pitch_id"`
	Path             string        `json:"-"`
	FileType         PitchFileType `json:"file_type"`
	OriginalFilename string        `json:"original_filename"`
	Description      string        `json:"description"`
	FileSize         int64         `json:"file_size"`
	UploadedAt       time.Time     `json:"uploaded_at"`
}

// InvestorPost is a testimonial published by an investor.
type InvestorPost struct {
	ID               string    `json:"id"`
	InvestorID       int64     `json:"investor_id"`
	InvestorUsername string    `json:"investor_username"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	PostType         string    `json:"post_type"`
	FeaturedImage    string    `json:"featured_image"`
	Tags             string    `json:"tags"`
	ReadCount        int       `json:"read_count"`
	IsFeatured       bool      `json:"is_featured"`
	IsPublic         bool      `json:"is_public"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PostTypeTestimonial is the only post type currently accepted.
const PostTypeTestimonial = "testimonial"

// JobType is the employment type of a posting.
type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobFreelance  JobType = "freelance"
	JobInternship JobType = "internship"
)

// ExperienceLevel is the seniority a posting targets.
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelJunior    ExperienceLevel = "junior"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

// JobPosting is an open position.
type JobPosting struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Requirements        string           `json:"requirements"`
	Responsibilities    string           `json:"responsibilities"`
	PosterID            int64            `json:"poster_id"`
	PosterUsername      string           `json:"poster_username"`
	CompanyName         string           `json:"company_name"`
	CompanyDescription  string           `json:"company_description"`
	Location            string           `json:"location"`
	RemoteOK            bool             `json:"remote_ok"`
	JobType             JobType          `json:"job_type"`
	Industry            string           `json:"industry"`
	ExperienceLevel     ExperienceLevel  `json:"experience_level"`
	SalaryMin           *decimal.Decimal `json:"salary_min"`
	SalaryMax           *decimal.Decimal `json:"salary_max"`
	SalaryCurrency      string           `json:"salary_currency"`
	EquityOffered       bool             `json:"equity_offered"`
	SkillsRequired      string           `json:"skills_required"`
	Benefits            string           `json:"benefits"`
	ApplicationDeadline *time.Time       `json:"application_deadline,omitempty"`
	IsActive            bool             `json:"is_active"`
	IsFeatured          bool             `json:"is_featured"`
	ViewsCount          int              `json:"views_count"`
	ApplicationsCount   int              `json:"applications_count"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ApplicationStatus tracks a job application through hiring.
type ApplicationStatus string

const (
	AppPending            ApplicationStatus = "pending"
	AppReviewing          ApplicationStatus = "reviewing"
	AppShortlisted        ApplicationStatus = "shortlisted"
	AppInterviewScheduled ApplicationStatus = "interview_scheduled"
	AppInterviewCompleted ApplicationStatus = "interview_completed"
	AppOfferMade          ApplicationStatus = "offer_made"
	AppRejected           ApplicationStatus = "rejected"
	AppWithdrawn          ApplicationStatus = "withdrawn"
	AppHired              ApplicationStatus = "hired"
)

// ApplicationStatuses lists every status in display order.
var ApplicationStatuses = []ApplicationStatus{
	AppPending, AppReviewing, AppShortlisted, AppInterviewScheduled,
	AppInterviewCompleted, AppOfferMade, AppRejected, AppWithdrawn, AppHired,
}

// JobApplication is a job seeker's application to a posting.
type JobApplication struct {
	ID                   string            `json:"id"`
	JobID                string            `json:"job_id"`
	JobTitle             string            `json:"job_title"`
	ApplicantID          int64             `json:"applicant_id"`
	ApplicantUsername    string            `json:"applicant_username"`
	CoverLetter          string            `json:"cover_letter"`
	CustomResume         string            `json:"custom_resume"`
	PortfolioLinks       string            `json:"portfolio_links"`
	Status               ApplicationStatus `json:"status"`
	StatusUpdatedBy      *int64            `json:"status_updated_by,omitempty"`
	StatusNotes          string            `json:"status_notes"`
	InterviewScheduledAt *time.Time        `json:"interview_scheduled_at,omitempty"`
	InterviewLocation    string            `json:"interview_location"`
	InterviewNotes       string            `json:"interview_notes"`
	AppliedAt            time.Time         `json:"applied_at"`
	StatusUpdatedAt      time.Time         `json:"status_updated_at"`
}

// SavedJob is a bookmark on a posting.
type SavedJob struct {
	ID      string      `json:"id"`
	UserID  int64       `json:"user_id"`
	JobID   string      `json:"job_id"`
	Notes   string      `json:"notes"`
	SavedAt time.Time   `json:"saved_at"`
	Job     *JobPosting `json:"job,omitempty"`
}

// AlertFrequency controls how often an alert is evaluated.
type AlertFrequency string

const (
	AlertImmediate AlertFrequency = "immediate"
	AlertDaily     AlertFrequency = "daily"
	AlertWeekly    AlertFrequency = "weekly"
)

// JobAlert is a saved search that notifies its owner about new postings.
type JobAlert struct {
	ID              string           `json:"id"`
	UserID          int64            `json:"user_id"`
	Title           string           `json:"title"`
	Keywords        string           `json:"keywords"`
	Location        string           `json:"location"`
	RemoteOnly      bool             `json:"remote_only"`
	JobType         JobType          `json:"job_type"`
	ExperienceLevel ExperienceLevel  `json:"experience_level"`
	Industry        string           `json:"industry"`
	SalaryMin       *decimal.Decimal `json:"salary_min"`
	IsActive        bool             `json:"is_active"`
	Frequency       AlertFrequency   `json:"frequency"`
	LastSent        *time.Time       `json:"last_sent,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ChatRoom is a conversation between two users. Investor conversations use
// InvestorID/RegularUserID, every other pairing uses the participant fields.
type ChatRoom struct {
	ID             string    `json:"id"`
	InvestorID     *int64    `json:"investor_id,omitempty"`
	RegularUserID  *int64    `json:"regular_user_id,omitempty"`
	Participant1ID *int64    `json:"participant_1_id,omitempty"`
	Participant2ID *int64    `json:"participant_2_id,omitempty"`
	RelatedPitchID *string   `json:"related_pitch_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChatMessage is a single message in a room.
type ChatMessage struct {
	ID             string     `json:"id"`
	RoomID         string     `json:"room_id"`
	SenderID       int64      `json:"sender_id"`
	SenderUsername string     `json:"sender_username"`
	Message        string     `json:"message"`
	Timestamp      time.Time  `json:"timestamp"`
	IsRead         bool       `json:"is_read"`
	Delivered      bool       `json:"delivered"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// UserActivity is the presence record of a user.
type UserActivity struct {
	UserID       int64     `json:"user_id"`
	LastSeen     time.Time `json:"last_seen"`
	IsOnline     bool      `json:"is_online"`
	CurrentRoom  *string   `json:"current_room,omitempty"`
	IsTyping     bool      `json:"is_typing"`
	TypingInRoom *string   `json:"typing_in_room,omitempty"`
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// TransactionType distinguishes what a payment is for.
type TransactionType string

const (
	TransactionRegistration TransactionType = "REGISTRATION"
	TransactionSubscription TransactionType = "SUBSCRIPTION"
)

// Payment is an M-Pesa STK push transaction.
type Payment struct {
	ID                string          `json:"id"`
	UserID            *int64          `json:"user_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	PhoneNumber       string          `json:"phone_number"`
	MerchantRequestID string          `json:"merchant_request_id"`
	ReceiptNumber     string          `json:"receipt_number"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	TransactionType   TransactionType `json:"transaction_type"`
	AccountReference  string          `json:"account_reference"`
	TransactionDesc   string          `json:"transaction_desc"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	TempEmail         string          `json:"-"`
	TempUsername      string          `json:"-"`
	TempUserType      UserType        `json:"-"`
	TempPasswordHash  string          `json:"-"`
	TransactionDate   *time.Time      `json:"transaction_date,omitempty"`
	PaymentDate       time.Time       `json:"payment_date"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// PaymentAmount is the aggregation row used by financial reports.
type PaymentAmount struct {
	Status          PaymentStatus
	TransactionType TransactionType
	Amount          decimal.Decimal
	PaymentDate     time.Time
}

// PlatformSettings is one revision of the platform fees. The latest row is
// the effective configuration.
type PlatformSettings struct {
	ID              int64           `json:"id"`
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	SubscriptionFee decimal.Decimal `json:"subscription_fee"`
	UpdatedBy       *int64          `json:"updated_by,omitempty"`
	UpdatedByName   string          `json:"updated_by_name,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotifyJobMatch          NotificationKind = "job_match"
	NotifyApplicationUpdate NotificationKind = "application_update"
	NotifyNewApplication    NotificationKind = "new_application"
	NotifyPitchReviewed     NotificationKind = "pitch_reviewed"
	NotifyPitchInterest     NotificationKind = "pitch_interest"
	NotifyWelcome           NotificationKind = "welcome"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// JobRunLog records one execution of a maintenance job.
type JobRunLog struct {
	ID         int64     `json:"id"`
	JobName    string    `json:"job_name"`
	Status     RunStatus `json:"status"`
	Detail     string    `json:"detail"`
	ErrorText  string    `json:"error_text"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStatus represents the execution status of a job run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)
