package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/auth"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
	"github.com/bazuu/investorconnect/internal/payments"
)

const minPasswordLen = 8

var kenyanPhone = regexp.MustCompile(`^254\d{9}$`)

// Payments is the part of the payment service used during signup.
type Payments interface {
	CurrentFees(ctx context.Context) (*db.PlatformSettings, error)
	InitiateRegistration(ctx context.Context, reg payments.Registration, fee decimal.Decimal) (*db.Payment, error)
}

// ChatStarter opens a conversation between two users.
type ChatStarter interface {
	StartChat(ctx context.Context, user *db.User, username string) (*db.ChatRoom, error)
}

// Media stores uploaded files.
type Media interface {
	Save(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

// Service implements account lifecycle, profiles and settings.
type Service struct {
	store    db.Store
	payments Payments
	chat     ChatStarter
	media    Media
	tokens   *auth.TokenIssuer
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new accounts Service.
func NewService(store db.Store, pay Payments, media Media, tokens *auth.TokenIssuer, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		payments: pay,
		media:    media,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetChatStarter wires the chat service used by ContactAdmin.
func (s *Service) SetChatStarter(c ChatStarter) {
	s.chat = c
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *db.User  `json:"user"`
}

var errBadCredentials = db.Errorf(db.ErrUnauthenticated, "Invalid username or password.")

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, db.Errorf(db.ErrInvalid, "Username and password are required.")
	}
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		auth.CompareDummy(password)
		return nil, errBadCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return &LoginResult{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()).UTC(), User: u}, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*db.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, db.Errorf(db.ErrUnauthenticated, "Invalid or expired session.")
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		return nil, db.Errorf(db.ErrUnauthenticated, "Invalid or expired session.")
	}
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) checkActive(ctx context.Context, u *db.User) error {
	if !u.IsActive {
		return db.Errorf(db.ErrUnauthenticated, "This account is inactive.")
	}
	if err := s.LiftIfExpired(ctx, u); err != nil {
		return err
	}
	now := s.now()
	if u.IsSuspended(now) {
		return &db.SuspendedError{Info: u.SuspensionInfo(now)}
	}
	return nil
}

// LiftIfExpired persists the end of a suspension whose term has passed.
func (s *Service) LiftIfExpired(ctx context.Context, u *db.User) error {
	if !u.SuspensionExpired(s.now()) {
		return nil
	}
	u.Unsuspend()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("lifting suspension: %w", err)
	}
	s.logger.Info("suspension expired", "user_id", u.ID)
	return nil
}

// SignupForm is the registration request of a new user.
type SignupForm struct {
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	PasswordConfirm string      `json:"password_confirm"`
	PhoneNumber     string      `json:"phone_number"`
	UserType        db.UserType `json:"user_type"`
}

func (f *SignupForm) validate() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)

	switch {
	case !validUsername(f.Username):
		return db.Errorf(db.ErrInvalid, "Enter a valid username of up to 150 letters, digits and @/./+/-/_ characters.")
	case f.Email == "":
		return db.Errorf(db.ErrInvalid, "Email is required.")
	case !validEmail(f.Email):
		return db.Errorf(db.ErrInvalid, "Enter a valid email address.")
	case len(f.Password) < minPasswordLen:
		return db.Errorf(db.ErrInvalid, "Password must be at least %d characters.", minPasswordLen)
	case f.Password != f.PasswordConfirm:
		return db.Errorf(db.ErrInvalid, "The two password fields didn't match.")
	case f.PhoneNumber == "":
		return db.Errorf(db.ErrInvalid, "Phone number is required.")
	case !signupTypes.valid(string(f.UserType)):
		return db.Errorf(db.ErrInvalid, "Invalid user type %q.", f.UserType)
	}
	return nil
}

// StartSignup validates a registration and sends the registration fee
// prompt. The account is created once the payment completes.
func (s *Service) StartSignup(ctx context.Context, form SignupForm) (*db.Payment, error) {
	if err := form.validate(); err != nil {
		return nil, err
	}
	phone := payments.FormatPhone(form.PhoneNumber)
	if !kenyanPhone.MatchString(phone) {
		return nil, db.Errorf(db.ErrInvalid, "Enter a valid phone number.")
	}
	if err := s.checkUnique(ctx, form.Username, form.Email, phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	fees, err := s.payments.CurrentFees(ctx)
	if err != nil {
		return nil, err
	}
	return s.payments.InitiateRegistration(ctx, payments.Registration{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		UserType:     form.UserType,
		Phone:        phone,
	}, fees.RegistrationFee)
}

func (s *Service) checkUnique(ctx context.Context, username, email, phone string) error {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if u != nil {
		return db.Errorf(db.ErrConflict, "A user with that username already exists.")
	}
	u, err = s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if u != nil {
		return db.Errorf(db.ErrConflict, "A user with that email already exists.")
	}
	u, err = s.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("checking phone: %w", err)
	}
	if u != nil {
		return db.Errorf(db.ErrConflict, "A user with that phone number already exists.")
	}
	return nil
}

// CompleteRegistration creates the account paid for by a completed
// REGISTRATION payment.
func (s *Service) CompleteRegistration(ctx context.Context, p *db.Payment) error {
	existing, err := s.store.GetUserByUsername(ctx, p.TempUsername)
	if err == nil && existing == nil {
		existing, err = s.store.GetUserByEmail(ctx, p.TempEmail)
	}
	if err != nil {
		return s.registrationFailed(ctx, p, err)
	}
	if existing != nil {
		s.logger.Warn("registration account already exists", "payment_id", p.ID, "username", p.TempUsername)
		return nil
	}

	userType := p.TempUserType
	if userType == "" {
		userType = db.UserTypeRegular
	}
	u := &db.User{
		Username:         p.TempUsername,
		Email:            p.TempEmail,
		PasswordHash:     p.TempPasswordHash,
		UserType:         userType,
		IsVerified:       true,
		SubscriptionPaid: true,
		IsActive:         true,
		PhoneNumber:      p.PhoneNumber,
		AccountStatus:    db.AccountActive,
	}
	profile := &db.Profile{OpenToRemote: true, ProfileVisibility: db.VisibilityMembers}
	id, err := s.store.CreateAccount(ctx, u, profile, db.DefaultNotificationSettings(0))
	if err != nil {
		return s.registrationFailed(ctx, p, err)
	}

	p.UserID = &id
	p.TempPasswordHash = ""
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return fmt.Errorf("linking payment: %w", err)
	}
	s.logger.Info("account created", "user_id", id, "payment_id", p.ID)

	welcome := notify.Message{
		Kind:  db.NotifyWelcome,
		Title: "Welcome to InvestorConnect",
		Body: fmt.Sprintf("Hi %s,\n\nYour registration payment was received and your account is ready. "+
			"Log in with your username to complete your profile.\n\nThe InvestorConnect team", u.Username),
	}
	if err := s.notifier.Notify(ctx, u, welcome); err != nil {
		s.logger.Warn("welcome notification", "user_id", id, "error", err)
	}
	s.notifier.Email(ctx, u, welcome.Title, welcome.Body)
	return nil
}

func (s *Service) registrationFailed(ctx context.Context, p *db.Payment, cause error) error {
	p.FailureReason = "Account creation failed: " + cause.Error()
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		s.logger.Error("recording registration failure", "payment_id", p.ID, "error", err)
	}
	return fmt.Errorf("creating account: %w", cause)
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, u *db.User, old, newPassword, confirm string) error {
	if !auth.CheckPassword(u.PasswordHash, old) {
		return db.Errorf(db.ErrInvalid, "Your old password was entered incorrectly.")
	}
	if len(newPassword) < minPasswordLen {
		return db.Errorf(db.ErrInvalid, "Password must be at least %d characters.", minPasswordLen)
	}
	if newPassword != confirm {
		return db.Errorf(db.ErrInvalid, "The two password fields didn't match.")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	s.logger.Info("password changed", "user_id", u.ID)
	return nil
}

// Logout marks the user offline.
func (s *Service) Logout(ctx context.Context, u *db.User) error {
	a, err := s.store.GetActivity(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("loading activity: %w", err)
	}
	if a == nil {
		a = &db.UserActivity{UserID: u.ID}
	}
	a.IsOnline = false
	a.IsTyping = false
	a.TypingInRoom = nil
	a.CurrentRoom = nil
	a.LastSeen = s.now().UTC()
	if err := s.store.UpsertActivity(ctx, a); err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	return nil
}

// ContactAdmin opens a conversation with the first available administrator.
func (s *Service) ContactAdmin(ctx context.Context, u *db.User) (*db.ChatRoom, error) {
	if s.chat == nil {
		return nil, errors.New("chat is not configured")
	}
	admin, err := s.store.FirstActiveStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding administrator: %w", err)
	}
	if admin == nil {
		return nil, db.Errorf(db.ErrNotFound, "no administrators are currently available")
	}
	return s.chat.StartChat(ctx, u, admin.Username)
}

// GetNotificationSettings returns the user's settings, creating defaults on
// first access.
func (s *Service) GetNotificationSettings(ctx context.Context, u *db.User) (*db.NotificationSettings, error) {
	ns, err := s.store.GetNotificationSettings(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading notification settings: %w", err)
	}
	if ns != nil {
		return ns, nil
	}
	ns = db.DefaultNotificationSettings(u.ID)
	if err := s.store.UpsertNotificationSettings(ctx, ns); err != nil {
		return nil, fmt.Errorf("creating notification settings: %w", err)
	}
	return ns, nil
}

// UpdateNotificationSettings stores ns as the user's settings.
func (s *Service) UpdateNotificationSettings(ctx context.Context, u *db.User, ns *db.NotificationSettings) (*db.NotificationSettings, error) {
	current, err := s.GetNotificationSettings(ctx, u)
	if err != nil {
		return nil, err
	}
	ns.ID = current.ID
	ns.UserID = u.ID
	ns.CreatedAt = current.CreatedAt
	if err := s.store.UpsertNotificationSettings(ctx, ns); err != nil {
		return nil, fmt.Errorf("saving notification settings: %w", err)
	}
	return ns, nil
}

// ListNotifications returns the newest in-app notifications of the user.
func (s *Service) ListNotifications(ctx context.Context, u *db.User, unreadOnly bool) ([]*db.Notification, error) {
	return s.store.ListNotifications(ctx, u.ID, unreadOnly, 50)
}

// MarkNotificationRead marks one of the user's notifications read.
func (s *Service) MarkNotificationRead(ctx context.Context, u *db.User, id int64) error {
	ok, err := s.store.MarkNotificationRead(ctx, u.ID, id)
	if err != nil {
		return fmt.Errorf("marking notification: %w", err)
	}
	if !ok {
		return db.Errorf(db.ErrNotFound, "Notification not found.")
	}
	return nil
}
