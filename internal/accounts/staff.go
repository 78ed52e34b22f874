package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/bazuu/investorconnect/internal/auth"
	"github.com/bazuu/investorconnect/internal/db"
)

// InvestorForm is an investor account created by an administrator.
type InvestorForm struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Password           string `json:"password"`
	PasswordConfirm    string `json:"password_confirm"`
	CompanyName        string `json:"company_name"`
	ProfileDescription string `json:"profile_description"`
	PhoneNumber        string `json:"phone_number"`
}

func validateCredentials(username, email, password, confirm string) error {
	switch {
	case !validUsername(username):
		return db.Errorf(db.ErrInvalid, "Enter a valid username of up to 150 letters, digits and @/./+/-/_ characters.")
	case email == "":
		return db.Errorf(db.ErrInvalid, "Email is required.")
	case !validEmail(email):
		return db.Errorf(db.ErrInvalid, "Enter a valid email address.")
	case len(password) < minPasswordLen:
		return db.Errorf(db.ErrInvalid, "Password must be at least %d characters.", minPasswordLen)
	case password != confirm:
		return db.Errorf(db.ErrInvalid, "The two password fields didn't match.")
	}
	return nil
}

func (s *Service) uniqueLogin(ctx context.Context, username, email string) error {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if u != nil {
		return db.Errorf(db.ErrConflict, "A user with that username already exists.")
	}
	if u, err = s.store.GetUserByEmail(ctx, email); err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if u != nil {
		return db.Errorf(db.ErrConflict, "A user with that email already exists.")
	}
	return nil
}

// CreateInvestor registers a verified investor without a registration payment.
func (s *Service) CreateInvestor(ctx context.Context, f InvestorForm) (*db.User, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if err := validateCredentials(f.Username, f.Email, f.Password, f.PasswordConfirm); err != nil {
		return nil, err
	}
	if err := s.uniqueLogin(ctx, f.Username, f.Email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(f.Password)
	if err != nil {
		return nil, err
	}
	u := &db.User{
		Username:           f.Username,
		Email:              f.Email,
		PasswordHash:       hash,
		UserType:           db.UserTypeInvestor,
		IsVerified:         true,
		IsActive:           true,
		CompanyName:        strings.TrimSpace(f.CompanyName),
		ProfileDescription: strings.TrimSpace(f.ProfileDescription),
		PhoneNumber:        strings.TrimSpace(f.PhoneNumber),
		AccountStatus:      db.AccountActive,
	}
	profile := &db.Profile{
		FirstName:         strings.TrimSpace(f.FirstName),
		LastName:          strings.TrimSpace(f.LastName),
		OpenToRemote:      true,
		ProfileVisibility: db.VisibilityMembers,
	}
	if u.ID, err = s.store.CreateAccount(ctx, u, profile, db.DefaultNotificationSettings(0)); err != nil {
		return nil, fmt.Errorf("creating investor: %w", err)
	}
	s.logger.Info("investor registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// CreateStaff creates a superuser account for the operator CLI.
func (s *Service) CreateStaff(ctx context.Context, username, email, password string) (*db.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateCredentials(username, email, password, password); err != nil {
		return nil, err
	}
	if err := s.uniqueLogin(ctx, username, email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &db.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		UserType:      db.UserTypeRegular,
		IsVerified:    true,
		IsStaff:       true,
		IsSuperuser:   true,
		IsActive:      true,
		AccountStatus: db.AccountActive,
	}
	profile := &db.Profile{OpenToRemote: true, ProfileVisibility: db.VisibilityMembers}
	if u.ID, err = s.store.CreateAccount(ctx, u, profile, db.DefaultNotificationSettings(0)); err != nil {
		return nil, fmt.Errorf("creating staff account: %w", err)
	}
	s.logger.Info("staff account created", "user_id", u.ID, "username", u.Username)
	return u, nil
}
