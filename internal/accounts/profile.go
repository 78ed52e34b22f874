package accounts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
)

const (
	maxPictureSize = 5 << 20
	maxResumeSize  = 10 << 20
)

var (
	pictureExts = choiceSet("jpg", "jpeg", "png", "gif", "webp")
	resumeExts  = choiceSet("pdf", "doc", "docx")
)

// EnsureProfile returns the user's profile, creating it and the
// notification settings when either is missing.
func (s *Service) EnsureProfile(ctx context.Context, u *db.User) (*db.Profile, error) {
	p, err := s.store.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		p = &db.Profile{UserID: u.ID, OpenToRemote: true, ProfileVisibility: db.VisibilityMembers}
		if err := s.store.UpsertProfile(ctx, p); err != nil {
			return nil, fmt.Errorf("creating profile: %w", err)
		}
	}
	if _, err := s.GetNotificationSettings(ctx, u); err != nil {
		return nil, err
	}
	return p, nil
}

// FixProfiles creates missing profiles and notification settings for every
// user and returns how many users were repaired.
func (s *Service) FixProfiles(ctx context.Context) (int, error) {
	users, err := s.store.UsersWithoutProfile(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}
	for _, u := range users {
		if _, err := s.EnsureProfile(ctx, u); err != nil {
			return 0, fmt.Errorf("fixing profile of %s: %w", u.Username, err)
		}
		s.logger.Info("profile repaired", "user_id", u.ID)
	}
	return len(users), nil
}

// ProfileView is a user together with the extended profile.
type ProfileView struct {
	User         *db.User    `json:"user"`
	Profile      *db.Profile `json:"profile"`
	FullName     string      `json:"full_name"`
	Skills       []string    `json:"skills"`
	IsOwnProfile bool        `json:"is_own_profile"`
}

// GetProfile returns the profile of username as seen by viewer. An empty
// username is the viewer's own profile.
func (s *Service) GetProfile(ctx context.Context, viewer *db.User, username string) (*ProfileView, error) {
	target := viewer
	if username != "" && !strings.EqualFold(username, viewer.Username) {
		u, err := s.store.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("loading user: %w", err)
		}
		if u == nil {
			return nil, db.Errorf(db.ErrNotFound, "User not found.")
		}
		target = u
	}
	own := target.ID == viewer.ID
	if !own && !target.CanAccessPlatform(s.now()) {
		return nil, db.Errorf(db.ErrForbidden, "This user profile is not accessible.")
	}

	p, err := s.EnsureProfile(ctx, target)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		User:         target,
		Profile:      p,
		FullName:     p.FullName(target.Username),
		Skills:       p.SkillsList(),
		IsOwnProfile: own,
	}, nil
}

// ProfileUpdate is a partial update of user and profile fields. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	Email              *string `json:"email"`
	CompanyName        *string `json:"company_name"`
	PhoneNumber        *string `json:"phone_number"`
	ProfileDescription *string `json:"profile_description"`

	FirstName               *string               `json:"first_name"`
	LastName                *string               `json:"last_name"`
	Location                *string               `json:"location"`
	JobTitle                *string               `json:"job_title"`
	Industry                *string               `json:"industry"`
	ExperienceLevel         *string               `json:"experience_level"`
	InvestmentRange         *string               `json:"investment_range"`
	InvestmentFocus         *string               `json:"investment_focus"`
	BusinessStage           *string               `json:"business_stage"`
	FundingGoal             *decimal.Decimal      `json:"funding_goal"`
	Website                 *string               `json:"website"`
	Skills                  *string               `json:"skills"`
	JobLevel                *string               `json:"job_level"`
	DesiredSalaryMin        *decimal.Decimal      `json:"desired_salary_min"`
	DesiredSalaryMax        *decimal.Decimal      `json:"desired_salary_max"`
	Availability            *string               `json:"availability"`
	PreferredEmploymentType *string               `json:"preferred_employment_type"`
	PortfolioURL            *string               `json:"portfolio_url"`
	LinkedinURL             *string               `json:"linkedin_url"`
	GithubURL               *string               `json:"github_url"`
	OpenToRemote            *bool                 `json:"open_to_remote"`
	PreferredLocations      *string               `json:"preferred_locations"`
	ProfileVisibility       *db.ProfileVisibility `json:"profile_visibility"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (s *Service) validateUpdate(ctx context.Context, u *db.User, up ProfileUpdate) error {
	if up.Email != nil {
		email := strings.TrimSpace(*up.Email)
		if !validEmail(email) {
			return db.Errorf(db.ErrInvalid, "Enter a valid email address.")
		}
		if !strings.EqualFold(email, u.Email) {
			other, err := s.store.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("checking email: %w", err)
			}
			if other != nil && other.ID != u.ID {
				return db.Errorf(db.ErrConflict, "A user with that email already exists.")
			}
		}
	}

	checks := []struct {
		field string
		value *string
		set   choices
	}{
		{"industry", up.Industry, industries},
		{"experience_level", up.ExperienceLevel, experienceLevels},
		{"investment_range", up.InvestmentRange, investmentRanges},
		{"investment_focus", up.InvestmentFocus, investmentFocus},
		{"business_stage", up.BusinessStage, businessStages},
		{"job_level", up.JobLevel, jobLevels},
		{"availability", up.Availability, availabilities},
		{"preferred_employment_type", up.PreferredEmploymentType, employmentTypes},
	}
	for _, c := range checks {
		if c.value != nil && !c.set.valid(strings.TrimSpace(*c.value)) {
			return db.Errorf(db.ErrInvalid, "%s: select a valid choice, %q is not one of the available choices.", c.field, *c.value)
		}
	}
	if up.ProfileVisibility != nil && !visibilities.valid(string(*up.ProfileVisibility)) {
		return db.Errorf(db.ErrInvalid, "profile_visibility: select a valid choice.")
	}

	urls := []struct {
		field string
		value *string
	}{
		{"website", up.Website},
		{"portfolio_url", up.PortfolioURL},
		{"linkedin_url", up.LinkedinURL},
		{"github_url", up.GithubURL},
	}
	for _, c := range urls {
		if c.value != nil && !validURL(strings.TrimSpace(*c.value)) {
			return db.Errorf(db.ErrInvalid, "%s: enter a valid URL.", c.field)
		}
	}

	if up.FundingGoal != nil && up.FundingGoal.IsNegative() {
		return db.Errorf(db.ErrInvalid, "funding_goal: must not be negative.")
	}
	if up.DesiredSalaryMin != nil && up.DesiredSalaryMax != nil && up.DesiredSalaryMin.GreaterThan(*up.DesiredSalaryMax) {
		return db.Errorf(db.ErrInvalid, "Minimum salary cannot be greater than maximum salary.")
	}
	return nil
}

// UpdateProfile applies up to the user and the profile.
func (s *Service) UpdateProfile(ctx context.Context, u *db.User, up ProfileUpdate) (*ProfileView, error) {
	if err := s.validateUpdate(ctx, u, up); err != nil {
		return nil, err
	}
	p, err := s.EnsureProfile(ctx, u)
	if err != nil {
		return nil, err
	}

	setString(&u.Email, up.Email)
	setString(&u.CompanyName, up.CompanyName)
	setString(&u.PhoneNumber, up.PhoneNumber)
	setString(&u.ProfileDescription, up.ProfileDescription)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	setString(&p.FirstName, up.FirstName)
	setString(&p.LastName, up.LastName)
	setString(&p.Location, up.Location)
	setString(&p.JobTitle, up.JobTitle)
	setString(&p.Industry, up.Industry)
	setString(&p.ExperienceLevel, up.ExperienceLevel)
	setString(&p.InvestmentRange, up.InvestmentRange)
	setString(&p.InvestmentFocus, up.InvestmentFocus)
	setString(&p.BusinessStage, up.BusinessStage)
	setString(&p.Website, up.Website)
	setString(&p.Skills, up.Skills)
	setString(&p.JobLevel, up.JobLevel)
	setString(&p.Availability, up.Availability)
	setString(&p.PreferredEmploymentType, up.PreferredEmploymentType)
	setString(&p.PortfolioURL, up.PortfolioURL)
	setString(&p.LinkedinURL, up.LinkedinURL)
	setString(&p.GithubURL, up.GithubURL)
	setString(&p.PreferredLocations, up.PreferredLocations)
	if up.FundingGoal != nil {
		p.FundingGoal = up.FundingGoal
	}
	if up.DesiredSalaryMin != nil {
		p.DesiredSalaryMin = up.DesiredSalaryMin
	}
	if up.DesiredSalaryMax != nil {
		p.DesiredSalaryMax = up.DesiredSalaryMax
	}
	if up.OpenToRemote != nil {
		p.OpenToRemote = *up.OpenToRemote
	}
	if up.ProfileVisibility != nil {
		p.ProfileVisibility = *up.ProfileVisibility
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	s.logger.Info("profile updated", "user_id", u.ID)

	return &ProfileView{
		User:         u,
		Profile:      p,
		FullName:     p.FullName(u.Username),
		Skills:       p.SkillsList(),
		IsOwnProfile: true,
	}, nil
}

func filled(v string) bool { return strings.TrimSpace(v) != "" }

// ProfileCompletion returns the percentage of profile fields filled in.
func ProfileCompletion(u *db.User, p *db.Profile) int {
	fields := []bool{
		filled(u.Username), filled(u.Email), filled(u.PhoneNumber), filled(u.CompanyName), filled(u.ProfileDescription),
		filled(p.FirstName), filled(p.LastName), filled(p.Location), filled(p.JobTitle), filled(p.Industry), filled(p.ExperienceLevel),
		p.ProfilePicture != "",
		filled(p.Website), filled(p.LinkedinURL),
	}
	if u.IsInvestor() {
		fields = append(fields, p.InvestmentRange != "", filled(p.InvestmentFocus))
	} else {
		fields = append(fields, p.BusinessStage != "", p.FundingGoal != nil && p.FundingGoal.IsPositive())
	}

	done := 0
	for _, ok := range fields {
		if ok {
			done++
		}
	}
	return min(done*100/len(fields), 100)
}

// Completion computes the profile completion of u.
func (s *Service) Completion(ctx context.Context, u *db.User) (int, error) {
	p, err := s.EnsureProfile(ctx, u)
	if err != nil {
		return 0, err
	}
	return ProfileCompletion(u, p), nil
}

// saveUpload stores r under dir with a random name and returns the stored
// path. Uploads larger than limit are rejected.
func (s *Service) saveUpload(dir string, userID int64, filename string, r io.Reader, allowed choices, limit int64) (string, error) {
	ext := extension(filename)
	if ext == "" || !allowed.valid(ext) {
		return "", db.Errorf(db.ErrInvalid, "File type .%s is not allowed.", ext)
	}
	name := fmt.Sprintf("%s/%d/%s.%s", dir, userID, uuid.NewString(), ext)
	n, err := s.media.Save(name, io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if n > limit {
		if err := s.media.Remove(name); err != nil {
			s.logger.Warn("removing oversized upload", "path", name, "error", err)
		}
		return "", db.Errorf(db.ErrInvalid, "File size cannot exceed %d MB.", limit>>20)
	}
	return name, nil
}

// SetProfilePicture replaces the user's profile picture.
func (s *Service) SetProfilePicture(ctx context.Context, u *db.User, filename string, r io.Reader) (*db.Profile, error) {
	p, err := s.EnsureProfile(ctx, u)
	if err != nil {
		return nil, err
	}
	name, err := s.saveUpload("profile_pictures", u.ID, filename, r, pictureExts, maxPictureSize)
	if err != nil {
		return nil, err
	}
	old := p.ProfilePicture
	p.ProfilePicture = name
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if old != "" {
		if err := s.media.Remove(old); err != nil {
			s.logger.Warn("removing old profile picture", "path", old, "error", err)
		}
	}
	return p, nil
}

// DeleteProfilePicture removes the stored picture.
func (s *Service) DeleteProfilePicture(ctx context.Context, u *db.User) error {
	p, err := s.store.GetProfile(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return db.Errorf(db.ErrNotFound, "Profile extension not found.")
	}
	if p.ProfilePicture == "" {
		return db.Errorf(db.ErrNotFound, "No profile picture to delete.")
	}
	if err := s.media.Remove(p.ProfilePicture); err != nil {
		return fmt.Errorf("removing profile picture: %w", err)
	}
	p.ProfilePicture = ""
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// UploadResume stores a resume document on the user's profile.
func (s *Service) UploadResume(ctx context.Context, u *db.User, filename string, r io.Reader) (*db.Profile, error) {
	p, err := s.EnsureProfile(ctx, u)
	if err != nil {
		return nil, err
	}
	name, err := s.saveUpload("resumes", u.ID, filename, r, resumeExts, maxResumeSize)
	if err != nil {
		return nil, err
	}
	old := p.Resume
	p.Resume = name
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if old != "" {
		if err := s.media.Remove(old); err != nil {
			s.logger.Warn("removing old resume", "path", old, "error", err)
		}
	}
	return p, nil
}
