package pitches

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/notify"
)

var (
	maxFileSize = int64(10 << 20)
	maxTitle    = 200
)

var allowedFiles = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "jpg": {}, "jpeg": {}, "png": {},
	"ppt": {}, "pptx": {}, "xls": {}, "xlsx": {},
}

var fileTypes = map[db.PitchFileType]struct{}{
	db.FileBusinessPlan: {}, db.FileFinancial: {}, db.FileImage: {},
	db.FilePrototype:    {}, db.FilePresentation: {}, db.FileOther: {},
}

// RoomOpener opens the chat room between an investor and a pitch owner.
type RoomOpener interface {
	OpenPitchRoom(ctx context.Context, investor, owner *db.User, pitchID string) (*db.ChatRoom, error)
}

// Media stores pitch attachments.
type Media interface {
	Save(name string, r io.Reader) (int64, error)
	Open(name string) (io.ReadSeekCloser, error)
	Remove(name string) error
}

// Service implements pitch submission, investor interest and posts.
type Service struct {
	store    db.Store
	rooms    RoomOpener
	media    Media
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new pitches Service.
func NewService(store db.Store, rooms RoomOpener, media Media, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		rooms:    rooms,
		media:    media,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) requireAccess(u *db.User) error {
	if !u.CanAccessPlatform(s.now()) {
		return db.Errorf(db.ErrForbidden, "Please verify your account first.")
	}
	return nil
}

// PitchInput holds the editable fields of a pitch.
type PitchInput struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	CategoryID     string           `json:"category_id"`
	BudgetRequired *decimal.Decimal `json:"budget_required"`
	Timeline       string           `json:"timeline"`
}

// Upload is one attachment submitted with a pitch.
type Upload struct {
	Filename    string
	FileType    db.PitchFileType
	Description string
	Size        int64
	Body        io.Reader
}

func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func (s *Service) validatePitch(ctx context.Context, in *PitchInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Title == "":
		return db.Errorf(db.ErrInvalid, "Title is required.")
	case utf8.RuneCountInString(in.Title) > maxTitle:
		return db.Errorf(db.ErrInvalid, "Title cannot exceed %d characters.", maxTitle)
	case in.Description == "":
		return db.Errorf(db.ErrInvalid, "Description is required.")
	case in.BudgetRequired != nil && in.BudgetRequired.IsNegative():
		return db.Errorf(db.ErrInvalid, "Budget cannot be negative.")
	}
	if in.CategoryID != "" {
		c, err := s.store.GetCategory(ctx, in.CategoryID)
		if err != nil {
			return fmt.Errorf("loading category: %w", err)
		}
		if c == nil {
			return db.Errorf(db.ErrInvalid, "Select a valid category.")
		}
	}
	return nil
}

func validateUpload(u *Upload) error {
	ext := extension(u.Filename)
	if _, ok := allowedFiles[ext]; !ok {
		return db.Errorf(db.ErrInvalid, "File type .%s is not allowed.", ext)
	}
	if u.Size > maxFileSize {
		return db.Errorf(db.ErrInvalid, "File size cannot exceed 10MB.")
	}
	if u.FileType == "" {
		u.FileType = db.FileOther
	}
	if _, ok := fileTypes[u.FileType]; !ok {
		return db.Errorf(db.ErrInvalid, "Invalid file type %q.", u.FileType)
	}
	return nil
}

// CreatePitch submits a pitch for review with its attachments. It returns
// the pitch and the number of files stored.
func (s *Service) CreatePitch(ctx context.Context, u *db.User, in PitchInput, files []Upload) (*db.Pitch, int, error) {
	if err := s.requireAccess(u); err != nil {
		return nil, 0, err
	}
	if err := s.validatePitch(ctx, &in); err != nil {
		return nil, 0, err
	}
	for i := range files {
		if err := validateUpload(&files[i]); err != nil {
			return nil, 0, err
		}
	}

	p := &db.Pitch{
		ID:             uuid.NewString(),
		UserID:         u.ID,
		OwnerUsername:  u.Username,
		Title:          in.Title,
		Description:    in.Description,
		BudgetRequired: in.BudgetRequired,
		Timeline:       strings.TrimSpace(in.Timeline),
		Status:         db.PitchPending,
		SubmittedAt:    s.now().UTC(),
	}
	if in.CategoryID != "" {
		p.CategoryID = &in.CategoryID
	}
	if err := s.store.CreatePitch(ctx, p); err != nil {
		return nil, 0, fmt.Errorf("creating pitch: %w", err)
	}

	stored := 0
	for _, f := range files {
		if err := s.storeFile(ctx, p, f); err != nil {
			return p, stored, err
		}
		stored++
	}
	s.logger.Info("pitch submitted", "pitch_id", p.ID, "user_id", u.ID, "files", stored)
	return p, stored, nil
}

func (s *Service) storeFile(ctx context.Context, p *db.Pitch, f Upload) error {
	name := fmt.Sprintf("pitch_files/%s/%s.%s", p.ID, uuid.NewString(), extension(f.Filename))
	n, err := s.media.Save(name, io.LimitReader(f.Body, maxFileSize+1))
	if err != nil {
		return fmt.Errorf("saving %s: %w", f.Filename, err)
	}
	if n > maxFileSize {
		if err := s.media.Remove(name); err != nil {
			s.logger.Warn("removing oversized upload", "path", name, "error", err)
		}
		return db.Errorf(db.ErrInvalid, "File size cannot exceed 10MB.")
	}
	pf := &db.PitchFile{
		PitchID:          p.ID,
		Path:             name,
		FileType:         f.FileType,
		OriginalFilename: f.Filename,
		Description:      strings.TrimSpace(f.Description),
		FileSize:         n,
		UploadedAt:       s.now().UTC(),
	}
	if err := s.store.CreatePitchFile(ctx, pf); err != nil {
		return fmt.Errorf("recording %s: %w", f.Filename, err)
	}
	return nil
}

// ListOwn returns the user's pitches, newest first.
func (s *Service) ListOwn(ctx context.Context, u *db.User, page db.PageRequest) ([]*db.Pitch, db.Pagination, error) {
	if err := s.requireAccess(u); err != nil {
		return nil, db.Pagination{}, err
	}
	ps, pg, err := s.store.ListPitches(ctx, db.PitchFilter{UserID: u.ID}, page)
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing pitches: %w", err)
	}
	return ps, pg, nil
}

// BrowseApproved returns approved pitches for investors.
func (s *Service) BrowseApproved(ctx context.Context, u *db.User, page db.PageRequest) ([]*db.Pitch, db.Pagination, error) {
	if !u.IsInvestor() {
		return nil, db.Pagination{}, db.Errorf(db.ErrForbidden, "Only investors can access this page.")
	}
	ps, pg, err := s.store.ListPitches(ctx, db.PitchFilter{Status: db.PitchApproved}, page)
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing pitches: %w", err)
	}
	return ps, pg, nil
}

func (s *Service) getPitch(ctx context.Context, id string) (*db.Pitch, error) {
	p, err := s.store.GetPitch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading pitch: %w", err)
	}
	if p == nil {
		return nil, db.Errorf(db.ErrNotFound, "Pitch not found.")
	}
	return p, nil
}

func (s *Service) hasInterest(ctx context.Context, u *db.User, pitchID string) (bool, error) {
	if !u.IsInvestor() {
		return false, nil
	}
	i, err := s.store.GetInterest(ctx, u.ID, pitchID)
	if err != nil {
		return false, fmt.Errorf("loading interest: %w", err)
	}
	return i != nil, nil
}

// canViewFiles reports whether u may see the attachments of p.
func canViewFiles(u *db.User, p *db.Pitch, interested bool) bool {
	return u.ID == p.UserID || u.IsStaff || (u.IsInvestor() && interested)
}

// Detail is a pitch as seen by one viewer.
type Detail struct {
	Pitch           *db.Pitch       `json:"pitch"`
	Files           []*db.PitchFile `json:"files"`
	CanViewFiles    bool            `json:"user_can_view_files"`
	UserHasInterest bool            `json:"user_has_interest"`
	ChatRoom        *db.ChatRoom    `json:"chat_room,omitempty"`
	UnreadCount     int             `json:"unread_count"`
	OwnerRooms      []*db.ChatRoom  `json:"user_chat_rooms,omitempty"`
}

// Detail returns a pitch with the attachments and chat rooms the viewer
// may see.
func (s *Service) Detail(ctx context.Context, viewer *db.User, id string) (*Detail, error) {
	p, err := s.getPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	interested, err := s.hasInterest(ctx, viewer, p.ID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Pitch: p, UserHasInterest: interested, CanViewFiles: canViewFiles(viewer, p, interested)}
	if d.CanViewFiles {
		if d.Files, err = s.store.ListPitchFiles(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}
	}

	if viewer.IsInvestor() && interested {
		r, err := s.store.FindInvestorRoom(ctx, viewer.ID, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("finding chat room: %w", err)
		}
		if r != nil && r.RelatedPitchID != nil && *r.RelatedPitchID == p.ID {
			d.ChatRoom = r
			if d.UnreadCount, err = s.store.CountUnread(ctx, viewer.ID, r.ID, ""); err != nil {
				return nil, fmt.Errorf("counting unread: %w", err)
			}
		}
	}

	if viewer.ID == p.UserID {
		rooms, err := s.store.ListRoomsForPitch(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("listing chat rooms: %w", err)
		}
		for _, r := range rooms {
			if r.RegularUserID != nil && *r.RegularUserID == viewer.ID {
				d.OwnerRooms = append(d.OwnerRooms, r)
			}
		}
	}
	return d, nil
}

// AddInterest records investor interest in an approved pitch. On first
// interest the investor and the owner get a chat room.
func (s *Service) AddInterest(ctx context.Context, investor *db.User, id, message string) (bool, *db.ChatRoom, error) {
	if !investor.IsInvestor() {
		return false, nil, db.Errorf(db.ErrForbidden, "Only investors can express interest in pitches.")
	}
	p, err := s.getPitch(ctx, id)
	if err != nil {
		return false, nil, err
	}
	if p.Status != db.PitchApproved {
		return false, nil, db.Errorf(db.ErrInvalid, "You can only express interest in approved pitches.")
	}
	created, err := s.store.CreateInterest(ctx, &db.PitchInterest{
		InvestorID: investor.ID,
		PitchID:    p.ID,
		Message:    strings.TrimSpace(message),
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return false, nil, fmt.Errorf("recording interest: %w", err)
	}
	if !created {
		return false, nil, nil
	}

	owner, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return true, nil, fmt.Errorf("loading pitch owner: %w", err)
	}
	if owner == nil {
		return true, nil, nil
	}
	room, err := s.rooms.OpenPitchRoom(ctx, investor, owner, p.ID)
	if err != nil {
		return true, nil, fmt.Errorf("opening chat room: %w", err)
	}
	if err := s.notifier.Notify(ctx, owner, notify.Message{
		Kind:  db.NotifyPitchInterest,
		Title: "New investor interest",
		Body:  fmt.Sprintf("%s is interested in your pitch %q.", investor.Username, p.Title),
		Email: notify.PrefPitchInterest,
	}); err != nil {
		s.logger.Warn("notifying pitch owner", "pitch_id", p.ID, "error", err)
	}
	s.logger.Info("pitch interest added", "pitch_id", p.ID, "investor_id", investor.ID, "room_id", room.ID)
	return true, room, nil
}

// RemoveInterest withdraws investor interest.
func (s *Service) RemoveInterest(ctx context.Context, investor *db.User, id string) error {
	if !investor.IsInvestor() {
		return db.Errorf(db.ErrForbidden, "Only investors can manage pitch interests.")
	}
	p, err := s.getPitch(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteInterest(ctx, investor.ID, p.ID)
	if err != nil {
		return fmt.Errorf("removing interest: %w", err)
	}
	if !ok {
		return db.Errorf(db.ErrNotFound, "You haven't expressed interest in this pitch.")
	}
	return nil
}

// OpenFile returns an attachment for streaming when viewer may see it.
// The caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, viewer *db.User, fileID string) (*db.PitchFile, io.ReadSeekCloser, error) {
	f, err := s.store.GetPitchFile(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading file: %w", err)
	}
	if f == nil {
		return nil, nil, db.Errorf(db.ErrNotFound, "File not found.")
	}
	p, err := s.getPitch(ctx, f.PitchID)
	if err != nil {
		return nil, nil, err
	}
	interested, err := s.hasInterest(ctx, viewer, p.ID)
	if err != nil {
		return nil, nil, err
	}
	if !canViewFiles(viewer, p, interested) {
		return nil, nil, db.Errorf(db.ErrForbidden, "You don't have access to this file.")
	}
	r, err := s.media.Open(f.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, r, nil
}
