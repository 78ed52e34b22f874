package pitches

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bazuu/investorconnect/internal/db"
)

var imageExts = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}}

// ListCategories returns all pitch categories by name.
func (s *Service) ListCategories(ctx context.Context) ([]*db.PitchCategory, error) {
	cs, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cs, nil
}

// CreateCategory adds a pitch category.
func (s *Service) CreateCategory(ctx context.Context, admin *db.User, name, description string) (*db.PitchCategory, error) {
	if !admin.IsAdmin() {
		return nil, db.Errorf(db.ErrForbidden, "Only administrators can manage categories.")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, db.Errorf(db.ErrInvalid, "Category name is required.")
	}
	existing, err := s.store.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checking category: %w", err)
	}
	if existing != nil {
		return nil, db.Errorf(db.ErrConflict, "Category %q already exists.", name)
	}
	c := &db.PitchCategory{Name: name, Description: strings.TrimSpace(description), CreatedAt: s.now().UTC()}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category. Its pitches become uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, admin *db.User, id string) error {
	if !admin.IsAdmin() {
		return db.Errorf(db.ErrForbidden, "Only administrators can manage categories.")
	}
	ok, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if !ok {
		return db.Errorf(db.ErrNotFound, "Category not found.")
	}
	return nil
}

// Feed returns public investor posts, featured first.
func (s *Service) Feed(ctx context.Context, viewer *db.User, postType, tag string, page db.PageRequest) ([]*db.InvestorPost, db.Pagination, error) {
	if !viewer.IsStaff && !viewer.IsVerified {
		return nil, db.Pagination{}, db.Errorf(db.ErrForbidden, "Please verify your account to view investor posts.")
	}
	f := db.PostFilter{PostType: strings.TrimSpace(postType), Tag: strings.TrimSpace(tag), PublicOnly: true}
	posts, pg, err := s.store.ListPosts(ctx, f, page)
	if err != nil {
		return nil, db.Pagination{}, fmt.Errorf("listing posts: %w", err)
	}
	return posts, pg, nil
}

// PostInput holds the fields of a new investor post.
type PostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Tags     string `json:"tags"`
	IsPublic *bool  `json:"is_public"`
}

// Image is an optional featured image.
type Image struct {
	Filename string
	Body     io.Reader
}

// CreatePost publishes a testimonial.
func (s *Service) CreatePost(ctx context.Context, u *db.User, in PostInput, img *Image) (*db.InvestorPost, error) {
	if !u.CanCreateInvestorPosts(s.now()) {
		return nil, db.Errorf(db.ErrForbidden, "Only investors and admin staff can create posts.")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	switch {
	case in.Title == "":
		return nil, db.Errorf(db.ErrInvalid, "Title is required.")
	case utf8.RuneCountInString(in.Title) > maxTitle:
		return nil, db.Errorf(db.ErrInvalid, "Title cannot exceed %d characters.", maxTitle)
	case in.Content == "":
		return nil, db.Errorf(db.ErrInvalid, "Content is required.")
	case utf8.RuneCountInString(in.Tags) > 200:
		return nil, db.Errorf(db.ErrInvalid, "Tags cannot exceed 200 characters.")
	}

	now := s.now().UTC()
	p := &db.InvestorPost{
		InvestorID:       u.ID,
		InvestorUsername: u.Username,
		Title:            in.Title,
		Content:          in.Content,
		PostType:         db.PostTypeTestimonial,
		Tags:             strings.TrimSpace(in.Tags),
		IsPublic:         in.IsPublic == nil || *in.IsPublic,
		CreatedAt:        now,
	}
	if img != nil {
		ext := extension(img.Filename)
		if _, ok := imageExts[ext]; !ok {
			return nil, db.Errorf(db.ErrInvalid, "File type .%s is not allowed.", ext)
		}
		name := fmt.Sprintf("investor_posts/%s/%s.%s", now.Format("2006/01"), uuid.NewString(), ext)
		n, err := s.media.Save(name, io.LimitReader(img.Body, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("saving image: %w", err)
		}
		if n > maxFileSize {
			if err := s.media.Remove(name); err != nil {
				s.logger.Warn("removing oversized upload", "path", name, "error", err)
			}
			return nil, db.Errorf(db.ErrInvalid, "File size cannot exceed 10MB.")
		}
		p.FeaturedImage = name
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return p, nil
}

// PostDetail returns a post and counts the read. Non-public posts are only
// visible to their author and administrators.
func (s *Service) PostDetail(ctx context.Context, viewer *db.User, id string) (*db.InvestorPost, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if p == nil {
		return nil, db.Errorf(db.ErrNotFound, "Post not found.")
	}
	if !p.IsPublic && viewer.ID != p.InvestorID && !viewer.IsAdmin() {
		return nil, db.Errorf(db.ErrForbidden, "This post is not available.")
	}
	if err := s.store.IncrementPostReads(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("counting read: %w", err)
	}
	p.ReadCount++
	return p, nil
}
