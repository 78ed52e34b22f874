package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

func (s *SQLiteStore) CreateCategory(ctx context.Context, c *PitchCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utcNow()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pitch_categories (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) getCategory(ctx context.Context, cond string, arg any) (*PitchCategory, error) {
	c := &PitchCategory{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM pitch_categories WHERE `+cond, arg,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*PitchCategory, error) {
	return s.getCategory(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string) (*PitchCategory, error) {
	return s.getCategory(ctx, "name = ? COLLATE NOCASE", name)
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*PitchCategory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM pitch_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PitchCategory
	for rows.Next() {
		c := &PitchCategory{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) (bool, error) {
	return affected(s.db.ExecContext(ctx, `DELETE FROM pitch_categories WHERE id = ?`, id))
}

const pitchSelect = `SELECT p.id, p.user_id, u.username, p.title, p.description, p.category_id, COALESCE(c.name, ''),
	p.budget_required, p.timeline, p.status, p.submitted_at, p.reviewed_at, p.reviewed_by, p.admin_notes, p.updated_at
	FROM pitches p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN pitch_categories c ON c.id = p.category_id`

func scanPitch(sc rowScanner) (*Pitch, error) {
	p := &Pitch{}
	err := sc.Scan(&p.ID, &p.UserID, &p.OwnerUsername, &p.Title, &p.Description, &p.CategoryID, &p.CategoryName,
		&p.BudgetRequired, &p.Timeline, &p.Status, &p.SubmittedAt, &p.ReviewedAt, &p.ReviewedBy, &p.AdminNotes, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) CreatePitch(ctx context.Context, p *Pitch) error {
	now := utcNow()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PitchPending
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = now
	}
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pitches (id, user_id, title, description, category_id, budget_required, timeline, status,
			submitted_at, reviewed_at, reviewed_by, admin_notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Description, p.CategoryID, p.BudgetRequired, p.Timeline, string(p.Status),
		p.SubmittedAt, p.ReviewedAt, p.ReviewedBy, p.AdminNotes, p.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetPitch(ctx context.Context, id string) (*Pitch, error) {
	p, err := scanPitch(s.db.QueryRowContext(ctx, pitchSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) UpdatePitch(ctx context.Context, p *Pitch) error {
	p.UpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE pitches SET title = ?, description = ?, category_id = ?, budget_required = ?, timeline = ?,
			status = ?, reviewed_at = ?, reviewed_by = ?, admin_notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Description, p.CategoryID, p.BudgetRequired, p.Timeline,
		string(p.Status), p.ReviewedAt, p.ReviewedBy, p.AdminNotes, p.UpdatedAt, p.ID,
	)
	return err
}

func (s *SQLiteStore) ListPitches(ctx context.Context, f PitchFilter, page PageRequest) ([]*Pitch, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM pitches p`+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx, pitchSelect+w.String()+` ORDER BY p.submitted_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	var out []*Pitch
	for rows.Next() {
		p, err := scanPitch(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, p)
	}
	return out, pg, rows.Err()
}

func (s *SQLiteStore) CountPitches(ctx context.Context, f PitchFilter) (int, error) {
	w := f.build()
	return s.count(ctx, `SELECT COUNT(*) FROM pitches p`+w.String(), w.args...)
}

func (s *SQLiteStore) CreatePitchFile(ctx context.Context, f *PitchFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = utcNow()
	}
	if f.FileType == "" {
		f.FileType = FileOther
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pitch_files (id, pitch_id, path, file_type, original_filename, description, file_size, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.PitchID, f.Path, string(f.FileType), f.OriginalFilename, f.Description, f.FileSize, f.UploadedAt,
	)
	return err
}

const pitchFileColumns = `id, pitch_id, path, file_type, original_filename, description, file_size, uploaded_at`

func scanPitchFile(sc rowScanner) (*PitchFile, error) {
	f := &PitchFile{}
	if err := sc.Scan(&f.ID, &f.PitchID, &f.Path, &f.FileType, &f.OriginalFilename, &f.Description, &f.FileSize, &f.UploadedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *SQLiteStore) ListPitchFiles(ctx context.Context, pitchID string) ([]*PitchFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pitchFileColumns+` FROM pitch_files WHERE pitch_id = ? ORDER BY uploaded_at`, pitchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PitchFile
	for rows.Next() {
		f, err := scanPitchFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetPitchFile(ctx context.Context, id string) (*PitchFile, error) {
	f, err := scanPitchFile(s.db.QueryRowContext(ctx, `SELECT `+pitchFileColumns+` FROM pitch_files WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateInterest inserts the interest unless the investor already has one
// for the pitch. It reports whether a row was created.
func (s *SQLiteStore) CreateInterest(ctx context.Context, i *PitchInterest) (bool, error) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utcNow()
	}
	return affected(s.db.ExecContext(ctx,
		`INSERT INTO pitch_interests (id, investor_id, pitch_id, message, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(investor_id, pitch_id) DO NOTHING`,
		i.ID, i.InvestorID, i.PitchID, i.Message, i.CreatedAt,
	))
}

func (s *SQLiteStore) GetInterest(ctx context.Context, investorID int64, pitchID string) (*PitchInterest, error) {
	i := &PitchInterest{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, investor_id, pitch_id, message, created_at FROM pitch_interests WHERE investor_id = ? AND pitch_id = ?`,
		investorID, pitchID,
	).Scan(&i.ID, &i.InvestorID, &i.PitchID, &i.Message, &i.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *SQLiteStore) DeleteInterest(ctx context.Context, investorID int64, pitchID string) (bool, error) {
	return affected(s.db.ExecContext(ctx,
		`DELETE FROM pitch_interests WHERE investor_id = ? AND pitch_id = ?`, investorID, pitchID))
}

func (s *SQLiteStore) CountInterests(ctx context.Context, investorID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM pitch_interests WHERE investor_id = ?`, investorID)
}

const postSelect = `SELECT ip.id, ip.investor_id, u.username, ip.title, ip.content, ip.post_type, ip.featured_image,
	ip.tags, ip.read_count, ip.is_featured, ip.is_public, ip.created_at, ip.updated_at
	FROM investor_posts ip
	JOIN users u ON u.id = ip.investor_id`

func scanPost(sc rowScanner) (*InvestorPost, error) {
	p := &InvestorPost{}
	err := sc.Scan(&p.ID, &p.InvestorID, &p.InvestorUsername, &p.Title, &p.Content, &p.PostType, &p.FeaturedImage,
		&p.Tags, &p.ReadCount, &p.IsFeatured, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) CreatePost(ctx context.Context, p *InvestorPost) error {
	now := utcNow()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PostType == "" {
		p.PostType = PostTypeTestimonial
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO investor_posts (id, investor_id, title, content, post_type, featured_image, tags, read_count,
			is_featured, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.InvestorID, p.Title, p.Content, p.PostType, p.FeaturedImage, p.Tags, p.ReadCount,
		p.IsFeatured, p.IsPublic, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*InvestorPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE ip.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts orders featured posts first, then newest.
func (s *SQLiteStore) ListPosts(ctx context.Context, f PostFilter, page PageRequest) ([]*InvestorPost, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM investor_posts ip`+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx,
		postSelect+w.String()+` ORDER BY ip.is_featured DESC, ip.created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	var out []*InvestorPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, p)
	}
	return out, pg, rows.Err()
}

func (s *SQLiteStore) IncrementPostReads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE investor_posts SET read_count = read_count + 1 WHERE id = ?`, id)
	return err
}
