package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const roomColumns = `id, investor_id, regular_user_id, participant_1_id, participant_2_id, related_pitch_id,
	is_active, created_at, updated_at`

// participates matches rooms in which user (bound four times) takes part.
const participates = `(investor_id = ? OR regular_user_id = ? OR participant_1_id = ? OR participant_2_id = ?)`

func scanRoom(sc rowScanner) (*ChatRoom, error) {
	r := &ChatRoom{}
	err := sc.Scan(&r.ID, &r.InvestorID, &r.RegularUserID, &r.Participant1ID, &r.Participant2ID, &r.RelatedPitchID,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanRooms(rows *sql.Rows) ([]*ChatRoom, error) {
	defer rows.Close()
	var out []*ChatRoom
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) getRoom(ctx context.Context, cond string, args ...any) (*ChatRoom, error) {
	r, err := scanRoom(s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE `+cond+` LIMIT 1`, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, r *ChatRoom) error {
	now := utcNow()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InvestorID, r.RegularUserID, r.Participant1ID, r.Participant2ID, r.RelatedPitchID,
		r.IsActive, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*ChatRoom, error) {
	return s.getRoom(ctx, "id = ?", id)
}

func (s *SQLiteStore) FindInvestorRoom(ctx context.Context, investorID, regularID int64) (*ChatRoom, error) {
	return s.getRoom(ctx, "investor_id = ? AND regular_user_id = ? ORDER BY created_at", investorID, regularID)
}

// FindParticipantRoom matches the pair in either order.
func (s *SQLiteStore) FindParticipantRoom(ctx context.Context, a, b int64) (*ChatRoom, error) {
	return s.getRoom(ctx,
		"((participant_1_id = ? AND participant_2_id = ?) OR (participant_1_id = ? AND participant_2_id = ?)) ORDER BY created_at",
		a, b, b, a)
}

func (s *SQLiteStore) ListRoomsForUser(ctx context.Context, userID int64) ([]*ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE is_active = 1 AND `+participates+` ORDER BY updated_at DESC`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	return scanRooms(rows)
}

func (s *SQLiteStore) ListRoomsForPitch(ctx context.Context, pitchID string) ([]*ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE related_pitch_id = ? ORDER BY updated_at DESC`, pitchID)
	if err != nil {
		return nil, err
	}
	return scanRooms(rows)
}

func (s *SQLiteStore) TouchRoom(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chat_rooms SET updated_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

const messageSelect = `SELECT m.id, m.room_id, m.sender_id, u.username, m.message, m.timestamp, m.is_read,
	m.delivered, m.delivered_at, m.read_at
	FROM chat_messages m
	JOIN users u ON u.id = m.sender_id`

func scanMessage(sc rowScanner) (*ChatMessage, error) {
	m := &ChatMessage{}
	err := sc.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.SenderUsername, &m.Message, &m.Timestamp, &m.IsRead,
		&m.Delivered, &m.DeliveredAt, &m.ReadAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, m *ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = utcNow()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, room_id, sender_id, message, timestamp, is_read, delivered, delivered_at, read_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.SenderID, m.Message, m.Timestamp, m.IsRead, m.Delivered, m.DeliveredAt, m.ReadAt,
	)
	return err
}

func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*ChatMessage, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the room history, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string) ([]*ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, messageSelect+` WHERE m.room_id = ? ORDER BY m.timestamp`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LastMessage(ctx context.Context, roomID string) (*ChatMessage, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, messageSelect+` WHERE m.room_id = ? ORDER BY m.timestamp DESC LIMIT 1`, roomID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStore) CountMessages(ctx context.Context, roomID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM chat_messages WHERE room_id = ?`, roomID)
}

// MarkRoomRead marks messages in the room not sent by readerID as read.
func (s *SQLiteStore) MarkRoomRead(ctx context.Context, roomID string, readerID int64, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_messages SET is_read = 1, read_at = ? WHERE room_id = ? AND sender_id != ? AND is_read = 0`,
		at.UTC(), roomID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chat_messages SET is_read = 1, read_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

// CountUnread counts unread messages addressed to userID. roomID limits the
// count to one room; excludeRoomID skips one room.
func (s *SQLiteStore) CountUnread(ctx context.Context, userID int64, roomID, excludeRoomID string) (int, error) {
	query := `SELECT COUNT(*) FROM chat_messages m JOIN chat_rooms r ON r.id = m.room_id
		WHERE m.is_read = 0 AND m.sender_id != ?
		AND (r.investor_id = ? OR r.regular_user_id = ? OR r.participant_1_id = ? OR r.participant_2_id = ?)`
	args := []any{userID, userID, userID, userID, userID}
	if roomID != "" {
		query += ` AND m.room_id = ?`
		args = append(args, roomID)
	}
	if excludeRoomID != "" {
		query += ` AND m.room_id != ?`
		args = append(args, excludeRoomID)
	}
	return s.count(ctx, query, args...)
}
