package chat

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bazuu/investorconnect/internal/db"
)

// Service implements conversations, messages and presence.
type Service struct {
	store  db.Store
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new chat Service with its own Hub.
func NewService(store db.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		hub:    NewHub(logger),
		logger: logger,
		now:    time.Now,
	}
}

// Hub returns the websocket hub the service publishes to.
func (s *Service) Hub() *Hub { return s.hub }

func ptr[T any](v T) *T { return &v }

// investorPair reports whether a and b use an investor room and returns the
// investor first.
func investorPair(a, b *db.User) (*db.User, *db.User, bool) {
	if a.IsStaff || b.IsStaff || a.IsInvestor() == b.IsInvestor() {
		return nil, nil, false
	}
	if a.IsInvestor() {
		return a, b, true
	}
	return b, a, true
}

// participants returns the two user ids of a room.
func participants(r *db.ChatRoom) (int64, int64, bool) {
	if r.InvestorID != nil && r.RegularUserID != nil {
		return *r.InvestorID, *r.RegularUserID, true
	}
	if r.Participant1ID != nil && r.Participant2ID != nil {
		return *r.Participant1ID, *r.Participant2ID, true
	}
	return 0, 0, false
}

// otherParticipant returns the id of the other user in the room, or false
// when userID is not a participant.
func otherParticipant(r *db.ChatRoom, userID int64) (int64, bool) {
	a, b, ok := participants(r)
	switch {
	case !ok:
		return 0, false
	case a == userID:
		return b, true
	case b == userID:
		return a, true
	}
	return 0, false
}

// roomFor gets or creates the room between a and b. pitchID is recorded on
// newly created investor rooms.
func (s *Service) roomFor(ctx context.Context, a, b *db.User, pitchID *string) (*db.ChatRoom, error) {
	if inv, other, ok := investorPair(a, b); ok {
		r, err := s.store.FindInvestorRoom(ctx, inv.ID, other.ID)
		if err != nil {
			return nil, fmt.Errorf("finding room: %w", err)
		}
		if r != nil {
			return r, nil
		}
		r = &db.ChatRoom{InvestorID: ptr(inv.ID), RegularUserID: ptr(other.ID), RelatedPitchID: pitchID, IsActive: true}
		if err := s.store.CreateRoom(ctx, r); err != nil {
			return nil, fmt.Errorf("creating room: %w", err)
		}
		s.logger.Info("chat room created", "room_id", r.ID, "investor_id", inv.ID, "user_id", other.ID)
		return r, nil
	}

	r, err := s.store.FindParticipantRoom(ctx, a.ID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("finding room: %w", err)
	}
	if r != nil {
		return r, nil
	}
	r = &db.ChatRoom{Participant1ID: ptr(a.ID), Participant2ID: ptr(b.ID), RelatedPitchID: pitchID, IsActive: true}
	if err := s.store.CreateRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}
	s.logger.Info("chat room created", "room_id", r.ID, "user_id", a.ID, "other_id", b.ID)
	return r, nil
}

// StartChat gets or creates the conversation between user and username.
func (s *Service) StartChat(ctx context.Context, user *db.User, username string) (*db.ChatRoom, error) {
	other, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if other == nil {
		return nil, db.Errorf(db.ErrNotFound, "User not found.")
	}
	if other.ID == user.ID {
		return nil, db.Errorf(db.ErrInvalid, "You cannot start a chat with yourself.")
	}
	return s.roomFor(ctx, user, other, nil)
}

// OpenPitchRoom gets or creates the room between an interested investor and
// a pitch owner.
func (s *Service) OpenPitchRoom(ctx context.Context, investor, owner *db.User, pitchID string) (*db.ChatRoom, error) {
	return s.roomFor(ctx, investor, owner, &pitchID)
}

// Participant is the other side of a conversation.
type Participant struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Type     string `json:"type"`
}

func participant(u *db.User) Participant {
	return Participant{ID: u.ID, Username: u.Username, Type: u.TypeLabel()}
}

// RoomSummary is one entry of the conversation list.
type RoomSummary struct {
	Room         *db.ChatRoom    `json:"room"`
	OtherUser    Participant     `json:"other_user"`
	UnreadCount  int             `json:"unread_count"`
	LastMessage  *db.ChatMessage `json:"last_message,omitempty"`
	MessageCount int             `json:"total_messages"`
	LastActivity time.Time       `json:"last_activity"`
}

// ListRooms returns the user's conversations, most recent activity first.
func (s *Service) ListRooms(ctx context.Context, user *db.User) ([]RoomSummary, error) {
	rooms, err := s.store.ListRoomsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		otherID, ok := otherParticipant(r, user.ID)
		if !ok {
			continue
		}
		other, err := s.store.GetUser(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("loading user: %w", err)
		}
		if other == nil {
			continue
		}
		sum := RoomSummary{Room: r, OtherUser: participant(other), LastActivity: r.UpdatedAt}
		if sum.UnreadCount, err = s.store.CountUnread(ctx, user.ID, r.ID, ""); err != nil {
			return nil, fmt.Errorf("counting unread: %w", err)
		}
		if sum.LastMessage, err = s.store.LastMessage(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("loading last message: %w", err)
		}
		if sum.MessageCount, err = s.store.CountMessages(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("counting messages: %w", err)
		}
		if sum.LastMessage != nil && sum.LastMessage.Timestamp.After(sum.LastActivity) {
			sum.LastActivity = sum.LastMessage.Timestamp
		}
		out = append(out, sum)
	}
	slices.SortStableFunc(out, func(a, b RoomSummary) int {
		return cmp.Compare(b.LastActivity.UnixNano(), a.LastActivity.UnixNano())
	})
	return out, nil
}

// access loads a room and the other participant, failing when user does not
// take part in it.
func (s *Service) access(ctx context.Context, user *db.User, roomID string) (*db.ChatRoom, *db.User, error) {
	r, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading room: %w", err)
	}
	if r == nil {
		return nil, nil, db.Errorf(db.ErrNotFound, "Chat room not found.")
	}
	otherID, ok := otherParticipant(r, user.ID)
	if !ok {
		return nil, nil, db.Errorf(db.ErrForbidden, "You don't have access to this chat room.")
	}
	other, err := s.store.GetUser(ctx, otherID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading user: %w", err)
	}
	if other == nil {
		return nil, nil, db.Errorf(db.ErrNotFound, "Chat room not found.")
	}
	return r, other, nil
}

// CanAccess reports whether user takes part in the room.
func (s *Service) CanAccess(ctx context.Context, user *db.User, roomID string) error {
	_, _, err := s.access(ctx, user, roomID)
	return err
}

// Presence is the online state of a user as seen from one room.
type Presence struct {
	Online   bool       `json:"is_online"`
	Typing   bool       `json:"is_typing"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func (s *Service) presence(ctx context.Context, userID int64, roomID string) (Presence, error) {
	a, err := s.store.GetActivity(ctx, userID)
	if err != nil {
		return Presence{}, fmt.Errorf("loading activity: %w", err)
	}
	if a == nil {
		return Presence{}, nil
	}
	return Presence{
		Online:   a.IsOnline,
		Typing:   a.IsTyping && a.TypingInRoom != nil && *a.TypingInRoom == roomID,
		LastSeen: &a.LastSeen,
	}, nil
}

// RoomView is a conversation with its history.
type RoomView struct {
	Room          *db.ChatRoom      `json:"room"`
	OtherUser     Participant       `json:"other_user"`
	Messages      []*db.ChatMessage `json:"messages"`
	OtherPresence Presence          `json:"other_user_status"`
}

// Room returns the history of a room and marks the other user's messages
// read.
func (s *Service) Room(ctx context.Context, user *db.User, roomID string) (*RoomView, error) {
	r, other, err := s.access(ctx, user, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MarkRoomRead(ctx, r.ID, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("marking room read: %w", err)
	}
	msgs, err := s.store.ListMessages(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	p, err := s.presence(ctx, other.ID, r.ID)
	if err != nil {
		return nil, err
	}
	return &RoomView{Room: r, OtherUser: participant(other), Messages: msgs, OtherPresence: p}, nil
}

// Send stores a message and pushes it to the room and the recipient.
func (s *Service) Send(ctx context.Context, user *db.User, roomID, text string) (*db.ChatMessage, error) {
	r, other, err := s.access(ctx, user, roomID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, db.Errorf(db.ErrInvalid, "Message cannot be empty.")
	}

	now := s.now().UTC()
	m := &db.ChatMessage{
		RoomID:         r.ID,
		SenderID:       user.ID,
		SenderUsername: user.Username,
		Message:        text,
		Timestamp:      now,
		Delivered:      true,
		DeliveredAt:    &now,
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("saving message: %w", err)
	}
	if err := s.store.TouchRoom(ctx, r.ID, now); err != nil {
		return nil, fmt.Errorf("updating room: %w", err)
	}

	s.hub.BroadcastMessage(r.ID, m)
	s.pushUnread(ctx, other.ID)
	return m, nil
}

func (s *Service) pushUnread(ctx context.Context, userID int64) {
	if !s.hub.HasUser(userID) {
		return
	}
	n, err := s.store.CountUnread(ctx, userID, "", "")
	if err != nil {
		s.logger.Warn("counting unread", "user_id", userID, "error", err)
		return
	}
	s.hub.SendToUser(userID, NotificationUpdate(n))
}

// MarkRead marks a message received by user as read and tells its sender.
func (s *Service) MarkRead(ctx context.Context, user *db.User, messageID string) error {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	if m == nil {
		return db.Errorf(db.ErrNotFound, "Message not found.")
	}
	if _, _, err := s.access(ctx, user, m.RoomID); err != nil {
		return err
	}
	if m.SenderID == user.ID || m.IsRead {
		return nil
	}
	now := s.now().UTC()
	if err := s.store.MarkMessageRead(ctx, m.ID, now); err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	s.hub.SendToRoomUser(m.RoomID, m.SenderID, MessageRead(m.ID, user, now))
	return nil
}

// UpdateActivity records that user is online, optionally in roomID, or
// offline.
func (s *Service) UpdateActivity(ctx context.Context, user *db.User, roomID string, offline bool) error {
	a, err := s.store.GetActivity(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading activity: %w", err)
	}
	if a == nil {
		a = &db.UserActivity{UserID: user.ID}
	}
	a.IsOnline = !offline
	a.LastSeen = s.now().UTC()
	a.CurrentRoom = nil
	if roomID != "" && !offline {
		a.CurrentRoom = ptr(roomID)
	}
	if offline {
		a.IsTyping = false
		a.TypingInRoom = nil
	}
	if err := s.store.UpsertActivity(ctx, a); err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	return nil
}

// SetTyping records the typing state of user in a room and tells the other
// participant.
func (s *Service) SetTyping(ctx context.Context, user *db.User, roomID string, typing bool) error {
	r, _, err := s.access(ctx, user, roomID)
	if err != nil {
		return err
	}
	a, err := s.store.GetActivity(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading activity: %w", err)
	}
	if a == nil {
		a = &db.UserActivity{UserID: user.ID, IsOnline: true}
	}
	a.IsTyping = typing
	a.TypingInRoom = nil
	if typing {
		a.TypingInRoom = ptr(r.ID)
	}
	a.LastSeen = s.now().UTC()
	if err := s.store.UpsertActivity(ctx, a); err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	s.hub.BroadcastExcept(r.ID, user.ID, TypingStatus(user, typing))
	return nil
}

// UnreadCount counts unread messages addressed to user, optionally skipping
// one room.
func (s *Service) UnreadCount(ctx context.Context, user *db.User, excludeRoom string) (int, error) {
	n, err := s.store.CountUnread(ctx, user.ID, "", excludeRoom)
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return n, nil
}

// UnreadFrom counts unread messages in a room.
func (s *Service) UnreadFrom(ctx context.Context, user *db.User, roomID string) (int, error) {
	n, err := s.store.CountUnread(ctx, user.ID, roomID, "")
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return n, nil
}
