package chat

import (
	"time"

	"github.com/bazuu/investorconnect/internal/db"
)

// Websocket event types.
const (
	EventConnected     = "connection_established"
	EventHistory       = "existing_messages"
	EventUserStatus    = "user_status"
	EventNewMessage    = "new_message"
	EventMessageRead   = "message_read"
	EventTypingStatus  = "typing_status"
	EventNotification  = "notification_update"
	EventError         = "error"
	inboundChatMessage = "chat_message"
	inboundRead        = "message_read"
	inboundTypingStart = "typing_start"
	inboundTypingStop  = "typing_stop"
)

// InfoEvent carries a plain text message.
type InfoEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessageEvent is a chat message as seen by one recipient.
type MessageEvent struct {
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	SenderID     int64     `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	Timestamp    time.Time `json:"timestamp"`
	MessageID    string    `json:"message_id"`
	Delivered    bool      `json:"delivered"`
	Read         bool      `json:"read"`
	IsOwnMessage bool      `json:"is_own_message"`
}

// NewMessage builds the new_message event for m.
func NewMessage(m *db.ChatMessage, own bool) MessageEvent {
	return MessageEvent{
		Type:         EventNewMessage,
		Message:      m.Message,
		SenderID:     m.SenderID,
		SenderName:   m.SenderUsername,
		Timestamp:    m.Timestamp,
		MessageID:    m.ID,
		Delivered:    m.Delivered,
		Read:         m.IsRead,
		IsOwnMessage: own,
	}
}

// HistoryEvent is the room history sent on connect.
type HistoryEvent struct {
	Type     string         `json:"type"`
	Messages []MessageEvent `json:"messages"`
}

// History builds the existing_messages event as seen by viewerID.
func History(msgs []*db.ChatMessage, viewerID int64) HistoryEvent {
	ev := HistoryEvent{Type: EventHistory, Messages: make([]MessageEvent, 0, len(msgs))}
	for _, m := range msgs {
		ev.Messages = append(ev.Messages, NewMessage(m, m.SenderID == viewerID))
	}
	return ev
}

// StatusEvent reports a user's presence.
type StatusEvent struct {
	Type     string     `json:"type"`
	UserID   int64      `json:"user_id"`
	Username string     `json:"username"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

// UserStatus builds a user_status event.
func UserStatus(u *db.User, online bool, lastSeen *time.Time) StatusEvent {
	return StatusEvent{Type: EventUserStatus, UserID: u.ID, Username: u.Username, IsOnline: online, LastSeen: lastSeen}
}

// ReadEvent tells a sender that their message was read.
type ReadEvent struct {
	Type           string    `json:"type"`
	MessageID      string    `json:"message_id"`
	ReadByUserID   int64     `json:"read_by_user_id"`
	ReadByUsername string    `json:"read_by_username"`
	ReadAt         time.Time `json:"read_at"`
}

// MessageRead builds a message_read event.
func MessageRead(messageID string, reader *db.User, at time.Time) ReadEvent {
	return ReadEvent{Type: EventMessageRead, MessageID: messageID, ReadByUserID: reader.ID, ReadByUsername: reader.Username, ReadAt: at}
}

// TypingEvent reports that a user started or stopped typing.
type TypingEvent struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// TypingStatus builds a typing_status event.
func TypingStatus(u *db.User, typing bool) TypingEvent {
	return TypingEvent{Type: EventTypingStatus, UserID: u.ID, Username: u.Username, IsTyping: typing}
}

// UnreadEvent carries a user's total unread message count.
type UnreadEvent struct {
	Type        string `json:"type"`
	UnreadCount int    `json:"unread_count"`
}

// NotificationUpdate builds a notification_update event.
func NotificationUpdate(n int) UnreadEvent {
	return UnreadEvent{Type: EventNotification, UnreadCount: n}
}

// inbound is a frame sent by a chat client.
type inbound struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}
