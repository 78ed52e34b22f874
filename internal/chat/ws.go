package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bazuu/investorconnect/internal/db"
)

// ServeRoom runs a chat socket for user in roomID until the peer
// disconnects. The connection is closed when ServeRoom returns.
func (s *Service) ServeRoom(ctx context.Context, conn *websocket.Conn, user *db.User, roomID string) error {
	r, other, err := s.access(ctx, user, roomID)
	if err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, err)
		return err
	}
	msgs, err := s.store.ListMessages(ctx, r.ID)
	if err != nil {
		closeWith(conn, websocket.CloseInternalServerErr, err)
		return fmt.Errorf("listing messages: %w", err)
	}
	otherStatus, err := s.presence(ctx, other.ID, r.ID)
	if err != nil {
		closeWith(conn, websocket.CloseInternalServerErr, err)
		return err
	}

	c := newClient(conn, user, r.ID)
	s.hub.join(c)
	if err := s.UpdateActivity(ctx, user, r.ID, false); err != nil {
		s.logger.Warn("setting user online", "user_id", user.ID, "error", err)
	}

	hist := s.hub.encode(History(msgs, user.ID))
	status := s.hub.encode(UserStatus(other, otherStatus.Online, otherStatus.LastSeen))
	hello := s.hub.encode(InfoEvent{Type: EventConnected, Message: "Connected to real-time chat"})
	for _, b := range [][]byte{hist, status, hello} {
		if b != nil {
			c.send <- b
		}
	}
	now := s.now().UTC()
	s.hub.BroadcastExcept(r.ID, user.ID, UserStatus(user, true, &now))

	s.logger.Info("chat socket connected", "room_id", r.ID, "user_id", user.ID)
	go c.writePump()
	c.readPump(func(data []byte) { s.handleFrame(ctx, c, user, data) })

	s.hub.leave(c)
	ctx = context.WithoutCancel(ctx)
	if err := s.UpdateActivity(ctx, user, "", true); err != nil {
		s.logger.Warn("setting user offline", "user_id", user.ID, "error", err)
	}
	now = s.now().UTC()
	s.hub.BroadcastExcept(r.ID, user.ID, UserStatus(user, false, &now))
	s.logger.Info("chat socket disconnected", "room_id", r.ID, "user_id", user.ID)
	return nil
}

func (s *Service) handleFrame(ctx context.Context, c *Client, user *db.User, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		s.logger.Debug("ignoring malformed frame", "user_id", user.ID, "error", err)
		return
	}
	var err error
	switch in.Type {
	case inboundChatMessage:
		_, err = s.Send(ctx, user, c.roomID, in.Message)
		if errors.Is(err, db.ErrInvalid) {
			return
		}
	case inboundRead:
		err = s.MarkRead(ctx, user, in.MessageID)
	case inboundTypingStart:
		err = s.SetTyping(ctx, user, c.roomID, true)
	case inboundTypingStop:
		err = s.SetTyping(ctx, user, c.roomID, false)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("handling chat frame", "type", in.Type, "user_id", user.ID, "error", err)
		s.hub.SendToRoomUser(c.roomID, user.ID, InfoEvent{Type: EventError, Message: err.Error()})
	}
}

// ServeNotifications runs a notification socket for user until the peer
// disconnects.
func (s *Service) ServeNotifications(ctx context.Context, conn *websocket.Conn, user *db.User) error {
	n, err := s.UnreadCount(ctx, user, "")
	if err != nil {
		closeWith(conn, websocket.CloseInternalServerErr, err)
		return err
	}
	c := newClient(conn, user, "")
	s.hub.join(c)
	if b := s.hub.encode(NotificationUpdate(n)); b != nil {
		c.send <- b
	}
	go c.writePump()
	c.readPump(func([]byte) {})
	s.hub.leave(c)
	return nil
}

func closeWith(conn *websocket.Conn, code int, err error) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()), time.Now().Add(writeWait))
	_ = conn.Close()
}
