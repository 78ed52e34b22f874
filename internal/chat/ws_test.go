package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazuu/investorconnect/internal/db"
)

// serve starts a websocket server running fn and dials it.
func (s *ChatSuite) serve(fn func(*websocket.Conn)) (*websocket.Conn, <-chan struct{}) {
	done := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fn(conn)
		close(done)
	}))
	s.T().Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn, done
}

func (s *ChatSuite) readEvent(conn *websocket.Conn, v any) {
	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(s.T(), conn.ReadJSON(v))
}

func (s *ChatSuite) wait(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.T().Fatal("server did not return")
	}
}

func (s *ChatSuite) TestServeRoomHandshake() {
	msgs := []*db.ChatMessage{
		{ID: "m1", SenderID: 1, SenderUsername: "ivy", Message: "hi"},
		{ID: "m2", SenderID: 2, SenderUsername: "eddie", Message: "hello"},
	}
	s.store.On("GetRoom", mock.Anything, "room-1").Return(investorRoom(), nil)
	s.store.On("GetUser", mock.Anything, int64(1)).Return(s.inv, nil)
	s.store.On("ListMessages", mock.Anything, "room-1").Return(msgs, nil)
	s.store.On("GetActivity", mock.Anything, int64(1)).Return(&db.UserActivity{UserID: 1, IsOnline: true, LastSeen: s.now}, nil)
	s.store.On("GetActivity", mock.Anything, int64(2)).Return(nil, nil)
	s.store.On("UpsertActivity", mock.Anything, mock.MatchedBy(func(a *db.UserActivity) bool { return a.IsOnline })).Return(nil).Once()
	s.store.On("UpsertActivity", mock.Anything, mock.MatchedBy(func(a *db.UserActivity) bool { return !a.IsOnline })).Return(nil).Once()

	conn, done := s.serve(func(c *websocket.Conn) {
		require.NoError(s.T(), s.svc.ServeRoom(context.Background(), c, s.ent, "room-1"))
	})

	var hist HistoryEvent
	s.readEvent(conn, &hist)
	require.Equal(s.T(), EventHistory, hist.Type)
	require.Len(s.T(), hist.Messages, 2)
	require.False(s.T(), hist.Messages[0].IsOwnMessage)
	require.True(s.T(), hist.Messages[1].IsOwnMessage)

	var status StatusEvent
	s.readEvent(conn, &status)
	require.Equal(s.T(), EventUserStatus, status.Type)
	require.Equal(s.T(), int64(1), status.UserID)
	require.True(s.T(), status.IsOnline)

	var hello InfoEvent
	s.readEvent(conn, &hello)
	require.Equal(s.T(), EventConnected, hello.Type)

	require.NoError(s.T(), conn.Close())
	s.wait(done)
	require.Zero(s.T(), s.svc.hub.RoomClients("room-1"))
}

func (s *ChatSuite) TestServeRoomRejectsOutsider() {
	s.store.On("GetRoom", mock.Anything, "room-1").Return(investorRoom(), nil)

	conn, done := s.serve(func(c *websocket.Conn) {
		err := s.svc.ServeRoom(context.Background(), c, s.admin, "room-1")
		require.ErrorIs(s.T(), err, db.ErrForbidden)
	})

	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(s.T(), websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	s.wait(done)
}

func (s *ChatSuite) TestServeNotificationsSendsCount() {
	s.store.On("CountUnread", mock.Anything, int64(2), "", "").Return(4, nil)

	conn, done := s.serve(func(c *websocket.Conn) {
		require.NoError(s.T(), s.svc.ServeNotifications(context.Background(), c, s.ent))
	})

	var ev UnreadEvent
	s.readEvent(conn, &ev)
	require.Equal(s.T(), EventNotification, ev.Type)
	require.Equal(s.T(), 4, ev.UnreadCount)

	require.Eventually(s.T(), func() bool { return s.svc.hub.HasUser(2) }, time.Second, 10*time.Millisecond)
	s.svc.hub.SendToUser(2, NotificationUpdate(5))
	s.readEvent(conn, &ev)
	require.Equal(s.T(), 5, ev.UnreadCount)

	require.NoError(s.T(), conn.Close())
	s.wait(done)
	require.False(s.T(), s.svc.hub.HasUser(2))
}
