package api

import (
	"net/http"

	"github.com/bazuu/investorconnect/internal/chat"
)

func (s *Server) routeChat(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chats", s.authed(s.handleListRooms))
	mux.HandleFunc("GET /api/chats/unread", s.authed(s.handleUnread))
	mux.HandleFunc("GET /api/chats/{id}", s.authed(s.handleRoom))
	// start/{username} and {id}/messages share a shape, so one pattern
	// serves both.
	mux.HandleFunc("POST /api/chats/{a}/{b}", s.authed(s.handleChatAction))
	mux.HandleFunc("POST /api/activity", s.authed(s.handleActivity))

	mux.HandleFunc("GET /ws/chat/{id}", s.authed(s.handleRoomSocket))
	mux.HandleFunc("GET /ws/notifications", s.authed(s.handleNotificationSocket))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.Chat.ListRooms(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []chat.RoomSummary{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Chat.UnreadCount(r.Context(), userFrom(r.Context()), r.URL.Query().Get("exclude"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": n})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Chat.Room(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleChatAction(w http.ResponseWriter, r *http.Request) {
	a, b := r.PathValue("a"), r.PathValue("b")
	switch {
	case a == "start":
		s.handleStartChat(w, r, b)
	case b == "messages":
		s.handleSend(w, r, a)
	case b == "typing":
		s.handleTyping(w, r, a)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request, username string) {
	room, err := s.svc.Chat.StartChat(r.Context(), userFrom(r.Context()), username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type sendRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, roomID string) {
	var req sendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := s.svc.Chat.Send(r.Context(), userFrom(r.Context()), roomID, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type typingRequest struct {
	Typing bool `json:"is_typing"`
}

func (s *Server) handleTyping(w http.ResponseWriter, r *http.Request, roomID string) {
	var req typingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.Chat.SetTyping(r.Context(), userFrom(r.Context()), roomID, req.Typing); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityRequest struct {
	RoomID  string `json:"room_id"`
	Offline bool   `json:"offline"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.Chat.UpdateActivity(r.Context(), userFrom(r.Context()), req.RoomID, req.Offline); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRoomSocket checks room access before upgrading so refusals are
// plain HTTP errors.
func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	roomID := r.PathValue("id")
	if err := s.svc.Chat.CanAccess(r.Context(), u, roomID); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	if err := s.svc.Chat.ServeRoom(r.Context(), conn, u, roomID); err != nil {
		s.logger.Debug("chat socket closed", "room_id", roomID, "user_id", u.ID, "error", err)
	}
}

func (s *Server) handleNotificationSocket(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	if err := s.svc.Chat.ServeNotifications(r.Context(), conn, u); err != nil {
		s.logger.Debug("notification socket closed", "user_id", u.ID, "error", err)
	}
}
