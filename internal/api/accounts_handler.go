package api

import (
	"net/http"
	"strconv"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/db"
)

func (s *Server) routeAccounts(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.authed(s.handleLogout))
	mux.HandleFunc("GET /api/auth/payment-status", s.optional(s.handlePaymentStatus))
	mux.HandleFunc("POST /api/auth/simulate-payment/{id}", s.optional(s.handleSimulatePayment))

	mux.HandleFunc("GET /api/dashboard", s.authed(s.handleDashboard))
	mux.HandleFunc("GET /api/profile", s.authed(s.handleOwnProfile))
	mux.HandleFunc("PATCH /api/profile", s.authed(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/profile/completion", s.authed(s.handleCompletion))
	mux.HandleFunc("GET /api/profiles/{username}", s.authed(s.handleProfile))
	mux.HandleFunc("PUT /api/profile/picture", s.authed(s.handleSetPicture))
	mux.HandleFunc("DELETE /api/profile/picture", s.authed(s.handleDeletePicture))
	mux.HandleFunc("PUT /api/profile/resume", s.authed(s.handleUploadResume))
	mux.HandleFunc("POST /api/settings/password", s.authed(s.handleChangePassword))
	mux.HandleFunc("GET /api/settings/notifications", s.authed(s.handleGetNotificationSettings))
	mux.HandleFunc("PUT /api/settings/notifications", s.authed(s.handleUpdateNotificationSettings))
	mux.HandleFunc("POST /api/contact-admin", s.authed(s.handleContactAdmin))

	mux.HandleFunc("GET /api/notifications", s.authed(s.handleListNotifications))
	mux.HandleFunc("POST /api/notifications/{id}/read", s.authed(s.handleMarkNotificationRead))
}

type signupResponse struct {
	TransactionID string           `json:"transaction_id"`
	Status        db.PaymentStatus `json:"status"`
	Message       string           `json:"message"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form accounts.SignupForm
	if !decodeJSON(w, r, &form) {
		return
	}
	p, err := s.svc.Accounts.StartSignup(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, signupResponse{
		TransactionID: p.ID,
		Status:        p.Status,
		Message:       "Check your phone to complete the registration payment.",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Accounts.Logout(r.Context(), userFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Payments.Status(r.Context(), r.URL.Query().Get("transaction_id"), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSimulatePayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Payments.SimulateSuccess(r.Context(), r.PathValue("id"), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Accounts.Dashboard(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	v, err := s.svc.Accounts.GetProfile(r.Context(), u, u.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Accounts.GetProfile(r.Context(), userFrom(r.Context()), r.PathValue("username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var up accounts.ProfileUpdate
	if !decodeJSON(w, r, &up) {
		return
	}
	v, err := s.svc.Accounts.UpdateProfile(r.Context(), userFrom(r.Context()), up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	pct, err := s.svc.Accounts.Completion(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"completion_percentage": pct})
}

func (s *Server) handleSetPicture(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxUploadBody) {
		return
	}
	f, fh, err := formFile(r, "profile_picture")
	if err != nil || f == nil {
		badRequest(w, "profile_picture file is required")
		return
	}
	defer f.Close()

	p, err := s.svc.Accounts.SetProfilePicture(r.Context(), userFrom(r.Context()), fh.Filename, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePicture(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Accounts.DeleteProfilePicture(r.Context(), userFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxUploadBody) {
		return
	}
	f, fh, err := formFile(r, "resume")
	if err != nil || f == nil {
		badRequest(w, "resume file is required")
		return
	}
	defer f.Close()

	p, err := s.svc.Accounts.UploadResume(r.Context(), userFrom(r.Context()), fh.Filename, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type passwordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	PasswordConfirm string `json:"new_password_confirm"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.Accounts.ChangePassword(r.Context(), userFrom(r.Context()), req.OldPassword, req.NewPassword, req.PasswordConfirm); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	ns, err := s.svc.Accounts.GetNotificationSettings(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *Server) handleUpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var ns db.NotificationSettings
	if !decodeJSON(w, r, &ns) {
		return
	}
	out, err := s.svc.Accounts.UpdateNotificationSettings(r.Context(), userFrom(r.Context()), &ns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleContactAdmin(w http.ResponseWriter, r *http.Request) {
	room, err := s.svc.Accounts.ContactAdmin(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list, err := s.svc.Accounts.ListNotifications(r.Context(), userFrom(r.Context()), unread)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*db.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.Accounts.MarkNotificationRead(r.Context(), userFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
