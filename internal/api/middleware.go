package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bazuu/investorconnect/internal/db"
)

type ctxKey struct{}

func withUser(ctx context.Context, u *db.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// userFrom returns the authenticated user, or nil for anonymous requests.
func userFrom(ctx context.Context) *db.User {
	u, _ := ctx.Value(ctxKey{}).(*db.User)
	return u
}

// bearerToken reads the session token from the Authorization header. The
// token query parameter is accepted for websocket handshakes, which cannot
// set headers from a browser.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// authed requires a valid session. Authenticate rejects inactive accounts,
// lifts expired suspensions and rejects suspended users.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication required."})
			return
		}
		u, err := s.svc.Accounts.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), u)))
	}
}

// optional attaches the user when a valid session is presented and serves
// the request anonymously otherwise.
func (s *Server) optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if u, err := s.svc.Accounts.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(withUser(r.Context(), u))
			}
		}
		next(w, r)
	}
}

// staff requires an authenticated administrator.
func (s *Server) staff(next http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		if !userFrom(r.Context()).IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "Administrator access required."})
			return
		}
		next(w, r)
	})
}
