package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const CookieName = "authenticated"

// Session holds the dashboard password and the token handed out on login.
// The token changes on every start, so a restart logs everyone out.
type Session struct {
	password string
	token    string
}

func NewSession(password string) *Session {
	return &Session{password: password, token: uuid.NewString()}
}

// Enabled reports whether a password is configured.
func (s *Session) Enabled() bool {
	return s.password != ""
}

func (s *Session) Check(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func (s *Session) Token() string {
	return s.token
}

// Valid reports whether r carries the current session cookie.
func (s *Session) Valid(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(s.token)) == 1
}

func public(path string) bool {
	return path == "/login" ||
		path == "/auth/login" ||
		path == "/healthz" ||
		strings.HasPrefix(path, "/static/")
}

// AuthMiddleware lets through only requests with a valid session cookie.
// API and websocket calls get 401, pages are redirected to /login.
func AuthMiddleware(session *Session, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.Enabled() || public(r.URL.Path) || session.Valid(r) {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/") ||
			r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
			r.Header.Get("Content-Type") == "application/json" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}
