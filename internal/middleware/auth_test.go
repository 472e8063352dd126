package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAuthMiddlewareDisabledWithoutPassword(t *testing.T) {
	h := AuthMiddleware(NewSession(""), okHandler())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/gallery", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	h := AuthMiddleware(NewSession("secret"), okHandler())

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/gallery", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareAcceptsSessionCookie(t *testing.T) {
	session := NewSession("secret")
	h := AuthMiddleware(session, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: session.Token()})
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "true"})
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code, "a guessed value is not a session")
}

func TestSessionCheck(t *testing.T) {
	session := NewSession("secret")
	assert.True(t, session.Check("secret"))
	assert.False(t, session.Check("Secret"))
	assert.False(t, session.Check(""))
}
