package web

import (
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"uismith/internal/store"
)

const (
	sessionName = "uismith_session"
	sessionKey  = "userId"
)

func NewSessionStore(secret string) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) signInSession(w http.ResponseWriter, r *http.Request, userID string) error {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values[sessionKey] = userID
	return session.Save(r, w)
}

func (h *Handlers) signOutSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := h.sessions.Get(r, sessionName)
	delete(session.Values, sessionKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// currentUser resolves the session to a stored user. Stale sessions (user
// deleted) read as signed out.
func (h *Handlers) currentUser(r *http.Request) (store.User, bool) {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return store.User{}, false
	}
	id, ok := session.Values[sessionKey].(string)
	if !ok || id == "" {
		return store.User{}, false
	}
	u, err := h.repo.UserByID(r.Context(), id)
	if err != nil {
		return store.User{}, false
	}
	return u, true
}
