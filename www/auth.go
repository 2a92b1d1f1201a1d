package www

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "partsdesk_session"

// principal is the authenticated identity carried in the session cookie.
type principal struct {
	Username string
	Role     string
	PartyID  int64 // 0 when the role carries no party
}

type sessionStore struct {
	store *sessions.CookieStore
}

func newSessionStore(secret string) *sessionStore {
	var key []byte
	if secret != "" {
		key, _ = base64.StdEncoding.DecodeString(secret)
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionStore{store: cs}
}

func (s *sessionStore) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *sessionStore) getPrincipal(r *http.Request) (principal, bool) {
	sess := s.get(r)
	username, ok := sess.Values["username"].(string)
	if !ok || username == "" {
		return principal{}, false
	}
	role, _ := sess.Values["role"].(string)
	partyID, _ := sess.Values["party_id"].(int64)
	return principal{Username: username, Role: role, PartyID: partyID}, true
}

func (s *sessionStore) setPrincipal(w http.ResponseWriter, r *http.Request, p principal) {
	sess := s.get(r)
	sess.Values["username"] = p.Username
	sess.Values["role"] = p.Role
	sess.Values["party_id"] = p.PartyID
	sess.Save(r, w)
}

func (s *sessionStore) clear(w http.ResponseWriter, r *http.Request) {
	sess := s.get(r)
	delete(sess.Values, "username")
	delete(sess.Values, "role")
	delete(sess.Values, "party_id")
	sess.Options.MaxAge = -1
	sess.Save(r, w)
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
