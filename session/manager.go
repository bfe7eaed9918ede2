package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/stallkit/stall/web"
)

// requestKey is where the middleware attaches the session on the
// request.
const requestKey = "session"

// Manager rehydrates sessions from a signed cookie and persists them
// after handling. The cookie value is "id.signature" where the
// signature is an HMAC-SHA256 over the id; a forged or tampered cookie
// simply yields a fresh session.
type Manager struct {
	store      Store
	cookieName string
	secret     []byte
	ttl        time.Duration
	secure     bool
}

// NewManager creates a session manager.
func NewManager(store Store, cookieName, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		secret:     []byte(secret),
		ttl:        ttl,
		secure:     secure,
	}
}

// FromRequest returns the session the middleware attached, or nil.
func FromRequest(req *web.Request) *Session {
	s, _ := req.Get(requestKey).(*Session)
	return s
}

// Handle implements web.Middleware: it loads or creates the visitor's
// session before the rest of the chain runs and persists it on the way
// out, attaching the cookie to whatever Response comes back, including
// short-circuit responses.
func (m *Manager) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	sess := m.load(req)
	req.Set(requestKey, sess)

	resp, err := next()
	if err != nil {
		return nil, err
	}

	wasNew := sess.IsNew()
	m.store.Save(sess)
	if wasNew && resp != nil {
		resp.WithCookie(m.cookie(sess.ID))
	}
	return resp, nil
}

// Peek loads the session a raw net/http request carries without
// creating one. Used by handlers mounted beside the dispatch pipeline,
// such as the websocket upgrade endpoint.
func (m *Manager) Peek(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, false
	}
	id, ok := m.verify(c.Value)
	if !ok {
		return nil, false
	}
	return m.store.Load(id)
}

func (m *Manager) load(req *web.Request) *Session {
	raw := req.Cookie(m.cookieName)
	if raw != "" {
		if id, ok := m.verify(raw); ok {
			if sess, found := m.store.Load(id); found {
				return sess
			}
		}
	}
	return newSession()
}

func (m *Manager) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    m.sign(id),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return id + "." + sig
}

func (m *Manager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id, sig := value[:i], value[i+1:]

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return "", false
	}
	return id, true
}
