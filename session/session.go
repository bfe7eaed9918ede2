// Package session provides per-visitor state that survives across
// requests: the cart, the CSRF token, the authenticated user, and
// flash messages. A session is created on first visit, rehydrated per
// request from a signed cookie, and persisted after handling.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the mutable per-visitor state for one request. Handlers
// and middleware read and write it through typed accessors; the
// manager persists it after the request completes.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	values map[string]any
	isNew  bool
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
		values:    make(map[string]any),
		isNew:     true,
	}
}

// IsNew reports whether the session was created for this request.
func (s *Session) IsNew() bool { return s.isNew }

// Get retrieves a stored value.
func (s *Session) Get(key string) any { return s.values[key] }

// Set stores a value.
func (s *Session) Set(key string, val any) { s.values[key] = val }

// Delete removes a value.
func (s *Session) Delete(key string) { delete(s.values, key) }

// UserID returns the authenticated user's id, or "" for guests.
func (s *Session) UserID() string {
	id, _ := s.values["user_id"].(string)
	return id
}

// SetUserID marks the session authenticated.
func (s *Session) SetUserID(id string) { s.values["user_id"] = id }

// ClearUserID logs the visitor out.
func (s *Session) ClearUserID() { delete(s.values, "user_id") }

// LoggedIn reports whether the session carries an authenticated user.
func (s *Session) LoggedIn() bool { return s.UserID() != "" }

// CSRFToken returns the session's CSRF token, minting one on first
// use.
func (s *Session) CSRFToken() string {
	if tok, ok := s.values["csrf_token"].(string); ok && tok != "" {
		return tok
	}
	tok := uuid.NewString()
	s.values["csrf_token"] = tok
	return tok
}

// Flash stores a one-shot message under a category ("success",
// "error").
func (s *Session) Flash(category, message string) {
	s.values["flash_"+category] = message
}

// PopFlash returns and clears the flash message for a category.
func (s *Session) PopFlash(category string) string {
	key := "flash_" + category
	msg, _ := s.values[key].(string)
	delete(s.values, key)
	return msg
}
