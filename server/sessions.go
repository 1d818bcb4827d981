package main

import (
	"strings"
	"sync"
)

// Session is the per-connection authentication state. Username is empty
// until SignIn succeeds.
type Session struct {
	ID       string
	Username string
}

// SessionTable is the connection registry. It is owned by the accept loop
// and shared by every connection goroutine, so all access goes through the
// mutex. The table enforces the single-login rule: a username may be bound
// to at most one live session at a time, compared case-insensitively.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Add registers a new unauthenticated session for a connection.
func (t *SessionTable) Add(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = &Session{ID: id}
}

// Lookup returns the live session for a connection, if any.
func (t *SessionTable) Lookup(id string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Username returns the authenticated username of a connection, which is
// empty while the session is anonymous.
func (t *SessionTable) Username(id string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return "", false
	}
	return s.Username, true
}

// Bind authenticates a session. It fails when the username is already the
// authenticated username of another live session.
func (t *SessionTable) Bind(id, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	lower := strings.ToLower(username)
	for _, s := range t.sessions {
		if s.ID != id && strings.ToLower(s.Username) == lower {
			return false
		}
	}

	s, ok := t.sessions[id]
	if !ok {
		return false
	}
	s.Username = username
	return true
}

// Clear returns a session to the anonymous state (sign-out).
func (t *SessionTable) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		s.Username = ""
	}
}

// Drop removes a session entirely (disconnect). The username becomes free
// for a new sign-in immediately.
func (t *SessionTable) Drop(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}
