// Package flow implements the conversational flows of linerelay: the
// persona-based reply generator and the multi-step reservation dialogue.
package flow

import (
	"log/slog"
	"sync"

	"github.com/hrlighting/linerelay/internal/models"
)

// SessionStore holds per-user reservation sessions. Implementations must
// guarantee at most one in-flight mutation per user id, so two rapid
// messages from the same user cannot race, while different users proceed
// independently.
type SessionStore interface {
	// Mutate runs fn under the user's lock with the current session; the
	// (possibly modified) session fn returns is stored back.
	Mutate(userID string, fn func(s models.ReservationSession) models.ReservationSession)

	// Peek returns a copy of the user's current session.
	Peek(userID string) models.ReservationSession

	// Reset discards the user's session.
	Reset(userID string)
}

// InMemorySessionStore is the process-memory session store. Sessions have
// no TTL and are lost on restart.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.ReservationSession
	locks    map[string]*sync.Mutex
}

var _ SessionStore = (*InMemorySessionStore)(nil)

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]models.ReservationSession),
		locks:    make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user mutex, creating it on first use.
func (st *InMemorySessionStore) userLock(userID string) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[userID] = l
	}
	return l
}

// Mutate applies fn to the user's session under the per-user lock.
func (st *InMemorySessionStore) Mutate(userID string, fn func(s models.ReservationSession) models.ReservationSession) {
	l := st.userLock(userID)
	l.Lock()
	defer l.Unlock()

	st.mu.Lock()
	current := st.sessions[userID]
	st.mu.Unlock()

	updated := fn(current)

	st.mu.Lock()
	st.sessions[userID] = updated
	st.mu.Unlock()
}

// Peek returns a copy of the user's current session.
func (st *InMemorySessionStore) Peek(userID string) models.ReservationSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[userID]
}

// Reset discards the user's session.
func (st *InMemorySessionStore) Reset(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
	slog.Debug("SessionStore reset", "user_id", userID)
}
