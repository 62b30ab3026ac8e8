// Package store provides the local activity journal for linerelay.
//
// The journal records the deduplication key of every forwarded activity
// record so repeated webhook deliveries can be recognized locally. SQLite
// and PostgreSQL backends are provided, plus an in-memory journal for tests
// and endpoint-less deployments.
package store

import (
	"strings"
	"sync"
	"time"
)

// Journal is the interface for the local activity journal.
type Journal interface {
	// Record inserts a journal entry for an event id. Returns false if the
	// event was already recorded (duplicate).
	Record(eventID, participantID string) (bool, error)

	// Seen checks whether an event id has already been recorded.
	Seen(eventID string) (bool, error)
}

// Entry is one journal row.
type Entry struct {
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Opts holds configuration options for journal backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for journal backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database path.
func WithSQLiteDSN(path string) Option {
	return func(o *Opts) {
		o.DSN = path
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite".
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryJournal is a map-backed journal for tests and deployments without
// a database.
type InMemoryJournal struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Journal = (*InMemoryJournal)(nil)

// NewInMemoryJournal creates an empty in-memory journal.
func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{entries: make(map[string]Entry)}
}

// Record inserts an entry, returning false on duplicates.
func (j *InMemoryJournal) Record(eventID, participantID string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.entries[eventID]; exists {
		return false, nil
	}
	j.entries[eventID] = Entry{EventID: eventID, ParticipantID: participantID, RecordedAt: time.Now()}
	return true, nil
}

// Seen reports whether an event id has been recorded.
func (j *InMemoryJournal) Seen(eventID string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, exists := j.entries[eventID]
	return exists, nil
}
