package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Connection pool configuration constants
const (
	// DefaultMaxOpenConns is the maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the maximum number of idle connections.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the maximum time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS activity_journal (
	event_id       TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresJournal is a PostgreSQL-backed activity journal.
type PostgresJournal struct {
	db *sql.DB
}

var _ Journal = (*PostgresJournal)(nil)

// NewPostgresJournal opens (and migrates) a Postgres journal.
func NewPostgresJournal(opts ...Option) (*PostgresJournal, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres journal DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresJournal failed to open database", "error", err)
		return nil, fmt.Errorf("open postgres journal: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres journal: %w", err)
	}
	slog.Debug("PostgresJournal opened")
	return &PostgresJournal{db: db}, nil
}

// Close closes the underlying database.
func (j *PostgresJournal) Close() error {
	return j.db.Close()
}

func (j *PostgresJournal) Record(eventID, participantID string) (bool, error) {
	res, err := j.db.Exec(
		`INSERT INTO activity_journal (event_id, participant_id) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`,
		eventID, participantID,
	)
	if err != nil {
		return false, fmt.Errorf("journal record failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("journal record failed: %w", err)
	}
	return n > 0, nil
}

func (j *PostgresJournal) Seen(eventID string) (bool, error) {
	var id string
	err := j.db.QueryRow(`SELECT event_id FROM activity_journal WHERE event_id = $1`, eventID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("journal check failed: %w", err)
	}
	return true, nil
}
