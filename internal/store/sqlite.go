package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS activity_journal (
	event_id       TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL,
	recorded_at    TIMESTAMP NOT NULL
);
`

// SQLiteJournal is a SQLite-backed activity journal.
type SQLiteJournal struct {
	db *sql.DB
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens (and migrates) a SQLite journal at the configured path.
func NewSQLiteJournal(opts ...Option) (*SQLiteJournal, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite journal path not set")
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("SQLiteJournal failed to open database", "error", err, "path", cfg.DSN)
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite journal: %w", err)
	}
	slog.Debug("SQLiteJournal opened", "path", cfg.DSN)
	return &SQLiteJournal{db: db}, nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func (j *SQLiteJournal) Record(eventID, participantID string) (bool, error) {
	res, err := j.db.Exec(
		`INSERT OR IGNORE INTO activity_journal (event_id, participant_id, recorded_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
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

func (j *SQLiteJournal) Seen(eventID string) (bool, error) {
	var id string
	err := j.db.QueryRow(`SELECT event_id FROM activity_journal WHERE event_id = ?`, eventID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("journal check failed: %w", err)
	}
	return true, nil
}
